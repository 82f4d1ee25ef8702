package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ApplicationStatusDraft              = "draft"
	ApplicationStatusSubmitted          = "submitted"
	ApplicationStatusUnderReview        = "under_review"
	ApplicationStatusDocumentCollection = "document_collection"
	ApplicationStatusApproved           = "approved"
	ApplicationStatusRejected           = "rejected"
	ApplicationStatusFunded             = "funded"
	ApplicationStatusClosed             = "closed"
	ApplicationStatusCancelled          = "cancelled"
)

// Application represents a prospective borrower's request. Applications are
// never deleted; terminal statuses are funded, rejected, closed and cancelled.
type Application struct {
	ID                uuid.UUID           `json:"id" db:"id"`
	ApplicationNumber string              `json:"application_number" db:"application_number"`
	ApplicantID       uuid.UUID           `json:"applicant_id" db:"applicant_id"`
	Status            string              `json:"status" db:"status"`
	RequestedAmount   decimal.NullDecimal `json:"requested_amount" db:"requested_amount"`
	AnnualIncome      decimal.NullDecimal `json:"annual_income" db:"annual_income"`
	NetWorth          decimal.NullDecimal `json:"net_worth" db:"net_worth"`
	TaxBracket        *string             `json:"tax_bracket" db:"tax_bracket"`
	RiskTolerance     *string             `json:"risk_tolerance" db:"risk_tolerance"`

	// One timestamp per status reached, stamped on first arrival only.
	SubmittedAt *time.Time `json:"submitted_at" db:"submitted_at"`
	ReviewedAt  *time.Time `json:"reviewed_at" db:"reviewed_at"`
	ApprovedAt  *time.Time `json:"approved_at" db:"approved_at"`
	RejectedAt  *time.Time `json:"rejected_at" db:"rejected_at"`
	FundedAt    *time.Time `json:"funded_at" db:"funded_at"`
	ClosedAt    *time.Time `json:"closed_at" db:"closed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ValidApplicationStatus reports whether s is a known application status.
func ValidApplicationStatus(s string) bool {
	switch s {
	case ApplicationStatusDraft, ApplicationStatusSubmitted, ApplicationStatusUnderReview,
		ApplicationStatusDocumentCollection, ApplicationStatusApproved, ApplicationStatusRejected,
		ApplicationStatusFunded, ApplicationStatusClosed, ApplicationStatusCancelled:
		return true
	}
	return false
}

type CreateApplicationRequest struct {
	ApplicantID     string              `json:"applicant_id" validate:"required,uuid4"`
	RequestedAmount decimal.NullDecimal `json:"requested_amount"`
	AnnualIncome    decimal.NullDecimal `json:"annual_income"`
	NetWorth        decimal.NullDecimal `json:"net_worth"`
	TaxBracket      *string             `json:"tax_bracket"`
	RiskTolerance   *string             `json:"risk_tolerance"`
}

type ApplyStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
