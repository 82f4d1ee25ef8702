package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusPending   = "pending"
	LoanStatusActive    = "active"
	LoanStatusPaidOff   = "paid_off"
	LoanStatusDefaulted = "defaulted"
	LoanStatusCancelled = "cancelled"
	LoanStatusClosed    = "closed"
)

// Loan is a funded credit instrument originated from exactly one application.
// Terms are immutable after creation; running state is mutated only by the
// payment ledger.
type Loan struct {
	ID            uuid.UUID `json:"id" db:"id"`
	LoanNumber    string    `json:"loan_number" db:"loan_number"`
	ApplicationID uuid.UUID `json:"application_id" db:"application_id"`
	ApplicantID   uuid.UUID `json:"applicant_id" db:"applicant_id"`

	// Terms.
	PrincipalAmount  decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	AnnualRate       decimal.Decimal `json:"annual_rate" db:"annual_rate"`
	TermMonths       int             `json:"term_months" db:"term_months"`
	PaymentFrequency string          `json:"payment_frequency" db:"payment_frequency"`
	StartDate        time.Time       `json:"start_date" db:"start_date"`
	MaturityDate     time.Time       `json:"maturity_date" db:"maturity_date"`

	// Running state.
	Status             string              `json:"status" db:"status"`
	CurrentBalance     decimal.Decimal     `json:"current_balance" db:"current_balance"`
	TotalPaid          decimal.Decimal     `json:"total_paid" db:"total_paid"`
	TotalInterestPaid  decimal.Decimal     `json:"total_interest_paid" db:"total_interest_paid"`
	TotalPrincipalPaid decimal.Decimal     `json:"total_principal_paid" db:"total_principal_paid"`
	NextPaymentDate    *time.Time          `json:"next_payment_date" db:"next_payment_date"`
	NextPaymentAmount  decimal.NullDecimal `json:"next_payment_amount" db:"next_payment_amount"`
	LastPaymentDate    *time.Time          `json:"last_payment_date" db:"last_payment_date"`
	LastPaymentAmount  decimal.NullDecimal `json:"last_payment_amount" db:"last_payment_amount"`

	AssignedDepartments pq.StringArray  `json:"assigned_departments" db:"assigned_departments"`
	AssignedStaff       pq.StringArray  `json:"assigned_staff" db:"assigned_staff"`
	Notes               string          `json:"notes" db:"notes"`
	Schedule            ScheduleSummary `json:"schedule" db:"schedule"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	ApplicationID         string          `json:"application_id" validate:"required,uuid4"`
	ApplicantID           string          `json:"applicant_id" validate:"required,uuid4"`
	Principal             decimal.Decimal `json:"principal"`
	AnnualRate            decimal.Decimal `json:"annual_rate"`
	TermMonths            int             `json:"term_months"`
	Frequency             string          `json:"frequency" validate:"required"`
	AssignedDepartments   []string        `json:"assigned_departments"`
	AssignedStaff         []string        `json:"assigned_staff"`
	Notes                 string          `json:"notes"`
	MarkApplicationFunded bool            `json:"mark_application_funded"`
}

type CreateLoanResponse struct {
	Loan     *Loan      `json:"loan"`
	Payments []*Payment `json:"payments"`
}

type LoanPaymentsResponse struct {
	LoanNumber string     `json:"loan_number"`
	Payments   []*Payment `json:"payments"`
}
