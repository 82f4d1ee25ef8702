package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusScheduled = "scheduled"
	PaymentStatusPaid      = "paid"
	PaymentStatusOverdue   = "overdue"
	PaymentStatusMissed    = "missed"
	PaymentStatusCancelled = "cancelled"
)

// Payment is one scheduled obligation within a loan's amortization schedule.
// Payment numbers form the contiguous range 1..N per loan.
type Payment struct {
	ID            uuid.UUID `json:"id" db:"id"`
	LoanID        uuid.UUID `json:"loan_id" db:"loan_id"`
	PaymentNumber int       `json:"payment_number" db:"payment_number"`

	ScheduledDate time.Time  `json:"scheduled_date" db:"scheduled_date"`
	DueDate       time.Time  `json:"due_date" db:"due_date"`
	PaidDate      *time.Time `json:"paid_date" db:"paid_date"`

	AmountDue       decimal.Decimal `json:"amount_due" db:"amount_due"`
	PrincipalAmount decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	InterestAmount  decimal.Decimal `json:"interest_amount" db:"interest_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	LateFee         decimal.Decimal `json:"late_fee" db:"late_fee"`
	PenaltyAmount   decimal.Decimal `json:"penalty_amount" db:"penalty_amount"`

	Status    string  `json:"status" db:"status"`
	Method    *string `json:"method" db:"method"`
	Reference *string `json:"reference" db:"reference"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsOverdue reports whether the payment counts as overdue at the given
// instant. Overdue is a query-time view: the stored status is never flipped,
// so a payment can read pending/scheduled in the database while every report
// treats it as overdue.
func (p *Payment) IsOverdue(now time.Time) bool {
	if p.Status != PaymentStatusPending && p.Status != PaymentStatusScheduled {
		return false
	}
	return p.DueDate.Before(now)
}

type RecordPaymentRequest struct {
	AmountPaid decimal.Decimal `json:"amount_paid"`
	PaidDate   *time.Time      `json:"paid_date"`
	Method     *string         `json:"method"`
	Reference  *string         `json:"reference"`
}

// RecordPaymentResult carries the updated payment together with the loan
// state after the ledger applied the balance delta.
type RecordPaymentResult struct {
	Payment *Payment `json:"payment"`
	Loan    *Loan    `json:"loan"`
}
