package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trend bucket granularities accepted by the aggregator.
const (
	BucketDay   = "day"
	BucketWeek  = "week"
	BucketMonth = "month"
)

// FinancialMetrics is the portfolio-level dashboard snapshot.
type FinancialMetrics struct {
	TotalLoansOutstanding   decimal.Decimal `json:"total_loans_outstanding"`
	TotalPrincipalDisbursed decimal.Decimal `json:"total_principal_disbursed"`
	AverageLoanSize         decimal.Decimal `json:"average_loan_size"`
	DefaultRate             decimal.Decimal `json:"default_rate"`
	TotalPaymentsReceived   decimal.Decimal `json:"total_payments_received"`
	CollectionRate          decimal.Decimal `json:"collection_rate"`
	OverduePaymentsCount    int             `json:"overdue_payments_count"`
	OverduePaymentsAmount   decimal.Decimal `json:"overdue_payments_amount"`
	LoanCount               int             `json:"loan_count"`
	ComputedAt              time.Time       `json:"computed_at"`
}

// TrendBucket is one point in a payment trend series.
type TrendBucket struct {
	Bucket time.Time       `json:"bucket"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// StatusCount is one slice of a status distribution.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}
