package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment frequencies supported by the amortization engine.
const (
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyAnnually  = "annually"
)

// MonthsPerPeriod returns the number of calendar months between payments for
// a frequency, or 0 if the frequency is unknown.
func MonthsPerPeriod(frequency string) int {
	switch frequency {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencyAnnually:
		return 12
	}
	return 0
}

// PeriodsPerYear returns the number of payment periods per year for a
// frequency, or 0 if the frequency is unknown.
func PeriodsPerYear(frequency string) int {
	switch frequency {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencyAnnually:
		return 1
	}
	return 0
}

// ScheduleEntry is one obligation in an amortization schedule.
// AmountDue = PrincipalAmount + InterestAmount.
type ScheduleEntry struct {
	PaymentNumber   int             `json:"payment_number"`
	ScheduledDate   time.Time       `json:"scheduled_date"`
	DueDate         time.Time       `json:"due_date"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestAmount  decimal.Decimal `json:"interest_amount"`
}

// Schedule is the full amortization schedule for a loan plus summary totals.
type Schedule struct {
	Entries       []ScheduleEntry `json:"entries"`
	PaymentAmount decimal.Decimal `json:"payment_amount"`
	TotalInterest decimal.Decimal `json:"total_interest"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
}

// ScheduleSummary is the immutable copy of the schedule persisted on the loan
// row (JSONB) for audit and redisplay without recomputation.
type ScheduleSummary []ScheduleEntry

func (s ScheduleSummary) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *ScheduleSummary) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("cannot scan %T into ScheduleSummary", src)
}
