package amortization

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/pkg/dates"
	engineErrors "github.com/openlend/loan-engine/pkg/errors"
)

var one = decimal.NewFromInt(1)

// GenerateSchedule computes the level-payment amortization schedule for a
// loan. It is pure and deterministic: safe to call repeatedly to verify a
// persisted schedule.
//
// The level payment is A = P*i*(1+i)^N / ((1+i)^N - 1), or P/N when the
// periodic rate is zero. Interest for each period is the running balance
// times the periodic rate, rounded to the minor currency unit; the final
// period's principal component is forced to the remaining balance so the
// schedule zeroes out exactly, absorbing rounding drift.
func GenerateSchedule(principal, annualRate decimal.Decimal, termMonths int, frequency string, startDate time.Time) (*domain.Schedule, error) {
	if !principal.IsPositive() {
		return nil, engineErrors.WrapValidation("principal", "must be greater than zero")
	}
	if annualRate.IsNegative() || annualRate.GreaterThanOrEqual(one) {
		return nil, engineErrors.WrapValidation("annual_rate", "must be in [0, 1)")
	}
	if termMonths <= 0 {
		return nil, engineErrors.WrapValidation("term_months", "must be greater than zero")
	}

	monthsPerPeriod := domain.MonthsPerPeriod(frequency)
	if monthsPerPeriod == 0 {
		return nil, engineErrors.WrapValidation("frequency", "must be monthly, quarterly or annually")
	}
	if termMonths%monthsPerPeriod != 0 {
		return nil, engineErrors.WrapValidation("term_months", "must be divisible by the payment period length")
	}

	numPayments := termMonths / monthsPerPeriod
	periodicRate := annualRate.Div(decimal.NewFromInt(int64(domain.PeriodsPerYear(frequency))))
	payment := levelPayment(principal, periodicRate, numPayments)

	entries := make([]domain.ScheduleEntry, 0, numPayments)
	balance := principal
	totalInterest := decimal.Zero

	for k := 1; k <= numPayments; k++ {
		interest := balance.Mul(periodicRate).Round(2)
		principalPart := payment.Sub(interest)
		if k == numPayments {
			// Absorb rounding drift into the last payment.
			principalPart = balance
		}
		balance = balance.Sub(principalPart)

		dueDate := dates.AddMonths(startDate, k*monthsPerPeriod)
		entries = append(entries, domain.ScheduleEntry{
			PaymentNumber:   k,
			ScheduledDate:   dueDate,
			DueDate:         dueDate,
			AmountDue:       principalPart.Add(interest),
			PrincipalAmount: principalPart,
			InterestAmount:  interest,
		})
		totalInterest = totalInterest.Add(interest)
	}

	return &domain.Schedule{
		Entries:       entries,
		PaymentAmount: payment,
		TotalInterest: totalInterest,
		TotalPaid:     principal.Add(totalInterest),
	}, nil
}

func levelPayment(principal, periodicRate decimal.Decimal, numPayments int) decimal.Decimal {
	n := decimal.NewFromInt(int64(numPayments))
	if periodicRate.IsZero() {
		return principal.DivRound(n, 2)
	}

	compound := one.Add(periodicRate).Pow(n)
	numerator := principal.Mul(periodicRate).Mul(compound)
	return numerator.DivRound(compound.Sub(one), 2)
}
