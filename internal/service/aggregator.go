package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/internal/repository"
	"github.com/openlend/loan-engine/pkg/dates"
	engineErrors "github.com/openlend/loan-engine/pkg/errors"
	"github.com/openlend/loan-engine/pkg/metrics"
)

const financialMetricsCacheKey = "dashboard:financial_metrics"

var hundred = decimal.NewFromInt(100)

// AggregatorService computes read-only portfolio metrics over the full
// loan/payment population. It never mutates stored state; in particular
// overdue-ness is evaluated at query time against each payment's due date.
type AggregatorService struct {
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	Redis       *redis.Client
	CacheTTL    time.Duration
	Collector   *metrics.Collector
	Log         *zap.Logger
}

func NewAggregatorService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	redisClient *redis.Client,
	cacheTTL time.Duration,
	collector *metrics.Collector,
	log *zap.Logger,
) *AggregatorService {
	return &AggregatorService{
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		Redis:       redisClient,
		CacheTTL:    cacheTTL,
		Collector:   collector,
		Log:         log,
	}
}

// GetFinancialMetrics returns the portfolio snapshot, served from the redis
// cache when a fresh copy exists.
func (s *AggregatorService) GetFinancialMetrics(ctx context.Context) (*domain.FinancialMetrics, error) {
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, financialMetricsCacheKey).Bytes(); err == nil {
			var m domain.FinancialMetrics
			if err := json.Unmarshal(cached, &m); err == nil {
				return &m, nil
			}
		}
	}

	loans, err := s.LoanRepo.List(ctx)
	if err != nil {
		return nil, engineErrors.WrapStore("list loans", "loans", err)
	}
	payments, err := s.PaymentRepo.List(ctx)
	if err != nil {
		return nil, engineErrors.WrapStore("list payments", "payments", err)
	}

	now := time.Now()
	m := computeFinancialMetrics(loans, payments, now)

	if s.Collector != nil {
		outstanding, _ := m.TotalLoansOutstanding.Float64()
		s.Collector.SetOutstandingBalance(outstanding)
	}

	if s.Redis != nil {
		if encoded, err := json.Marshal(m); err == nil {
			if err := s.Redis.Set(ctx, financialMetricsCacheKey, encoded, s.CacheTTL).Err(); err != nil && s.Log != nil {
				s.Log.Warn("metrics cache write failed", zap.Error(err))
			}
		}
	}

	return m, nil
}

func computeFinancialMetrics(loans []*domain.Loan, payments []*domain.Payment, now time.Time) *domain.FinancialMetrics {
	m := &domain.FinancialMetrics{
		TotalLoansOutstanding:   decimal.Zero,
		TotalPrincipalDisbursed: decimal.Zero,
		AverageLoanSize:         decimal.Zero,
		DefaultRate:             decimal.Zero,
		TotalPaymentsReceived:   decimal.Zero,
		CollectionRate:          decimal.Zero,
		OverduePaymentsAmount:   decimal.Zero,
		LoanCount:               len(loans),
		ComputedAt:              now,
	}

	defaulted := 0
	for _, loan := range loans {
		m.TotalPrincipalDisbursed = m.TotalPrincipalDisbursed.Add(loan.PrincipalAmount)
		switch loan.Status {
		case domain.LoanStatusActive:
			m.TotalLoansOutstanding = m.TotalLoansOutstanding.Add(loan.CurrentBalance)
		case domain.LoanStatusDefaulted:
			defaulted++
		}
	}
	if len(loans) > 0 {
		count := decimal.NewFromInt(int64(len(loans)))
		m.AverageLoanSize = m.TotalPrincipalDisbursed.DivRound(count, 2)
		m.DefaultRate = decimal.NewFromInt(int64(defaulted)).Mul(hundred).DivRound(count, 2)
	}

	// The collection-rate denominator deliberately covers only obligations
	// already marked paid, not everything due to date. Dashboards have
	// always read it that way.
	paidDue := decimal.Zero
	for _, payment := range payments {
		if payment.Status == domain.PaymentStatusPaid {
			m.TotalPaymentsReceived = m.TotalPaymentsReceived.Add(payment.AmountPaid)
			paidDue = paidDue.Add(payment.AmountDue)
		}
		if payment.IsOverdue(now) {
			m.OverduePaymentsCount++
			m.OverduePaymentsAmount = m.OverduePaymentsAmount.Add(payment.AmountDue)
		}
	}
	if paidDue.IsPositive() {
		m.CollectionRate = m.TotalPaymentsReceived.Mul(hundred).DivRound(paidDue, 2)
	}

	return m
}

// GetPaymentTrends groups paid payments by due date into day, week or month
// buckets over the trailing rangeDays window.
func (s *AggregatorService) GetPaymentTrends(ctx context.Context, rangeDays int, bucket string) ([]domain.TrendBucket, error) {
	if rangeDays <= 0 {
		return nil, engineErrors.WrapValidation("range_days", "must be greater than zero")
	}
	truncate, err := bucketTruncator(bucket)
	if err != nil {
		return nil, err
	}

	payments, err := s.PaymentRepo.List(ctx)
	if err != nil {
		return nil, engineErrors.WrapStore("list payments", "payments", err)
	}

	now := time.Now()
	from := dates.StartOfDay(now).AddDate(0, 0, -rangeDays)

	grouped := make(map[time.Time]*domain.TrendBucket)
	for _, payment := range payments {
		if payment.Status != domain.PaymentStatusPaid {
			continue
		}
		if payment.DueDate.Before(from) || payment.DueDate.After(now) {
			continue
		}
		key := truncate(payment.DueDate)
		entry, ok := grouped[key]
		if !ok {
			entry = &domain.TrendBucket{Bucket: key, Amount: decimal.Zero}
			grouped[key] = entry
		}
		entry.Count++
		entry.Amount = entry.Amount.Add(payment.AmountPaid)
	}

	trends := make([]domain.TrendBucket, 0, len(grouped))
	for _, entry := range grouped {
		trends = append(trends, *entry)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Bucket.Before(trends[j].Bucket) })

	return trends, nil
}

func bucketTruncator(bucket string) (func(time.Time) time.Time, error) {
	switch bucket {
	case domain.BucketDay:
		return dates.StartOfDay, nil
	case domain.BucketWeek:
		return dates.StartOfWeek, nil
	case domain.BucketMonth:
		return dates.StartOfMonth, nil
	}
	return nil, engineErrors.WrapValidation("bucket", "must be day, week or month")
}

var loanStatusOrder = []string{
	domain.LoanStatusPending,
	domain.LoanStatusActive,
	domain.LoanStatusPaidOff,
	domain.LoanStatusDefaulted,
	domain.LoanStatusCancelled,
	domain.LoanStatusClosed,
}

// GetLoanStatusDistribution counts loans per stored status.
func (s *AggregatorService) GetLoanStatusDistribution(ctx context.Context) ([]domain.StatusCount, error) {
	loans, err := s.LoanRepo.List(ctx)
	if err != nil {
		return nil, engineErrors.WrapStore("list loans", "loans", err)
	}

	counts := make(map[string]int)
	for _, loan := range loans {
		counts[loan.Status]++
	}

	return orderedCounts(counts, loanStatusOrder), nil
}

var paymentStatusOrder = []string{
	domain.PaymentStatusPending,
	domain.PaymentStatusScheduled,
	domain.PaymentStatusPaid,
	domain.PaymentStatusOverdue,
	domain.PaymentStatusMissed,
	domain.PaymentStatusCancelled,
}

// GetPaymentStatusDistribution counts payments per status, with the derived
// overdue view applied: a pending/scheduled payment past its due date is
// reported as overdue even though its stored status is untouched.
func (s *AggregatorService) GetPaymentStatusDistribution(ctx context.Context) ([]domain.StatusCount, error) {
	payments, err := s.PaymentRepo.List(ctx)
	if err != nil {
		return nil, engineErrors.WrapStore("list payments", "payments", err)
	}

	now := time.Now()
	counts := make(map[string]int)
	for _, payment := range payments {
		status := payment.Status
		if payment.IsOverdue(now) {
			status = domain.PaymentStatusOverdue
		}
		counts[status]++
	}

	return orderedCounts(counts, paymentStatusOrder), nil
}

func orderedCounts(counts map[string]int, order []string) []domain.StatusCount {
	result := make([]domain.StatusCount, 0, len(counts))
	for _, status := range order {
		if n, ok := counts[status]; ok {
			result = append(result, domain.StatusCount{Status: status, Count: n})
		}
	}
	return result
}
