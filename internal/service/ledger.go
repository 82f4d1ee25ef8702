package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openlend/loan-engine/internal/amortization"
	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/internal/repository"
	engineErrors "github.com/openlend/loan-engine/pkg/errors"
	"github.com/openlend/loan-engine/pkg/metrics"
)

// LedgerService materializes payment schedules and records payments,
// keeping the owning loan's running balances in step.
type LedgerService struct {
	UoW         repository.UnitOfWork
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	Collector   *metrics.Collector
	Log         *zap.Logger
}

func NewLedgerService(
	uow repository.UnitOfWork,
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	collector *metrics.Collector,
	log *zap.Logger,
) *LedgerService {
	return &LedgerService{
		UoW:         uow,
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		Collector:   collector,
		Log:         log,
	}
}

// buildPayments turns schedule entries into payment rows. Initial status is
// scheduled with nothing paid.
func buildPayments(loanID uuid.UUID, schedule *domain.Schedule, now time.Time) []*domain.Payment {
	payments := make([]*domain.Payment, 0, len(schedule.Entries))
	for _, entry := range schedule.Entries {
		payments = append(payments, &domain.Payment{
			ID:              uuid.New(),
			LoanID:          loanID,
			PaymentNumber:   entry.PaymentNumber,
			ScheduledDate:   entry.ScheduledDate,
			DueDate:         entry.DueDate,
			AmountDue:       entry.AmountDue,
			PrincipalAmount: entry.PrincipalAmount,
			InterestAmount:  entry.InterestAmount,
			AmountPaid:      decimal.Zero,
			LateFee:         decimal.Zero,
			PenaltyAmount:   decimal.Zero,
			Status:          domain.PaymentStatusScheduled,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
	return payments
}

func (s *LedgerService) materialize(ctx context.Context, repo repository.PaymentRepository, loanID uuid.UUID, schedule *domain.Schedule) ([]*domain.Payment, error) {
	payments := buildPayments(loanID, schedule, time.Now())
	if err := repo.CreateBatch(ctx, payments); err != nil {
		return nil, engineErrors.WrapStore("materialize schedule", loanID.String(), err)
	}
	return payments, nil
}

// Materialize creates one payment row per schedule entry for a loan.
func (s *LedgerService) Materialize(ctx context.Context, loanID uuid.UUID, schedule *domain.Schedule) ([]*domain.Payment, error) {
	return s.materialize(ctx, s.PaymentRepo, loanID, schedule)
}

// RecordPayment marks a payment as paid and applies the balance delta to the
// owning loan: current balance drops by the payment's principal component,
// totals accumulate, and the next-payment pointer advances to the earliest
// remaining unpaid obligation. A loan whose last obligation is settled flips
// to paid_off.
func (s *LedgerService) RecordPayment(ctx context.Context, paymentID uuid.UUID, request *domain.RecordPaymentRequest) (*domain.RecordPaymentResult, error) {
	if request.AmountPaid.IsNegative() {
		return nil, engineErrors.WrapValidation("amount_paid", "must not be negative")
	}

	var result *domain.RecordPaymentResult
	err := s.UoW.WithinTx(ctx, func(r repository.Repos) error {
		payment, err := r.Payments.GetByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return engineErrors.WrapNotFound("payment", paymentID.String())
			}
			return engineErrors.WrapStore("get payment", paymentID.String(), err)
		}

		switch payment.Status {
		case domain.PaymentStatusPaid:
			return engineErrors.WrapDuplicatePayment(paymentID.String())
		case domain.PaymentStatusCancelled:
			return engineErrors.WrapValidation("payment", "cannot record a cancelled payment")
		}

		paidDate := time.Now()
		if request.PaidDate != nil {
			paidDate = *request.PaidDate
		}

		payment.Status = domain.PaymentStatusPaid
		payment.AmountPaid = request.AmountPaid
		payment.PaidDate = &paidDate
		payment.Method = request.Method
		payment.Reference = request.Reference

		if err := r.Payments.Update(ctx, payment); err != nil {
			return engineErrors.WrapStore("update payment", paymentID.String(), err)
		}

		loan, err := r.Loans.GetByID(ctx, payment.LoanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return engineErrors.WrapNotFound("loan", payment.LoanID.String())
			}
			return engineErrors.WrapStore("get loan", payment.LoanID.String(), err)
		}

		loan.CurrentBalance = loan.CurrentBalance.Sub(payment.PrincipalAmount)
		loan.TotalPaid = loan.TotalPaid.Add(request.AmountPaid)
		loan.TotalInterestPaid = loan.TotalInterestPaid.Add(payment.InterestAmount)
		loan.TotalPrincipalPaid = loan.TotalPrincipalPaid.Add(payment.PrincipalAmount)
		loan.LastPaymentDate = &paidDate
		loan.LastPaymentAmount = decimal.NewNullDecimal(request.AmountPaid)

		remaining, err := r.Payments.GetByLoanID(ctx, loan.ID)
		if err != nil {
			return engineErrors.WrapStore("list payments", loan.ID.String(), err)
		}
		if next := nextOpenPayment(remaining); next != nil {
			loan.NextPaymentDate = &next.DueDate
			loan.NextPaymentAmount = decimal.NewNullDecimal(next.AmountDue)
		} else {
			// Nothing left to collect: the loan is paid off.
			loan.NextPaymentDate = nil
			loan.NextPaymentAmount = decimal.NullDecimal{}
			loan.Status = domain.LoanStatusPaidOff
		}

		if err := r.Loans.Update(ctx, loan); err != nil {
			return engineErrors.WrapStore("update loan", loan.ID.String(), err)
		}

		result = &domain.RecordPaymentResult{Payment: payment, Loan: loan}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Collector != nil {
		amount, _ := request.AmountPaid.Float64()
		s.Collector.PaymentRecorded(amount)
	}
	if s.Log != nil {
		s.Log.Info("payment recorded",
			zap.String("payment_id", paymentID.String()),
			zap.String("loan_id", result.Loan.ID.String()),
			zap.String("amount_paid", request.AmountPaid.String()),
		)
	}

	return result, nil
}

// nextOpenPayment returns the earliest payment still owed, skipping paid and
// cancelled rows. Payments arrive ordered by payment number.
func nextOpenPayment(payments []*domain.Payment) *domain.Payment {
	for _, p := range payments {
		if p.Status != domain.PaymentStatusPaid && p.Status != domain.PaymentStatusCancelled {
			return p
		}
	}
	return nil
}

// PaymentsForLoan returns a loan's payments. A loan persisted without any
// payment rows is a partially completed origination and surfaces as a
// consistency error so the caller can retry materialization instead of
// creating a duplicate loan.
func (s *LedgerService) PaymentsForLoan(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	if _, err := s.LoanRepo.GetByID(ctx, loanID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engineErrors.WrapNotFound("loan", loanID.String())
		}
		return nil, engineErrors.WrapStore("get loan", loanID.String(), err)
	}

	payments, err := s.PaymentRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, engineErrors.WrapStore("list payments", loanID.String(), err)
	}
	if len(payments) == 0 {
		return nil, engineErrors.WrapConsistency(loanID.String())
	}

	return payments, nil
}

// RematerializeSchedule regenerates and persists the payment rows for a loan
// that exists without them. The schedule is recomputed from the loan's
// immutable terms, so the result matches what origination would have written.
func (s *LedgerService) RematerializeSchedule(ctx context.Context, loanID uuid.UUID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := s.UoW.WithinTx(ctx, func(r repository.Repos) error {
		loan, err := r.Loans.GetByID(ctx, loanID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return engineErrors.WrapNotFound("loan", loanID.String())
			}
			return engineErrors.WrapStore("get loan", loanID.String(), err)
		}

		count, err := r.Payments.CountByLoanID(ctx, loanID)
		if err != nil {
			return engineErrors.WrapStore("count payments", loanID.String(), err)
		}
		if count > 0 {
			return engineErrors.NewEngineError(
				engineErrors.ErrCodeDuplicateOperation,
				"loan already has a materialized schedule",
				engineErrors.ErrDuplicateOperation,
			)
		}

		schedule, err := amortization.GenerateSchedule(
			loan.PrincipalAmount, loan.AnnualRate, loan.TermMonths, loan.PaymentFrequency, loan.StartDate)
		if err != nil {
			return err
		}

		payments, err = s.materialize(ctx, r.Payments, loanID, schedule)
		if err != nil {
			return err
		}

		first := schedule.Entries[0]
		loan.NextPaymentDate = &first.DueDate
		loan.NextPaymentAmount = decimal.NewNullDecimal(first.AmountDue)
		loan.Schedule = domain.ScheduleSummary(schedule.Entries)
		if err := r.Loans.Update(ctx, loan); err != nil {
			return engineErrors.WrapStore("update loan", loanID.String(), err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Log != nil {
		s.Log.Info("schedule rematerialized",
			zap.String("loan_id", loanID.String()),
			zap.Int("payments", len(payments)),
		)
	}

	return payments, nil
}
