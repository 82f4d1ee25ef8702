package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openlend/loan-engine/internal/amortization"
	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/internal/repository"
	engineErrors "github.com/openlend/loan-engine/pkg/errors"
	"github.com/openlend/loan-engine/tests/mocks"
)

func newLedgerFixture() (*LedgerService, *mocks.MockLoanRepository, *mocks.MockPaymentRepository) {
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockPaymentRepo := &mocks.MockPaymentRepository{}

	ledger := &LedgerService{
		UoW: &mocks.FakeUnitOfWork{Repos: repository.Repos{
			Applications: &mocks.MockApplicationRepository{},
			Loans:        mockLoanRepo,
			Payments:     mockPaymentRepo,
		}},
		LoanRepo:    mockLoanRepo,
		PaymentRepo: mockPaymentRepo,
	}
	return ledger, mockLoanRepo, mockPaymentRepo
}

// paymentsFromSchedule builds ledger rows the same way origination does.
func paymentsFromSchedule(loanID uuid.UUID, schedule *domain.Schedule) []*domain.Payment {
	return buildPayments(loanID, schedule, time.Now())
}

func TestRecordPayment_FirstOfSixty(t *testing.T) {
	principal := decimal.NewFromInt(500000)
	schedule, err := amortization.GenerateSchedule(
		principal, decimal.NewFromFloat(0.05), 60, domain.FrequencyMonthly,
		time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	loanID := uuid.New()
	loan := &domain.Loan{
		ID:              loanID,
		Status:          domain.LoanStatusActive,
		PrincipalAmount: principal,
		CurrentBalance:  principal,
		TotalPaid:       decimal.Zero,
	}
	payments := paymentsFromSchedule(loanID, schedule)
	first := payments[0]

	ledger, mockLoanRepo, mockPaymentRepo := newLedgerFixture()
	mockPaymentRepo.On("GetByID", mock.Anything, first.ID).Return(first, nil)
	mockPaymentRepo.On("Update", mock.Anything, first).Return(nil)
	mockLoanRepo.On("GetByID", mock.Anything, loanID).Return(loan, nil)
	mockPaymentRepo.On("GetByLoanID", mock.Anything, loanID).Return(payments, nil)
	mockLoanRepo.On("Update", mock.Anything, loan).Return(nil)

	paidDate := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	result, err := ledger.RecordPayment(context.Background(), first.ID, &domain.RecordPaymentRequest{
		AmountPaid: first.AmountDue,
		PaidDate:   &paidDate,
	})
	require.NoError(t, err)

	// Balance drops by exactly the principal component of payment #1.
	wantBalance := principal.Sub(first.PrincipalAmount)
	assert.True(t, result.Loan.CurrentBalance.Equal(wantBalance),
		"balance %s, want %s", result.Loan.CurrentBalance, wantBalance)
	assert.True(t, result.Loan.TotalPaid.Equal(first.AmountDue))
	assert.True(t, result.Loan.TotalInterestPaid.Equal(first.InterestAmount))
	assert.True(t, result.Loan.TotalPrincipalPaid.Equal(first.PrincipalAmount))

	// Next payment pointer advances to payment #2.
	require.NotNil(t, result.Loan.NextPaymentDate)
	assert.Equal(t, payments[1].DueDate, *result.Loan.NextPaymentDate)
	require.True(t, result.Loan.NextPaymentAmount.Valid)
	assert.True(t, result.Loan.NextPaymentAmount.Decimal.Equal(payments[1].AmountDue))

	assert.Equal(t, domain.PaymentStatusPaid, result.Payment.Status)
	require.NotNil(t, result.Payment.PaidDate)
	assert.Equal(t, paidDate, *result.Payment.PaidDate)
	assert.Equal(t, domain.LoanStatusActive, result.Loan.Status)

	mockLoanRepo.AssertExpectations(t)
	mockPaymentRepo.AssertExpectations(t)
}

func TestRecordPayment_LastPaymentPaysOffLoan(t *testing.T) {
	loanID := uuid.New()
	loan := &domain.Loan{
		ID:             loanID,
		Status:         domain.LoanStatusActive,
		CurrentBalance: decimal.NewFromFloat(100.50),
	}
	last := &domain.Payment{
		ID:              uuid.New(),
		LoanID:          loanID,
		PaymentNumber:   12,
		AmountDue:       decimal.NewFromFloat(101.00),
		PrincipalAmount: decimal.NewFromFloat(100.50),
		InterestAmount:  decimal.NewFromFloat(0.50),
		Status:          domain.PaymentStatusScheduled,
	}

	ledger, mockLoanRepo, mockPaymentRepo := newLedgerFixture()
	mockPaymentRepo.On("GetByID", mock.Anything, last.ID).Return(last, nil)
	mockPaymentRepo.On("Update", mock.Anything, last).Return(nil)
	mockLoanRepo.On("GetByID", mock.Anything, loanID).Return(loan, nil)
	mockPaymentRepo.On("GetByLoanID", mock.Anything, loanID).Return([]*domain.Payment{last}, nil)
	mockLoanRepo.On("Update", mock.Anything, loan).Return(nil)

	result, err := ledger.RecordPayment(context.Background(), last.ID, &domain.RecordPaymentRequest{
		AmountPaid: last.AmountDue,
	})
	require.NoError(t, err)

	assert.True(t, result.Loan.CurrentBalance.IsZero())
	assert.Equal(t, domain.LoanStatusPaidOff, result.Loan.Status)
	assert.Nil(t, result.Loan.NextPaymentDate)
	assert.False(t, result.Loan.NextPaymentAmount.Valid)
}

func TestRecordPayment_AlreadyPaid(t *testing.T) {
	paid := &domain.Payment{
		ID:     uuid.New(),
		Status: domain.PaymentStatusPaid,
	}

	ledger, mockLoanRepo, mockPaymentRepo := newLedgerFixture()
	mockPaymentRepo.On("GetByID", mock.Anything, paid.ID).Return(paid, nil)

	result, err := ledger.RecordPayment(context.Background(), paid.ID, &domain.RecordPaymentRequest{
		AmountPaid: decimal.NewFromInt(100),
	})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeDuplicateOperation, engineErrors.CodeOf(err))

	// The loan must remain untouched.
	mockLoanRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRecordPayment_NegativeAmount(t *testing.T) {
	ledger, _, mockPaymentRepo := newLedgerFixture()

	result, err := ledger.RecordPayment(context.Background(), uuid.New(), &domain.RecordPaymentRequest{
		AmountPaid: decimal.NewFromInt(-5),
	})
	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeValidation, engineErrors.CodeOf(err))

	mockPaymentRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRecordPayment_NotFound(t *testing.T) {
	ledger, _, mockPaymentRepo := newLedgerFixture()
	paymentID := uuid.New()
	mockPaymentRepo.On("GetByID", mock.Anything, paymentID).Return(nil, sql.ErrNoRows)

	_, err := ledger.RecordPayment(context.Background(), paymentID, &domain.RecordPaymentRequest{
		AmountPaid: decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeNotFound, engineErrors.CodeOf(err))
}

func TestPaymentsForLoan_MissingScheduleIsConsistencyError(t *testing.T) {
	ledger, mockLoanRepo, mockPaymentRepo := newLedgerFixture()
	loanID := uuid.New()
	mockLoanRepo.On("GetByID", mock.Anything, loanID).Return(&domain.Loan{ID: loanID}, nil)
	mockPaymentRepo.On("GetByLoanID", mock.Anything, loanID).Return([]*domain.Payment{}, nil)

	_, err := ledger.PaymentsForLoan(context.Background(), loanID)
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeConsistency, engineErrors.CodeOf(err))
}

func TestRematerializeSchedule_RestoresMissingPayments(t *testing.T) {
	loanID := uuid.New()
	loan := &domain.Loan{
		ID:               loanID,
		PrincipalAmount:  decimal.NewFromInt(12000),
		AnnualRate:       decimal.NewFromFloat(0.06),
		TermMonths:       12,
		PaymentFrequency: domain.FrequencyMonthly,
		StartDate:        time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Status:           domain.LoanStatusPending,
	}

	ledger, mockLoanRepo, mockPaymentRepo := newLedgerFixture()
	mockLoanRepo.On("GetByID", mock.Anything, loanID).Return(loan, nil)
	mockPaymentRepo.On("CountByLoanID", mock.Anything, loanID).Return(0, nil)
	mockPaymentRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(payments []*domain.Payment) bool {
		return len(payments) == 12 && payments[0].PaymentNumber == 1 && payments[11].PaymentNumber == 12
	})).Return(nil)
	mockLoanRepo.On("Update", mock.Anything, loan).Return(nil)

	payments, err := ledger.RematerializeSchedule(context.Background(), loanID)
	require.NoError(t, err)
	assert.Len(t, payments, 12)
	require.NotNil(t, loan.NextPaymentDate)
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), *loan.NextPaymentDate)
	assert.Len(t, []domain.ScheduleEntry(loan.Schedule), 12)
}

func TestRematerializeSchedule_AlreadyMaterialized(t *testing.T) {
	loanID := uuid.New()
	ledger, mockLoanRepo, mockPaymentRepo := newLedgerFixture()
	mockLoanRepo.On("GetByID", mock.Anything, loanID).Return(&domain.Loan{ID: loanID}, nil)
	mockPaymentRepo.On("CountByLoanID", mock.Anything, loanID).Return(24, nil)

	_, err := ledger.RematerializeSchedule(context.Background(), loanID)
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeDuplicateOperation, engineErrors.CodeOf(err))
}

func TestMaterialize_CreatesScheduledRows(t *testing.T) {
	schedule, err := amortization.GenerateSchedule(
		decimal.NewFromInt(9000), decimal.Zero, 9, domain.FrequencyMonthly,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	loanID := uuid.New()
	ledger, _, mockPaymentRepo := newLedgerFixture()
	mockPaymentRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)

	payments, err := ledger.Materialize(context.Background(), loanID, schedule)
	require.NoError(t, err)
	require.Len(t, payments, 9)

	for i, payment := range payments {
		assert.Equal(t, i+1, payment.PaymentNumber)
		assert.Equal(t, loanID, payment.LoanID)
		assert.Equal(t, domain.PaymentStatusScheduled, payment.Status)
		assert.True(t, payment.AmountPaid.IsZero())
		assert.Nil(t, payment.PaidDate)
	}
}
