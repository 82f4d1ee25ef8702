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

	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/internal/repository"
	"github.com/openlend/loan-engine/pkg/dates"
	engineErrors "github.com/openlend/loan-engine/pkg/errors"
	"github.com/openlend/loan-engine/tests/mocks"
)

type originatorFixture struct {
	originator      *OriginatorService
	mockAppRepo     *mocks.MockApplicationRepository
	mockLoanRepo    *mocks.MockLoanRepository
	mockPaymentRepo *mocks.MockPaymentRepository
}

func newOriginatorFixture() *originatorFixture {
	mockAppRepo := &mocks.MockApplicationRepository{}
	mockLoanRepo := &mocks.MockLoanRepository{}
	mockPaymentRepo := &mocks.MockPaymentRepository{}

	uow := &mocks.FakeUnitOfWork{Repos: repository.Repos{
		Applications: mockAppRepo,
		Loans:        mockLoanRepo,
		Payments:     mockPaymentRepo,
	}}

	return &originatorFixture{
		originator: &OriginatorService{
			UoW:      uow,
			LoanRepo: mockLoanRepo,
			Ledger:   &LedgerService{UoW: uow, LoanRepo: mockLoanRepo, PaymentRepo: mockPaymentRepo},
		},
		mockAppRepo:     mockAppRepo,
		mockLoanRepo:    mockLoanRepo,
		mockPaymentRepo: mockPaymentRepo,
	}
}

func validCreateLoanRequest() *domain.CreateLoanRequest {
	return &domain.CreateLoanRequest{
		ApplicationID: uuid.New().String(),
		ApplicantID:   uuid.New().String(),
		Principal:     decimal.NewFromInt(500000),
		AnnualRate:    decimal.NewFromFloat(0.05),
		TermMonths:    60,
		Frequency:     domain.FrequencyMonthly,
	}
}

func TestCreateLoan_Success(t *testing.T) {
	f := newOriginatorFixture()
	request := validCreateLoanRequest()
	request.MarkApplicationFunded = true
	applicationID := uuid.MustParse(request.ApplicationID)

	application := &domain.Application{
		ID:     applicationID,
		Status: domain.ApplicationStatusApproved,
	}

	f.mockLoanRepo.On("GetByApplicationID", mock.Anything, applicationID).Return(nil, sql.ErrNoRows)
	f.mockAppRepo.On("GetByID", mock.Anything, applicationID).Return(application, nil)
	f.mockLoanRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Loan")).Return(nil)
	f.mockPaymentRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(payments []*domain.Payment) bool {
		return len(payments) == 60
	})).Return(nil)
	f.mockAppRepo.On("Update", mock.Anything, mock.MatchedBy(func(app *domain.Application) bool {
		return app.Status == domain.ApplicationStatusFunded && app.FundedAt != nil
	})).Return(nil)

	response, err := f.originator.CreateLoan(context.Background(), request)
	require.NoError(t, err)

	loan := response.Loan
	assert.Equal(t, domain.LoanStatusPending, loan.Status)
	assert.True(t, loan.CurrentBalance.Equal(request.Principal))
	assert.Equal(t, applicationID, loan.ApplicationID)
	assert.NotEmpty(t, loan.LoanNumber)
	assert.Len(t, response.Payments, 60)
	assert.Len(t, []domain.ScheduleEntry(loan.Schedule), 60)

	require.NotNil(t, loan.NextPaymentDate)
	assert.Equal(t, response.Payments[0].DueDate, *loan.NextPaymentDate)
	require.True(t, loan.NextPaymentAmount.Valid)
	assert.True(t, loan.NextPaymentAmount.Decimal.Equal(response.Payments[0].AmountDue))

	// Maturity lands the full term after the start date.
	assert.Equal(t, dates.AddMonths(loan.StartDate, 60), loan.MaturityDate)

	f.mockAppRepo.AssertExpectations(t)
	f.mockLoanRepo.AssertExpectations(t)
	f.mockPaymentRepo.AssertExpectations(t)
}

func TestCreateLoan_WithoutFundingLeavesApplicationAlone(t *testing.T) {
	f := newOriginatorFixture()
	request := validCreateLoanRequest()
	applicationID := uuid.MustParse(request.ApplicationID)

	f.mockLoanRepo.On("GetByApplicationID", mock.Anything, applicationID).Return(nil, sql.ErrNoRows)
	f.mockAppRepo.On("GetByID", mock.Anything, applicationID).
		Return(&domain.Application{ID: applicationID, Status: domain.ApplicationStatusApproved}, nil)
	f.mockLoanRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.mockPaymentRepo.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)

	_, err := f.originator.CreateLoan(context.Background(), request)
	require.NoError(t, err)

	f.mockAppRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCreateLoan_SecondLoanForApplicationRejected(t *testing.T) {
	f := newOriginatorFixture()
	request := validCreateLoanRequest()
	applicationID := uuid.MustParse(request.ApplicationID)

	f.mockLoanRepo.On("GetByApplicationID", mock.Anything, applicationID).
		Return(&domain.Loan{ID: uuid.New(), ApplicationID: applicationID}, nil)

	_, err := f.originator.CreateLoan(context.Background(), request)
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeLoanAlreadyExists, engineErrors.CodeOf(err))

	f.mockLoanRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.mockPaymentRepo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestCreateLoan_ApplicationNotFound(t *testing.T) {
	f := newOriginatorFixture()
	request := validCreateLoanRequest()
	applicationID := uuid.MustParse(request.ApplicationID)

	f.mockLoanRepo.On("GetByApplicationID", mock.Anything, applicationID).Return(nil, sql.ErrNoRows)
	f.mockAppRepo.On("GetByID", mock.Anything, applicationID).Return(nil, sql.ErrNoRows)

	_, err := f.originator.CreateLoan(context.Background(), request)
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeNotFound, engineErrors.CodeOf(err))
}

func TestCreateLoan_InvalidTerms(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.CreateLoanRequest)
	}{
		{"zero principal", func(r *domain.CreateLoanRequest) { r.Principal = decimal.Zero }},
		{"negative rate", func(r *domain.CreateLoanRequest) { r.AnnualRate = decimal.NewFromFloat(-0.01) }},
		{"zero term", func(r *domain.CreateLoanRequest) { r.TermMonths = 0 }},
		{"unknown frequency", func(r *domain.CreateLoanRequest) { r.Frequency = "weekly" }},
		{"malformed application id", func(r *domain.CreateLoanRequest) { r.ApplicationID = "not-a-uuid" }},
		{"malformed applicant id", func(r *domain.CreateLoanRequest) { r.ApplicantID = "not-a-uuid" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOriginatorFixture()
			request := validCreateLoanRequest()
			tt.mutate(request)

			_, err := f.originator.CreateLoan(context.Background(), request)
			require.Error(t, err)
			assert.Equal(t, engineErrors.ErrCodeValidation, engineErrors.CodeOf(err))
			f.mockLoanRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestActivateLoan(t *testing.T) {
	f := newOriginatorFixture()
	loanID := uuid.New()
	loan := &domain.Loan{ID: loanID, Status: domain.LoanStatusPending}

	f.mockLoanRepo.On("GetByID", mock.Anything, loanID).Return(loan, nil)
	f.mockLoanRepo.On("Update", mock.Anything, loan).Return(nil)

	activated, err := f.originator.ActivateLoan(context.Background(), loanID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, activated.Status)
}

func TestActivateLoan_OnlyPending(t *testing.T) {
	f := newOriginatorFixture()
	loanID := uuid.New()
	f.mockLoanRepo.On("GetByID", mock.Anything, loanID).
		Return(&domain.Loan{ID: loanID, Status: domain.LoanStatusActive}, nil)

	_, err := f.originator.ActivateLoan(context.Background(), loanID)
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeValidation, engineErrors.CodeOf(err))
	f.mockLoanRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestEntityNumbers(t *testing.T) {
	now := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	appNumber := NewApplicationNumber(now)
	loanNumber := NewLoanNumber(now)

	assert.Regexp(t, `^APP-20250307-[0-9A-F]{8}$`, appNumber)
	assert.Regexp(t, `^LN-20250307-[0-9A-F]{8}$`, loanNumber)
	assert.NotEqual(t, NewLoanNumber(now), loanNumber)
}
