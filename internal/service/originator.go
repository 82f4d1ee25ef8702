package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openlend/loan-engine/internal/amortization"
	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/internal/repository"
	"github.com/openlend/loan-engine/internal/workflow"
	"github.com/openlend/loan-engine/pkg/dates"
	engineErrors "github.com/openlend/loan-engine/pkg/errors"
	"github.com/openlend/loan-engine/pkg/metrics"
)

// OriginatorService turns an approved application into a loan: it validates
// the terms, generates the amortization schedule and persists the loan
// together with its payment rows in one transaction.
type OriginatorService struct {
	UoW       repository.UnitOfWork
	LoanRepo  repository.LoanRepository
	Ledger    *LedgerService
	Collector *metrics.Collector
	Log       *zap.Logger

	validate *validator.Validate
}

func NewOriginatorService(
	uow repository.UnitOfWork,
	loanRepo repository.LoanRepository,
	ledger *LedgerService,
	collector *metrics.Collector,
	log *zap.Logger,
) *OriginatorService {
	return &OriginatorService{
		UoW:       uow,
		LoanRepo:  loanRepo,
		Ledger:    ledger,
		Collector: collector,
		Log:       log,
		validate:  validator.New(),
	}
}

// CreateLoan originates a loan from an application. The application is
// funded in the same transaction when the request asks for it, so either
// everything lands or nothing does. One loan per application is enforced by
// a pre-check inside the transaction.
func (s *OriginatorService) CreateLoan(ctx context.Context, request *domain.CreateLoanRequest) (*domain.CreateLoanResponse, error) {
	if s.validate == nil {
		s.validate = validator.New()
	}
	if err := s.validate.Struct(request); err != nil {
		return nil, engineErrors.WrapValidation("request", err.Error())
	}

	applicationID, err := uuid.Parse(request.ApplicationID)
	if err != nil {
		return nil, engineErrors.WrapValidation("application_id", "must be a valid uuid")
	}
	applicantID, err := uuid.Parse(request.ApplicantID)
	if err != nil {
		return nil, engineErrors.WrapValidation("applicant_id", "must be a valid uuid")
	}

	now := time.Now()
	startDate := dates.StartOfDay(now)

	// Field-level term validation happens here; the engine names the
	// offending field in its error.
	schedule, err := amortization.GenerateSchedule(
		request.Principal, request.AnnualRate, request.TermMonths, request.Frequency, startDate)
	if err != nil {
		return nil, err
	}

	loan := &domain.Loan{
		ID:                  uuid.New(),
		LoanNumber:          NewLoanNumber(now),
		ApplicationID:       applicationID,
		ApplicantID:         applicantID,
		PrincipalAmount:     request.Principal,
		AnnualRate:          request.AnnualRate,
		TermMonths:          request.TermMonths,
		PaymentFrequency:    request.Frequency,
		StartDate:           startDate,
		MaturityDate:        dates.AddMonths(startDate, request.TermMonths),
		Status:              domain.LoanStatusPending,
		CurrentBalance:      request.Principal,
		AssignedDepartments: request.AssignedDepartments,
		AssignedStaff:       request.AssignedStaff,
		Notes:               request.Notes,
		Schedule:            domain.ScheduleSummary(schedule.Entries),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	first := schedule.Entries[0]
	loan.NextPaymentDate = &first.DueDate
	loan.NextPaymentAmount = decimal.NewNullDecimal(first.AmountDue)

	var payments []*domain.Payment
	err = s.UoW.WithinTx(ctx, func(r repository.Repos) error {
		existing, err := r.Loans.GetByApplicationID(ctx, applicationID)
		if err == nil && existing != nil {
			return engineErrors.WrapLoanAlreadyExists(applicationID.String())
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return engineErrors.WrapStore("check existing loan", applicationID.String(), err)
		}

		application, err := r.Applications.GetByID(ctx, applicationID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return engineErrors.WrapNotFound("application", applicationID.String())
			}
			return engineErrors.WrapStore("get application", applicationID.String(), err)
		}

		if err := r.Loans.Create(ctx, loan); err != nil {
			return engineErrors.WrapStore("create loan", loan.ID.String(), err)
		}

		payments, err = s.Ledger.materialize(ctx, r.Payments, loan.ID, schedule)
		if err != nil {
			return err
		}

		if request.MarkApplicationFunded {
			funded, err := workflow.Apply(application, domain.ApplicationStatusFunded, now)
			if err != nil {
				return err
			}
			if err := r.Applications.Update(ctx, funded); err != nil {
				return engineErrors.WrapStore("update application", applicationID.String(), err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Collector != nil {
		s.Collector.LoanOriginated()
	}
	if s.Log != nil {
		s.Log.Info("loan originated",
			zap.String("loan_id", loan.ID.String()),
			zap.String("loan_number", loan.LoanNumber),
			zap.String("application_id", applicationID.String()),
			zap.String("principal", request.Principal.String()),
			zap.Int("payments", len(payments)),
		)
	}

	return &domain.CreateLoanResponse{Loan: loan, Payments: payments}, nil
}

// GetLoan retrieves a loan by id.
func (s *OriginatorService) GetLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.LoanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engineErrors.WrapNotFound("loan", loanID.String())
		}
		return nil, engineErrors.WrapStore("get loan", loanID.String(), err)
	}
	return loan, nil
}

// ListLoans retrieves all loans.
func (s *OriginatorService) ListLoans(ctx context.Context) ([]*domain.Loan, error) {
	loans, err := s.LoanRepo.List(ctx)
	if err != nil {
		return nil, engineErrors.WrapStore("list loans", "loans", err)
	}
	return loans, nil
}

// ActivateLoan moves a pending loan to active once funds are disbursed.
func (s *OriginatorService) ActivateLoan(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	loan, err := s.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.LoanStatusPending {
		return nil, engineErrors.WrapValidation("status", "only pending loans can be activated")
	}

	loan.Status = domain.LoanStatusActive
	if err := s.LoanRepo.Update(ctx, loan); err != nil {
		return nil, engineErrors.WrapStore("update loan", loanID.String(), err)
	}

	if s.Log != nil {
		s.Log.Info("loan activated", zap.String("loan_id", loanID.String()))
	}
	return loan, nil
}
