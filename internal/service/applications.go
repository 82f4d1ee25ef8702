package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/internal/repository"
	"github.com/openlend/loan-engine/internal/workflow"
	engineErrors "github.com/openlend/loan-engine/pkg/errors"
)

// ApplicationService is the staff-facing surface for applications: creation
// and workflow status actions. Persistence of the snapshots computed by the
// workflow package happens here.
type ApplicationService struct {
	AppRepo repository.ApplicationRepository
	Log     *zap.Logger

	validate *validator.Validate
}

func NewApplicationService(appRepo repository.ApplicationRepository, log *zap.Logger) *ApplicationService {
	return &ApplicationService{
		AppRepo:  appRepo,
		Log:      log,
		validate: validator.New(),
	}
}

// CreateApplication registers a new draft application.
func (s *ApplicationService) CreateApplication(ctx context.Context, request *domain.CreateApplicationRequest) (*domain.Application, error) {
	if s.validate == nil {
		s.validate = validator.New()
	}
	if err := s.validate.Struct(request); err != nil {
		return nil, engineErrors.WrapValidation("request", err.Error())
	}

	applicantID, err := uuid.Parse(request.ApplicantID)
	if err != nil {
		return nil, engineErrors.WrapValidation("applicant_id", "must be a valid uuid")
	}

	now := time.Now()
	app := &domain.Application{
		ID:                uuid.New(),
		ApplicationNumber: NewApplicationNumber(now),
		ApplicantID:       applicantID,
		Status:            domain.ApplicationStatusDraft,
		RequestedAmount:   request.RequestedAmount,
		AnnualIncome:      request.AnnualIncome,
		NetWorth:          request.NetWorth,
		TaxBracket:        request.TaxBracket,
		RiskTolerance:     request.RiskTolerance,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.AppRepo.Create(ctx, app); err != nil {
		return nil, engineErrors.WrapStore("create application", app.ID.String(), err)
	}

	if s.Log != nil {
		s.Log.Info("application created",
			zap.String("application_id", app.ID.String()),
			zap.String("application_number", app.ApplicationNumber),
		)
	}
	return app, nil
}

// GetApplication retrieves an application by id.
func (s *ApplicationService) GetApplication(ctx context.Context, id uuid.UUID) (*domain.Application, error) {
	app, err := s.AppRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, engineErrors.WrapNotFound("application", id.String())
		}
		return nil, engineErrors.WrapStore("get application", id.String(), err)
	}
	return app, nil
}

// ListApplications retrieves applications matching the filter.
func (s *ApplicationService) ListApplications(ctx context.Context, filter repository.ApplicationFilter) ([]*domain.Application, error) {
	apps, err := s.AppRepo.List(ctx, filter)
	if err != nil {
		return nil, engineErrors.WrapStore("list applications", "applications", err)
	}
	return apps, nil
}

// ApplyStatus moves an application to a new status and persists the
// resulting snapshot. Jumps outside the natural workflow are allowed and
// only logged.
func (s *ApplicationService) ApplyStatus(ctx context.Context, id uuid.UUID, newStatus string) (*domain.Application, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.Log != nil && app.Status != newStatus && !workflow.CanTransition(app.Status, newStatus) {
		s.Log.Warn("status jump outside natural workflow",
			zap.String("application_id", id.String()),
			zap.String("from", app.Status),
			zap.String("to", newStatus),
		)
	}

	updated, err := workflow.Apply(app, newStatus, time.Now())
	if err != nil {
		return nil, err
	}

	if err := s.AppRepo.Update(ctx, updated); err != nil {
		return nil, engineErrors.WrapStore("update application", id.String(), err)
	}

	return updated, nil
}
