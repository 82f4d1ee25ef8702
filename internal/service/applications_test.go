package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/internal/repository"
	engineErrors "github.com/openlend/loan-engine/pkg/errors"
	"github.com/openlend/loan-engine/tests/mocks"
)

func TestCreateApplication(t *testing.T) {
	mockAppRepo := &mocks.MockApplicationRepository{}
	applications := &ApplicationService{AppRepo: mockAppRepo}

	mockAppRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Application")).Return(nil)

	applicantID := uuid.New()
	app, err := applications.CreateApplication(context.Background(), &domain.CreateApplicationRequest{
		ApplicantID:     applicantID.String(),
		RequestedAmount: decimal.NewNullDecimal(decimal.NewFromInt(250000)),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ApplicationStatusDraft, app.Status)
	assert.Equal(t, applicantID, app.ApplicantID)
	assert.Regexp(t, `^APP-\d{8}-[0-9A-F]{8}$`, app.ApplicationNumber)
	assert.Nil(t, app.SubmittedAt)
	mockAppRepo.AssertExpectations(t)
}

func TestCreateApplication_BadApplicantID(t *testing.T) {
	mockAppRepo := &mocks.MockApplicationRepository{}
	applications := &ApplicationService{AppRepo: mockAppRepo}

	_, err := applications.CreateApplication(context.Background(), &domain.CreateApplicationRequest{
		ApplicantID: "nope",
	})
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeValidation, engineErrors.CodeOf(err))
	mockAppRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApplyStatus_PersistsSnapshot(t *testing.T) {
	mockAppRepo := &mocks.MockApplicationRepository{}
	applications := &ApplicationService{AppRepo: mockAppRepo}

	id := uuid.New()
	mockAppRepo.On("GetByID", mock.Anything, id).
		Return(&domain.Application{ID: id, Status: domain.ApplicationStatusSubmitted}, nil)
	mockAppRepo.On("Update", mock.Anything, mock.MatchedBy(func(app *domain.Application) bool {
		return app.Status == domain.ApplicationStatusApproved && app.ApprovedAt != nil
	})).Return(nil)

	updated, err := applications.ApplyStatus(context.Background(), id, domain.ApplicationStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusApproved, updated.Status)
	assert.NotNil(t, updated.ApprovedAt)
	mockAppRepo.AssertExpectations(t)
}

func TestApplyStatus_UnknownStatus(t *testing.T) {
	mockAppRepo := &mocks.MockApplicationRepository{}
	applications := &ApplicationService{AppRepo: mockAppRepo}

	id := uuid.New()
	mockAppRepo.On("GetByID", mock.Anything, id).
		Return(&domain.Application{ID: id, Status: domain.ApplicationStatusDraft}, nil)

	_, err := applications.ApplyStatus(context.Background(), id, "archived")
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeValidation, engineErrors.CodeOf(err))
	mockAppRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestApplyStatus_ApplicationNotFound(t *testing.T) {
	mockAppRepo := &mocks.MockApplicationRepository{}
	applications := &ApplicationService{AppRepo: mockAppRepo}

	id := uuid.New()
	mockAppRepo.On("GetByID", mock.Anything, id).Return(nil, sql.ErrNoRows)

	_, err := applications.ApplyStatus(context.Background(), id, domain.ApplicationStatusApproved)
	require.Error(t, err)
	assert.Equal(t, engineErrors.ErrCodeNotFound, engineErrors.CodeOf(err))
}

func TestListApplications_PassesFilter(t *testing.T) {
	mockAppRepo := &mocks.MockApplicationRepository{}
	applications := &ApplicationService{AppRepo: mockAppRepo}

	applicantID := uuid.New()
	filter := repository.ApplicationFilter{ApplicantID: &applicantID, Status: domain.ApplicationStatusSubmitted}
	mockAppRepo.On("List", mock.Anything, filter).Return([]*domain.Application{}, nil)

	apps, err := applications.ListApplications(context.Background(), filter)
	require.NoError(t, err)
	assert.Empty(t, apps)
	mockAppRepo.AssertExpectations(t)
}
