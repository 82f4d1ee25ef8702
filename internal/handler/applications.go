package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/internal/repository"
	"github.com/openlend/loan-engine/internal/service"
	"github.com/openlend/loan-engine/pkg/response"
)

// ApplicationHandler exposes application creation and workflow actions.
type ApplicationHandler struct {
	applications *service.ApplicationService
}

func NewApplicationHandler(applications *service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applications: applications}
}

// CreateApplication handles POST /api/v1/applications
func (h *ApplicationHandler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	app, err := h.applications.CreateApplication(r.Context(), &request)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Created(w, app)
}

// GetApplication handles GET /api/v1/applications/{applicationId}
func (h *ApplicationHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["applicationId"])
	if err != nil {
		response.BadRequest(w, "Invalid application ID", err)
		return
	}

	app, err := h.applications.GetApplication(r.Context(), id)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, app)
}

// ListApplications handles GET /api/v1/applications with optional
// applicant_id and status query filters.
func (h *ApplicationHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	var filter repository.ApplicationFilter

	if raw := r.URL.Query().Get("applicant_id"); raw != "" {
		applicantID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid applicant ID", err)
			return
		}
		filter.ApplicantID = &applicantID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		if !domain.ValidApplicationStatus(status) {
			response.BadRequest(w, "Unknown application status", nil)
			return
		}
		filter.Status = status
	}

	apps, err := h.applications.ListApplications(r.Context(), filter)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, apps)
}

// ApplyStatus handles POST /api/v1/applications/{applicationId}/status
func (h *ApplicationHandler) ApplyStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["applicationId"])
	if err != nil {
		response.BadRequest(w, "Invalid application ID", err)
		return
	}

	var request domain.ApplyStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	app, err := h.applications.ApplyStatus(r.Context(), id, request.Status)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, app)
}
