package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/internal/service"
	"github.com/openlend/loan-engine/pkg/response"
)

// LoanHandler exposes origination and ledger operations.
type LoanHandler struct {
	originator *service.OriginatorService
	ledger     *service.LedgerService
}

func NewLoanHandler(originator *service.OriginatorService, ledger *service.LedgerService) *LoanHandler {
	return &LoanHandler{
		originator: originator,
		ledger:     ledger,
	}
}

// CreateLoan handles POST /api/v1/loans
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	result, err := h.originator.CreateLoan(r.Context(), &request)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Created(w, result)
}

// GetLoan handles GET /api/v1/loans/{loanId}
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan ID", err)
		return
	}

	loan, err := h.originator.GetLoan(r.Context(), loanID)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, loan)
}

// ListLoans handles GET /api/v1/loans
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.originator.ListLoans(r.Context())
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, loans)
}

// ActivateLoan handles POST /api/v1/loans/{loanId}/activate
func (h *LoanHandler) ActivateLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan ID", err)
		return
	}

	loan, err := h.originator.ActivateLoan(r.Context(), loanID)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, loan)
}

// ListPayments handles GET /api/v1/loans/{loanId}/payments
func (h *LoanHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan ID", err)
		return
	}

	payments, err := h.ledger.PaymentsForLoan(r.Context(), loanID)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, payments)
}

// RematerializeSchedule handles POST /api/v1/loans/{loanId}/rematerialize
func (h *LoanHandler) RematerializeSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["loanId"])
	if err != nil {
		response.BadRequest(w, "Invalid loan ID", err)
		return
	}

	payments, err := h.ledger.RematerializeSchedule(r.Context(), loanID)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Created(w, payments)
}

// RecordPayment handles POST /api/v1/payments/{paymentId}/record
func (h *LoanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := uuid.Parse(mux.Vars(r)["paymentId"])
	if err != nil {
		response.BadRequest(w, "Invalid payment ID", err)
		return
	}

	var request domain.RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		response.BadRequest(w, "Invalid request body", err)
		return
	}

	result, err := h.ledger.RecordPayment(r.Context(), paymentID, &request)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, result)
}
