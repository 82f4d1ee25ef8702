package handler

import (
	"net/http"
	"strconv"

	"github.com/openlend/loan-engine/internal/domain"
	"github.com/openlend/loan-engine/internal/service"
	"github.com/openlend/loan-engine/pkg/response"
)

// DashboardHandler exposes the aggregator's read-only portfolio views.
type DashboardHandler struct {
	aggregator       *service.AggregatorService
	defaultRangeDays int
}

func NewDashboardHandler(aggregator *service.AggregatorService, defaultRangeDays int) *DashboardHandler {
	return &DashboardHandler{
		aggregator:       aggregator,
		defaultRangeDays: defaultRangeDays,
	}
}

// FinancialMetrics handles GET /api/v1/dashboard/financial
func (h *DashboardHandler) FinancialMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.aggregator.GetFinancialMetrics(r.Context())
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, metrics)
}

// PaymentTrends handles GET /api/v1/dashboard/trends with optional
// range_days and bucket query parameters.
func (h *DashboardHandler) PaymentTrends(w http.ResponseWriter, r *http.Request) {
	rangeDays := h.defaultRangeDays
	if raw := r.URL.Query().Get("range_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "range_days must be an integer", err)
			return
		}
		rangeDays = parsed
	}

	bucket := r.URL.Query().Get("bucket")
	if bucket == "" {
		bucket = domain.BucketDay
	}

	trends, err := h.aggregator.GetPaymentTrends(r.Context(), rangeDays, bucket)
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, trends)
}

// LoanStatusDistribution handles GET /api/v1/dashboard/loan-status
func (h *DashboardHandler) LoanStatusDistribution(w http.ResponseWriter, r *http.Request) {
	distribution, err := h.aggregator.GetLoanStatusDistribution(r.Context())
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, distribution)
}

// PaymentStatusDistribution handles GET /api/v1/dashboard/payment-status
func (h *DashboardHandler) PaymentStatusDistribution(w http.ResponseWriter, r *http.Request) {
	distribution, err := h.aggregator.GetPaymentStatusDistribution(r.Context())
	if err != nil {
		response.EngineError(w, err)
		return
	}

	response.Success(w, distribution)
}
