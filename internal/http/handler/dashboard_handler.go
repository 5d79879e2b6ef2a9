package handler

import (
	"errors"
	"net/http"

	"github.com/spectrum-media/quote-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	dashboardService *service.DashboardService
	logger           *zap.Logger
}

func NewDashboardHandler(dashboardService *service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		logger:           logger,
	}
}

// parseDashboardFilters reads year, mallId, activityTypeId and quoteId
func parseDashboardFilters(r *http.Request) (service.DashboardFilters, error) {
	var filters service.DashboardFilters
	year, err := parseIntQuery(r, "year")
	if err != nil {
		return filters, err
	}
	if year != nil {
		filters.Year = *year
	}
	if filters.MallID, err = parseUUIDQuery(r, "mallId"); err != nil {
		return filters, err
	}
	if filters.ActivityTypeID, err = parseUUIDQuery(r, "activityTypeId"); err != nil {
		return filters, err
	}
	if filters.QuoteID, err = parseUUIDQuery(r, "quoteId"); err != nil {
		return filters, err
	}
	return filters, nil
}

// GetDashboard godoc
// @Summary Budget execution dashboard
// @Description Budget against actual spend per OI for a year.
// @Description
// @Description - `executionPct`: actual / budget x 100, 0 when the budget is 0
// @Description - `availableUsd`: budget - actual
// @Description - Every active OI of the filtered mall appears even without expenses, unless quoteId is set
// @Description - `monthly`: twelve entries comparing monthly budgets with actual USD
// @Description - `drillDown`: quoted cost against actual spend, only with quoteId
// @Tags Dashboard
// @Produce json
// @Param year query int false "Fiscal year (defaults to the current year)"
// @Param mallId query string false "Filter by mall"
// @Param activityTypeId query string false "Filter by the activity type of the quotes"
// @Param quoteId query string false "Restrict to one quote"
// @Success 200 {object} domain.DashboardDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Quote not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	filters, err := parseDashboardFilters(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	dashboard, err := h.dashboardService.Dashboard(r.Context(), filters)
	if err != nil {
		h.handleDashboardError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dashboard)
}

// GetReconciliation godoc
// @Summary Reconcile recorded spend with the ERP ledger
// @Description Per OI code, GTQ recorded in this system against GTQ posted in the data warehouse for the year.
// @Tags Dashboard
// @Produce json
// @Param year query int false "Fiscal year (defaults to the current year)"
// @Success 200 {object} domain.ReconciliationDTO
// @Failure 400 {object} domain.APIError
// @Failure 503 {object} domain.APIError "Data warehouse not configured"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /dashboard/reconciliation [get]
func (h *DashboardHandler) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	year, err := parseIntQuery(r, "year")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	y := 0
	if year != nil {
		y = *year
	}

	result, err := h.dashboardService.Reconciliation(r.Context(), y)
	if err != nil {
		h.handleDashboardError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *DashboardHandler) handleDashboardError(w http.ResponseWriter, err error) {
	if handleCommonError(w, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrQuoteNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDataWarehouseDisabled):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondInternalError(w, h.logger, "dashboard handler error", err)
	}
}
