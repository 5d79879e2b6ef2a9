package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/repository"
	"github.com/spectrum-media/quote-api/internal/service"
	"go.uber.org/zap"
)

// CatalogHandler serves malls, OIs, monthly budgets, activity types,
// insumos, providers and expense types
type CatalogHandler struct {
	catalogService *service.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler instance
func NewCatalogHandler(catalogService *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// ListMalls godoc
// @Summary List malls
// @Tags Catalog
// @Produce json
// @Param includeInactive query bool false "Include deactivated malls"
// @Param search query string false "Filter by name"
// @Success 200 {array} domain.MallDTO
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /malls [get]
func (h *CatalogHandler) ListMalls(w http.ResponseWriter, r *http.Request) {
	malls, err := h.catalogService.ListMalls(r.Context(), parseBoolQuery(r, "includeInactive"), r.URL.Query().Get("search"))
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, malls)
}

// GetMall godoc
// @Summary Get mall
// @Tags Catalog
// @Produce json
// @Param id path string true "Mall ID"
// @Success 200 {object} domain.MallDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /malls/{id} [get]
func (h *CatalogHandler) GetMall(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "mall")
	if !ok {
		return
	}
	mall, err := h.catalogService.GetMall(r.Context(), id)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mall)
}

// CreateMall godoc
// @Summary Create mall
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.CreateMallRequest true "Mall data"
// @Success 201 {object} domain.MallDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Name already in use"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /malls [post]
func (h *CatalogHandler) CreateMall(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMallRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	mall, err := h.catalogService.CreateMall(r.Context(), &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/malls/"+mall.ID.String())
	respondJSON(w, http.StatusCreated, mall)
}

// UpdateMall godoc
// @Summary Update mall
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Mall ID"
// @Param request body domain.UpdateMallRequest true "Mall data"
// @Success 200 {object} domain.MallDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /malls/{id} [put]
func (h *CatalogHandler) UpdateMall(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "mall")
	if !ok {
		return
	}
	var req domain.UpdateMallRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	mall, err := h.catalogService.UpdateMall(r.Context(), id, &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, mall)
}

// DeactivateMall godoc
// @Summary Deactivate mall
// @Description Malls are never removed; they are marked inactive and hidden from pickers.
// @Tags Catalog
// @Param id path string true "Mall ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /malls/{id} [delete]
func (h *CatalogHandler) DeactivateMall(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "mall")
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateMall(r.Context(), id); err != nil {
		h.handleCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOIs godoc
// @Summary List internal orders
// @Tags Catalog
// @Produce json
// @Param mallId query string false "Filter by mall"
// @Param search query string false "Filter by code or name"
// @Param includeInactive query bool false "Include deactivated OIs"
// @Success 200 {array} domain.OIDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /ois [get]
func (h *CatalogHandler) ListOIs(w http.ResponseWriter, r *http.Request) {
	mallID, err := parseUUIDQuery(r, "mallId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	ois, err := h.catalogService.ListOIs(r.Context(), repository.OIFilters{
		MallID:          mallID,
		Search:          r.URL.Query().Get("search"),
		IncludeInactive: parseBoolQuery(r, "includeInactive"),
	})
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ois)
}

// GetOI godoc
// @Summary Get internal order
// @Tags Catalog
// @Produce json
// @Param id path string true "OI ID"
// @Success 200 {object} domain.OIDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /ois/{id} [get]
func (h *CatalogHandler) GetOI(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "OI")
	if !ok {
		return
	}
	oi, err := h.catalogService.GetOI(r.Context(), id)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, oi)
}

// CreateOI godoc
// @Summary Create internal order
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.CreateOIRequest true "OI data"
// @Success 201 {object} domain.OIDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Mall not found"
// @Failure 409 {object} domain.APIError "Code already in use"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /ois [post]
func (h *CatalogHandler) CreateOI(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOIRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	oi, err := h.catalogService.CreateOI(r.Context(), &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/ois/"+oi.ID.String())
	respondJSON(w, http.StatusCreated, oi)
}

// UpdateOI godoc
// @Summary Update internal order
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "OI ID"
// @Param request body domain.UpdateOIRequest true "OI data"
// @Success 200 {object} domain.OIDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /ois/{id} [put]
func (h *CatalogHandler) UpdateOI(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "OI")
	if !ok {
		return
	}
	var req domain.UpdateOIRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	oi, err := h.catalogService.UpdateOI(r.Context(), id, &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, oi)
}

// DeactivateOI godoc
// @Summary Deactivate internal order
// @Tags Catalog
// @Param id path string true "OI ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /ois/{id} [delete]
func (h *CatalogHandler) DeactivateOI(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "OI")
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateOI(r.Context(), id); err != nil {
		h.handleCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBudgets godoc
// @Summary List monthly budgets
// @Tags Catalog
// @Produce json
// @Param year query int false "Fiscal year (defaults to the current year)"
// @Param oiId query string false "Filter by OI"
// @Success 200 {array} domain.BudgetDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /budgets [get]
func (h *CatalogHandler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	year, err := parseIntQuery(r, "year")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	oiID, err := parseUUIDQuery(r, "oiId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	y := time.Now().UTC().Year()
	if year != nil {
		y = *year
	}

	budgets, err := h.catalogService.ListBudgets(r.Context(), y, oiID)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, budgets)
}

// UpsertBudget godoc
// @Summary Set a monthly budget
// @Description Creates or replaces the budget of an OI for one month.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.UpsertBudgetRequest true "Budget data"
// @Success 200 {object} domain.BudgetDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "OI not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /budgets [put]
func (h *CatalogHandler) UpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req domain.UpsertBudgetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	budget, err := h.catalogService.UpsertBudget(r.Context(), &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, budget)
}

// DeleteBudget godoc
// @Summary Delete a monthly budget
// @Tags Catalog
// @Param id path string true "Budget ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /budgets/{id} [delete]
func (h *CatalogHandler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "budget")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteBudget(r.Context(), id); err != nil {
		h.handleCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCatalogError maps catalog service errors to HTTP responses
func (h *CatalogHandler) handleCatalogError(w http.ResponseWriter, err error) {
	if handleCommonError(w, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrMallNotFound),
		errors.Is(err, service.ErrOINotFound),
		errors.Is(err, service.ErrBudgetNotFound),
		errors.Is(err, service.ErrActivityTypeNotFound),
		errors.Is(err, service.ErrInsumoNotFound),
		errors.Is(err, service.ErrProviderNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateMall),
		errors.Is(err, service.ErrDuplicateOICode),
		errors.Is(err, service.ErrDuplicateActivityType),
		errors.Is(err, service.ErrDuplicateInsumo),
		errors.Is(err, service.ErrDuplicateProvider):
		respondWithError(w, http.StatusConflict, err.Error())
	default:
		respondInternalError(w, h.logger, "catalog handler error", err)
	}
}
