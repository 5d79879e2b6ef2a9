package handler

import (
	"net/http"

	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/repository"
)

// ListActivityTypes godoc
// @Summary List activity types
// @Tags Catalog
// @Produce json
// @Param includeInactive query bool false "Include deactivated types"
// @Param search query string false "Filter by name"
// @Success 200 {array} domain.ActivityTypeDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activity-types [get]
func (h *CatalogHandler) ListActivityTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.catalogService.ListActivityTypes(r.Context(), parseBoolQuery(r, "includeInactive"), r.URL.Query().Get("search"))
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, types)
}

// GetActivityType godoc
// @Summary Get activity type
// @Tags Catalog
// @Produce json
// @Param id path string true "Activity type ID"
// @Success 200 {object} domain.ActivityTypeDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activity-types/{id} [get]
func (h *CatalogHandler) GetActivityType(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "activity type")
	if !ok {
		return
	}
	at, err := h.catalogService.GetActivityType(r.Context(), id)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, at)
}

// CreateActivityType godoc
// @Summary Create activity type
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.CreateActivityTypeRequest true "Activity type data"
// @Success 201 {object} domain.ActivityTypeDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activity-types [post]
func (h *CatalogHandler) CreateActivityType(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateActivityTypeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	at, err := h.catalogService.CreateActivityType(r.Context(), &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, at)
}

// UpdateActivityType godoc
// @Summary Update activity type
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Activity type ID"
// @Param request body domain.UpdateActivityTypeRequest true "Activity type data"
// @Success 200 {object} domain.ActivityTypeDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activity-types/{id} [put]
func (h *CatalogHandler) UpdateActivityType(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "activity type")
	if !ok {
		return
	}
	var req domain.UpdateActivityTypeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	at, err := h.catalogService.UpdateActivityType(r.Context(), id, &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, at)
}

// DeactivateActivityType godoc
// @Summary Deactivate activity type
// @Tags Catalog
// @Param id path string true "Activity type ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /activity-types/{id} [delete]
func (h *CatalogHandler) DeactivateActivityType(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "activity type")
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateActivityType(r.Context(), id); err != nil {
		h.handleCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListInsumos godoc
// @Summary List insumos
// @Description Cost items priced in GTQ that quote lines reference
// @Tags Catalog
// @Produce json
// @Param includeInactive query bool false "Include deactivated insumos"
// @Param search query string false "Filter by name"
// @Success 200 {array} domain.InsumoDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /insumos [get]
func (h *CatalogHandler) ListInsumos(w http.ResponseWriter, r *http.Request) {
	insumos, err := h.catalogService.ListInsumos(r.Context(), parseBoolQuery(r, "includeInactive"), r.URL.Query().Get("search"))
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, insumos)
}

// GetInsumo godoc
// @Summary Get insumo
// @Tags Catalog
// @Produce json
// @Param id path string true "Insumo ID"
// @Success 200 {object} domain.InsumoDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /insumos/{id} [get]
func (h *CatalogHandler) GetInsumo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "insumo")
	if !ok {
		return
	}
	insumo, err := h.catalogService.GetInsumo(r.Context(), id)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, insumo)
}

// CreateInsumo godoc
// @Summary Create insumo
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.CreateInsumoRequest true "Insumo data"
// @Success 201 {object} domain.InsumoDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /insumos [post]
func (h *CatalogHandler) CreateInsumo(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInsumoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	insumo, err := h.catalogService.CreateInsumo(r.Context(), &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, insumo)
}

// UpdateInsumo godoc
// @Summary Update insumo
// @Description Cost changes only affect quotes priced afterwards or explicitly recalculated.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Insumo ID"
// @Param request body domain.UpdateInsumoRequest true "Insumo data"
// @Success 200 {object} domain.InsumoDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /insumos/{id} [put]
func (h *CatalogHandler) UpdateInsumo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "insumo")
	if !ok {
		return
	}
	var req domain.UpdateInsumoRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	insumo, err := h.catalogService.UpdateInsumo(r.Context(), id, &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, insumo)
}

// DeactivateInsumo godoc
// @Summary Deactivate insumo
// @Tags Catalog
// @Param id path string true "Insumo ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /insumos/{id} [delete]
func (h *CatalogHandler) DeactivateInsumo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "insumo")
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateInsumo(r.Context(), id); err != nil {
		h.handleCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProviders godoc
// @Summary List providers
// @Tags Catalog
// @Produce json
// @Param search query string false "Filter by name, legal name or NIT"
// @Param providerType query string false "Filter by type" Enums(certified, direct)
// @Param includeInactive query bool false "Include deactivated providers"
// @Success 200 {array} domain.ProviderDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /providers [get]
func (h *CatalogHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	filters := repository.ProviderFilters{
		Search:          r.URL.Query().Get("search"),
		IncludeInactive: parseBoolQuery(r, "includeInactive"),
	}
	if pt := r.URL.Query().Get("providerType"); pt != "" {
		t := domain.ProviderType(pt)
		filters.ProviderType = &t
	}

	providers, err := h.catalogService.ListProviders(r.Context(), filters)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, providers)
}

// GetProvider godoc
// @Summary Get provider
// @Tags Catalog
// @Produce json
// @Param id path string true "Provider ID"
// @Success 200 {object} domain.ProviderDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /providers/{id} [get]
func (h *CatalogHandler) GetProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "provider")
	if !ok {
		return
	}
	provider, err := h.catalogService.GetProvider(r.Context(), id)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, provider)
}

// CreateProvider godoc
// @Summary Create provider
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body domain.ProviderRequest true "Provider data"
// @Success 201 {object} domain.ProviderDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /providers [post]
func (h *CatalogHandler) CreateProvider(w http.ResponseWriter, r *http.Request) {
	var req domain.ProviderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	provider, err := h.catalogService.CreateProvider(r.Context(), &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, provider)
}

// UpdateProvider godoc
// @Summary Update provider
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Provider ID"
// @Param request body domain.ProviderRequest true "Provider data"
// @Success 200 {object} domain.ProviderDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /providers/{id} [put]
func (h *CatalogHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "provider")
	if !ok {
		return
	}
	var req domain.ProviderRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	provider, err := h.catalogService.UpdateProvider(r.Context(), id, &req)
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, provider)
}

// DeactivateProvider godoc
// @Summary Deactivate provider
// @Tags Catalog
// @Param id path string true "Provider ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /providers/{id} [delete]
func (h *CatalogHandler) DeactivateProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "provider")
	if !ok {
		return
	}
	if err := h.catalogService.DeactivateProvider(r.Context(), id); err != nil {
		h.handleCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListExpenseTypes godoc
// @Summary List expense types
// @Tags Catalog
// @Produce json
// @Param includeInactive query bool false "Include deactivated types"
// @Success 200 {array} domain.ExpenseTypeDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expense-types [get]
func (h *CatalogHandler) ListExpenseTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.catalogService.ListExpenseTypes(r.Context(), parseBoolQuery(r, "includeInactive"))
	if err != nil {
		h.handleCatalogError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, types)
}
