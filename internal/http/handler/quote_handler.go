package handler

import (
	"errors"
	"net/http"

	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/repository"
	"github.com/spectrum-media/quote-api/internal/service"
	"go.uber.org/zap"
)

type QuoteHandler struct {
	quoteService *service.QuoteService
	logger       *zap.Logger
}

func NewQuoteHandler(quoteService *service.QuoteService, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
		logger:       logger,
	}
}

// List godoc
// @Summary List quotes
// @Description Paginated quotes. Templates are excluded unless status=template or includeTemplates=true.
// @Tags Quotes
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param search query string false "Search by activity name"
// @Param status query string false "Filter by status" Enums(draft, sent, approved, executed, liquidated, rejected, template)
// @Param activityTypeId query string false "Filter by activity type"
// @Param mallId query string false "Filter by mall"
// @Param oiId query string false "Filter by OI"
// @Param mine query bool false "Only quotes created by the caller"
// @Param includeTemplates query bool false "Include templates"
// @Param sortBy query string false "Sort field" Enums(createdAt, updatedAt, activityName, status, totalCostUsd, sentAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.QuoteDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [get]
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters := &repository.QuoteFilters{
		Search:           r.URL.Query().Get("search"),
		IncludeTemplates: parseBoolQuery(r, "includeTemplates"),
	}
	if status := r.URL.Query().Get("status"); status != "" {
		s := domain.QuoteStatus(status)
		if !s.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status: "+status)
			return
		}
		filters.Status = &s
	}

	var err error
	if filters.ActivityTypeID, err = parseUUIDQuery(r, "activityTypeId"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filters.MallID, err = parseUUIDQuery(r, "mallId"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filters.OIID, err = parseUUIDQuery(r, "oiId"); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if parseBoolQuery(r, "mine") {
		if userCtx, ok := auth.FromContext(r.Context()); ok {
			filters.CreatedByID = userCtx.UserID
		}
	}

	result, err := h.quoteService.List(r.Context(), page, pageSize, filters, parseSort(r, "updatedAt"))
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetByID godoc
// @Summary Get quote
// @Description Returns the quote with its lines and totals
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.QuoteDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [get]
func (h *QuoteHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	quote, err := h.quoteService.GetByID(r.Context(), id)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Create godoc
// @Summary Create quote
// @Description Creates an empty draft quote
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body domain.CreateQuoteRequest true "Quote header"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Activity type or mall not found"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [post]
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	quote, err := h.quoteService.Create(r.Context(), &req)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/quotes/"+quote.ID.String())
	respondJSON(w, http.StatusCreated, quote)
}

// Update godoc
// @Summary Update quote header
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.UpdateQuoteRequest true "Quote header"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Quote is not a draft"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [put]
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	var req domain.UpdateQuoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	quote, err := h.quoteService.UpdateHeader(r.Context(), id, &req)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Delete godoc
// @Summary Delete quote
// @Description Only draft, template and rejected quotes can be deleted
// @Tags Quotes
// @Param id path string true "Quote ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [delete]
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	if err := h.quoteService.Delete(r.Context(), id); err != nil {
		h.handleQuoteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddLine godoc
// @Summary Add a line to a draft quote
// @Description Prices the line from the insumo cost and the active exchange rate, then recomputes totals and margin suggestions
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.AddQuoteLineRequest true "Line data"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/lines [post]
func (h *QuoteHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	var req domain.AddQuoteLineRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	quote, err := h.quoteService.AddLine(r.Context(), id, &req)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, quote)
}

// UpdateLine godoc
// @Summary Update a quote line
// @Tags Quotes
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param lineId path string true "Line ID"
// @Param request body domain.UpdateQuoteLineRequest true "Line data"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/lines/{lineId} [put]
func (h *QuoteHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(w, r, "lineId", "line")
	if !ok {
		return
	}
	var req domain.UpdateQuoteLineRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	quote, err := h.quoteService.UpdateLine(r.Context(), id, lineID, &req)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// DeleteLine godoc
// @Summary Remove a quote line
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Param lineId path string true "Line ID"
// @Success 200 {object} domain.QuoteDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/lines/{lineId} [delete]
func (h *QuoteHandler) DeleteLine(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(w, r, "lineId", "line")
	if !ok {
		return
	}
	quote, err := h.quoteService.DeleteLine(r.Context(), id, lineID)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Recalculate godoc
// @Summary Reprice a draft quote
// @Description Reprices every line with current insumo costs and the active exchange rate
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.QuoteDTO
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/recalculate [post]
func (h *QuoteHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	quote, err := h.quoteService.Recalculate(r.Context(), id)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// handleQuoteError maps quote service errors to HTTP responses
func (h *QuoteHandler) handleQuoteError(w http.ResponseWriter, err error) {
	if handleCommonError(w, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrQuoteNotFound),
		errors.Is(err, service.ErrQuoteLineNotFound),
		errors.Is(err, service.ErrActivityTypeNotFound),
		errors.Is(err, service.ErrMallNotFound),
		errors.Is(err, service.ErrOINotFound),
		errors.Is(err, service.ErrInsumoNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrQuoteNotEditable),
		errors.Is(err, service.ErrQuoteNotDeletable):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrQuoteHasNoLines),
		errors.Is(err, service.ErrNotATemplate),
		errors.Is(err, service.ErrOIMallMismatch):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondInternalError(w, h.logger, "quote handler error", err)
	}
}
