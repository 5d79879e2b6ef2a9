package handler

import (
	"errors"
	"net/http"

	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/repository"
	"github.com/spectrum-media/quote-api/internal/service"
	"go.uber.org/zap"
)

type ExpenseHandler struct {
	expenseService *service.ExpenseService
	logger         *zap.Logger
}

func NewExpenseHandler(expenseService *service.ExpenseService, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		logger:         logger,
	}
}

// CreateODC godoc
// @Summary Record an ODC expense
// @Description Books a purchase order against an approved or executed quote. The amount is converted to USD with the active rate.
// @Tags Expenses
// @Accept json
// @Produce json
// @Param request body domain.CreateODCExpenseRequest true "ODC data"
// @Success 201 {object} domain.ExpenseDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Quote does not accept expenses"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/odc [post]
func (h *ExpenseHandler) CreateODC(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateODCExpenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	expense, err := h.expenseService.CreateODC(r.Context(), &req)
	if err != nil {
		h.handleExpenseError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/expenses/"+expense.ID.String())
	respondJSON(w, http.StatusCreated, expense)
}

// CreatePettyCash godoc
// @Summary Record a petty cash invoice
// @Tags Expenses
// @Accept json
// @Produce json
// @Param request body domain.CreatePettyCashExpenseRequest true "Invoice data"
// @Success 201 {object} domain.ExpenseDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/petty-cash [post]
func (h *ExpenseHandler) CreatePettyCash(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePettyCashExpenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	expense, err := h.expenseService.CreatePettyCash(r.Context(), &req)
	if err != nil {
		h.handleExpenseError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/expenses/"+expense.ID.String())
	respondJSON(w, http.StatusCreated, expense)
}

// CreateHost godoc
// @Summary Record a host receipt
// @Description Amount is the sum of rate x days over 1 to 10 rows. The OI is the one assigned to the quote.
// @Tags Expenses
// @Accept json
// @Produce json
// @Param request body domain.CreateHostExpenseRequest true "Receipt data"
// @Success 201 {object} domain.ExpenseDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/host [post]
func (h *ExpenseHandler) CreateHost(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateHostExpenseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	expense, err := h.expenseService.CreateHost(r.Context(), &req)
	if err != nil {
		h.handleExpenseError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/expenses/"+expense.ID.String())
	respondJSON(w, http.StatusCreated, expense)
}

// List godoc
// @Summary List expenses
// @Tags Expenses
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 200)" default(20)
// @Param quoteId query string false "Filter by quote"
// @Param oiId query string false "Filter by OI"
// @Param mallId query string false "Filter by mall"
// @Param category query string false "Filter by category" Enums(odc, petty_cash, host)
// @Param year query int false "Filter by year"
// @Param from query string false "Date from (YYYY-MM-DD)"
// @Param to query string false "Date to (YYYY-MM-DD)"
// @Param sortBy query string false "Sort field" Enums(date, createdAt, amountGtq, amountUsd)
// @Param sortOrder query string false "Sort order" Enums(asc, desc) default(desc)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.ExpenseDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses [get]
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)

	filters, err := parseExpenseFilters(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.expenseService.List(r.Context(), page, pageSize, filters, parseSort(r, "date"))
	if err != nil {
		h.handleExpenseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func parseExpenseFilters(r *http.Request) (*repository.ExpenseFilters, error) {
	filters := &repository.ExpenseFilters{}
	var err error
	if filters.QuoteID, err = parseUUIDQuery(r, "quoteId"); err != nil {
		return nil, err
	}
	if filters.OIID, err = parseUUIDQuery(r, "oiId"); err != nil {
		return nil, err
	}
	if filters.MallID, err = parseUUIDQuery(r, "mallId"); err != nil {
		return nil, err
	}
	if filters.Year, err = parseIntQuery(r, "year"); err != nil {
		return nil, err
	}
	if filters.DateFrom, err = parseDateQuery(r, "from"); err != nil {
		return nil, err
	}
	if filters.DateTo, err = parseDateQuery(r, "to"); err != nil {
		return nil, err
	}
	if category := r.URL.Query().Get("category"); category != "" {
		c := domain.ExpenseCategory(category)
		switch c {
		case domain.ExpenseCategoryODC, domain.ExpenseCategoryPettyCash, domain.ExpenseCategoryHost:
		default:
			return nil, errors.New("invalid category: " + category)
		}
		filters.Category = &c
	}
	return filters, nil
}

// GetByID godoc
// @Summary Get expense
// @Tags Expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} domain.ExpenseDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "expense")
	if !ok {
		return
	}
	expense, err := h.expenseService.GetByID(r.Context(), id)
	if err != nil {
		h.handleExpenseError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, expense)
}

// Delete godoc
// @Summary Delete expense
// @Tags Expenses
// @Param id path string true "Expense ID"
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "expense")
	if !ok {
		return
	}
	if err := h.expenseService.Delete(r.Context(), id); err != nil {
		h.handleExpenseError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExpenseError maps expense service errors to HTTP responses
func (h *ExpenseHandler) handleExpenseError(w http.ResponseWriter, err error) {
	if handleCommonError(w, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrExpenseNotFound),
		errors.Is(err, service.ErrQuoteNotFound),
		errors.Is(err, service.ErrOINotFound),
		errors.Is(err, service.ErrProviderNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrQuoteNotAcceptingExpenses):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrQuoteHasNoOI):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondInternalError(w, h.logger, "expense handler error", err)
	}
}
