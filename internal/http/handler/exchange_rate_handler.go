package handler

import (
	"net/http"
	"strconv"

	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/service"
	"go.uber.org/zap"
)

type ExchangeRateHandler struct {
	rateService *service.ExchangeRateService
	logger      *zap.Logger
}

func NewExchangeRateHandler(rateService *service.ExchangeRateService, logger *zap.Logger) *ExchangeRateHandler {
	return &ExchangeRateHandler{
		rateService: rateService,
		logger:      logger,
	}
}

// GetActive godoc
// @Summary Get the active exchange rate
// @Description Returns the active GTQ per USD rate. When no rate has been set the default of 7.8 is returned with isDefault=true.
// @Tags Exchange Rates
// @Produce json
// @Success 200 {object} domain.ExchangeRateDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exchange-rates/active [get]
func (h *ExchangeRateHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	rate, err := h.rateService.GetActive(r.Context())
	if err != nil {
		respondInternalError(w, h.logger, "failed to get active exchange rate", err)
		return
	}
	respondJSON(w, http.StatusOK, rate)
}

// List godoc
// @Summary List exchange rate history
// @Tags Exchange Rates
// @Produce json
// @Param limit query int false "Maximum rows" default(50)
// @Success 200 {array} domain.ExchangeRateDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exchange-rates [get]
func (h *ExchangeRateHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > maxPageSize {
		limit = 50
	}
	rates, err := h.rateService.List(r.Context(), limit)
	if err != nil {
		respondInternalError(w, h.logger, "failed to list exchange rates", err)
		return
	}
	respondJSON(w, http.StatusOK, rates)
}

// Set godoc
// @Summary Set a new exchange rate
// @Description Stores the rate and makes it the only active one. Existing quotes and expenses keep the rate they were priced with.
// @Tags Exchange Rates
// @Accept json
// @Produce json
// @Param request body domain.SetExchangeRateRequest true "Rate data"
// @Success 201 {object} domain.ExchangeRateDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /exchange-rates [post]
func (h *ExchangeRateHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req domain.SetExchangeRateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	rate, err := h.rateService.Set(r.Context(), &req)
	if err != nil {
		if handleCommonError(w, err) {
			return
		}
		respondInternalError(w, h.logger, "failed to set exchange rate", err)
		return
	}
	respondJSON(w, http.StatusCreated, rate)
}
