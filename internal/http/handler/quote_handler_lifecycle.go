package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/spectrum-media/quote-api/internal/domain"
)

// decodeOptional is decodeAndValidate for endpoints whose body may be empty
func decodeOptional(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return false
	}
	return true
}

// Send godoc
// @Summary Send quote for approval
// @Description draft -> sent. The quote must have at least one line.
// @Tags Quote Lifecycle
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError "Quote has no lines"
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Invalid transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/send [post]
func (h *QuoteHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	quote, err := h.quoteService.Send(r.Context(), id)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Approve godoc
// @Summary Approve quote
// @Description sent -> approved (admin). finalSalePriceUsd defaults to the 60% margin suggestion.
// @Tags Quote Lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.ApproveQuoteRequest false "Final price"
// @Success 200 {object} domain.QuoteDTO
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/approve [post]
func (h *QuoteHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	var req domain.ApproveQuoteRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	quote, err := h.quoteService.Approve(r.Context(), id, &req)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Reject godoc
// @Summary Reject quote
// @Description sent -> rejected (admin). The reason is kept on the quote.
// @Tags Quote Lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.RejectQuoteRequest false "Rejection reason"
// @Success 200 {object} domain.QuoteDTO
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/reject [post]
func (h *QuoteHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	var req domain.RejectQuoteRequest
	if !decodeOptional(w, r, &req) {
		return
	}
	quote, err := h.quoteService.Reject(r.Context(), id, &req)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Execute godoc
// @Summary Execute quote
// @Description approved -> executed. Assigns an active OI, which must belong to the quote's mall when one is set.
// @Tags Quote Lifecycle
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.ExecuteQuoteRequest true "OI assignment"
// @Success 200 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/execute [post]
func (h *QuoteHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	var req domain.ExecuteQuoteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	quote, err := h.quoteService.Execute(r.Context(), id, &req)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Liquidate godoc
// @Summary Liquidate quote
// @Description executed -> liquidated. No further expenses can be recorded.
// @Tags Quote Lifecycle
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.QuoteDTO
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/liquidate [post]
func (h *QuoteHandler) Liquidate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	quote, err := h.quoteService.Liquidate(r.Context(), id)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// SaveAsTemplate godoc
// @Summary Save quote as template
// @Description Copies the quote and its lines into a new template
// @Tags Quote Templates
// @Accept json
// @Produce json
// @Param id path string true "Quote ID"
// @Param request body domain.SaveTemplateRequest true "Template name"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id}/template [post]
func (h *QuoteHandler) SaveAsTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id", "quote")
	if !ok {
		return
	}
	var req domain.SaveTemplateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	template, err := h.quoteService.SaveAsTemplate(r.Context(), id, &req)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, template)
}

// CreateFromTemplate godoc
// @Summary Create quote from template
// @Description Clones a template into a new draft, repriced with current costs and the active rate
// @Tags Quote Templates
// @Accept json
// @Produce json
// @Param request body domain.CreateFromTemplateRequest true "Template reference"
// @Success 201 {object} domain.QuoteDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/from-template [post]
func (h *QuoteHandler) CreateFromTemplate(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateFromTemplateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	quote, err := h.quoteService.CreateFromTemplate(r.Context(), &req)
	if err != nil {
		h.handleQuoteError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/quotes/"+quote.ID.String())
	respondJSON(w, http.StatusCreated, quote)
}
