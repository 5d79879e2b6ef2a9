package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Send submits a draft quote for approval
func (s *QuoteService) Send(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	return s.transition(ctx, id, domain.QuoteStatusSent, func(tx *gorm.DB, q *domain.Quote, user *auth.UserContext, now time.Time) error {
		count, err := s.lineRepo.WithTx(tx).CountByQuote(ctx, q.ID)
		if err != nil {
			return fmt.Errorf("failed to count quote lines: %w", err)
		}
		if count == 0 {
			return ErrQuoteHasNoLines
		}
		q.SentAt = &now
		return nil
	})
}

// Approve accepts a sent quote. The final sale price defaults to the 60% margin suggestion.
func (s *QuoteService) Approve(ctx context.Context, id uuid.UUID, req *domain.ApproveQuoteRequest) (*domain.QuoteDTO, error) {
	return s.transition(ctx, id, domain.QuoteStatusApproved, func(tx *gorm.DB, q *domain.Quote, user *auth.UserContext, now time.Time) error {
		price := q.SuggestedPriceM60
		if req != nil && req.FinalSalePriceUSD != nil {
			if *req.FinalSalePriceUSD < 0 {
				return fmt.Errorf("%w: finalSalePriceUsd must not be negative", ErrInvalidInput)
			}
			price = decimal.NewFromFloat(*req.FinalSalePriceUSD).Round(domain.MoneyPlaces)
		}
		q.FinalSalePriceUSD = &price
		q.DecidedAt = &now
		q.DecidedByID = user.UserID
		q.DecidedByName = user.DisplayName
		return nil
	})
}

// Reject declines a sent quote, keeping the reason on the quote and in its notes
func (s *QuoteService) Reject(ctx context.Context, id uuid.UUID, req *domain.RejectQuoteRequest) (*domain.QuoteDTO, error) {
	return s.transition(ctx, id, domain.QuoteStatusRejected, func(tx *gorm.DB, q *domain.Quote, user *auth.UserContext, now time.Time) error {
		q.DecidedAt = &now
		q.DecidedByID = user.UserID
		q.DecidedByName = user.DisplayName
		if req != nil {
			if reason := strings.TrimSpace(req.Reason); reason != "" {
				q.RejectionReason = reason
				q.Notes = appendNote(q.Notes, "Rejected: "+reason)
			}
		}
		return nil
	})
}

// Execute assigns an active OI to an approved quote. A quote with a mall only
// accepts OIs of that mall; a quote without one inherits the OI's mall.
func (s *QuoteService) Execute(ctx context.Context, id uuid.UUID, req *domain.ExecuteQuoteRequest) (*domain.QuoteDTO, error) {
	return s.transition(ctx, id, domain.QuoteStatusExecuted, func(tx *gorm.DB, q *domain.Quote, user *auth.UserContext, now time.Time) error {
		oi, err := s.oiRepo.WithTx(tx).GetByID(ctx, req.OIID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOINotFound
			}
			return fmt.Errorf("failed to get OI: %w", err)
		}
		if !oi.IsActive {
			return fmt.Errorf("%w: OI %s", ErrInactiveReference, oi.Code)
		}
		if q.MallID != nil && *q.MallID != oi.MallID {
			return ErrOIMallMismatch
		}
		if q.MallID == nil {
			mallID := oi.MallID
			q.MallID = &mallID
		}
		q.OIID = &oi.ID
		q.ExecutedAt = &now
		return nil
	})
}

// Liquidate settles an executed quote, closing it to new expenses
func (s *QuoteService) Liquidate(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	return s.transition(ctx, id, domain.QuoteStatusLiquidated, func(tx *gorm.DB, q *domain.Quote, user *auth.UserContext, now time.Time) error {
		q.LiquidatedAt = &now
		return nil
	})
}

type transitionFunc func(tx *gorm.DB, q *domain.Quote, user *auth.UserContext, now time.Time) error

// transition enforces the role and lifecycle rules, applies mutate and saves
// the quote only if no concurrent writer changed its status. The checks made
// by mutate and the status update share one transaction.
func (s *QuoteService) transition(ctx context.Context, id uuid.UUID, to domain.QuoteStatus, mutate transitionFunc) (*domain.QuoteDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !domain.RoleCanTransition(userCtx.Role, to) {
		return nil, ErrPermissionDenied
	}

	var from domain.QuoteStatus
	err := s.quoteRepo.Transaction(ctx, func(tx *gorm.DB) error {
		quotes := s.quoteRepo.WithTx(tx)
		quote, err := quotes.GetHeaderForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuoteNotFound
			}
			return fmt.Errorf("failed to get quote: %w", err)
		}

		from = quote.Status
		if !from.CanTransitionTo(to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}

		if mutate != nil {
			if err := mutate(tx, quote, userCtx, time.Now().UTC()); err != nil {
				return err
			}
		}
		quote.Status = to

		if err := quotes.UpdateFromStatus(ctx, quote, from); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: quote status changed concurrently", ErrInvalidTransition)
			}
			return fmt.Errorf("failed to update quote status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.QuoteTransition(string(from), string(to))
	logger.WithQuote(s.logger, id.String(), string(to)).Info("quote status changed",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("user_id", userCtx.UserID),
		zap.String("role", string(userCtx.Role)),
	)

	return s.GetByID(ctx, id)
}

// SaveAsTemplate clones a quote's header and lines into a new template
func (s *QuoteService) SaveAsTemplate(ctx context.Context, id uuid.UUID, req *domain.SaveTemplateRequest) (*domain.QuoteDTO, error) {
	userCtx, err := requireRole(ctx, domain.EditorRoles...)
	if err != nil {
		return nil, err
	}

	source, err := s.getQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if source.Status == domain.QuoteStatusTemplate {
		return nil, fmt.Errorf("%w: quote is already a template", ErrInvalidInput)
	}

	template := cloneQuote(source, strings.TrimSpace(req.Name), domain.QuoteStatusTemplate, userCtx)
	if err := s.quoteRepo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Info("quote saved as template",
		zap.String("source_quote_id", id.String()),
		zap.String("template_id", template.ID.String()),
	)
	return s.GetByID(ctx, template.ID)
}

// CreateFromTemplate starts a new draft from a template
func (s *QuoteService) CreateFromTemplate(ctx context.Context, req *domain.CreateFromTemplateRequest) (*domain.QuoteDTO, error) {
	userCtx, err := requireRole(ctx, domain.EditorRoles...)
	if err != nil {
		return nil, err
	}

	template, err := s.getQuote(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if template.Status != domain.QuoteStatusTemplate {
		return nil, ErrNotATemplate
	}

	name := strings.TrimSpace(req.ActivityName)
	if name == "" {
		name = "Copia de " + template.ActivityName
	}

	draft := cloneQuote(template, name, domain.QuoteStatusDraft, userCtx)
	if err := s.quoteRepo.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to create quote from template: %w", err)
	}

	s.logger.Info("quote created from template",
		zap.String("template_id", template.ID.String()),
		zap.String("quote_id", draft.ID.String()),
	)
	return s.GetByID(ctx, draft.ID)
}

// Delete removes a draft, template or rejected quote. Only its creator or an admin may delete it.
func (s *QuoteService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, err := requireRole(ctx, domain.EditorRoles...)
	if err != nil {
		return err
	}

	quote, err := s.getHeader(ctx, id)
	if err != nil {
		return err
	}
	if !quote.Status.IsDeletable() {
		return ErrQuoteNotDeletable
	}
	if !userCtx.IsAdmin() && quote.CreatedByID != userCtx.UserID {
		return ErrPermissionDenied
	}

	hasExpenses, err := s.quoteRepo.HasExpenses(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check quote expenses: %w", err)
	}
	if hasExpenses {
		return ErrQuoteNotDeletable
	}

	if err := s.quoteRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuoteNotFound
		}
		return fmt.Errorf("failed to delete quote: %w", err)
	}

	s.logger.Info("quote deleted",
		zap.String("quote_id", id.String()),
		zap.String("status", string(quote.Status)),
		zap.String("user_id", userCtx.UserID),
	)
	return nil
}

// cloneQuote copies header and lines. Totals are recomputed from the copied lines.
func cloneQuote(source *domain.Quote, name string, status domain.QuoteStatus, user *auth.UserContext) *domain.Quote {
	sourceID := source.ID
	clone := &domain.Quote{
		CreatedByID:    user.UserID,
		CreatedByName:  user.DisplayName,
		MallID:         source.MallID,
		ActivityName:   name,
		ActivityTypeID: source.ActivityTypeID,
		Status:         status,
		Notes:          source.Notes,
		SourceQuoteID:  &sourceID,
	}
	clone.Lines = make([]domain.QuoteLine, len(source.Lines))
	for i, line := range source.Lines {
		clone.Lines[i] = domain.QuoteLine{
			InsumoID:    line.InsumoID,
			QtyPeople:   line.QtyPeople,
			UnitsValue:  line.UnitsValue,
			LineCostGTQ: line.LineCostGTQ,
			LineCostUSD: line.LineCostUSD,
		}
	}
	clone.ApplyTotals(domain.ComputeQuoteTotals(clone.Lines))
	return clone
}

func appendNote(notes, note string) string {
	if strings.TrimSpace(notes) == "" {
		return note
	}
	return notes + "\n" + note
}
