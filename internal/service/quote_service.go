package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/logger"
	"github.com/spectrum-media/quote-api/internal/mapper"
	"github.com/spectrum-media/quote-api/internal/metrics"
	"github.com/spectrum-media/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuoteService handles quote drafting and the quote lifecycle
type QuoteService struct {
	quoteRepo        *repository.QuoteRepository
	lineRepo         *repository.QuoteLineRepository
	insumoRepo       *repository.InsumoRepository
	activityTypeRepo *repository.ActivityTypeRepository
	mallRepo         *repository.MallRepository
	oiRepo           *repository.OIRepository
	rates            *ExchangeRateService
	metrics          *metrics.DomainMetrics
	logger           *zap.Logger
}

// NewQuoteService creates a new quote service instance
func NewQuoteService(
	quoteRepo *repository.QuoteRepository,
	lineRepo *repository.QuoteLineRepository,
	insumoRepo *repository.InsumoRepository,
	activityTypeRepo *repository.ActivityTypeRepository,
	mallRepo *repository.MallRepository,
	oiRepo *repository.OIRepository,
	rates *ExchangeRateService,
	domainMetrics *metrics.DomainMetrics,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		quoteRepo:        quoteRepo,
		lineRepo:         lineRepo,
		insumoRepo:       insumoRepo,
		activityTypeRepo: activityTypeRepo,
		mallRepo:         mallRepo,
		oiRepo:           oiRepo,
		rates:            rates,
		metrics:          domainMetrics,
		logger:           logger,
	}
}

// requireRole returns the calling user when they hold one of roles
func requireRole(ctx context.Context, roles ...domain.UserRole) (*auth.UserContext, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if !userCtx.HasAnyRole(roles...) {
		return nil, ErrPermissionDenied
	}
	return userCtx, nil
}

// Create creates a new draft quote
func (s *QuoteService) Create(ctx context.Context, req *domain.CreateQuoteRequest) (*domain.QuoteDTO, error) {
	userCtx, err := requireRole(ctx, domain.EditorRoles...)
	if err != nil {
		return nil, err
	}

	if err := s.checkActivityType(ctx, req.ActivityTypeID); err != nil {
		return nil, err
	}
	if err := s.checkMall(ctx, req.MallID); err != nil {
		return nil, err
	}

	quote := &domain.Quote{
		CreatedByID:       userCtx.UserID,
		CreatedByName:     userCtx.DisplayName,
		MallID:            req.MallID,
		ActivityName:      strings.TrimSpace(req.ActivityName),
		ActivityTypeID:    req.ActivityTypeID,
		Status:            domain.QuoteStatusDraft,
		Notes:             req.Notes,
		TotalCostGTQ:      decimal.Zero,
		TotalCostUSD:      decimal.Zero,
		SuggestedPriceM50: decimal.Zero,
		SuggestedPriceM60: decimal.Zero,
		SuggestedPriceM70: decimal.Zero,
	}
	if err := s.quoteRepo.Create(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	logger.WithQuote(s.logger, quote.ID.String(), string(quote.Status)).Info("quote created",
		zap.String("activity_name", quote.ActivityName),
		zap.String("created_by", userCtx.UserID),
	)

	return s.GetByID(ctx, quote.ID)
}

// GetByID retrieves a quote with its lines
func (s *QuoteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	quote, err := s.getQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToQuoteDTO(quote)
	return &dto, nil
}

// List returns a paginated list of quotes
func (s *QuoteService) List(ctx context.Context, page, pageSize int, filters *repository.QuoteFilters, sort repository.SortConfig) (*domain.PaginatedResponse, error) {
	page, pageSize = repository.NormalizePagination(page, pageSize)

	quotes, total, err := s.quoteRepo.List(ctx, page, pageSize, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}

	dtos := make([]domain.QuoteDTO, len(quotes))
	for i := range quotes {
		dtos[i] = mapper.ToQuoteDTO(&quotes[i])
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

// UpdateHeader changes name, activity type, mall and notes of a draft quote
func (s *QuoteService) UpdateHeader(ctx context.Context, id uuid.UUID, req *domain.UpdateQuoteRequest) (*domain.QuoteDTO, error) {
	if _, err := requireRole(ctx, domain.EditorRoles...); err != nil {
		return nil, err
	}

	quote, err := s.getHeader(ctx, id)
	if err != nil {
		return nil, err
	}
	if !quote.Status.IsEditable() {
		return nil, ErrQuoteNotEditable
	}

	if req.ActivityTypeID != quote.ActivityTypeID {
		if err := s.checkActivityType(ctx, req.ActivityTypeID); err != nil {
			return nil, err
		}
	}
	if req.MallID != nil && (quote.MallID == nil || *req.MallID != *quote.MallID) {
		if err := s.checkMall(ctx, req.MallID); err != nil {
			return nil, err
		}
	}

	quote.ActivityName = strings.TrimSpace(req.ActivityName)
	quote.ActivityTypeID = req.ActivityTypeID
	quote.MallID = req.MallID
	quote.Notes = req.Notes

	if err := s.quoteRepo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to update quote: %w", err)
	}
	return s.GetByID(ctx, id)
}

// AddLine adds an insumo to a draft quote and recomputes its totals
func (s *QuoteService) AddLine(ctx context.Context, quoteID uuid.UUID, req *domain.AddQuoteLineRequest) (*domain.QuoteDTO, error) {
	if _, err := requireRole(ctx, domain.EditorRoles...); err != nil {
		return nil, err
	}

	insumo, err := s.insumoRepo.GetByID(ctx, req.InsumoID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInsumoNotFound
		}
		return nil, fmt.Errorf("failed to get insumo: %w", err)
	}
	if !insumo.IsActive {
		return nil, fmt.Errorf("%w: insumo %s", ErrInactiveReference, insumo.Name)
	}

	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}

	line := &domain.QuoteLine{
		QuoteID:    quoteID,
		InsumoID:   insumo.ID,
		QtyPeople:  req.QtyPeople,
		UnitsValue: effectiveUnits(insumo, req.UnitsValue),
	}
	if err := domain.PriceLine(line, insumo, rate); err != nil {
		return nil, err
	}

	err = s.quoteRepo.Transaction(ctx, func(tx *gorm.DB) error {
		quote, err := s.editableQuote(ctx, tx, quoteID)
		if err != nil {
			return err
		}
		if err := s.lineRepo.WithTx(tx).Create(ctx, line); err != nil {
			return fmt.Errorf("failed to add quote line: %w", err)
		}
		return s.recomputeTotals(ctx, tx, quote)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("quote line added",
		zap.String("quote_id", quoteID.String()),
		zap.String("insumo", insumo.Name),
		zap.String("line_cost_gtq", line.LineCostGTQ.String()),
	)
	return s.GetByID(ctx, quoteID)
}

// UpdateLine changes the quantities of a line and recomputes the quote totals
func (s *QuoteService) UpdateLine(ctx context.Context, quoteID, lineID uuid.UUID, req *domain.UpdateQuoteLineRequest) (*domain.QuoteDTO, error) {
	if _, err := requireRole(ctx, domain.EditorRoles...); err != nil {
		return nil, err
	}

	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}

	err = s.quoteRepo.Transaction(ctx, func(tx *gorm.DB) error {
		quote, err := s.editableQuote(ctx, tx, quoteID)
		if err != nil {
			return err
		}
		lines := s.lineRepo.WithTx(tx)
		line, err := lines.GetByID(ctx, quoteID, lineID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuoteLineNotFound
			}
			return fmt.Errorf("failed to get quote line: %w", err)
		}
		if line.Insumo == nil {
			return ErrInsumoNotFound
		}

		line.QtyPeople = req.QtyPeople
		line.UnitsValue = effectiveUnits(line.Insumo, req.UnitsValue)
		if err := domain.PriceLine(line, line.Insumo, rate); err != nil {
			return err
		}
		if err := lines.Update(ctx, line); err != nil {
			return fmt.Errorf("failed to update quote line: %w", err)
		}
		return s.recomputeTotals(ctx, tx, quote)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, quoteID)
}

// DeleteLine removes a line and recomputes the quote totals
func (s *QuoteService) DeleteLine(ctx context.Context, quoteID, lineID uuid.UUID) (*domain.QuoteDTO, error) {
	if _, err := requireRole(ctx, domain.EditorRoles...); err != nil {
		return nil, err
	}

	err := s.quoteRepo.Transaction(ctx, func(tx *gorm.DB) error {
		quote, err := s.editableQuote(ctx, tx, quoteID)
		if err != nil {
			return err
		}
		if err := s.lineRepo.WithTx(tx).Delete(ctx, quoteID, lineID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrQuoteLineNotFound
			}
			return fmt.Errorf("failed to delete quote line: %w", err)
		}
		return s.recomputeTotals(ctx, tx, quote)
	})
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, quoteID)
}

// Recalculate reprices every line of a draft at the current rate and insumo costs
func (s *QuoteService) Recalculate(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	if _, err := requireRole(ctx, domain.EditorRoles...); err != nil {
		return nil, err
	}

	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		return nil, err
	}

	err = s.quoteRepo.Transaction(ctx, func(tx *gorm.DB) error {
		quote, err := s.editableQuote(ctx, tx, id)
		if err != nil {
			return err
		}
		lines := s.lineRepo.WithTx(tx)
		current, err := lines.ListByQuote(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to list quote lines: %w", err)
		}
		for i := range current {
			line := &current[i]
			if line.Insumo == nil {
				return fmt.Errorf("%w: line %s", ErrInsumoNotFound, line.ID)
			}
			line.UnitsValue = effectiveUnits(line.Insumo, line.UnitsValue)
			if err := domain.PriceLine(line, line.Insumo, rate); err != nil {
				return err
			}
			if err := lines.Update(ctx, line); err != nil {
				return fmt.Errorf("failed to update quote line: %w", err)
			}
		}
		return s.recomputeTotals(ctx, tx, quote)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote recalculated", zap.String("quote_id", id.String()), zap.String("rate", rate.String()))
	return s.GetByID(ctx, id)
}

// effectiveUnits forces per-activity insumos to a single unit and defaults
// missing unit counts to one
func effectiveUnits(insumo *domain.Insumo, units int) int {
	if insumo.BillingMode == domain.BillingModePerActivity || units < 1 {
		return 1
	}
	return units
}

// recomputeTotals reloads the lines inside tx and stores the derived totals on quote
func (s *QuoteService) recomputeTotals(ctx context.Context, tx *gorm.DB, quote *domain.Quote) error {
	lines, err := s.lineRepo.WithTx(tx).ListByQuote(ctx, quote.ID)
	if err != nil {
		return fmt.Errorf("failed to list quote lines: %w", err)
	}
	quote.ApplyTotals(domain.ComputeQuoteTotals(lines))
	if err := s.quoteRepo.WithTx(tx).Update(ctx, quote); err != nil {
		return fmt.Errorf("failed to update quote totals: %w", err)
	}
	return nil
}

func (s *QuoteService) editableQuote(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Quote, error) {
	quote, err := s.quoteRepo.WithTx(tx).GetHeaderForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if !quote.Status.IsEditable() {
		return nil, ErrQuoteNotEditable
	}
	return quote, nil
}

func (s *QuoteService) getQuote(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return quote, nil
}

func (s *QuoteService) getHeader(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	quote, err := s.quoteRepo.GetHeader(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return quote, nil
}

func (s *QuoteService) checkActivityType(ctx context.Context, id uuid.UUID) error {
	at, err := s.activityTypeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityTypeNotFound
		}
		return fmt.Errorf("failed to get activity type: %w", err)
	}
	if !at.IsActive {
		return fmt.Errorf("%w: activity type %s", ErrInactiveReference, at.Name)
	}
	return nil
}

func (s *QuoteService) checkMall(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	mall, err := s.mallRepo.GetByID(ctx, *id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMallNotFound
		}
		return fmt.Errorf("failed to get mall: %w", err)
	}
	if !mall.IsActive {
		return fmt.Errorf("%w: mall %s", ErrInactiveReference, mall.Name)
	}
	return nil
}
