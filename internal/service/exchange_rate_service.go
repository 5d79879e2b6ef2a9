package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/cache"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/mapper"
	"github.com/spectrum-media/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExchangeRateService manages the GTQ per USD conversion rate
type ExchangeRateService struct {
	rateRepo *repository.ExchangeRateRepository
	cache    cache.RateCache
	logger   *zap.Logger
}

// NewExchangeRateService creates a new exchange rate service. A nil cache disables caching.
func NewExchangeRateService(rateRepo *repository.ExchangeRateRepository, rateCache cache.RateCache, logger *zap.Logger) *ExchangeRateService {
	if rateCache == nil {
		rateCache = cache.NoopRateCache{}
	}
	return &ExchangeRateService{
		rateRepo: rateRepo,
		cache:    rateCache,
		logger:   logger,
	}
}

// CurrentRate returns the active rate, falling back to the default when none is active
func (s *ExchangeRateService) CurrentRate(ctx context.Context) (decimal.Decimal, error) {
	if rate, ok := s.cache.GetActiveRate(ctx); ok {
		return rate, nil
	}

	active, err := s.rateRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.DefaultExchangeRate, nil
		}
		return decimal.Zero, fmt.Errorf("failed to get active exchange rate: %w", err)
	}

	s.cache.SetActiveRate(ctx, active.GTQPerUSD)
	return active.GTQPerUSD, nil
}

// GetActive returns the active rate row, or the default rate flagged IsDefault
func (s *ExchangeRateService) GetActive(ctx context.Context) (*domain.ExchangeRateDTO, error) {
	active, err := s.rateRepo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.ExchangeRateDTO{
				GTQPerUSD: domain.DefaultExchangeRate,
				IsActive:  true,
				IsDefault: true,
			}, nil
		}
		return nil, fmt.Errorf("failed to get active exchange rate: %w", err)
	}
	dto := mapper.ToExchangeRateDTO(active)
	return &dto, nil
}

// List returns the rate history, newest first
func (s *ExchangeRateService) List(ctx context.Context, limit int) ([]domain.ExchangeRateDTO, error) {
	rates, err := s.rateRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rates: %w", err)
	}
	dtos := make([]domain.ExchangeRateDTO, len(rates))
	for i := range rates {
		dtos[i] = mapper.ToExchangeRateDTO(&rates[i])
	}
	return dtos, nil
}

// Set stores a new active rate and deactivates the previous one
func (s *ExchangeRateService) Set(ctx context.Context, req *domain.SetExchangeRateRequest) (*domain.ExchangeRateDTO, error) {
	rate := decimal.NewFromFloat(req.GTQPerUSD).Round(4)
	if !rate.IsPositive() {
		return nil, fmt.Errorf("%w: gtqPerUsd must be greater than zero", ErrInvalidInput)
	}

	effective := time.Now().UTC().Truncate(24 * time.Hour)
	if req.EffectiveDate != "" {
		parsed, err := time.Parse(domain.DateLayout, req.EffectiveDate)
		if err != nil {
			return nil, fmt.Errorf("%w: effectiveDate", ErrInvalidInput)
		}
		effective = parsed
	}

	row := &domain.ExchangeRate{
		EffectiveDate: effective,
		GTQPerUSD:     rate,
	}
	if userCtx, ok := auth.FromContext(ctx); ok {
		row.SetByID = userCtx.UserID
		row.SetByName = userCtx.DisplayName
	}

	if err := s.rateRepo.CreateActive(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to set exchange rate: %w", err)
	}
	s.cache.Invalidate(ctx)

	s.logger.Info("exchange rate updated",
		zap.String("gtq_per_usd", rate.String()),
		zap.String("effective_date", effective.Format(domain.DateLayout)),
		zap.String("set_by", row.SetByName),
	)

	dto := mapper.ToExchangeRateDTO(row)
	return &dto, nil
}
