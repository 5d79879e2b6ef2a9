package repository

import (
	"context"

	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
)

// ExchangeRateRepository handles exchange rate data access
type ExchangeRateRepository struct {
	db *gorm.DB
}

// NewExchangeRateRepository creates a new exchange rate repository instance
func NewExchangeRateRepository(db *gorm.DB) *ExchangeRateRepository {
	return &ExchangeRateRepository{db: db}
}

// GetActive returns the active rate, or gorm.ErrRecordNotFound when none is active
func (r *ExchangeRateRepository) GetActive(ctx context.Context) (*domain.ExchangeRate, error) {
	var rate domain.ExchangeRate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("effective_date DESC, created_at DESC").
		First(&rate).Error
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// CreateActive stores rate as the single active rate, deactivating every
// other row in the same transaction
func (r *ExchangeRateRepository) CreateActive(ctx context.Context, rate *domain.ExchangeRate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.ExchangeRate{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		rate.IsActive = true
		return tx.Create(rate).Error
	})
}

// List returns the rate history, newest first
func (r *ExchangeRateRepository) List(ctx context.Context, limit int) ([]domain.ExchangeRate, error) {
	var rates []domain.ExchangeRate
	if limit < 1 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	err := r.db.WithContext(ctx).
		Order("effective_date DESC, created_at DESC").
		Limit(limit).
		Find(&rates).Error
	return rates, err
}
