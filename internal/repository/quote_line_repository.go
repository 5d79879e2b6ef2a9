package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteLineRepository handles quote line data access operations
type QuoteLineRepository struct {
	db *gorm.DB
}

// NewQuoteLineRepository creates a new quote line repository instance
func NewQuoteLineRepository(db *gorm.DB) *QuoteLineRepository {
	return &QuoteLineRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *QuoteLineRepository) WithTx(tx *gorm.DB) *QuoteLineRepository {
	return &QuoteLineRepository{db: tx}
}

func (r *QuoteLineRepository) Create(ctx context.Context, line *domain.QuoteLine) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(line).Error
}

// GetByID retrieves a line that belongs to the given quote
func (r *QuoteLineRepository) GetByID(ctx context.Context, quoteID, lineID uuid.UUID) (*domain.QuoteLine, error) {
	var line domain.QuoteLine
	err := r.db.WithContext(ctx).
		Preload("Insumo").
		Where("id = ? AND quote_id = ?", lineID, quoteID).
		First(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *QuoteLineRepository) Update(ctx context.Context, line *domain.QuoteLine) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(line).Error
}

func (r *QuoteLineRepository) Delete(ctx context.Context, quoteID, lineID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.QuoteLine{}, "id = ? AND quote_id = ?", lineID, quoteID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByQuote returns the lines of a quote with their insumos
func (r *QuoteLineRepository) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]domain.QuoteLine, error) {
	var lines []domain.QuoteLine
	err := r.db.WithContext(ctx).
		Preload("Insumo").
		Where("quote_id = ?", quoteID).
		Order("created_at ASC").
		Find(&lines).Error
	return lines, err
}

// CountByQuote returns the number of lines on a quote
func (r *QuoteLineRepository) CountByQuote(ctx context.Context, quoteID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.QuoteLine{}).Where("quote_id = ?", quoteID).Count(&count).Error
	return count, err
}
