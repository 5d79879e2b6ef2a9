package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuoteFilters defines filter options for quote listing
type QuoteFilters struct {
	Search         string
	Status         *domain.QuoteStatus
	ActivityTypeID *uuid.UUID
	MallID         *uuid.UUID
	OIID           *uuid.UUID
	CreatedByID    string
	// IncludeTemplates lists templates together with regular quotes when no status filter is set
	IncludeTemplates bool
}

// quoteSortableFields maps API field names to database column names for quotes
var quoteSortableFields = map[string]string{
	"createdAt":    "created_at",
	"updatedAt":    "updated_at",
	"activityName": "activity_name",
	"status":       "status",
	"totalCostUsd": "total_cost_usd",
	"sentAt":       "sent_at",
}

// QuoteRepository handles quote data access operations
type QuoteRepository struct {
	db *gorm.DB
}

// NewQuoteRepository creates a new quote repository instance
func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *QuoteRepository) WithTx(tx *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: tx}
}

// Transaction runs fn inside a database transaction
func (r *QuoteRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// Create stores a quote and any lines attached to it
func (r *QuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := quote.Lines
		if err := tx.Omit(clause.Associations).Create(quote).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].ID = uuid.Nil
			lines[i].QuoteID = quote.ID
			if err := tx.Omit(clause.Associations).Create(&lines[i]).Error; err != nil {
				return err
			}
		}
		quote.Lines = lines
		return nil
	})
}

// GetByID retrieves a quote with its lookups and lines
func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).
		Preload("Mall").
		Preload("OI").
		Preload("ActivityType").
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Lines.Insumo").
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetHeader retrieves a quote without relations
func (r *QuoteRepository) GetHeader(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// GetHeaderForUpdate retrieves a quote without relations and locks its row
// until the surrounding transaction ends
func (r *QuoteRepository) GetHeaderForUpdate(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Update saves the quote header. Lines are persisted through QuoteLineRepository.
func (r *QuoteRepository) Update(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(quote).Error
}

// Delete removes a quote and its lines
func (r *QuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&domain.QuoteLine{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Quote{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// HasExpenses reports whether any expense references the quote
func (r *QuoteRepository) HasExpenses(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Expense{}).Where("quote_id = ?", id).Count(&count).Error
	return count > 0, err
}

// List returns a paginated list of quotes with filter and sort options
func (r *QuoteRepository) List(ctx context.Context, page, pageSize int, filters *QuoteFilters, sort SortConfig) ([]domain.Quote, int64, error) {
	var quotes []domain.Quote
	var total int64

	page, pageSize = NormalizePagination(page, pageSize)

	query := r.db.WithContext(ctx).Model(&domain.Quote{})

	if filters != nil {
		if s := strings.TrimSpace(filters.Search); s != "" {
			query = query.Where("LOWER(activity_name) LIKE ?", "%"+strings.ToLower(s)+"%")
		}
		if filters.Status != nil {
			query = query.Where("status = ?", *filters.Status)
		} else if !filters.IncludeTemplates {
			query = query.Where("status <> ?", domain.QuoteStatusTemplate)
		}
		if filters.ActivityTypeID != nil {
			query = query.Where("activity_type_id = ?", *filters.ActivityTypeID)
		}
		if filters.MallID != nil {
			query = query.Where("mall_id = ?", *filters.MallID)
		}
		if filters.OIID != nil {
			query = query.Where("oi_id = ?", *filters.OIID)
		}
		if filters.CreatedByID != "" {
			query = query.Where("created_by_id = ?", filters.CreatedByID)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, quoteSortableFields, "updated_at")

	offset := (page - 1) * pageSize
	err := query.
		Preload("Mall").
		Preload("OI").
		Preload("ActivityType").
		Offset(offset).
		Limit(pageSize).
		Order(orderClause).
		Find(&quotes).Error

	return quotes, total, err
}

// ListByIDs loads quote headers keyed by ID
func (r *QuoteRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Quote, error) {
	result := make(map[uuid.UUID]*domain.Quote, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var quotes []domain.Quote
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&quotes).Error; err != nil {
		return nil, err
	}
	for i := range quotes {
		result[quotes[i].ID] = &quotes[i]
	}
	return result, nil
}

// UpdateFromStatus saves the quote header only while its stored status still
// equals from. It returns gorm.ErrRecordNotFound when another writer moved it first.
func (r *QuoteRepository) UpdateFromStatus(ctx context.Context, quote *domain.Quote, from domain.QuoteStatus) error {
	result := r.db.WithContext(ctx).
		Model(quote).
		Where("status = ?", from).
		Select("*").
		Omit(clause.Associations, "created_at").
		Updates(quote)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
