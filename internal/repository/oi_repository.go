package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OIFilters defines filter options for OI listing
type OIFilters struct {
	MallID          *uuid.UUID
	Search          string
	IncludeInactive bool
}

// OIRepository handles internal order data access operations
type OIRepository struct {
	db *gorm.DB
}

// NewOIRepository creates a new OI repository instance
func NewOIRepository(db *gorm.DB) *OIRepository {
	return &OIRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *OIRepository) WithTx(tx *gorm.DB) *OIRepository {
	return &OIRepository{db: tx}
}

// Create creates a new OI
func (r *OIRepository) Create(ctx context.Context, oi *domain.OI) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(oi).Error
}

// GetByID retrieves an OI with its mall
func (r *OIRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OI, error) {
	var oi domain.OI
	err := r.db.WithContext(ctx).Preload("Mall").Where("id = ?", id).First(&oi).Error
	if err != nil {
		return nil, err
	}
	return &oi, nil
}

// GetByCode finds an OI by its accounting code
func (r *OIRepository) GetByCode(ctx context.Context, code string) (*domain.OI, error) {
	var oi domain.OI
	err := r.db.WithContext(ctx).Where("oi_code = ?", code).First(&oi).Error
	if err != nil {
		return nil, err
	}
	return &oi, nil
}

// Update saves an existing OI
func (r *OIRepository) Update(ctx context.Context, oi *domain.OI) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(oi).Error
}

// Deactivate marks an OI inactive
func (r *OIRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&domain.OI{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns OIs matching the filters ordered by code
func (r *OIRepository) List(ctx context.Context, filters OIFilters) ([]domain.OI, error) {
	var ois []domain.OI
	query := applyActiveFilter(r.db.WithContext(ctx).Model(&domain.OI{}).Preload("Mall"), filters.IncludeInactive)
	if filters.MallID != nil {
		query = query.Where("mall_id = ?", *filters.MallID)
	}
	if filters.Search != "" {
		pattern := "%" + toLower(filters.Search) + "%"
		query = query.Where("LOWER(oi_code) LIKE ? OR LOWER(oi_name) LIKE ?", pattern, pattern)
	}
	err := query.Order("oi_code ASC").Find(&ois).Error
	return ois, err
}
