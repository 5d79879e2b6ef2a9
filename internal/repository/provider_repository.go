package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
)

// ProviderFilters defines filter options for provider listing
type ProviderFilters struct {
	Search          string
	ProviderType    *domain.ProviderType
	IncludeInactive bool
}

// ProviderRepository handles provider data access operations
type ProviderRepository struct {
	db *gorm.DB
}

// NewProviderRepository creates a new provider repository instance
func NewProviderRepository(db *gorm.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

func (r *ProviderRepository) Create(ctx context.Context, provider *domain.Provider) error {
	return r.db.WithContext(ctx).Create(provider).Error
}

func (r *ProviderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Provider, error) {
	var provider domain.Provider
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&provider).Error
	if err != nil {
		return nil, err
	}
	return &provider, nil
}

func (r *ProviderRepository) Update(ctx context.Context, provider *domain.Provider) error {
	return r.db.WithContext(ctx).Save(provider).Error
}

// Deactivate marks a provider inactive
func (r *ProviderRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&domain.Provider{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns providers matching the filters ordered by name
func (r *ProviderRepository) List(ctx context.Context, filters ProviderFilters) ([]domain.Provider, error) {
	var providers []domain.Provider
	query := applyActiveFilter(r.db.WithContext(ctx).Model(&domain.Provider{}), filters.IncludeInactive)
	if s := strings.TrimSpace(filters.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(legal_name) LIKE ? OR LOWER(nit) LIKE ?", pattern, pattern, pattern)
	}
	if filters.ProviderType != nil {
		query = query.Where("provider_type = ?", *filters.ProviderType)
	}
	err := query.Order("name ASC").Find(&providers).Error
	return providers, err
}
