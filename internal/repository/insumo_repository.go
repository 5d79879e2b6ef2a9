package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
)

// InsumoRepository handles insumo (billable supply) data access
type InsumoRepository struct {
	db *gorm.DB
}

// NewInsumoRepository creates a new insumo repository instance
func NewInsumoRepository(db *gorm.DB) *InsumoRepository {
	return &InsumoRepository{db: db}
}

func (r *InsumoRepository) Create(ctx context.Context, insumo *domain.Insumo) error {
	return r.db.WithContext(ctx).Create(insumo).Error
}

func (r *InsumoRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Insumo, error) {
	var insumo domain.Insumo
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&insumo).Error
	if err != nil {
		return nil, err
	}
	return &insumo, nil
}

// GetByIDs loads several insumos keyed by ID
func (r *InsumoRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Insumo, error) {
	result := make(map[uuid.UUID]*domain.Insumo, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var insumos []domain.Insumo
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&insumos).Error; err != nil {
		return nil, err
	}
	for i := range insumos {
		result[insumos[i].ID] = &insumos[i]
	}
	return result, nil
}

func (r *InsumoRepository) Update(ctx context.Context, insumo *domain.Insumo) error {
	return r.db.WithContext(ctx).Save(insumo).Error
}

// Deactivate marks an insumo inactive. Existing quote lines keep their stored costs.
func (r *InsumoRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&domain.Insumo{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *InsumoRepository) List(ctx context.Context, includeInactive bool, search string) ([]domain.Insumo, error) {
	var insumos []domain.Insumo
	query := applyActiveFilter(r.db.WithContext(ctx).Model(&domain.Insumo{}), includeInactive)
	query = applySearch(query, "name", search)
	err := query.Order("name ASC").Find(&insumos).Error
	return insumos, err
}
