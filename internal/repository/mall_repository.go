package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
)

// MallRepository handles mall data access operations
type MallRepository struct {
	db *gorm.DB
}

// NewMallRepository creates a new mall repository instance
func NewMallRepository(db *gorm.DB) *MallRepository {
	return &MallRepository{db: db}
}

// Create creates a new mall in the database
func (r *MallRepository) Create(ctx context.Context, mall *domain.Mall) error {
	return r.db.WithContext(ctx).Create(mall).Error
}

// GetByID retrieves a mall by its ID
func (r *MallRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Mall, error) {
	var mall domain.Mall
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&mall).Error
	if err != nil {
		return nil, err
	}
	return &mall, nil
}

// Update saves an existing mall
func (r *MallRepository) Update(ctx context.Context, mall *domain.Mall) error {
	return r.db.WithContext(ctx).Save(mall).Error
}

// Deactivate marks a mall inactive. Malls are never hard deleted because
// OIs, quotes and expenses reference them.
func (r *MallRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&domain.Mall{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns malls ordered by name
func (r *MallRepository) List(ctx context.Context, includeInactive bool, search string) ([]domain.Mall, error) {
	var malls []domain.Mall
	query := applyActiveFilter(r.db.WithContext(ctx).Model(&domain.Mall{}), includeInactive)
	query = applySearch(query, "name", search)
	err := query.Order("name ASC").Find(&malls).Error
	return malls, err
}
