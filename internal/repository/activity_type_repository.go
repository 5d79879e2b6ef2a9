package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
)

// ActivityTypeRepository handles activity type data access
type ActivityTypeRepository struct {
	db *gorm.DB
}

// NewActivityTypeRepository creates a new activity type repository instance
func NewActivityTypeRepository(db *gorm.DB) *ActivityTypeRepository {
	return &ActivityTypeRepository{db: db}
}

func (r *ActivityTypeRepository) Create(ctx context.Context, at *domain.ActivityType) error {
	return r.db.WithContext(ctx).Create(at).Error
}

func (r *ActivityTypeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ActivityType, error) {
	var at domain.ActivityType
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&at).Error
	if err != nil {
		return nil, err
	}
	return &at, nil
}

func (r *ActivityTypeRepository) Update(ctx context.Context, at *domain.ActivityType) error {
	return r.db.WithContext(ctx).Save(at).Error
}

// Deactivate marks an activity type inactive
func (r *ActivityTypeRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Model(&domain.ActivityType{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ActivityTypeRepository) List(ctx context.Context, includeInactive bool, search string) ([]domain.ActivityType, error) {
	var types []domain.ActivityType
	query := applyActiveFilter(r.db.WithContext(ctx).Model(&domain.ActivityType{}), includeInactive)
	query = applySearch(query, "name", search)
	err := query.Order("name ASC").Find(&types).Error
	return types, err
}
