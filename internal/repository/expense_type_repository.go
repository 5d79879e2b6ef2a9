package repository

import (
	"context"

	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
)

// ExpenseTypeRepository reads the expense type lookup table
type ExpenseTypeRepository struct {
	db *gorm.DB
}

// NewExpenseTypeRepository creates a new expense type repository instance
func NewExpenseTypeRepository(db *gorm.DB) *ExpenseTypeRepository {
	return &ExpenseTypeRepository{db: db}
}

// List returns expense types ordered by name
func (r *ExpenseTypeRepository) List(ctx context.Context, includeInactive bool) ([]domain.ExpenseType, error) {
	var types []domain.ExpenseType
	query := applyActiveFilter(r.db.WithContext(ctx).Model(&domain.ExpenseType{}), includeInactive)
	err := query.Order("name ASC").Find(&types).Error
	return types, err
}
