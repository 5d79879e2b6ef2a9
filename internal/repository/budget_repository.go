package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BudgetRepository handles monthly OI budget data access
type BudgetRepository struct {
	db *gorm.DB
}

// NewBudgetRepository creates a new budget repository instance
func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Upsert creates or replaces the budget for (oi, year, month)
func (r *BudgetRepository) Upsert(ctx context.Context, budget *domain.Budget) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Budget
		err := tx.Where("oi_id = ? AND year = ? AND month = ?", budget.OIID, budget.Year, budget.Month).
			First(&existing).Error
		switch {
		case err == nil:
			existing.BudgetUSD = budget.BudgetUSD
			if err := tx.Omit(clause.Associations).Save(&existing).Error; err != nil {
				return err
			}
			*budget = existing
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Omit(clause.Associations).Create(budget).Error
		default:
			return err
		}
	})
}

// GetByID retrieves a budget row
func (r *BudgetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Budget, error) {
	var budget domain.Budget
	err := r.db.WithContext(ctx).Preload("OI").Where("id = ?", id).First(&budget).Error
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// Delete removes a budget row
func (r *BudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Budget{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns budgets for a year, optionally for a single OI
func (r *BudgetRepository) List(ctx context.Context, year int, oiID *uuid.UUID) ([]domain.Budget, error) {
	var budgets []domain.Budget
	query := r.db.WithContext(ctx).Preload("OI").Where("year = ?", year)
	if oiID != nil {
		query = query.Where("oi_id = ?", *oiID)
	}
	err := query.Order("month ASC").Find(&budgets).Error
	return budgets, err
}
