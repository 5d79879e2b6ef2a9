package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ExpenseFilters defines filter options for expense listing and reports
type ExpenseFilters struct {
	QuoteID  *uuid.UUID
	OIID     *uuid.UUID
	MallID   *uuid.UUID
	Category *domain.ExpenseCategory
	Year     *int
	DateFrom *time.Time
	DateTo   *time.Time
}

var expenseSortableFields = map[string]string{
	"date":      "date",
	"createdAt": "created_at",
	"amountGtq": "amount_gtq",
	"amountUsd": "amount_usd",
}

// ExpenseRepository handles expense data access operations
type ExpenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a new expense repository instance
func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create stores a single expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(expense).Error
}

// GetByID retrieves an expense with its lookups
func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Expense, error) {
	var expense domain.Expense
	err := r.withRelations(r.db.WithContext(ctx)).Where("expenses.id = ?", id).First(&expense).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// Delete removes an expense
func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Expense{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns a paginated list of expenses
func (r *ExpenseRepository) List(ctx context.Context, page, pageSize int, filters *ExpenseFilters, sort SortConfig) ([]domain.Expense, int64, error) {
	var expenses []domain.Expense
	var total int64

	page, pageSize = NormalizePagination(page, pageSize)

	query := applyExpenseFilters(r.db.WithContext(ctx).Model(&domain.Expense{}), filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderClause := BuildOrderClause(sort, expenseSortableFields, "date")
	offset := (page - 1) * pageSize
	err := r.withRelations(query).
		Order(orderClause).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&expenses).Error

	return expenses, total, err
}

// ListAll returns every expense matching the filters ordered by date, for reports
func (r *ExpenseRepository) ListAll(ctx context.Context, filters *ExpenseFilters) ([]domain.Expense, error) {
	var expenses []domain.Expense
	query := applyExpenseFilters(r.db.WithContext(ctx).Model(&domain.Expense{}), filters)
	err := r.withRelations(query).Order("date ASC").Order("created_at ASC").Find(&expenses).Error
	return expenses, err
}

func (r *ExpenseRepository) withRelations(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Quote").
		Preload("OI").
		Preload("Mall").
		Preload("Provider")
}

func applyExpenseFilters(query *gorm.DB, filters *ExpenseFilters) *gorm.DB {
	if filters == nil {
		return query
	}
	if filters.QuoteID != nil {
		query = query.Where("quote_id = ?", *filters.QuoteID)
	}
	if filters.OIID != nil {
		query = query.Where("oi_id = ?", *filters.OIID)
	}
	if filters.MallID != nil {
		query = query.Where("mall_id = ?", *filters.MallID)
	}
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.Year != nil {
		query = query.Where("year = ?", *filters.Year)
	}
	if filters.DateFrom != nil {
		query = query.Where("date >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("date <= ?", *filters.DateTo)
	}
	return query
}
