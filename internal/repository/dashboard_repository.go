package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/domain"
	"gorm.io/gorm"
)

// ExecutionFilters narrow the actual expenses counted by the dashboard
type ExecutionFilters struct {
	Year           int
	MallID         *uuid.UUID
	ActivityTypeID *uuid.UUID
	QuoteID        *uuid.UUID
}

// OIActual is the sum of expenses booked against one OI
type OIActual struct {
	OIID      uuid.UUID       `gorm:"column:oi_id"`
	ActualUSD decimal.Decimal `gorm:"column:actual_usd"`
	ActualGTQ decimal.Decimal `gorm:"column:actual_gtq"`
}

// MonthAmount is a USD amount for one month of the year
type MonthAmount struct {
	Month  int             `gorm:"column:month"`
	Amount decimal.Decimal `gorm:"column:amount"`
}

// CodeAmount is a GTQ amount for one OI code
type CodeAmount struct {
	OICode string          `gorm:"column:oi_code"`
	OIName string          `gorm:"column:oi_name"`
	Amount decimal.Decimal `gorm:"column:amount"`
}

// DashboardRepository runs the budget execution aggregations
type DashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository creates a new dashboard repository instance
func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// ActiveOIs returns the active OIs, optionally for a single mall, ordered by code
func (r *DashboardRepository) ActiveOIs(ctx context.Context, mallID *uuid.UUID) ([]domain.OI, error) {
	var ois []domain.OI
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if mallID != nil {
		query = query.Where("mall_id = ?", *mallID)
	}
	err := query.Order("oi_code ASC").Find(&ois).Error
	return ois, err
}

// OIsByIDs loads OIs regardless of their active flag
func (r *DashboardRepository) OIsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.OI, error) {
	var ois []domain.OI
	if len(ids) == 0 {
		return ois, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("oi_code ASC").Find(&ois).Error
	return ois, err
}

// ActualsByOI sums the year's expenses per OI
func (r *DashboardRepository) ActualsByOI(ctx context.Context, filters ExecutionFilters) ([]OIActual, error) {
	var rows []OIActual
	err := r.actualsQuery(ctx, filters).
		Select("expenses.oi_id AS oi_id, " +
			"COALESCE(SUM(expenses.amount_usd), 0) AS actual_usd, " +
			"COALESCE(SUM(expenses.amount_gtq), 0) AS actual_gtq").
		Group("expenses.oi_id").
		Scan(&rows).Error
	return rows, err
}

// ActualsByMonth sums the year's expenses (USD) per month
func (r *DashboardRepository) ActualsByMonth(ctx context.Context, filters ExecutionFilters) ([]MonthAmount, error) {
	var rows []MonthAmount
	err := r.actualsQuery(ctx, filters).
		Select("expenses.month AS month, COALESCE(SUM(expenses.amount_usd), 0) AS amount").
		Group("expenses.month").
		Order("expenses.month").
		Scan(&rows).Error
	return rows, err
}

// BudgetsByMonth sums monthly budget rows of the given OIs per month
func (r *DashboardRepository) BudgetsByMonth(ctx context.Context, year int, oiIDs []uuid.UUID) ([]MonthAmount, error) {
	var rows []MonthAmount
	if len(oiIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Budget{}).
		Select("month, COALESCE(SUM(budget_usd), 0) AS amount").
		Where("year = ? AND oi_id IN ?", year, oiIDs).
		Group("month").
		Order("month").
		Scan(&rows).Error
	return rows, err
}

// RecordedGTQByOICode sums the year's expenses in GTQ per OI code
func (r *DashboardRepository) RecordedGTQByOICode(ctx context.Context, year int) ([]CodeAmount, error) {
	var rows []CodeAmount
	err := r.db.WithContext(ctx).
		Table("expenses").
		Joins("JOIN ois ON ois.id = expenses.oi_id").
		Select("ois.oi_code AS oi_code, ois.oi_name AS oi_name, COALESCE(SUM(expenses.amount_gtq), 0) AS amount").
		Where("expenses.year = ?", year).
		Group("ois.oi_code, ois.oi_name").
		Order("ois.oi_code").
		Scan(&rows).Error
	return rows, err
}

func (r *DashboardRepository) actualsQuery(ctx context.Context, filters ExecutionFilters) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("expenses").
		Joins("JOIN quotes ON quotes.id = expenses.quote_id").
		Where("expenses.year = ?", filters.Year)
	if filters.MallID != nil {
		query = query.Where("expenses.mall_id = ?", *filters.MallID)
	}
	if filters.ActivityTypeID != nil {
		query = query.Where("quotes.activity_type_id = ?", *filters.ActivityTypeID)
	}
	if filters.QuoteID != nil {
		query = query.Where("expenses.quote_id = ?", *filters.QuoteID)
	}
	return query
}
