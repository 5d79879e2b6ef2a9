package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/datawarehouse"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LedgerSource provides posted ERP amounts per internal order code
type LedgerSource interface {
	IsEnabled() bool
	LedgerTotalsByOI(ctx context.Context, year int) ([]datawarehouse.LedgerAmount, error)
}

// DashboardFilters narrows the budget execution view
type DashboardFilters struct {
	Year           int
	MallID         *uuid.UUID
	ActivityTypeID *uuid.UUID
	QuoteID        *uuid.UUID
}

// DashboardService computes budget against actual spend
type DashboardService struct {
	dashboardRepo *repository.DashboardRepository
	quoteRepo     *repository.QuoteRepository
	ledger        LedgerSource
	logger        *zap.Logger
}

// NewDashboardService creates a new dashboard service. ledger may be nil when
// the data warehouse is not configured.
func NewDashboardService(dashboardRepo *repository.DashboardRepository, quoteRepo *repository.QuoteRepository, ledger LedgerSource, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		dashboardRepo: dashboardRepo,
		quoteRepo:     quoteRepo,
		ledger:        ledger,
		logger:        logger,
	}
}

// Dashboard returns per-OI execution rows, totals, the monthly breakdown and,
// when a quote filter is set, the quote drill-down.
func (s *DashboardService) Dashboard(ctx context.Context, filters DashboardFilters) (*domain.DashboardDTO, error) {
	if filters.Year == 0 {
		filters.Year = time.Now().Year()
	}
	if filters.Year < 2000 || filters.Year > 2100 {
		return nil, fmt.Errorf("%w: year out of range", ErrInvalidInput)
	}

	var quote *domain.Quote
	if filters.QuoteID != nil {
		q, err := s.quoteRepo.GetHeader(ctx, *filters.QuoteID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrQuoteNotFound
			}
			return nil, fmt.Errorf("failed to get quote: %w", err)
		}
		quote = q
	}

	execFilters := repository.ExecutionFilters{
		Year:           filters.Year,
		MallID:         filters.MallID,
		ActivityTypeID: filters.ActivityTypeID,
		QuoteID:        filters.QuoteID,
	}

	actuals, err := s.dashboardRepo.ActualsByOI(ctx, execFilters)
	if err != nil {
		return nil, fmt.Errorf("failed to sum actuals: %w", err)
	}
	actualByOI := make(map[uuid.UUID]repository.OIActual, len(actuals))
	for _, a := range actuals {
		actualByOI[a.OIID] = a
	}

	var ois []domain.OI
	if quote != nil {
		ids := make([]uuid.UUID, 0, len(actuals))
		for _, a := range actuals {
			ids = append(ids, a.OIID)
		}
		ois, err = s.dashboardRepo.OIsByIDs(ctx, ids)
	} else {
		ois, err = s.dashboardRepo.ActiveOIs(ctx, filters.MallID)
		if err == nil {
			ois, err = s.withSpendingOIs(ctx, ois, actuals)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load OIs: %w", err)
	}

	result := &domain.DashboardDTO{
		Year: filters.Year,
		Rows: make([]domain.OIExecutionDTO, 0, len(ois)),
	}

	budgetTotal, actualUSD, actualGTQ := decimal.Zero, decimal.Zero, decimal.Zero
	oiIDs := make([]uuid.UUID, 0, len(ois))
	for _, oi := range ois {
		a := actualByOI[oi.ID]
		result.Rows = append(result.Rows, executionRow(oi, a))
		budgetTotal = budgetTotal.Add(oi.AnnualBudgetUSD)
		actualUSD = actualUSD.Add(a.ActualUSD)
		actualGTQ = actualGTQ.Add(a.ActualGTQ)
		oiIDs = append(oiIDs, oi.ID)
	}

	result.Totals = domain.DashboardTotalsDTO{
		BudgetUSD:    budgetTotal.Round(domain.MoneyPlaces),
		ActualUSD:    actualUSD.Round(domain.MoneyPlaces),
		ActualGTQ:    actualGTQ.Round(domain.MoneyPlaces),
		ExecutionPct: domain.ExecutionPct(actualUSD, budgetTotal),
		AvailableUSD: budgetTotal.Sub(actualUSD).Round(domain.MoneyPlaces),
	}

	if result.Monthly, err = s.monthly(ctx, execFilters, oiIDs); err != nil {
		return nil, err
	}

	if quote != nil {
		result.DrillDown = &domain.QuoteDrillDownDTO{
			QuoteID:       quote.ID,
			ActivityName:  quote.ActivityName,
			QuotedCostUSD: quote.TotalCostUSD,
			ActualUSD:     result.Totals.ActualUSD,
			DifferenceUSD: quote.TotalCostUSD.Sub(result.Totals.ActualUSD),
		}
	}

	return result, nil
}

// withSpendingOIs appends the OIs that carry filtered spend but are missing
// from ois: OIs of another mall charged by this mall's quotes, and OIs
// deactivated after spend was booked.
func (s *DashboardService) withSpendingOIs(ctx context.Context, ois []domain.OI, actuals []repository.OIActual) ([]domain.OI, error) {
	listed := make(map[uuid.UUID]struct{}, len(ois))
	for _, oi := range ois {
		listed[oi.ID] = struct{}{}
	}
	var missing []uuid.UUID
	for _, a := range actuals {
		if _, ok := listed[a.OIID]; !ok {
			missing = append(missing, a.OIID)
		}
	}
	if len(missing) == 0 {
		return ois, nil
	}

	extra, err := s.dashboardRepo.OIsByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(extra) != len(missing) {
		s.logger.Warn("expenses reference unknown OIs",
			zap.Int("missing", len(missing)),
			zap.Int("found", len(extra)),
		)
	}
	return append(ois, extra...), nil
}

func executionRow(oi domain.OI, a repository.OIActual) domain.OIExecutionDTO {
	return domain.OIExecutionDTO{
		OIID:         oi.ID,
		OICode:       oi.Code,
		OIName:       oi.Name,
		BudgetUSD:    oi.AnnualBudgetUSD,
		ActualUSD:    a.ActualUSD.Round(domain.MoneyPlaces),
		ActualGTQ:    a.ActualGTQ.Round(domain.MoneyPlaces),
		ExecutionPct: domain.ExecutionPct(a.ActualUSD, oi.AnnualBudgetUSD),
		AvailableUSD: oi.AnnualBudgetUSD.Sub(a.ActualUSD).Round(domain.MoneyPlaces),
	}
}

// monthly returns twelve entries, months without budget or spend are zero
func (s *DashboardService) monthly(ctx context.Context, filters repository.ExecutionFilters, oiIDs []uuid.UUID) ([]domain.MonthlyExecutionDTO, error) {
	budgets, err := s.dashboardRepo.BudgetsByMonth(ctx, filters.Year, oiIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to sum monthly budgets: %w", err)
	}
	actuals, err := s.dashboardRepo.ActualsByMonth(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to sum monthly actuals: %w", err)
	}

	months := make([]domain.MonthlyExecutionDTO, 12)
	for i := range months {
		months[i] = domain.MonthlyExecutionDTO{Month: i + 1, BudgetUSD: decimal.Zero, ActualUSD: decimal.Zero}
	}
	for _, b := range budgets {
		if b.Month >= 1 && b.Month <= 12 {
			months[b.Month-1].BudgetUSD = b.Amount.Round(domain.MoneyPlaces)
		}
	}
	for _, a := range actuals {
		if a.Month >= 1 && a.Month <= 12 {
			months[a.Month-1].ActualUSD = a.Amount.Round(domain.MoneyPlaces)
		}
	}
	return months, nil
}

// Reconciliation compares recorded GTQ per OI code with the ERP postings
func (s *DashboardService) Reconciliation(ctx context.Context, year int) (*domain.ReconciliationDTO, error) {
	if s.ledger == nil || !s.ledger.IsEnabled() {
		return nil, ErrDataWarehouseDisabled
	}
	if year == 0 {
		year = time.Now().Year()
	}

	recorded, err := s.dashboardRepo.RecordedGTQByOICode(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to sum recorded expenses: %w", err)
	}
	ledger, err := s.ledger.LedgerTotalsByOI(ctx, year)
	if err != nil {
		s.logger.Error("ledger reconciliation failed", zap.Error(err), zap.Int("year", year))
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	rows := make(map[string]*domain.ReconciliationRowDTO, len(recorded)+len(ledger))
	row := func(code string) *domain.ReconciliationRowDTO {
		r, ok := rows[code]
		if !ok {
			r = &domain.ReconciliationRowDTO{OICode: code, RecordedGTQ: decimal.Zero, LedgerGTQ: decimal.Zero}
			rows[code] = r
		}
		return r
	}
	for _, rec := range recorded {
		r := row(rec.OICode)
		r.OIName = rec.OIName
		r.RecordedGTQ = r.RecordedGTQ.Add(rec.Amount)
	}
	for _, l := range ledger {
		r := row(l.OICode)
		r.LedgerGTQ = r.LedgerGTQ.Add(l.AmountGTQ)
	}

	result := &domain.ReconciliationDTO{Year: year, Rows: make([]domain.ReconciliationRowDTO, 0, len(rows))}
	for _, r := range rows {
		r.RecordedGTQ = r.RecordedGTQ.Round(domain.MoneyPlaces)
		r.LedgerGTQ = r.LedgerGTQ.Round(domain.MoneyPlaces)
		r.Difference = r.RecordedGTQ.Sub(r.LedgerGTQ)
		result.Rows = append(result.Rows, *r)
	}
	sort.Slice(result.Rows, func(i, j int) bool { return result.Rows[i].OICode < result.Rows[j].OICode })

	return result, nil
}
