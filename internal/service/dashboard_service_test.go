package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/datawarehouse"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/repository"
	"github.com/spectrum-media/quote-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLedger struct {
	enabled bool
	rows    []datawarehouse.LedgerAmount
	err     error
}

func (l *fakeLedger) IsEnabled() bool { return l.enabled }

func (l *fakeLedger) LedgerTotalsByOI(ctx context.Context, year int) ([]datawarehouse.LedgerAmount, error) {
	return l.rows, l.err
}

type dashboardData struct {
	mall, otherMall   *domain.Mall
	oiA, oiB, oiOther *domain.OI
	quoteA, quoteB    *domain.Quote
}

// seedDashboard books 780 GTQ (100 USD at 7.8) on OI-A in March and
// 390 GTQ (50 USD) on OI-A in May through two quotes, plus spend in another mall
func seedDashboard(t *testing.T, f *fixture) dashboardData {
	t.Helper()
	testutil.CreateTestRate(t, f.db, "7.8")
	d := dashboardData{
		mall:      testutil.CreateTestMall(t, f.db, "Oakland"),
		otherMall: testutil.CreateTestMall(t, f.db, "Miraflores"),
	}
	d.oiA = testutil.CreateTestOI(t, f.db, d.mall.ID, "OI-A", "1000")
	d.oiB = testutil.CreateTestOI(t, f.db, d.mall.ID, "OI-B", "0")
	d.oiOther = testutil.CreateTestOI(t, f.db, d.otherMall.ID, "OI-X", "500")
	d.quoteA = f.quoteInStatus(t, domain.QuoteStatusApproved, d.mall.ID, nil, "120")
	d.quoteB = f.quoteInStatus(t, domain.QuoteStatusExecuted, d.mall.ID, &d.oiA.ID, "80")
	other := f.quoteInStatus(t, domain.QuoteStatusApproved, d.otherMall.ID, nil, "10")

	admin := testutil.ContextAs(domain.RoleAdmin, "admin-1")
	book := func(q *domain.Quote, oi *domain.OI, date string, gtq float64) {
		_, err := f.expenses.CreateODC(admin, &domain.CreateODCExpenseRequest{
			QuoteID: q.ID, OIID: oi.ID, ODCNumber: "ODC", Date: date, AmountGTQ: gtq,
		})
		require.NoError(t, err)
	}
	book(d.quoteA, d.oiA, "2025-03-02", 780)
	book(d.quoteB, d.oiA, "2025-05-20", 390)
	book(other, d.oiOther, "2025-05-21", 78)
	book(d.quoteA, d.oiA, "2024-11-02", 7800)

	for month, amount := range map[int]float64{3: 200, 5: 300} {
		_, err := f.catalog.UpsertBudget(admin, &domain.UpsertBudgetRequest{OIID: d.oiA.ID, Year: 2025, Month: month, BudgetUSD: amount})
		require.NoError(t, err)
	}
	return d
}

func TestDashboardService_MallView(t *testing.T) {
	f := newFixture(t)
	d := seedDashboard(t, f)

	result, err := f.dashboard.Dashboard(context.Background(), DashboardFilters{Year: 2025, MallID: &d.mall.ID})
	require.NoError(t, err)

	require.Len(t, result.Rows, 2)
	rowA, rowB := result.Rows[0], result.Rows[1]
	assert.Equal(t, "OI-A", rowA.OICode)
	assertDec(t, "1000", rowA.BudgetUSD)
	assertDec(t, "150", rowA.ActualUSD)
	assertDec(t, "1170", rowA.ActualGTQ)
	assertDec(t, "15", rowA.ExecutionPct)
	assertDec(t, "850", rowA.AvailableUSD)

	// OIs without spend are still listed; zero budget yields zero percent
	assert.Equal(t, "OI-B", rowB.OICode)
	assertDec(t, "0", rowB.ActualUSD)
	assertDec(t, "0", rowB.ExecutionPct)

	assertDec(t, "1000", result.Totals.BudgetUSD)
	assertDec(t, "150", result.Totals.ActualUSD)
	assertDec(t, "15", result.Totals.ExecutionPct)
	assertDec(t, "850", result.Totals.AvailableUSD)

	require.Len(t, result.Monthly, 12)
	assert.Equal(t, 1, result.Monthly[0].Month)
	assertDec(t, "200", result.Monthly[2].BudgetUSD)
	assertDec(t, "100", result.Monthly[2].ActualUSD)
	assertDec(t, "300", result.Monthly[4].BudgetUSD)
	assertDec(t, "50", result.Monthly[4].ActualUSD)
	assertDec(t, "0", result.Monthly[11].ActualUSD)
	assertMonthlyMatchesTotals(t, result)
	assert.Nil(t, result.DrillDown)
}

func TestDashboardService_SpendOnOIOfAnotherMall(t *testing.T) {
	f := newFixture(t)
	d := seedDashboard(t, f)

	// an Oakland quote charged to the Miraflores OI
	_, err := f.expenses.CreateODC(testutil.ContextAs(domain.RoleAdmin, "admin-1"), &domain.CreateODCExpenseRequest{
		QuoteID: d.quoteA.ID, OIID: d.oiOther.ID, ODCNumber: "ODC-X", Date: "2025-06-10", AmountGTQ: 780,
	})
	require.NoError(t, err)

	result, err := f.dashboard.Dashboard(context.Background(), DashboardFilters{Year: 2025, MallID: &d.mall.ID})
	require.NoError(t, err)

	require.Len(t, result.Rows, 3)
	rowX := result.Rows[2]
	assert.Equal(t, "OI-X", rowX.OICode)
	assertDec(t, "500", rowX.BudgetUSD)
	assertDec(t, "100", rowX.ActualUSD, "only the Oakland spend on OI-X")
	assertDec(t, "20", rowX.ExecutionPct)

	assertDec(t, "1500", result.Totals.BudgetUSD)
	assertDec(t, "250", result.Totals.ActualUSD)
	assertDec(t, "100", result.Monthly[5].ActualUSD)
	assertMonthlyMatchesTotals(t, result)
}

func TestDashboardService_SpendOnDeactivatedOI(t *testing.T) {
	f := newFixture(t)
	d := seedDashboard(t, f)
	require.NoError(t, f.db.Model(&domain.OI{}).Where("id = ?", d.oiA.ID).Update("is_active", false).Error)

	result, err := f.dashboard.Dashboard(context.Background(), DashboardFilters{Year: 2025, MallID: &d.mall.ID})
	require.NoError(t, err)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, "OI-B", result.Rows[0].OICode)
	assert.Equal(t, "OI-A", result.Rows[1].OICode)
	assertDec(t, "150", result.Rows[1].ActualUSD)

	assertDec(t, "1000", result.Totals.BudgetUSD)
	assertDec(t, "150", result.Totals.ActualUSD)
	assertDec(t, "200", result.Monthly[2].BudgetUSD)
	assertMonthlyMatchesTotals(t, result)
}

func TestDashboardService_AllMalls(t *testing.T) {
	f := newFixture(t)
	seedDashboard(t, f)

	result, err := f.dashboard.Dashboard(context.Background(), DashboardFilters{Year: 2025})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 3)
	assertDec(t, "1500", result.Totals.BudgetUSD)
	assertDec(t, "160", result.Totals.ActualUSD)
	assertMonthlyMatchesTotals(t, result)
}

func TestDashboardService_QuoteDrillDown(t *testing.T) {
	f := newFixture(t)
	d := seedDashboard(t, f)

	result, err := f.dashboard.Dashboard(context.Background(), DashboardFilters{Year: 2025, QuoteID: &d.quoteA.ID})
	require.NoError(t, err)

	require.Len(t, result.Rows, 1)
	assert.Equal(t, "OI-A", result.Rows[0].OICode)
	assertDec(t, "100", result.Rows[0].ActualUSD)

	require.NotNil(t, result.DrillDown)
	assert.Equal(t, d.quoteA.ID, result.DrillDown.QuoteID)
	assertDec(t, "120", result.DrillDown.QuotedCostUSD)
	assertDec(t, "100", result.DrillDown.ActualUSD)
	assertDec(t, "20", result.DrillDown.DifferenceUSD)

	_, err = f.dashboard.Dashboard(context.Background(), DashboardFilters{Year: 2025, QuoteID: ptr(uuid.New())})
	assert.ErrorIs(t, err, ErrQuoteNotFound)
}

func TestDashboardService_InvalidYear(t *testing.T) {
	f := newFixture(t)
	_, err := f.dashboard.Dashboard(context.Background(), DashboardFilters{Year: 1900})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDashboardService_Reconciliation(t *testing.T) {
	f := newFixture(t)
	seedDashboard(t, f)

	_, err := f.dashboard.Reconciliation(context.Background(), 2025)
	assert.ErrorIs(t, err, ErrDataWarehouseDisabled)

	ledger := &fakeLedger{enabled: true, rows: []datawarehouse.LedgerAmount{
		{OICode: "OI-A", AmountGTQ: testutil.Dec("1100")},
		{OICode: "OI-Z", AmountGTQ: testutil.Dec("40")},
	}}
	svc := NewDashboardService(repository.NewDashboardRepository(f.db), repository.NewQuoteRepository(f.db), ledger, zap.NewNop())

	result, err := svc.Reconciliation(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	byCode := map[string]domain.ReconciliationRowDTO{}
	for _, r := range result.Rows {
		byCode[r.OICode] = r
	}
	assertDec(t, "1170", byCode["OI-A"].RecordedGTQ)
	assertDec(t, "1100", byCode["OI-A"].LedgerGTQ)
	assertDec(t, "70", byCode["OI-A"].Difference)
	assertDec(t, "78", byCode["OI-X"].Difference)
	assertDec(t, "-40", byCode["OI-Z"].Difference)
	assert.Equal(t, "OI-A", result.Rows[0].OICode)

	ledger.err = errors.New("timeout")
	_, err = svc.Reconciliation(context.Background(), 2025)
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }

// assertMonthlyMatchesTotals checks that no spend is lost between the
// per-OI rows and the monthly breakdown
func assertMonthlyMatchesTotals(t *testing.T, result *domain.DashboardDTO) {
	t.Helper()
	monthly := decimal.Zero
	for _, m := range result.Monthly {
		monthly = monthly.Add(m.ActualUSD)
	}
	rows := decimal.Zero
	for _, r := range result.Rows {
		rows = rows.Add(r.ActualUSD)
	}
	assertDec(t, result.Totals.ActualUSD.String(), monthly, "monthly sum")
	assertDec(t, result.Totals.ActualUSD.String(), rows, "row sum")
}
