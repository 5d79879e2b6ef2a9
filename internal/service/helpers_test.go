package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/metrics"
	"github.com/spectrum-media/quote-api/internal/repository"
	"github.com/spectrum-media/quote-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	rates     *ExchangeRateService
	quotes    *QuoteService
	expenses  *ExpenseService
	dashboard *DashboardService
	catalog   *CatalogService
	metrics   *metrics.DomainMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	mallRepo := repository.NewMallRepository(db)
	oiRepo := repository.NewOIRepository(db)
	activityTypeRepo := repository.NewActivityTypeRepository(db)
	insumoRepo := repository.NewInsumoRepository(db)
	providerRepo := repository.NewProviderRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)

	domainMetrics := metrics.NewDomainMetrics(prometheus.NewRegistry())
	rates := NewExchangeRateService(repository.NewExchangeRateRepository(db), nil, log)

	return &fixture{
		db:    db,
		rates: rates,
		quotes: NewQuoteService(quoteRepo, repository.NewQuoteLineRepository(db), insumoRepo,
			activityTypeRepo, mallRepo, oiRepo, rates, domainMetrics, log),
		expenses: NewExpenseService(repository.NewExpenseRepository(db), quoteRepo, oiRepo,
			providerRepo, rates, domainMetrics, log),
		dashboard: NewDashboardService(repository.NewDashboardRepository(db), quoteRepo, nil, log),
		catalog: NewCatalogService(mallRepo, oiRepo, repository.NewBudgetRepository(db), activityTypeRepo,
			insumoRepo, providerRepo, repository.NewExpenseTypeRepository(db), log),
		metrics: domainMetrics,
	}
}

// quoteInStatus stores a quote for a mall, optionally with an OI assigned
func (f *fixture) quoteInStatus(t *testing.T, status domain.QuoteStatus, mallID uuid.UUID, oiID *uuid.UUID, costUSD string) *domain.Quote {
	t.Helper()
	at := testutil.CreateTestActivityType(t, f.db, "Type "+uuid.NewString()[:8])
	q := testutil.CreateTestQuote(t, f.db, at.ID, status, "seller-1")
	updates := map[string]interface{}{"mall_id": mallID, "total_cost_usd": costUSD}
	if oiID != nil {
		updates["oi_id"] = *oiID
	}
	require.NoError(t, f.db.Model(&domain.Quote{}).Where("id = ?", q.ID).Updates(updates).Error)
	q.MallID = &mallID
	q.OIID = oiID
	q.TotalCostUSD = testutil.Dec(costUSD)
	return q
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, testutil.Dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}
