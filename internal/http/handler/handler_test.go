package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/http/handler"
	"github.com/spectrum-media/quote-api/internal/metrics"
	"github.com/spectrum-media/quote-api/internal/repository"
	"github.com/spectrum-media/quote-api/internal/service"
	"github.com/spectrum-media/quote-api/internal/storage"
	"github.com/spectrum-media/quote-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testEnv mounts every handler on a bare chi router. Role gating lives in the
// router package; here the caller identity is attached per request.
type testEnv struct {
	db     *gorm.DB
	router chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStorage(t, nil)
}

func newTestEnvWithStorage(t *testing.T, store storage.Storage) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	mallRepo := repository.NewMallRepository(db)
	oiRepo := repository.NewOIRepository(db)
	activityTypeRepo := repository.NewActivityTypeRepository(db)
	insumoRepo := repository.NewInsumoRepository(db)
	providerRepo := repository.NewProviderRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)

	domainMetrics := metrics.NewDomainMetrics(prometheus.NewRegistry())
	rates := service.NewExchangeRateService(repository.NewExchangeRateRepository(db), nil, log)
	catalog := service.NewCatalogService(mallRepo, oiRepo, repository.NewBudgetRepository(db), activityTypeRepo,
		insumoRepo, providerRepo, repository.NewExpenseTypeRepository(db), log)
	quotes := service.NewQuoteService(quoteRepo, repository.NewQuoteLineRepository(db), insumoRepo,
		activityTypeRepo, mallRepo, oiRepo, rates, domainMetrics, log)
	expenses := service.NewExpenseService(expenseRepo, quoteRepo, oiRepo, providerRepo, rates, domainMetrics, log)
	dashboard := service.NewDashboardService(repository.NewDashboardRepository(db), quoteRepo, nil, log)
	reports := service.NewReportService(expenseRepo, repository.NewReportArchiveRepository(db), dashboard, store, log)

	authH := handler.NewAuthHandler(log)
	catalogH := handler.NewCatalogHandler(catalog, log)
	rateH := handler.NewExchangeRateHandler(rates, log)
	quoteH := handler.NewQuoteHandler(quotes, log)
	expenseH := handler.NewExpenseHandler(expenses, log)
	dashboardH := handler.NewDashboardHandler(dashboard, log)
	reportH := handler.NewReportHandler(reports, 3, log)

	r := chi.NewRouter()
	r.Get("/auth/me", authH.Me)

	r.Get("/malls", catalogH.ListMalls)
	r.Post("/malls", catalogH.CreateMall)
	r.Get("/malls/{id}", catalogH.GetMall)
	r.Put("/malls/{id}", catalogH.UpdateMall)
	r.Delete("/malls/{id}", catalogH.DeactivateMall)
	r.Get("/ois", catalogH.ListOIs)
	r.Post("/ois", catalogH.CreateOI)
	r.Get("/ois/{id}", catalogH.GetOI)
	r.Get("/budgets", catalogH.ListBudgets)
	r.Put("/budgets", catalogH.UpsertBudget)
	r.Post("/insumos", catalogH.CreateInsumo)
	r.Get("/insumos", catalogH.ListInsumos)
	r.Post("/providers", catalogH.CreateProvider)
	r.Get("/providers", catalogH.ListProviders)
	r.Get("/expense-types", catalogH.ListExpenseTypes)

	r.Get("/exchange-rates", rateH.List)
	r.Get("/exchange-rates/active", rateH.GetActive)
	r.Post("/exchange-rates", rateH.Set)

	r.Get("/quotes", quoteH.List)
	r.Post("/quotes", quoteH.Create)
	r.Post("/quotes/from-template", quoteH.CreateFromTemplate)
	r.Get("/quotes/{id}", quoteH.GetByID)
	r.Put("/quotes/{id}", quoteH.Update)
	r.Delete("/quotes/{id}", quoteH.Delete)
	r.Post("/quotes/{id}/lines", quoteH.AddLine)
	r.Put("/quotes/{id}/lines/{lineId}", quoteH.UpdateLine)
	r.Delete("/quotes/{id}/lines/{lineId}", quoteH.DeleteLine)
	r.Post("/quotes/{id}/recalculate", quoteH.Recalculate)
	r.Post("/quotes/{id}/template", quoteH.SaveAsTemplate)
	r.Post("/quotes/{id}/send", quoteH.Send)
	r.Post("/quotes/{id}/approve", quoteH.Approve)
	r.Post("/quotes/{id}/reject", quoteH.Reject)
	r.Post("/quotes/{id}/execute", quoteH.Execute)
	r.Post("/quotes/{id}/liquidate", quoteH.Liquidate)

	r.Get("/expenses", expenseH.List)
	r.Get("/expenses/{id}", expenseH.GetByID)
	r.Post("/expenses/odc", expenseH.CreateODC)
	r.Post("/expenses/petty-cash", expenseH.CreatePettyCash)
	r.Post("/expenses/host", expenseH.CreateHost)
	r.Delete("/expenses/{id}", expenseH.Delete)

	r.Get("/dashboard", dashboardH.GetDashboard)
	r.Get("/dashboard/reconciliation", dashboardH.GetReconciliation)

	r.Get("/reports/odc", reportH.ODCReport)
	r.Get("/reports/petty-cash", reportH.PettyCashReport)
	r.Get("/reports/budget-execution", reportH.BudgetExecutionWorkbook)
	r.Get("/reports/archives", reportH.ListArchives)
	r.Post("/reports/archives", reportH.CreateArchive)
	r.Get("/reports/archives/{id}/download", reportH.DownloadArchive)

	return &testEnv{db: db, router: r}
}

// do sends a request as the given role; an empty role sends it anonymously
func (e *testEnv) do(t *testing.T, role domain.UserRole, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req = req.WithContext(testutil.ContextAs(role, string(role)+"-1"))
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	decodeBody(t, rr, &apiErr)
	return apiErr
}
