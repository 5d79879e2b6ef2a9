package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/config"
	"github.com/spectrum-media/quote-api/internal/database"
	"github.com/spectrum-media/quote-api/internal/datawarehouse"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/http/handler"
	"github.com/spectrum-media/quote-api/internal/http/middleware"
	"github.com/spectrum-media/quote-api/internal/metrics"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/spectrum-media/quote-api/docs" // Import generated swagger docs
)

// WarehouseHealth is the part of the data warehouse client the readiness probe needs
type WarehouseHealth interface {
	IsEnabled() bool
	HealthCheck(ctx context.Context) *datawarehouse.HealthStatus
}

// CachePinger is implemented by the Redis rate cache
type CachePinger interface {
	Ping(ctx context.Context) error
}

// Handlers groups the HTTP handlers mounted under /api/v1
type Handlers struct {
	Auth         *handler.AuthHandler
	Catalog      *handler.CatalogHandler
	ExchangeRate *handler.ExchangeRateHandler
	Quote        *handler.QuoteHandler
	Expense      *handler.ExpenseHandler
	Dashboard    *handler.DashboardHandler
	Report       *handler.ReportHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	warehouse      WarehouseHealth
	cache          CachePinger
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	httpMetrics    *metrics.HTTPMetrics
	gatherer       prometheus.Gatherer
	handlers       Handlers
}

// NewRouter wires the middleware chain and routes. warehouse and cache may be
// nil when those integrations are not configured.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	warehouse WarehouseHealth,
	cache CachePinger,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		warehouse:      warehouse,
		cache:          cache,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		httpMetrics:    httpMetrics,
		gatherer:       gatherer,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(rt.httpMetrics.Middleware)
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness probe
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Metrics.Enabled && rt.gatherer != nil {
		path := rt.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, metrics.Handler(rt.gatherer))
	}

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	managers := rt.authMiddleware.RequireRole(domain.ManagerRoles...)
	editors := rt.authMiddleware.RequireRole(domain.EditorRoles...)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.LimitByUser)
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimw.Timeout(timeout))
		}

		r.Get("/auth/me", h.Auth.Me)

		// Catalogs: every role reads, managers write
		r.Route("/malls", func(r chi.Router) {
			r.Get("/", h.Catalog.ListMalls)
			r.Get("/{id}", h.Catalog.GetMall)
			r.With(managers).Post("/", h.Catalog.CreateMall)
			r.With(managers).Put("/{id}", h.Catalog.UpdateMall)
			r.With(managers).Delete("/{id}", h.Catalog.DeactivateMall)
		})
		r.Route("/ois", func(r chi.Router) {
			r.Get("/", h.Catalog.ListOIs)
			r.Get("/{id}", h.Catalog.GetOI)
			r.With(managers).Post("/", h.Catalog.CreateOI)
			r.With(managers).Put("/{id}", h.Catalog.UpdateOI)
			r.With(managers).Delete("/{id}", h.Catalog.DeactivateOI)
		})
		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", h.Catalog.ListBudgets)
			r.With(managers).Put("/", h.Catalog.UpsertBudget)
			r.With(managers).Delete("/{id}", h.Catalog.DeleteBudget)
		})
		r.Route("/activity-types", func(r chi.Router) {
			r.Get("/", h.Catalog.ListActivityTypes)
			r.Get("/{id}", h.Catalog.GetActivityType)
			r.With(managers).Post("/", h.Catalog.CreateActivityType)
			r.With(managers).Put("/{id}", h.Catalog.UpdateActivityType)
			r.With(managers).Delete("/{id}", h.Catalog.DeactivateActivityType)
		})
		r.Route("/insumos", func(r chi.Router) {
			r.Get("/", h.Catalog.ListInsumos)
			r.Get("/{id}", h.Catalog.GetInsumo)
			r.With(managers).Post("/", h.Catalog.CreateInsumo)
			r.With(managers).Put("/{id}", h.Catalog.UpdateInsumo)
			r.With(managers).Delete("/{id}", h.Catalog.DeactivateInsumo)
		})
		r.Route("/providers", func(r chi.Router) {
			r.Get("/", h.Catalog.ListProviders)
			r.Get("/{id}", h.Catalog.GetProvider)
			r.With(managers).Post("/", h.Catalog.CreateProvider)
			r.With(managers).Put("/{id}", h.Catalog.UpdateProvider)
			r.With(managers).Delete("/{id}", h.Catalog.DeactivateProvider)
		})
		r.Get("/expense-types", h.Catalog.ListExpenseTypes)

		// Exchange rates
		r.Route("/exchange-rates", func(r chi.Router) {
			r.Get("/", h.ExchangeRate.List)
			r.Get("/active", h.ExchangeRate.GetActive)
			r.With(managers).Post("/", h.ExchangeRate.Set)
		})

		// Quotes
		r.Route("/quotes", func(r chi.Router) {
			r.Get("/", h.Quote.List)
			r.With(editors).Post("/", h.Quote.Create)
			r.With(editors).Post("/from-template", h.Quote.CreateFromTemplate)
			r.Get("/{id}", h.Quote.GetByID)
			r.With(editors).Put("/{id}", h.Quote.Update)
			r.With(editors).Delete("/{id}", h.Quote.Delete)

			// Lines
			r.With(editors).Post("/{id}/lines", h.Quote.AddLine)
			r.With(editors).Put("/{id}/lines/{lineId}", h.Quote.UpdateLine)
			r.With(editors).Delete("/{id}/lines/{lineId}", h.Quote.DeleteLine)
			r.With(editors).Post("/{id}/recalculate", h.Quote.Recalculate)
			r.With(editors).Post("/{id}/template", h.Quote.SaveAsTemplate)

			// Lifecycle; role rules per transition are enforced by the service
			r.Post("/{id}/send", h.Quote.Send)
			r.With(rt.authMiddleware.RequireRole(domain.ApproverRoles...)).Post("/{id}/approve", h.Quote.Approve)
			r.With(rt.authMiddleware.RequireRole(domain.ApproverRoles...)).Post("/{id}/reject", h.Quote.Reject)
			r.With(managers).Post("/{id}/execute", h.Quote.Execute)
			r.With(managers).Post("/{id}/liquidate", h.Quote.Liquidate)
		})

		// Expenses
		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.Expense.List)
			r.Get("/{id}", h.Expense.GetByID)
			r.With(managers).Post("/odc", h.Expense.CreateODC)
			r.With(managers).Post("/petty-cash", h.Expense.CreatePettyCash)
			r.With(managers).Post("/host", h.Expense.CreateHost)
			r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin)).Delete("/{id}", h.Expense.Delete)
		})

		// Dashboard
		r.Get("/dashboard", h.Dashboard.GetDashboard)
		r.With(managers).Get("/dashboard/reconciliation", h.Dashboard.GetReconciliation)

		// Reports
		r.Route("/reports", func(r chi.Router) {
			r.Use(managers)
			r.Get("/odc", h.Report.ODCReport)
			r.Get("/petty-cash", h.Report.PettyCashReport)
			r.Get("/budget-execution", h.Report.BudgetExecutionWorkbook)
			r.Get("/archives", h.Report.ListArchives)
			r.With(rt.authMiddleware.RequireRole(domain.RoleAdmin)).Post("/archives", h.Report.CreateArchive)
			r.Get("/archives/{id}/download", h.Report.DownloadArchive)
		})
	})

	return r
}

// databaseHealth reports the PostgreSQL pool state
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(rt.db)
	if err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

// readiness checks every configured dependency. Optional integrations that
// are disabled are reported but never fail the probe.
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]interface{})
	allHealthy := true

	if err := database.HealthCheck(rt.db); err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		allHealthy = false
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	if rt.warehouse != nil && rt.warehouse.IsEnabled() {
		status := rt.warehouse.HealthCheck(ctx)
		checks["datawarehouse"] = status
		if status.Status != "healthy" {
			allHealthy = false
		}
	} else {
		checks["datawarehouse"] = map[string]interface{}{"status": "disabled"}
	}

	if rt.cache != nil {
		if err := rt.cache.Ping(ctx); err != nil {
			// The rate cache is an optimization; fall through to the database
			checks["cache"] = map[string]interface{}{"status": "degraded", "error": err.Error()}
		} else {
			checks["cache"] = map[string]interface{}{"status": "healthy"}
		}
	} else {
		checks["cache"] = map[string]interface{}{"status": "disabled"}
	}

	status, code := "healthy", http.StatusOK
	if !allHealthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	writeHealth(w, code, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
