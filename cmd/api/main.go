package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spectrum-media/quote-api/docs"
	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/cache"
	"github.com/spectrum-media/quote-api/internal/config"
	"github.com/spectrum-media/quote-api/internal/database"
	"github.com/spectrum-media/quote-api/internal/datawarehouse"
	"github.com/spectrum-media/quote-api/internal/http/handler"
	"github.com/spectrum-media/quote-api/internal/http/middleware"
	"github.com/spectrum-media/quote-api/internal/http/router"
	"github.com/spectrum-media/quote-api/internal/jobs"
	"github.com/spectrum-media/quote-api/internal/logger"
	"github.com/spectrum-media/quote-api/internal/metrics"
	"github.com/spectrum-media/quote-api/internal/repository"
	"github.com/spectrum-media/quote-api/internal/service"
	"github.com/spectrum-media/quote-api/internal/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// @title Quote & Budget Execution API
// @version 1.0
// @description Activation cost quotes, approval lifecycle, actual expenses and budget execution per internal order

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	if host := os.Getenv("SWAGGER_HOST"); host != "" {
		docs.SwaggerInfo.Host = host
	} else {
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Full configuration: environment variables in development, Key Vault elsewhere
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to auto-migrate: %w", err)
		}
		log.Info("Database schema auto-migrated")
	}
	if cfg.Database.Seed {
		if err := database.Seed(ctx, db, log); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
	}

	// Exchange rate cache (optional)
	var rateCache cache.RateCache = cache.NoopRateCache{}
	var redisCache *cache.RedisRateCache
	if cfg.Redis.Enabled {
		redisCache, err = cache.NewRedisRateCache(ctx, &cfg.Redis, log)
		if err != nil {
			log.Warn("Redis unavailable, exchange rate cache disabled", zap.Error(err))
			redisCache = nil
		} else {
			rateCache = redisCache
		}
	}

	// Report archive storage (optional - archive endpoints answer 503 without it)
	reportStore, err := storage.NewStorage(ctx, &cfg.Storage, log)
	if err != nil {
		log.Warn("Report storage unavailable, archives disabled", zap.Error(err))
		reportStore = nil
	} else {
		log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))
	}

	// Data warehouse (optional - read-only, used for ledger reconciliation)
	var dwClient *datawarehouse.Client
	if cfg.DataWarehouse.Enabled {
		dwClient, err = datawarehouse.NewClient(&cfg.DataWarehouse, log)
		if err != nil {
			log.Warn("Data warehouse connection failed, continuing without it", zap.Error(err))
			dwClient = nil
		} else if dwClient != nil {
			log.Info("Data warehouse connected",
				zap.Int("max_open_conns", cfg.DataWarehouse.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.DataWarehouse.QueryTimeout),
			)
		}
	} else {
		log.Info("Data warehouse not configured, skipping")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	domainMetrics := metrics.NewDomainMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	jobMetrics := metrics.NewJobMetrics(registry)

	// Repositories
	mallRepo := repository.NewMallRepository(db)
	oiRepo := repository.NewOIRepository(db)
	budgetRepo := repository.NewBudgetRepository(db)
	activityTypeRepo := repository.NewActivityTypeRepository(db)
	insumoRepo := repository.NewInsumoRepository(db)
	providerRepo := repository.NewProviderRepository(db)
	expenseTypeRepo := repository.NewExpenseTypeRepository(db)
	rateRepo := repository.NewExchangeRateRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	lineRepo := repository.NewQuoteLineRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	archiveRepo := repository.NewReportArchiveRepository(db)

	// Services
	var ledger service.LedgerSource
	if dwClient != nil {
		ledger = dwClient
	}
	rateService := service.NewExchangeRateService(rateRepo, rateCache, log)
	catalogService := service.NewCatalogService(mallRepo, oiRepo, budgetRepo, activityTypeRepo, insumoRepo, providerRepo, expenseTypeRepo, log)
	quoteService := service.NewQuoteService(quoteRepo, lineRepo, insumoRepo, activityTypeRepo, mallRepo, oiRepo, rateService, domainMetrics, log)
	expenseService := service.NewExpenseService(expenseRepo, quoteRepo, oiRepo, providerRepo, rateService, domainMetrics, log)
	dashboardService := service.NewDashboardService(dashboardRepo, quoteRepo, ledger, log)
	reportService := service.NewReportService(expenseRepo, archiveRepo, dashboardService, reportStore, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(log),
		Catalog:      handler.NewCatalogHandler(catalogService, log),
		ExchangeRate: handler.NewExchangeRateHandler(rateService, log),
		Quote:        handler.NewQuoteHandler(quoteService, log),
		Expense:      handler.NewExpenseHandler(expenseService, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, log),
		Report:       handler.NewReportHandler(reportService, cfg.Jobs.ArchiveRetention, log),
	}

	var warehouse router.WarehouseHealth
	if dwClient != nil {
		warehouse = dwClient
	}
	var pinger router.CachePinger
	if redisCache != nil {
		pinger = redisCache
	}
	rt := router.NewRouter(cfg, log, db, warehouse, pinger, authMiddleware, rateLimiter, httpMetrics, registry, handlers)

	// Background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled && reportStore != nil {
		scheduler = jobs.NewScheduler(log, jobMetrics)
		if _, err := jobs.RegisterBudgetReportJob(
			scheduler,
			reportService,
			cfg.Jobs.ArchiveRetention,
			log,
			cfg.Jobs.BudgetReportCron,
			cfg.Jobs.BudgetReportTimeoutDuration(),
		); err != nil {
			log.Error("Failed to register budget report job", zap.Error(err))
			scheduler = nil
		} else {
			scheduler.Start()
			log.Info("Scheduler started",
				zap.String("cron_expr", cfg.Jobs.BudgetReportCron),
				zap.Int("archive_retention", cfg.Jobs.ArchiveRetention),
			)
		}
	} else {
		log.Info("Background jobs disabled",
			zap.Bool("jobs_enabled", cfg.Jobs.Enabled),
			zap.Bool("storage_available", reportStore != nil),
		)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		errs := srv.Shutdown(shutdownCtx)
		if dwClient != nil {
			errs = multierr.Append(errs, dwClient.Close())
		}
		if redisCache != nil {
			errs = multierr.Append(errs, redisCache.Close())
		}
		errs = multierr.Append(errs, database.Close(db))
		if errs != nil {
			log.Error("Shutdown completed with errors", zap.Error(errs))
			return errs
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
