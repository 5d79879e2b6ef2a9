// Package datawarehouse provides read-only access to the finance data warehouse
// (MS SQL Server). It is used to reconcile recorded expenses against the
// general ledger postings per internal order.
package datawarehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/config"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
	defaultLedgerTable        = "dbo.gl_internal_order_postings"
)

// ErrNotConfigured is returned by queries on a disabled client
var ErrNotConfigured = errors.New("data warehouse client not initialized")

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Client provides read-only access to the data warehouse
type Client struct {
	db           *sql.DB
	ledgerTable  string
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus is the health check result for the data warehouse connection
type HealthStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
	Open      int    `json:"open_connections"`
	InUse     int    `json:"in_use"`
	Idle      int    `json:"idle"`
}

// LedgerAmount is the GTQ total posted to one internal order
type LedgerAmount struct {
	OICode    string
	AmountGTQ decimal.Decimal
}

// NewClient connects to the data warehouse. It returns nil without error when
// the warehouse is disabled or credentials are missing.
func NewClient(cfg *config.DataWarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("data warehouse connection disabled")
		return nil, nil
	}
	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("data warehouse enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	table := cfg.LedgerTable
	if table == "" {
		table = defaultLedgerTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid ledger table name %q", table)
	}

	connStr := buildConnectionString(cfg)

	var (
		db  *sql.DB
		err error
	)
	backoff := defaultInitialBackoff
	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		db, err = sql.Open("sqlserver", connStr)
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
			db.SetMaxIdleConns(cfg.MaxIdleConns)
			db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

			ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
			err = db.PingContext(ctx)
			cancel()
			if err == nil {
				logger.Info("data warehouse connection established",
					zap.Int("attempts_taken", attempt),
					zap.String("ledger_table", table),
				)
				return newWithDB(db, table, cfg.QueryTimeoutDuration(), logger), nil
			}
			_ = db.Close()
		}

		logger.Warn("data warehouse connection attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultMaxRetries),
		)
		if attempt < defaultMaxRetries {
			time.Sleep(backoff)
			backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to connect to data warehouse after %d attempts: %w", defaultMaxRetries, err)
}

func newWithDB(db *sql.DB, ledgerTable string, queryTimeout time.Duration, logger *zap.Logger) *Client {
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	return &Client{db: db, ledgerTable: ledgerTable, logger: logger, queryTimeout: queryTimeout}
}

// buildConnectionString turns "host:port/database" into a sqlserver:// URL
func buildConnectionString(cfg *config.DataWarehouseConfig) string {
	hostPort, database, _ := strings.Cut(cfg.URL, "/")
	host, port, found := strings.Cut(hostPort, ":")
	if !found || port == "" {
		port = "1433"
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	query.Add("app name", "quote-api")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host + ":" + port,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// IsEnabled reports whether the client is connected
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// Close closes the connection pool
func (c *Client) Close() error {
	if !c.IsEnabled() {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close data warehouse connection: %w", err)
	}
	c.logger.Info("data warehouse connection closed")
	return nil
}

// HealthCheck pings the warehouse and reports pool statistics
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if !c.IsEnabled() {
		return &HealthStatus{Status: "disabled"}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	stats := c.db.Stats()
	status := &HealthStatus{
		Status:    "healthy",
		LatencyMs: time.Since(start).Milliseconds(),
		Open:      stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
	}
	if err != nil {
		c.logger.Warn("data warehouse health check failed", zap.Error(err))
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

// LedgerTotalsByOI sums the GTQ postings of a fiscal year per internal order code
func (c *Client) LedgerTotalsByOI(ctx context.Context, year int) ([]LedgerAmount, error) {
	if !c.IsEnabled() {
		return nil, ErrNotConfigured
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	query := fmt.Sprintf(
		`SELECT oi_code, SUM(amount_gtq) AS amount FROM %s WHERE fiscal_year = @year GROUP BY oi_code ORDER BY oi_code`,
		c.ledgerTable,
	)

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query, sql.Named("year", year))
	if err != nil {
		c.logger.Error("ledger query failed", zap.Error(err), zap.Int("year", year))
		return nil, fmt.Errorf("ledger query failed: %w", err)
	}
	defer rows.Close()

	var totals []LedgerAmount
	for rows.Next() {
		var (
			code   sql.NullString
			amount decimal.NullDecimal
		)
		if err := rows.Scan(&code, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		if !code.Valid {
			continue
		}
		totals = append(totals, LedgerAmount{
			OICode:    strings.TrimSpace(code.String),
			AmountGTQ: amount.Decimal,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}

	c.logger.Debug("ledger query completed",
		zap.Int("year", year),
		zap.Int("rows", len(totals)),
		zap.Duration("duration", time.Since(start)),
	)
	return totals, nil
}
