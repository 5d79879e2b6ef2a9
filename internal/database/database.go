package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/spectrum-media/quote-api/internal/config"
	"github.com/spectrum-media/quote-api/internal/domain"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultExpenseTypes are created on first start
var DefaultExpenseTypes = []string{"ODC", "Caja Chica"}

// NewDatabase opens the PostgreSQL connection pool
func NewDatabase(cfg *config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.ConnectionString()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)

	return db, nil
}

// AutoMigrate runs automatic migrations (for development and tests only)
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(domain.AllModels()...)
}

// Seed creates the default expense types and the initial exchange rate when
// they are missing. It is safe to run on every start.
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range DefaultExpenseTypes {
			var existing domain.ExpenseType
			err := tx.Where("name = ?", name).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up expense type %s: %w", name, err)
			}
			if err := tx.Create(&domain.ExpenseType{Name: name, IsActive: true}).Error; err != nil {
				return fmt.Errorf("failed to seed expense type %s: %w", name, err)
			}
			log.Info("seeded expense type", zap.String("name", name))
		}

		var rates int64
		if err := tx.Model(&domain.ExchangeRate{}).Count(&rates).Error; err != nil {
			return fmt.Errorf("failed to count exchange rates: %w", err)
		}
		if rates == 0 {
			rate := &domain.ExchangeRate{
				EffectiveDate: time.Now().UTC().Truncate(24 * time.Hour),
				GTQPerUSD:     domain.DefaultExchangeRate,
				IsActive:      true,
				SetByName:     "System",
			}
			if err := tx.Create(rate).Error; err != nil {
				return fmt.Errorf("failed to seed exchange rate: %w", err)
			}
			log.Info("seeded default exchange rate", zap.String("gtq_per_usd", rate.GTQPerUSD.String()))
		}
		return nil
	})
}

// HealthCheck pings the database
func HealthCheck(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// HealthCheckWithStats pings the database and returns pool statistics
func HealthCheckWithStats(db *gorm.DB) (sql.DBStats, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return sql.DBStats{}, fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := HealthCheck(db); err != nil {
		return sqlDB.Stats(), err
	}
	return sqlDB.Stats(), nil
}

// Close closes the underlying pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
