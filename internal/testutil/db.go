package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens an in-memory SQLite database with every table migrated.
// A single connection keeps the in-memory database alive for the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(domain.AllModels()...))
	return db
}

// Dec parses a decimal literal
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ContextAs returns a context carrying an authenticated user with the given role
func ContextAs(role domain.UserRole, userID string) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      userID,
		DisplayName: "User " + userID,
		Email:       userID + "@example.com",
		Role:        role,
	})
}

// CreateTestMall creates an active mall
func CreateTestMall(t *testing.T, db *gorm.DB, name string) *domain.Mall {
	mall := &domain.Mall{Name: name, IsActive: true}
	require.NoError(t, db.Create(mall).Error)
	return mall
}

// CreateTestOI creates an active OI for a mall
func CreateTestOI(t *testing.T, db *gorm.DB, mallID uuid.UUID, code, budget string) *domain.OI {
	oi := &domain.OI{MallID: mallID, Code: code, Name: "OI " + code, AnnualBudgetUSD: Dec(budget), IsActive: true}
	require.NoError(t, db.Omit(clause.Associations).Create(oi).Error)
	return oi
}

// CreateTestActivityType creates an active activity type
func CreateTestActivityType(t *testing.T, db *gorm.DB, name string) *domain.ActivityType {
	at := &domain.ActivityType{Name: name, IsActive: true}
	require.NoError(t, db.Create(at).Error)
	return at
}

// CreateTestInsumo creates an active insumo
func CreateTestInsumo(t *testing.T, db *gorm.DB, name, cost string, mode domain.BillingMode) *domain.Insumo {
	insumo := &domain.Insumo{
		Name:        name,
		UnitType:    domain.UnitTypeUnit,
		CostGTQ:     Dec(cost),
		BillingMode: mode,
		IsActive:    true,
	}
	require.NoError(t, db.Create(insumo).Error)
	return insumo
}

// CreateTestProvider creates an active provider
func CreateTestProvider(t *testing.T, db *gorm.DB, name string) *domain.Provider {
	p := &domain.Provider{Name: name, ProviderType: domain.ProviderTypeDirect, IsActive: true}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateTestRate stores an active exchange rate
func CreateTestRate(t *testing.T, db *gorm.DB, rate string) *domain.ExchangeRate {
	r := &domain.ExchangeRate{
		EffectiveDate: time.Now().UTC().Truncate(24 * time.Hour),
		GTQPerUSD:     Dec(rate),
		IsActive:      true,
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

// CreateTestQuote stores a quote in the given status without lines
func CreateTestQuote(t *testing.T, db *gorm.DB, activityTypeID uuid.UUID, status domain.QuoteStatus, createdBy string) *domain.Quote {
	q := &domain.Quote{
		ActivityName:   "Activation " + string(status),
		ActivityTypeID: activityTypeID,
		Status:         status,
		CreatedByID:    createdBy,
		CreatedByName:  "User " + createdBy,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(q).Error)
	return q
}
