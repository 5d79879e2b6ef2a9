package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 3, 14, 9, 30, 0, 0, time.FixedZone("CST", -6*3600))

func TestToOIDTO(t *testing.T) {
	oi := &domain.OI{
		BaseModel:       domain.BaseModel{ID: uuid.New()},
		MallID:          uuid.New(),
		Code:            "OI-100",
		Name:            "Activaciones Oakland",
		AnnualBudgetUSD: decimal.NewFromInt(1000),
		IsActive:        true,
	}

	dto := mapper.ToOIDTO(oi)
	assert.Equal(t, "OI-100", dto.Code)
	assert.Empty(t, dto.MallName)

	oi.Mall = &domain.Mall{Name: "Oakland"}
	assert.Equal(t, "Oakland", mapper.ToOIDTO(oi).MallName)
}

func TestToQuoteDTO(t *testing.T) {
	mallID := uuid.New()
	final := decimal.RequireFromString("250")
	sent := created.Add(time.Hour)

	quote := &domain.Quote{
		BaseModel:         domain.BaseModel{ID: uuid.New(), CreatedAt: created, UpdatedAt: created},
		ActivityName:      "Expo verano",
		ActivityTypeID:    uuid.New(),
		ActivityType:      &domain.ActivityType{Name: "Sampling"},
		MallID:            &mallID,
		Mall:              &domain.Mall{Name: "Oakland"},
		Status:            domain.QuoteStatusApproved,
		TotalCostUSD:      decimal.NewFromInt(75),
		SuggestedPriceM60: decimal.RequireFromString("187.5"),
		FinalSalePriceUSD: &final,
		SentAt:            &sent,
		Lines: []domain.QuoteLine{{
			BaseModel:   domain.BaseModel{ID: uuid.New()},
			QtyPeople:   4,
			UnitsValue:  3,
			LineCostGTQ: decimal.NewFromInt(600),
			Insumo:      &domain.Insumo{Name: "Edecan", BillingMode: domain.BillingModeMultipliable},
		}},
	}

	dto := mapper.ToQuoteDTO(quote)
	assert.Equal(t, "Sampling", dto.ActivityTypeName)
	assert.Equal(t, "Oakland", dto.MallName)
	assert.Empty(t, dto.OICode)
	assert.Equal(t, "2025-03-14T15:30:00Z", dto.CreatedAt)
	require.NotNil(t, dto.SentAt)
	assert.Equal(t, "2025-03-14T16:30:00Z", *dto.SentAt)
	assert.Nil(t, dto.DecidedAt)
	require.NotNil(t, dto.FinalSalePriceUSD)
	assert.True(t, final.Equal(*dto.FinalSalePriceUSD))

	require.Len(t, dto.Lines, 1)
	assert.Equal(t, "Edecan", dto.Lines[0].InsumoName)
	assert.Equal(t, domain.BillingModeMultipliable, dto.Lines[0].BillingMode)

	quote.Lines = nil
	assert.Nil(t, mapper.ToQuoteDTO(quote).Lines)
}

func TestToExpenseDTO(t *testing.T) {
	providerID := uuid.New()
	expense := &domain.Expense{
		BaseModel:     domain.BaseModel{ID: uuid.New(), CreatedAt: created},
		Date:          time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		Year:          2025,
		Month:         3,
		Category:      domain.ExpenseCategoryHost,
		AmountGTQ:     decimal.NewFromInt(400),
		AmountUSD:     decimal.RequireFromString("51.28"),
		RateGTQPerUSD: decimal.RequireFromString("7.8"),
		ProviderID:    &providerID,
		Provider:      &domain.Provider{Name: "Ana Lopez"},
		Quote:         &domain.Quote{ActivityName: "Expo verano"},
		OI:            &domain.OI{Code: "OI-100"},
		HostDetails:   domain.HostRows{{Description: "Animacion", Rate: 100, Days: 4}},
	}

	dto := mapper.ToExpenseDTO(expense)
	assert.Equal(t, "2025-03-02", dto.Date)
	assert.Equal(t, "Ana Lopez", dto.ProviderName)
	assert.Equal(t, "Expo verano", dto.ActivityName)
	assert.Equal(t, "OI-100", dto.OICode)
	assert.Empty(t, dto.MallName)
	assert.Len(t, dto.HostDetails, 1)
}

func TestToExchangeRateDTO(t *testing.T) {
	rate := &domain.ExchangeRate{
		BaseModel:     domain.BaseModel{ID: uuid.New()},
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		GTQPerUSD:     decimal.RequireFromString("7.75"),
		IsActive:      true,
	}

	dto := mapper.ToExchangeRateDTO(rate)
	require.NotNil(t, dto.ID)
	assert.Equal(t, rate.ID, *dto.ID)
	assert.Equal(t, "2025-01-01", dto.EffectiveDate)
	assert.True(t, dto.IsActive)
}
