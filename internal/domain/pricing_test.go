package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineCostGTQ(t *testing.T) {
	tests := []struct {
		name     string
		unitCost string
		mode     domain.BillingMode
		people   int
		units    int
		expected string
	}{
		{"multipliable charges people times units", "25", domain.BillingModeMultipliable, 4, 3, "300"},
		{"per activity ignores units", "25", domain.BillingModePerActivity, 4, 3, "100"},
		{"rounds to cents", "10.005", domain.BillingModePerActivity, 1, 1, "10.01"},
		{"zero people", "25", domain.BillingModeMultipliable, 0, 3, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.LineCostGTQ(dec(tt.unitCost), tt.mode, tt.people, tt.units)
			assert.True(t, dec(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestToUSD(t *testing.T) {
	usd, err := domain.ToUSD(dec("600"), domain.DefaultExchangeRate)
	require.NoError(t, err)
	assert.True(t, dec("76.92").Equal(usd), "got %s", usd)

	usd, err = domain.ToUSD(dec("780"), dec("7.8"))
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(usd))

	_, err = domain.ToUSD(dec("100"), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidExchangeRate)

	_, err = domain.ToUSD(dec("100"), dec("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidExchangeRate)
}

func TestSuggestedPrice(t *testing.T) {
	tests := []struct {
		name     string
		cost     string
		margin   decimal.Decimal
		expected string
	}{
		{"fifty percent", "75", domain.MarginM50, "150"},
		{"sixty percent", "75", domain.MarginM60, "187.5"},
		{"seventy percent", "75", domain.MarginM70, "250"},
		{"zero cost", "0", domain.MarginM60, "0"},
		{"full margin yields zero", "75", dec("1"), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.SuggestedPrice(dec(tt.cost), tt.margin)
			assert.True(t, dec(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestComputeQuoteTotals(t *testing.T) {
	lines := []domain.QuoteLine{
		{LineCostGTQ: dec("390"), LineCostUSD: dec("50")},
		{LineCostGTQ: dec("195"), LineCostUSD: dec("25")},
	}

	totals := domain.ComputeQuoteTotals(lines)
	assert.True(t, dec("585").Equal(totals.CostGTQ))
	assert.True(t, dec("75").Equal(totals.CostUSD))
	assert.True(t, dec("150").Equal(totals.PriceM50))
	assert.True(t, dec("187.5").Equal(totals.PriceM60))
	assert.True(t, dec("250").Equal(totals.PriceM70))

	var q domain.Quote
	q.ApplyTotals(totals)
	assert.True(t, dec("187.5").Equal(q.SuggestedPriceM60))

	empty := domain.ComputeQuoteTotals(nil)
	assert.True(t, empty.CostUSD.IsZero())
	assert.True(t, empty.PriceM70.IsZero())
}

func TestPriceLine(t *testing.T) {
	insumo := &domain.Insumo{CostGTQ: dec("50"), BillingMode: domain.BillingModeMultipliable}
	line := &domain.QuoteLine{QtyPeople: 4, UnitsValue: 3}

	require.NoError(t, domain.PriceLine(line, insumo, dec("8")))
	assert.True(t, dec("600").Equal(line.LineCostGTQ))
	assert.True(t, dec("75").Equal(line.LineCostUSD))

	assert.ErrorIs(t, domain.PriceLine(line, insumo, decimal.Zero), domain.ErrInvalidExchangeRate)
}

func TestHostTotal(t *testing.T) {
	rows := domain.HostRows{
		{Description: "Animacion", Rate: 100, Days: 3},
		{Description: "Ensayo", Rate: 50, Days: 2},
		{Description: "Medio dia", Rate: 80, Days: 0.5},
	}
	assert.True(t, dec("440").Equal(domain.HostTotal(rows)))
	assert.True(t, domain.HostTotal(nil).IsZero())
}

func TestHostRows_ValueScan(t *testing.T) {
	rows := domain.HostRows{{Description: "Animacion", Rate: 100, Days: 3}}

	v, err := rows.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"desc":"Animacion","rate":100,"days":3}]`, v.(string))

	var fromString domain.HostRows
	require.NoError(t, fromString.Scan(v))
	assert.Equal(t, rows, fromString)

	raw, _ := json.Marshal(rows)
	var fromBytes domain.HostRows
	require.NoError(t, fromBytes.Scan(raw))
	assert.Equal(t, rows, fromBytes)

	var nilRows domain.HostRows
	require.NoError(t, nilRows.Scan(nil))
	assert.Nil(t, nilRows)

	assert.Error(t, nilRows.Scan(42))
}

func TestExecutionPct(t *testing.T) {
	assert.True(t, dec("15").Equal(domain.ExecutionPct(dec("150"), dec("1000"))))
	assert.True(t, dec("33.33").Equal(domain.ExecutionPct(dec("1"), dec("3"))))
	assert.True(t, dec("120").Equal(domain.ExecutionPct(dec("1200"), dec("1000"))))
	assert.True(t, domain.ExecutionPct(dec("150"), decimal.Zero).IsZero())
}
