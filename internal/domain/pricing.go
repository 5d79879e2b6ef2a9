package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places money is stored with
const MoneyPlaces = 2

var (
	// DefaultExchangeRate is used when no exchange rate row is active
	DefaultExchangeRate = decimal.RequireFromString("7.8")

	MarginM50 = decimal.RequireFromString("0.50")
	MarginM60 = decimal.RequireFromString("0.60")
	MarginM70 = decimal.RequireFromString("0.70")

	hundred = decimal.NewFromInt(100)
)

// ErrInvalidExchangeRate is returned when converting with a non-positive rate
var ErrInvalidExchangeRate = errors.New("exchange rate must be greater than zero")

// LineCostGTQ returns the local-currency cost of a quote line. Multipliable
// insumos are charged per person per unit; per-activity insumos per person only.
func LineCostGTQ(unitCost decimal.Decimal, mode BillingMode, qtyPeople, units int) decimal.Decimal {
	cost := unitCost.Mul(decimal.NewFromInt(int64(qtyPeople)))
	if mode == BillingModeMultipliable {
		cost = cost.Mul(decimal.NewFromInt(int64(units)))
	}
	return cost.Round(MoneyPlaces)
}

// ToUSD converts a GTQ amount with a GTQ-per-USD rate
func ToUSD(gtq, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidExchangeRate
	}
	return gtq.DivRound(rate, MoneyPlaces), nil
}

// SuggestedPrice returns cost / (1 - margin). A zero cost, or a margin of 100%
// or more, yields zero.
func SuggestedPrice(cost, margin decimal.Decimal) decimal.Decimal {
	if cost.IsZero() {
		return decimal.Zero
	}
	divisor := decimal.NewFromInt(1).Sub(margin)
	if !divisor.IsPositive() {
		return decimal.Zero
	}
	return cost.DivRound(divisor, MoneyPlaces)
}

// QuoteTotals are the derived money fields of a quote
type QuoteTotals struct {
	CostGTQ  decimal.Decimal
	CostUSD  decimal.Decimal
	PriceM50 decimal.Decimal
	PriceM60 decimal.Decimal
	PriceM70 decimal.Decimal
}

// ComputeQuoteTotals sums line costs and derives the suggested prices
func ComputeQuoteTotals(lines []QuoteLine) QuoteTotals {
	totals := QuoteTotals{CostGTQ: decimal.Zero, CostUSD: decimal.Zero}
	for _, line := range lines {
		totals.CostGTQ = totals.CostGTQ.Add(line.LineCostGTQ)
		totals.CostUSD = totals.CostUSD.Add(line.LineCostUSD)
	}
	totals.PriceM50 = SuggestedPrice(totals.CostUSD, MarginM50)
	totals.PriceM60 = SuggestedPrice(totals.CostUSD, MarginM60)
	totals.PriceM70 = SuggestedPrice(totals.CostUSD, MarginM70)
	return totals
}

// ApplyTotals copies computed totals onto the quote
func (q *Quote) ApplyTotals(t QuoteTotals) {
	q.TotalCostGTQ = t.CostGTQ
	q.TotalCostUSD = t.CostUSD
	q.SuggestedPriceM50 = t.PriceM50
	q.SuggestedPriceM60 = t.PriceM60
	q.SuggestedPriceM70 = t.PriceM70
}

// PriceLine recomputes both currency costs of a line from its insumo
func PriceLine(line *QuoteLine, insumo *Insumo, rate decimal.Decimal) error {
	line.LineCostGTQ = LineCostGTQ(insumo.CostGTQ, insumo.BillingMode, line.QtyPeople, line.UnitsValue)
	usd, err := ToUSD(line.LineCostGTQ, rate)
	if err != nil {
		return err
	}
	line.LineCostUSD = usd
	return nil
}

// HostTotal is the sum of rate x days over the receipt rows
func HostTotal(rows HostRows) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(decimal.NewFromFloat(row.Rate).Mul(decimal.NewFromFloat(row.Days)))
	}
	return total.Round(MoneyPlaces)
}

// ExecutionPct is actual / budget as a percentage, zero when there is no budget
func ExecutionPct(actual, budget decimal.Decimal) decimal.Decimal {
	if !budget.IsPositive() {
		return decimal.Zero
	}
	return actual.Div(budget).Mul(hundred).Round(MoneyPlaces)
}
