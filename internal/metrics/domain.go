package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quote_api"

// DomainMetrics counts business events: quote transitions and booked expenses
type DomainMetrics struct {
	transitions *prometheus.CounterVec
	expenses    *prometheus.CounterVec
	expenseUSD  *prometheus.CounterVec
}

// NewDomainMetrics registers the business counters on reg. A nil registerer
// yields a no-op collector.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quote_transitions_total",
		Help:      "Quote status transitions by source and target status.",
	}, []string{"from", "to"})
	expenses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expenses_recorded_total",
		Help:      "Expenses recorded by category.",
	}, []string{"category"})
	expenseUSD := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expenses_recorded_usd_total",
		Help:      "USD amount of recorded expenses by category.",
	}, []string{"category"})
	reg.MustRegister(transitions, expenses, expenseUSD)
	return &DomainMetrics{transitions: transitions, expenses: expenses, expenseUSD: expenseUSD}
}

// QuoteTransition counts a status change
func (m *DomainMetrics) QuoteTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ExpenseRecorded counts a booked expense and its USD amount
func (m *DomainMetrics) ExpenseRecorded(category string, amountUSD float64) {
	if m == nil || m.expenses == nil {
		return
	}
	m.expenses.WithLabelValues(normalizeLabel(category)).Inc()
	if amountUSD > 0 {
		m.expenseUSD.WithLabelValues(normalizeLabel(category)).Add(amountUSD)
	}
}
