package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)
	job := "budget-report"
	m.ObserveDuration(job, 250*time.Millisecond)
	m.IncSuccess(job)
	m.IncFailure(job)
	m.IncFailure(job)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "quote_api_job_success_total", map[string]string{"job": job})
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "quote_api_job_failure_total", map[string]string{"job": job})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	mf := findMetricFamily(mfs, "quote_api_job_duration_seconds")
	require.NotNil(t, mf)
	assert.Greater(t, mf.GetMetric()[0].GetHistogram().GetSampleSum(), 0.0)
}

func TestNilRegistererIsNoop(t *testing.T) {
	jm := NewJobMetrics(nil)
	jm.IncSuccess("x")
	jm.ObserveDuration("x", time.Second)

	dm := NewDomainMetrics(nil)
	dm.QuoteTransition("draft", "sent")
	dm.ExpenseRecorded("odc", 10)

	var nilDomain *DomainMetrics
	nilDomain.QuoteTransition("draft", "sent")

	handler := NewHTTPMetrics(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestDomainMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewDomainMetrics(reg)
	m.QuoteTransition("draft", "sent")
	m.QuoteTransition("draft", "sent")
	m.ExpenseRecorded("host", 12.5)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "quote_api_quote_transitions_total", map[string]string{"from": "draft", "to": "sent"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "quote_api_expenses_recorded_usd_total", map[string]string{"category": "host"})
	require.NoError(t, err)
	assert.Equal(t, 12.5, got)
}

func TestHTTPMetricsUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/quotes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", Handler(reg))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/quotes/%d", i), nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	mfs, err := reg.Gather()
	require.NoError(t, err)
	got, err := fetchCounterValue(mfs, "quote_api_http_requests_total",
		map[string]string{"method": "GET", "route": "/quotes/{id}", "status": "404"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, got)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "quote_api_http_requests_total"))
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
