package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/config"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRecovery(t *testing.T) {
	h := Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.ErrorTypeInternal, body.Type)
}

func TestLoggingSetsRequestID(t *testing.T) {
	h := Logging(zap.NewNop())(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestSecurityHeaders(t *testing.T) {
	cfg := &config.SecurityConfig{
		ContentTypeNosniff:    true,
		FrameOptions:          "DENY",
		ContentSecurityPolicy: "default-src 'none'",
		ReferrerPolicy:        "no-referrer",
		EnableHSTS:            true,
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		DownloadPaths:         []string{"/api/v1/reports/"},
		DownloadCacheControl:  "no-store",
	}
	h := SecurityHeaders(cfg)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/odc", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "default-src 'none'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))

	// unset values are not sent and non-download paths keep their caching
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil))
	assert.Empty(t, rec.Header().Get("X-XSS-Protection"))
	assert.Empty(t, rec.Header().Get("Permissions-Policy"))
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestSecurityHeaders_FollowConfig(t *testing.T) {
	cfg := &config.SecurityConfig{
		XSSProtection:        "0",
		PermissionsPolicy:    "camera=()",
		EnableHSTS:           true,
		HSTSMaxAge:           600,
		HSTSPreload:          true,
		DownloadPaths:        []string{" /files/ ", ""},
		DownloadCacheControl: "private, max-age=0",
	}
	h := SecurityHeaders(cfg)(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/archive.xlsx", nil))
	assert.Equal(t, "0", rec.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "camera=()", rec.Header().Get("Permissions-Policy"))
	assert.Equal(t, "max-age=600; preload", rec.Header().Get("Strict-Transport-Security"))
	assert.Equal(t, "private, max-age=0", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("X-Frame-Options"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reports/odc", nil))
	assert.Empty(t, rec.Header().Get("Cache-Control"))

	cfg = &config.SecurityConfig{EnableHSTS: true}
	rec = httptest.NewRecorder()
	SecurityHeaders(cfg)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"), "zero max-age disables HSTS")
}

func TestCORS(t *testing.T) {
	cfg := &config.CORSConfig{AllowedOrigins: []string{"https://app.example.com"}, AllowedMethods: []string{"GET"}}
	h := CORS(cfg, "production", zap.NewNop())(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	deny := CORS(&config.CORSConfig{}, "production", zap.NewNop())(okHandler)
	rec = httptest.NewRecorder()
	deny.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	cfg := &config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     2,
		RequestsPerMinuteAuth: 1,
		WhitelistPaths:        []string{"/health/*"},
	}
	rl := NewRateLimiter(cfg, zap.NewNop())
	byIP := rl.LimitByIP(okHandler)

	do := func(h http.Handler, path string, mutate func(*http.Request)) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:5555"
		if mutate != nil {
			mutate(req)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do(byIP, "/api/v1/quotes", nil))
	assert.Equal(t, http.StatusOK, do(byIP, "/api/v1/quotes", nil))
	assert.Equal(t, http.StatusTooManyRequests, do(byIP, "/api/v1/quotes", nil))
	assert.Equal(t, http.StatusOK, do(byIP, "/health/db", nil))
	assert.Equal(t, http.StatusOK, do(byIP, "/api/v1/quotes", func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "192.168.1.9, 10.0.0.1")
	}))

	byUser := rl.LimitByUser(okHandler)
	asUser := func(id string) func(*http.Request) {
		return func(r *http.Request) {
			*r = *r.WithContext(auth.WithUserContext(r.Context(), &auth.UserContext{UserID: id, Role: domain.RoleSeller}))
		}
	}
	assert.Equal(t, http.StatusOK, do(byUser, "/api/v1/quotes", asUser("u1")))
	assert.Equal(t, http.StatusTooManyRequests, do(byUser, "/api/v1/quotes", asUser("u1")))
	assert.Equal(t, http.StatusOK, do(byUser, "/api/v1/quotes", asUser("u2")))
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1, RequestsPerMinuteAuth: 1}, zap.NewNop())
	h := rl.LimitByIP(okHandler)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
