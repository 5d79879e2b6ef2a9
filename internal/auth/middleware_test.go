package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spectrum-media/quote-api/internal/auth"
	"github.com/spectrum-media/quote-api/internal/config"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAPIKey = "test-api-key-12345"

func newTestMiddleware(apiKey string) *auth.Middleware {
	cfg := &config.Config{
		Auth:   config.AuthConfig{JWTSecret: testSecret},
		ApiKey: config.ApiKeyConfig{Value: apiKey},
	}
	return auth.NewMiddleware(cfg, zap.NewNop())
}

// capture records the user context seen by the wrapped handler
func capture(seen **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_Authenticate(t *testing.T) {
	m := newTestMiddleware(testAPIKey)

	t.Run("api key", func(t *testing.T) {
		var seen *auth.UserContext
		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
		req.Header.Set("x-api-key", testAPIKey)
		w := httptest.NewRecorder()
		m.Authenticate(capture(&seen)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, auth.SystemUserID, seen.UserID)
		assert.Equal(t, domain.RoleSystem, seen.Role)
	})

	t.Run("bearer token", func(t *testing.T) {
		token, err := auth.IssueToken([]byte(testSecret), &auth.UserContext{UserID: "user-1", Role: domain.RoleSeller}, "", time.Hour)
		require.NoError(t, err)

		var seen *auth.UserContext
		req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
		req.Header.Set("Authorization", "bearer "+token)
		w := httptest.NewRecorder()
		m.Authenticate(capture(&seen)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "user-1", seen.UserID)
		assert.Equal(t, domain.RoleSeller, seen.Role)
	})

	rejected := []struct {
		name   string
		header string
		value  string
	}{
		{"wrong api key", "x-api-key", "nope"},
		{"missing credentials", "", ""},
		{"basic scheme", "Authorization", "Basic dXNlcjpwYXNz"},
		{"bearer without token", "Authorization", "Bearer"},
		{"invalid token", "Authorization", "Bearer abc.def.ghi"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, called)
		})
	}
}

func TestMiddleware_APIKeyNotConfigured(t *testing.T) {
	m := newTestMiddleware("")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set("x-api-key", "anything")
	w := httptest.NewRecorder()
	m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_RequireRole(t *testing.T) {
	m := newTestMiddleware(testAPIKey)
	protected := m.RequireRole(domain.ManagerRoles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		user     *auth.UserContext
		expected int
	}{
		{"no user", nil, http.StatusForbidden},
		{"seller", &auth.UserContext{UserID: "s", Role: domain.RoleSeller}, http.StatusForbidden},
		{"authorized", &auth.UserContext{UserID: "a", Role: domain.RoleAuthorized}, http.StatusOK},
		{"admin", &auth.UserContext{UserID: "ad", Role: domain.RoleAdmin}, http.StatusOK},
		{"system", auth.SystemUser(), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/malls", nil)
			if tt.user != nil {
				req = req.WithContext(auth.WithUserContext(req.Context(), tt.user))
			}
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestUserContext(t *testing.T) {
	seller := &auth.UserContext{Role: domain.RoleSeller}
	assert.True(t, seller.HasRole(domain.RoleSeller))
	assert.False(t, seller.HasAnyRole(domain.ApproverRoles...))
	assert.False(t, seller.IsAdmin())

	system := auth.SystemUser()
	assert.True(t, system.HasAnyRole(domain.ApproverRoles...))
	assert.True(t, system.IsAdmin())

	_, ok := auth.FromContext(auth.WithUserContext(httptest.NewRequest(http.MethodGet, "/", nil).Context(), nil))
	assert.False(t, ok)

	assert.Panics(t, func() {
		auth.MustFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	})
}
