package handler_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/spectrum-media/quote-api/internal/domain"
	"github.com/spectrum-media/quote-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogHandler_Malls(t *testing.T) {
	env := newTestEnv(t)

	t.Run("create mall", func(t *testing.T) {
		rr := env.do(t, domain.RoleAdmin, http.MethodPost, "/malls", domain.CreateMallRequest{Name: "Oakland Mall"})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var mall domain.MallDTO
		decodeBody(t, rr, &mall)
		assert.Equal(t, "Oakland Mall", mall.Name)
		assert.True(t, mall.IsActive)
		assert.Equal(t, "/api/v1/malls/"+mall.ID.String(), rr.Header().Get("Location"))
	})

	t.Run("duplicate name conflicts", func(t *testing.T) {
		rr := env.do(t, domain.RoleAdmin, http.MethodPost, "/malls", domain.CreateMallRequest{Name: "Oakland Mall"})
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, domain.ErrorTypeConflict, decodeError(t, rr).Type)
	})

	t.Run("missing name is a validation error", func(t *testing.T) {
		rr := env.do(t, domain.RoleAdmin, http.MethodPost, "/malls", map[string]string{})
		require.Equal(t, http.StatusBadRequest, rr.Code)

		apiErr := decodeError(t, rr)
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.Equal(t, "name is required", apiErr.Errors["name"])
	})

	t.Run("malformed body", func(t *testing.T) {
		rr := env.do(t, domain.RoleAdmin, http.MethodPost, "/malls", "not an object")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("get unknown mall", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodGet, "/malls/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodGet, "/malls/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid mall ID", decodeError(t, rr).Detail)
	})

	t.Run("deactivated malls are hidden by default", func(t *testing.T) {
		closed := testutil.CreateTestMall(t, env.db, "Closed Mall")
		rr := env.do(t, domain.RoleAdmin, http.MethodDelete, "/malls/"+closed.ID.String(), nil)
		require.Equal(t, http.StatusNoContent, rr.Code)

		rr = env.do(t, domain.RoleSeller, http.MethodGet, "/malls", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var malls []domain.MallDTO
		decodeBody(t, rr, &malls)
		require.Len(t, malls, 1)
		assert.Equal(t, "Oakland Mall", malls[0].Name)

		rr = env.do(t, domain.RoleSeller, http.MethodGet, "/malls?includeInactive=true", nil)
		decodeBody(t, rr, &malls)
		assert.Len(t, malls, 2)
	})
}

func TestCatalogHandler_OIsAndBudgets(t *testing.T) {
	env := newTestEnv(t)
	mall := testutil.CreateTestMall(t, env.db, "Oakland")
	closed := testutil.CreateTestMall(t, env.db, "Closed")
	require.NoError(t, env.db.Model(closed).Update("is_active", false).Error)

	rr := env.do(t, domain.RoleAuthorized, http.MethodPost, "/ois", domain.CreateOIRequest{
		MallID: mall.ID, Code: "OI-100", Name: "Oakland marketing", AnnualBudgetUSD: 12000,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var oi domain.OIDTO
	decodeBody(t, rr, &oi)
	assert.Equal(t, "OI-100", oi.Code)
	assert.Equal(t, "Oakland", oi.MallName)

	t.Run("duplicate code conflicts", func(t *testing.T) {
		rr := env.do(t, domain.RoleAuthorized, http.MethodPost, "/ois", domain.CreateOIRequest{
			MallID: mall.ID, Code: "OI-100", Name: "Again",
		})
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("inactive mall is rejected", func(t *testing.T) {
		rr := env.do(t, domain.RoleAuthorized, http.MethodPost, "/ois", domain.CreateOIRequest{
			MallID: closed.ID, Code: "OI-200", Name: "Closed marketing",
		})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("negative budget fails validation", func(t *testing.T) {
		rr := env.do(t, domain.RoleAuthorized, http.MethodPost, "/ois", domain.CreateOIRequest{
			MallID: mall.ID, Code: "OI-300", Name: "Negative", AnnualBudgetUSD: -1,
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr).Errors, "annualBudgetUsd")
	})

	t.Run("upsert replaces the monthly budget", func(t *testing.T) {
		for _, amount := range []float64{1000, 1500} {
			rr := env.do(t, domain.RoleAuthorized, http.MethodPut, "/budgets", domain.UpsertBudgetRequest{
				OIID: oi.ID, Year: 2025, Month: 3, BudgetUSD: amount,
			})
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		}

		rr := env.do(t, domain.RoleSeller, http.MethodGet, "/budgets?year=2025", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var budgets []domain.BudgetDTO
		decodeBody(t, rr, &budgets)
		require.Len(t, budgets, 1)
		assert.True(t, testutil.Dec("1500").Equal(budgets[0].BudgetUSD))
	})

	t.Run("month out of range", func(t *testing.T) {
		rr := env.do(t, domain.RoleAuthorized, http.MethodPut, "/budgets", domain.UpsertBudgetRequest{
			OIID: oi.ID, Year: 2025, Month: 13, BudgetUSD: 10,
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Must be less than or equal to 12", decodeError(t, rr).Errors["month"])
	})

	t.Run("malformed year filter", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodGet, "/budgets?year=last", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestCatalogHandler_InsumosAndProviders(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, domain.RoleAdmin, http.MethodPost, "/insumos", domain.CreateInsumoRequest{
		Name: "Promotora", UnitType: domain.UnitTypeHour, CostGTQ: 45.5, BillingMode: domain.BillingModeMultipliable,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var insumo domain.InsumoDTO
	decodeBody(t, rr, &insumo)
	assert.Equal(t, domain.UnitTypeHour, insumo.UnitType)
	assert.True(t, testutil.Dec("45.5").Equal(insumo.CostGTQ))

	rr = env.do(t, domain.RoleAdmin, http.MethodPost, "/insumos", map[string]interface{}{
		"name": "Stand", "billingMode": "sometimes", "costGtq": 10,
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Must be one of: multipliable per_activity", decodeError(t, rr).Errors["billingMode"])

	for _, p := range []domain.ProviderRequest{
		{Name: "Imprenta Central", ProviderType: domain.ProviderTypeCertified, NIT: "1234567-8"},
		{Name: "Ana Lopez", ProviderType: domain.ProviderTypeDirect, CUI: "2500000000101"},
	} {
		rr := env.do(t, domain.RoleAdmin, http.MethodPost, "/providers", p)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	}

	rr = env.do(t, domain.RoleSeller, http.MethodGet, "/providers?providerType=direct", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var providers []domain.ProviderDTO
	decodeBody(t, rr, &providers)
	require.Len(t, providers, 1)
	assert.Equal(t, "Ana Lopez", providers[0].Name)

	rr = env.do(t, domain.RoleSeller, http.MethodGet, "/providers?providerType=friend", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExchangeRateHandler(t *testing.T) {
	env := newTestEnv(t)

	t.Run("default rate before any is set", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodGet, "/exchange-rates/active", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var rate domain.ExchangeRateDTO
		decodeBody(t, rr, &rate)
		assert.True(t, rate.IsDefault)
		assert.True(t, testutil.Dec("7.8").Equal(rate.GTQPerUSD))
	})

	t.Run("set replaces the active rate", func(t *testing.T) {
		for _, v := range []float64{7.75, 7.7} {
			rr := env.do(t, domain.RoleAuthorized, http.MethodPost, "/exchange-rates", domain.SetExchangeRateRequest{GTQPerUSD: v})
			require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		}

		rr := env.do(t, domain.RoleSeller, http.MethodGet, "/exchange-rates/active", nil)
		var rate domain.ExchangeRateDTO
		decodeBody(t, rr, &rate)
		assert.False(t, rate.IsDefault)
		assert.True(t, testutil.Dec("7.7").Equal(rate.GTQPerUSD))

		rr = env.do(t, domain.RoleSeller, http.MethodGet, "/exchange-rates", nil)
		var history []domain.ExchangeRateDTO
		decodeBody(t, rr, &history)
		require.Len(t, history, 2)
		active := 0
		for _, h := range history {
			if h.IsActive {
				active++
			}
		}
		assert.Equal(t, 1, active)
	})

	t.Run("zero rate fails validation", func(t *testing.T) {
		rr := env.do(t, domain.RoleAuthorized, http.MethodPost, "/exchange-rates", domain.SetExchangeRateRequest{GTQPerUSD: 0})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr).Errors, "gtqPerUsd")
	})
}

func TestAuthHandler_Me(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		role                          domain.UserRole
		canEdit, canManage, canApprove bool
	}{
		{domain.RoleSeller, true, false, false},
		{domain.RoleAuthorized, true, true, false},
		{domain.RoleAdmin, true, true, true},
		{domain.RoleSystem, true, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			rr := env.do(t, tt.role, http.MethodGet, "/auth/me", nil)
			require.Equal(t, http.StatusOK, rr.Code)
			var me domain.AuthUserDTO
			decodeBody(t, rr, &me)
			assert.Equal(t, tt.role, me.Role)
			assert.Equal(t, string(tt.role)+"-1", me.ID)
			assert.Equal(t, tt.canEdit, me.CanEdit)
			assert.Equal(t, tt.canManage, me.CanManage)
			assert.Equal(t, tt.canApprove, me.CanApprove)
		})
	}

	t.Run("anonymous", func(t *testing.T) {
		rr := env.do(t, "", http.MethodGet, "/auth/me", nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
