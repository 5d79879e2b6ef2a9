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

func createDraft(t *testing.T, env *testEnv, req domain.CreateQuoteRequest) domain.QuoteDTO {
	t.Helper()
	rr := env.do(t, domain.RoleSeller, http.MethodPost, "/quotes", req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var quote domain.QuoteDTO
	decodeBody(t, rr, &quote)
	return quote
}

func TestQuoteHandler_CreateAndLines(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestRate(t, env.db, "8")
	at := testutil.CreateTestActivityType(t, env.db, "Sampling")
	staff := testutil.CreateTestInsumo(t, env.db, "Promotora", "100", domain.BillingModeMultipliable)

	quote := createDraft(t, env, domain.CreateQuoteRequest{ActivityName: "Back to school", ActivityTypeID: at.ID})
	assert.Equal(t, domain.QuoteStatusDraft, quote.Status)
	assert.Equal(t, "seller-1", quote.CreatedByID)

	base := "/quotes/" + quote.ID.String()

	t.Run("add line prices it", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodPost, base+"/lines", domain.AddQuoteLineRequest{
			InsumoID: staff.ID, QtyPeople: 2, UnitsValue: 3,
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		decodeBody(t, rr, &quote)
		require.Len(t, quote.Lines, 1)
		assert.True(t, testutil.Dec("600").Equal(quote.TotalCostGTQ))
		assert.True(t, testutil.Dec("75").Equal(quote.TotalCostUSD))
		assert.True(t, testutil.Dec("187.5").Equal(quote.SuggestedPriceM60))
	})

	t.Run("zero people fails validation", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodPost, base+"/lines", domain.AddQuoteLineRequest{
			InsumoID: staff.ID, QtyPeople: 0,
		})
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, decodeError(t, rr).Errors, "qtyPeople")
	})

	t.Run("unknown insumo", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodPost, base+"/lines", domain.AddQuoteLineRequest{
			InsumoID: uuid.New(), QtyPeople: 1,
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("update and delete line", func(t *testing.T) {
		lineURL := base + "/lines/" + quote.Lines[0].ID.String()
		rr := env.do(t, domain.RoleSeller, http.MethodPut, lineURL, domain.UpdateQuoteLineRequest{QtyPeople: 1, UnitsValue: 1})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		decodeBody(t, rr, &quote)
		assert.True(t, testutil.Dec("100").Equal(quote.TotalCostGTQ))

		rr = env.do(t, domain.RoleSeller, http.MethodDelete, base+"/lines/"+uuid.NewString(), nil)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = env.do(t, domain.RoleSeller, http.MethodDelete, lineURL, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		decodeBody(t, rr, &quote)
		assert.Empty(t, quote.Lines)
		assert.True(t, quote.TotalCostGTQ.IsZero())
	})

	t.Run("update header", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodPut, base, domain.UpdateQuoteRequest{
			ActivityName: "Back to school 2", ActivityTypeID: at.ID, Notes: "Two weekends",
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		decodeBody(t, rr, &quote)
		assert.Equal(t, "Back to school 2", quote.ActivityName)
		assert.Equal(t, "Two weekends", quote.Notes)
	})

	t.Run("unknown activity type", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodPost, "/quotes", domain.CreateQuoteRequest{
			ActivityName: "Ghost", ActivityTypeID: uuid.New(),
		})
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestQuoteHandler_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	at := testutil.CreateTestActivityType(t, env.db, "Sampling")
	staff := testutil.CreateTestInsumo(t, env.db, "Promotora", "780", domain.BillingModeMultipliable)
	mall := testutil.CreateTestMall(t, env.db, "Oakland")
	other := testutil.CreateTestMall(t, env.db, "Miraflores")
	oi := testutil.CreateTestOI(t, env.db, mall.ID, "OI-100", "1000")
	foreignOI := testutil.CreateTestOI(t, env.db, other.ID, "OI-200", "1000")

	quote := createDraft(t, env, domain.CreateQuoteRequest{ActivityName: "Launch", ActivityTypeID: at.ID, MallID: &mall.ID})
	base := "/quotes/" + quote.ID.String()

	rr := env.do(t, domain.RoleSeller, http.MethodPost, base+"/send", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "a quote without lines cannot be sent")

	rr = env.do(t, domain.RoleSeller, http.MethodPost, base+"/lines", domain.AddQuoteLineRequest{InsumoID: staff.ID, QtyPeople: 1})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = env.do(t, domain.RoleAdmin, http.MethodPost, base+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "drafts cannot be approved")

	rr = env.do(t, domain.RoleSeller, http.MethodPost, base+"/send", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeBody(t, rr, &quote)
	assert.Equal(t, domain.QuoteStatusSent, quote.Status)
	assert.NotNil(t, quote.SentAt)

	rr = env.do(t, domain.RoleSeller, http.MethodPost, base+"/lines", domain.AddQuoteLineRequest{InsumoID: staff.ID, QtyPeople: 1})
	assert.Equal(t, http.StatusConflict, rr.Code, "sent quotes are read-only")

	rr = env.do(t, domain.RoleSeller, http.MethodPost, base+"/approve", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// approve without a body takes the 60% margin suggestion
	rr = env.do(t, domain.RoleAdmin, http.MethodPost, base+"/approve", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeBody(t, rr, &quote)
	assert.Equal(t, domain.QuoteStatusApproved, quote.Status)
	require.NotNil(t, quote.FinalSalePriceUSD)
	assert.True(t, testutil.Dec("250").Equal(*quote.FinalSalePriceUSD))

	rr = env.do(t, domain.RoleAuthorized, http.MethodPost, base+"/execute", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "oiId is required", decodeError(t, rr).Errors["oiId"])

	rr = env.do(t, domain.RoleAuthorized, http.MethodPost, base+"/execute", domain.ExecuteQuoteRequest{OIID: foreignOI.ID})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "OI of another mall")

	rr = env.do(t, domain.RoleAuthorized, http.MethodPost, base+"/execute", domain.ExecuteQuoteRequest{OIID: oi.ID})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeBody(t, rr, &quote)
	assert.Equal(t, domain.QuoteStatusExecuted, quote.Status)
	assert.Equal(t, "OI-100", quote.OICode)

	rr = env.do(t, domain.RoleAuthorized, http.MethodPost, base+"/liquidate", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decodeBody(t, rr, &quote)
	assert.Equal(t, domain.QuoteStatusLiquidated, quote.Status)

	rr = env.do(t, domain.RoleAdmin, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusConflict, rr.Code, "liquidated quotes are kept")
}

func TestQuoteHandler_Reject(t *testing.T) {
	env := newTestEnv(t)
	at := testutil.CreateTestActivityType(t, env.db, "Sampling")
	sent := testutil.CreateTestQuote(t, env.db, at.ID, domain.QuoteStatusSent, "seller-1")

	rr := env.do(t, domain.RoleAdmin, http.MethodPost, "/quotes/"+sent.ID.String()+"/reject", domain.RejectQuoteRequest{Reason: "Over budget"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var quote domain.QuoteDTO
	decodeBody(t, rr, &quote)
	assert.Equal(t, domain.QuoteStatusRejected, quote.Status)
	assert.Equal(t, "Over budget", quote.RejectionReason)

	rr = env.do(t, domain.RoleSeller, http.MethodDelete, "/quotes/"+sent.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code, "creators may delete rejected quotes")

	rr = env.do(t, domain.RoleSeller, http.MethodGet, "/quotes/"+sent.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestQuoteHandler_Templates(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestRate(t, env.db, "8")
	at := testutil.CreateTestActivityType(t, env.db, "Sampling")
	staff := testutil.CreateTestInsumo(t, env.db, "Promotora", "100", domain.BillingModeMultipliable)

	quote := createDraft(t, env, domain.CreateQuoteRequest{ActivityName: "Expo", ActivityTypeID: at.ID})
	rr := env.do(t, domain.RoleSeller, http.MethodPost, "/quotes/"+quote.ID.String()+"/lines", domain.AddQuoteLineRequest{
		InsumoID: staff.ID, QtyPeople: 2, UnitsValue: 2,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = env.do(t, domain.RoleSeller, http.MethodPost, "/quotes/"+quote.ID.String()+"/template", domain.SaveTemplateRequest{Name: "Expo base"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var template domain.QuoteDTO
	decodeBody(t, rr, &template)
	assert.Equal(t, domain.QuoteStatusTemplate, template.Status)
	assert.Len(t, template.Lines, 1)

	t.Run("templates are hidden from the default list", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodGet, "/quotes", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		var page domain.PaginatedResponse
		decodeBody(t, rr, &page)
		assert.Equal(t, int64(1), page.Total)

		rr = env.do(t, domain.RoleSeller, http.MethodGet, "/quotes?status=template", nil)
		decodeBody(t, rr, &page)
		assert.Equal(t, int64(1), page.Total)

		rr = env.do(t, domain.RoleSeller, http.MethodGet, "/quotes?includeTemplates=true", nil)
		decodeBody(t, rr, &page)
		assert.Equal(t, int64(2), page.Total)
	})

	t.Run("invalid status filter", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodGet, "/quotes?status=archived", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("create from template", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodPost, "/quotes/from-template", domain.CreateFromTemplateRequest{TemplateID: template.ID})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		var draft domain.QuoteDTO
		decodeBody(t, rr, &draft)
		assert.Equal(t, domain.QuoteStatusDraft, draft.Status)
		assert.Equal(t, "Copia de Expo base", draft.ActivityName)
		assert.Len(t, draft.Lines, 1)
	})

	t.Run("source must be a template", func(t *testing.T) {
		rr := env.do(t, domain.RoleSeller, http.MethodPost, "/quotes/from-template", domain.CreateFromTemplateRequest{TemplateID: quote.ID})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
