package parcel

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parceltrack/internal/identity"
)

// do routes a request through the handler with the given principal
// injected, the way the auth middleware would.
func do(t *testing.T, h *Handler, p identity.Principal, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req = req.WithContext(identity.WithPrincipal(req.Context(), p))

	r := chi.NewRouter()
	h.Routes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHandlerCreateAndGet(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.scoped)
	manager := managerPrincipal()

	rec := do(t, h, manager, http.MethodPost, "/parcels", CreateRequest{
		Description:     "vinyl records",
		Weight:          5.5,
		DestinationCity: "Nantes",
		SenderID:        env.client.ID,
		RecipientID:     env.recipient.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[*Parcel](t, rec)
	assert.Equal(t, StatusCreated, created.Status)

	rec = do(t, h, manager, http.MethodGet, "/parcels/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decodeBody[*Parcel](t, rec)
	assert.Equal(t, created.ID, fetched.ID)

	rec = do(t, h, manager, http.MethodGet, "/parcels/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerListAndFilters(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.scoped)
	manager := managerPrincipal()

	env.createParcel(t)
	env.createParcel(t)

	rec := do(t, h, manager, http.MethodGet, "/parcels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]*Parcel](t, rec)
	assert.Len(t, list, 2)

	rec = do(t, h, manager, http.MethodGet, "/parcels?status=DELIVERED", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decodeBody[[]*Parcel](t, rec)
	assert.Empty(t, list)
	assert.JSONEq(t, "[]", rec.Body.String(), "empty result is an array, not null")

	rec = do(t, h, manager, http.MethodGet, "/parcels?status=BOGUS", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, manager, http.MethodGet, "/parcels?limit=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = decodeBody[[]*Parcel](t, rec)
	assert.Len(t, list, 1)
}

func TestHandlerStatusUpdate(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.scoped)
	manager := managerPrincipal()
	p := env.createParcel(t)

	rec := do(t, h, manager, http.MethodPatch, "/parcels/"+p.ID.String()+"/status",
		StatusRequest{Status: StatusCollected, Comment: "on the van"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[*Parcel](t, rec)
	assert.Equal(t, StatusCollected, updated.Status)
	assert.NotNil(t, updated.CollectedAt)

	rec = do(t, h, manager, http.MethodGet, "/parcels/"+p.ID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	history := decodeBody[[]*HistoryEntry](t, rec)
	require.Len(t, history, 2)
	assert.Equal(t, "on the van", history[0].Comment)
	assert.Equal(t, manager.Username, history[0].ModifiedBy)
}

func TestHandlerForbiddenAndNotFound(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.scoped)
	p := env.createParcel(t)

	client := clientPrincipal(&env.client.ID)
	rec := do(t, h, client, http.MethodDelete, "/parcels/"+p.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var errBody struct {
		Code    string `json:"code"`
		Message string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "FORBIDDEN", errBody.Code)

	manager := managerPrincipal()
	rec = do(t, h, manager, http.MethodGet, "/parcels/00000000-0000-0000-0000-000000000001", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, manager, http.MethodPost, "/parcels/"+p.ID.String()+"/items", AddLineItemRequest{
		ProductID: env.product.ID,
		Quantity:  1,
		UnitPrice: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decodeBody[*LineItem](t, rec)

	_, err := env.svc.UpdateStatus(context.Background(), p.ID, StatusRequest{Status: StatusInTransit})
	require.NoError(t, err)

	rec = do(t, h, manager, http.MethodDelete, "/parcel-items/"+item.ID.String(), nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "content edits are rejected once in transit")
}

func TestHandlerStatisticsAndOverdue(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.scoped)
	manager := managerPrincipal()
	env.createParcel(t)

	rec := do(t, h, manager, http.MethodGet, "/parcels/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[*Statistics](t, rec)
	assert.Equal(t, int64(1), stats.Total)

	rec = do(t, h, manager, http.MethodGet, "/parcels/overdue", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, manager, http.MethodGet, "/parcels/statistics/courier/"+env.courier.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, courierPrincipal(&env.courier.ID), http.MethodGet, "/parcels/statistics/courier/"+env.courier.ID.String(), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerSearch(t *testing.T) {
	env := newTestEnv(t)
	h := NewHandler(env.scoped)
	manager := managerPrincipal()
	env.createParcel(t)

	rec := do(t, h, manager, http.MethodGet, "/parcels/search?q=mugs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]*Parcel](t, rec)
	assert.Len(t, list, 1)

	rec = do(t, h, manager, http.MethodGet, "/parcels/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "q is required")
}
