package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lethe/internal/consent"
	"lethe/internal/entity"
	"lethe/internal/storage"
	"lethe/internal/sweeper"
	"lethe/internal/transport/http/mocks"
	dErrors "lethe/pkg/domain-errors"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type handlerMocks struct {
	consent *mocks.MockConsentService
	engine  *mocks.MockAnonymizationService
	sweep   *mocks.MockSweepService
	loader  *storage.MemoryLoader
}

func newTestHandler(t *testing.T) (*Handler, *handlerMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := &handlerMocks{
		consent: mocks.NewMockConsentService(ctrl),
		engine:  mocks.NewMockAnonymizationService(ctrl),
		sweep:   mocks.NewMockSweepService(ctrl),
		loader:  storage.NewMemoryLoader(),
	}
	h := &Handler{
		logger:  slog.New(slog.DiscardHandler),
		consent: m.consent,
		engine:  m.engine,
		sweep:   m.sweep,
		loader:  m.loader,
	}
	return h, m
}

func sampleReason() *consent.LegalReason {
	return &consent.LegalReason{
		ID:        uuid.New(),
		Entity:    entity.Ref{Type: "customer", ID: "1"},
		Purposes:  []string{"general"},
		IssuedAt:  testNow,
		ExpiresAt: testNow.AddDate(2, 0, 0),
		Active:    true,
	}
}

func jsonRequest(method, target string, payload any) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// entityRequest builds a request with chi URL params, as the router would.
func entityRequest(method, target string, body any, typ, id string) *http.Request {
	var req *http.Request
	if body != nil {
		req = jsonRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("type", typ)
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHandleGrantConsent(t *testing.T) {
	h, m := newTestHandler(t)
	lr := sampleReason()
	m.consent.EXPECT().
		CreateConsent(gomock.Any(), entity.Ref{Type: "customer", ID: "1"}, []string{"general"}, gomock.Any()).
		Return(lr, nil)

	rec := httptest.NewRecorder()
	h.handleGrantConsent(rec, jsonRequest(http.MethodPost, "/consents", grantConsentRequest{
		EntityType: "customer",
		EntityID:   "1",
		Purposes:   []string{"general"},
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, lr.ID.String(), body["id"])
	assert.Equal(t, "customer:1", body["entity"])
	assert.Equal(t, true, body["active"])
}

func TestHandleGrantConsent_InvalidBody(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/consents", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.handleGrantConsent(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", decodeBody(t, rec)["error"])
}

func TestHandleGrantConsent_MissingEntity(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.handleGrantConsent(rec, jsonRequest(http.MethodPost, "/consents", grantConsentRequest{
		Purposes: []string{"general"},
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGrantConsent_UnknownPurpose(t *testing.T) {
	h, m := newTestHandler(t)
	m.consent.EXPECT().
		CreateConsent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnknownPurpose, "no such purpose"))

	rec := httptest.NewRecorder()
	h.handleGrantConsent(rec, jsonRequest(http.MethodPost, "/consents", grantConsentRequest{
		EntityType: "customer",
		EntityID:   "1",
		Purposes:   []string{"nope"},
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_purpose", decodeBody(t, rec)["error"])
}

func TestHandleGrantConsent_InternalErrorIsOpaque(t *testing.T) {
	h, m := newTestHandler(t)
	m.consent.EXPECT().
		CreateConsent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("pq: connection refused"))

	rec := httptest.NewRecorder()
	h.handleGrantConsent(rec, jsonRequest(http.MethodPost, "/consents", grantConsentRequest{
		EntityType: "customer",
		EntityID:   "1",
		Purposes:   []string{"general"},
	}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestHandleRevokeConsent(t *testing.T) {
	h, m := newTestHandler(t)
	m.loader.Put(entity.NewRecord("customer", "1", map[string]any{"email": "a@b.cz"}))

	revoked := sampleReason()
	revoked.Active = false
	m.consent.EXPECT().
		DeactivateConsent(gomock.Any(), "general", gomock.Any()).
		Return([]*consent.LegalReason{revoked}, nil)

	rec := httptest.NewRecorder()
	h.handleRevokeConsent(rec, jsonRequest(http.MethodPost, "/consents/revoke", revokeConsentRequest{
		EntityType: "customer",
		EntityID:   "1",
		Purpose:    "general",
	}))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["revoked"], 1)
}

func TestHandleRevokeConsent_EntityNotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.handleRevokeConsent(rec, jsonRequest(http.MethodPost, "/consents/revoke", revokeConsentRequest{
		EntityType: "customer",
		EntityID:   "missing",
		Purpose:    "general",
	}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRenewConsent(t *testing.T) {
	h, m := newTestHandler(t)
	m.loader.Put(entity.NewRecord("customer", "1", map[string]any{"email": "a@b.cz"}))

	lr := sampleReason()
	m.consent.EXPECT().
		RenewConsent(gomock.Any(), gomock.Any(), []string{"general"}, gomock.Any()).
		Return(lr, nil)

	rec := httptest.NewRecorder()
	h.handleRenewConsent(rec, jsonRequest(http.MethodPost, "/consents/renew", grantConsentRequest{
		EntityType: "customer",
		EntityID:   "1",
		Purposes:   []string{"general"},
	}))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, lr.ID.String(), decodeBody(t, rec)["id"])
}

func TestHandleListConsents(t *testing.T) {
	h, m := newTestHandler(t)
	m.consent.EXPECT().
		List(gomock.Any(), entity.Ref{Type: "customer", ID: "1"}).
		Return([]*consent.LegalReason{sampleReason()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/consents?entity_type=customer&entity_id=1", nil)
	rec := httptest.NewRecorder()
	h.handleListConsents(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["consents"], 1)
}

func TestHandleCheckConsent(t *testing.T) {
	h, m := newTestHandler(t)
	m.consent.EXPECT().
		ExistsValidConsent(gomock.Any(), "general", entity.Ref{Type: "customer", ID: "1"}).
		Return(true, nil)

	req := httptest.NewRequest(http.MethodGet, "/consents/check?entity_type=customer&entity_id=1&purpose=general", nil)
	rec := httptest.NewRecorder()
	h.handleCheckConsent(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["valid"])
}

func TestHandleCheckConsent_MissingQuery(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/consents/check?purpose=general", nil)
	rec := httptest.NewRecorder()
	h.handleCheckConsent(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAnonymizeEntity(t *testing.T) {
	h, m := newTestHandler(t)
	m.loader.Put(entity.NewRecord("customer", "1", map[string]any{"email": "a@b.cz"}))
	m.engine.EXPECT().AnonymizeEntity(gomock.Any(), gomock.Any()).Return(nil)

	rec := httptest.NewRecorder()
	h.handleAnonymizeEntity(rec,
		entityRequest(http.MethodPost, "/entities/customer/1/anonymize", nil, "customer", "1"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleDeanonymizeEntity(t *testing.T) {
	h, m := newTestHandler(t)
	m.loader.Put(entity.NewRecord("customer", "1", map[string]any{"email": "a@b.cz"}))
	m.engine.EXPECT().
		DeanonymizeEntity(gomock.Any(), gomock.Any(), []string{"email"}).
		Return(nil)

	rec := httptest.NewRecorder()
	h.handleDeanonymizeEntity(rec,
		entityRequest(http.MethodPost, "/entities/customer/1/deanonymize",
			deanonymizeRequest{Fields: []string{"email"}}, "customer", "1"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandleDeanonymizeEntity_NoFields(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.handleDeanonymizeEntity(rec,
		entityRequest(http.MethodPost, "/entities/customer/1/deanonymize",
			deanonymizeRequest{}, "customer", "1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeanonymizeEntity_Irreversible(t *testing.T) {
	h, m := newTestHandler(t)
	m.loader.Put(entity.NewRecord("customer", "1", map[string]any{"password": "x"}))
	m.engine.EXPECT().
		DeanonymizeEntity(gomock.Any(), gomock.Any(), []string{"password"}).
		Return(dErrors.New(dErrors.CodeIrreversibleField, "cannot restore"))

	rec := httptest.NewRecorder()
	h.handleDeanonymizeEntity(rec,
		entityRequest(http.MethodPost, "/entities/customer/1/deanonymize",
			deanonymizeRequest{Fields: []string{"password"}}, "customer", "1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "irreversible_field", decodeBody(t, rec)["error"])
}

func TestHandleAnonymizablePaths(t *testing.T) {
	h, m := newTestHandler(t)
	m.engine.EXPECT().
		AnonymizablePaths(gomock.Any(), entity.Ref{Type: "customer", ID: "1"}).
		Return([]string{"addresses.city", "email"}, nil)

	rec := httptest.NewRecorder()
	h.handleAnonymizablePaths(rec,
		entityRequest(http.MethodGet, "/entities/customer/1/fields", nil, "customer", "1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"addresses.city", "email"}, decodeBody(t, rec)["fields"])
}

func TestHandleSweep(t *testing.T) {
	h, m := newTestHandler(t)
	m.sweep.EXPECT().Run(gomock.Any()).Return(sweeper.Result{
		ReasonsDeactivated: 3,
		EntitiesAnonymized: 2,
	}, nil)

	rec := httptest.NewRecorder()
	h.handleSweep(rec, httptest.NewRequest(http.MethodPost, "/sweep", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["reasons_deactivated"])
	assert.Equal(t, float64(2), body["entities"])
}

func TestHandleSweep_SkippedConflicts(t *testing.T) {
	h, m := newTestHandler(t)
	m.sweep.EXPECT().Run(gomock.Any()).Return(sweeper.Result{Skipped: true}, nil)

	rec := httptest.NewRecorder()
	h.handleSweep(rec, httptest.NewRequest(http.MethodPost, "/sweep", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}
