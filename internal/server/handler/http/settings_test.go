package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/configurator/internal/models"
	"github.com/atinyakov/configurator/internal/repository"
	handler "github.com/atinyakov/configurator/internal/server/handler/http"
	"github.com/atinyakov/configurator/internal/service"
)

// fakeSettingsService keeps documents in memory and records calls.
type fakeSettingsService struct {
	mu        sync.Mutex
	docs      map[string]json.RawMessage
	saved     []string
	lastLimit int
	err       error
}

func newFakeService() *fakeSettingsService {
	return &fakeSettingsService{docs: map[string]json.RawMessage{}}
}

func (f *fakeSettingsService) Load(_ context.Context, passcode string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.docs[passcode]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doc, nil
}

func (f *fakeSettingsService) Save(_ context.Context, passcode string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if !strings.HasPrefix(strings.TrimSpace(string(body)), "{") {
		return service.ErrInvalidDocument
	}
	f.docs[passcode] = append(json.RawMessage(nil), body...)
	f.saved = append(f.saved, passcode)
	return nil
}

func (f *fakeSettingsService) History(_ context.Context, passcode string, limit int) ([]models.Revision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return []models.Revision{{
		ID:        "r1",
		Passcode:  passcode,
		Body:      json.RawMessage(`{"v":1}`),
		CreatedAt: time.Unix(1700000000, 0),
	}}, nil
}

func newRouter(svc handler.SettingsService) http.Handler {
	return handler.NewRouter(&handler.SettingsHandler{SettingsService: svc, Log: zap.NewNop()}, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSuccess(t *testing.T, rec *httptest.ResponseRecorder) bool {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Success
}

func TestGet_NotFound(t *testing.T) {
	rec := do(t, newRouter(newFakeService()), http.MethodGet, "/settings/xyz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateThenGet_ReturnsDocumentVerbatim(t *testing.T) {
	svc := newFakeService()
	h := newRouter(svc)
	doc := `{"Server":{"Host":"h","Port":"1","PublicHost":"p"},"Unknown":{"x":[1,2]}}`

	rec := do(t, h, http.MethodPost, "/settings/xyz", doc)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.True(t, decodeSuccess(t, rec))

	rec = do(t, h, http.MethodGet, "/settings/xyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, doc, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/settings/other", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdate_InvalidBody(t *testing.T) {
	svc := newFakeService()
	rec := do(t, newRouter(svc), http.MethodPost, "/settings/xyz", `[1,2]`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decodeSuccess(t, rec))
	assert.Empty(t, svc.saved)
}

func TestUpdate_WrongContentType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/settings/xyz", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	newRouter(newFakeService()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUpdate_ServiceError(t *testing.T) {
	svc := newFakeService()
	svc.err = errors.New("db down")
	rec := do(t, newRouter(svc), http.MethodPost, "/settings/xyz", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, decodeSuccess(t, rec))
}

func TestGet_ServiceError(t *testing.T) {
	svc := newFakeService()
	svc.err = errors.New("db down")
	rec := do(t, newRouter(svc), http.MethodGet, "/settings/xyz", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpdate_TooLarge(t *testing.T) {
	body := `{"blob":"` + strings.Repeat("a", handler.MaxDocumentSize) + `"}`
	rec := do(t, newRouter(newFakeService()), http.MethodPost, "/settings/xyz", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, decodeSuccess(t, rec))
}

func TestRevisions(t *testing.T) {
	svc := newFakeService()
	h := newRouter(svc)

	rec := do(t, h, http.MethodGet, "/settings/xyz/revisions?limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, svc.lastLimit)
	assert.JSONEq(t, `[{"id":"r1","createdAt":"2023-11-14T22:13:20Z","document":{"v":1}}]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/settings/xyz/revisions?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newRouter(newFakeService()), http.MethodGet, "/api/sync", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
