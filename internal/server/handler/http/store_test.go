package http_test

import (
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/configurator/internal/db"
	"github.com/atinyakov/configurator/internal/repository"
	handler "github.com/atinyakov/configurator/internal/server/handler/http"
	"github.com/atinyakov/configurator/internal/service"
)

func TestRouter_SQLiteStore(t *testing.T) {
	conn, dialect, err := db.Open("sqlite:" + filepath.Join(t.TempDir(), "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	svc := service.NewSettingsService(repository.NewSettingsRepository(conn, dialect))
	h := handler.NewRouter(&handler.SettingsHandler{SettingsService: svc, Log: zap.NewNop()}, zap.NewNop())

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/settings/xyz", "").Code)

	first := `{"Server":{"Port":"1"}}`
	second := `{"Server":{"Port":"2"},"Extra":true}`
	require.True(t, decodeSuccess(t, do(t, h, http.MethodPost, "/settings/xyz", first)))
	require.True(t, decodeSuccess(t, do(t, h, http.MethodPost, "/settings/xyz", second)))

	rec := do(t, h, http.MethodGet, "/settings/xyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, second, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/settings/xyz/revisions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Extra":true`)
	assert.Contains(t, rec.Body.String(), `"Port":"1"`)
}
