// Package http provides the HTTP handlers and router of the settings store.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/configurator/internal/middleware"
	"github.com/atinyakov/configurator/internal/models"
	"github.com/atinyakov/configurator/internal/repository"
	"github.com/atinyakov/configurator/internal/service"
)

// MaxDocumentSize bounds an update body.
const MaxDocumentSize = 1 << 20

// SettingsService defines the operations the SettingsHandler needs.
type SettingsService interface {
	Load(ctx context.Context, passcode string) (json.RawMessage, error)
	Save(ctx context.Context, passcode string, body []byte) error
	History(ctx context.Context, passcode string, limit int) ([]models.Revision, error)
}

// SettingsHandler serves settings documents addressed by passcode.
type SettingsHandler struct {
	SettingsService SettingsService
	Log             *zap.Logger
}

type updateResponse struct {
	Success bool `json:"success"`
}

type revisionResponse struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"createdAt"`
	Document  json.RawMessage `json:"document"`
}

// Get handles GET /settings/{passcode}. It writes the stored document
// unchanged, or 404 when nothing was stored under the passcode.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	passcode := middleware.GetPasscodeFromContext(ctx)

	body, err := h.SettingsService.Load(ctx, passcode)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "settings not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger().Error("failed to load settings", zap.Error(err))
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// Update handles POST /settings/{passcode}. The body replaces the stored
// document and the response reports {"success": bool}.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	passcode := middleware.GetPasscodeFromContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxDocumentSize))
	if err != nil {
		writeResult(w, http.StatusRequestEntityTooLarge, false)
		return
	}

	err = h.SettingsService.Save(ctx, passcode, body)
	switch {
	case errors.Is(err, service.ErrInvalidDocument):
		writeResult(w, http.StatusBadRequest, false)
	case err != nil:
		h.logger().Error("failed to save settings", zap.Error(err))
		writeResult(w, http.StatusInternalServerError, false)
	default:
		writeResult(w, http.StatusOK, true)
	}
}

// Revisions handles GET /settings/{passcode}/revisions?limit=n.
func (h *SettingsHandler) Revisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	passcode := middleware.GetPasscodeFromContext(ctx)

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	revs, err := h.SettingsService.History(ctx, passcode, limit)
	if err != nil {
		h.logger().Error("failed to list revisions", zap.Error(err))
		http.Error(w, "failed to list revisions", http.StatusInternalServerError)
		return
	}

	out := make([]revisionResponse, 0, len(revs))
	for _, rev := range revs {
		out = append(out, revisionResponse{ID: rev.ID, CreatedAt: rev.CreatedAt.UTC(), Document: rev.Body})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *SettingsHandler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func writeResult(w http.ResponseWriter, status int, ok bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(updateResponse{Success: ok})
}
