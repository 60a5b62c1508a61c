package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/configurator/internal/middleware"
)

// NewRouter returns the settings store API.
//
// Routes:
//
//	GET  /settings/{passcode}           → settingsHandler.Get
//	POST /settings/{passcode}           → settingsHandler.Update
//	GET  /settings/{passcode}/revisions → settingsHandler.Revisions
//
// Middleware chain (applied in order):
//  1. Recoverer                          turns panics into 500s
//  2. AllowContentType("application/json") rejects non-JSON bodies
//  3. WithRequestLogging(logger)         logs each request
//  4. RequirePasscode                    scopes the request to a passcode
func NewRouter(settingsHandler *SettingsHandler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(middleware.WithRequestLogging(logger))

	r.Route("/settings/{passcode}", func(r chi.Router) {
		r.Use(middleware.RequirePasscode)
		r.Get("/", settingsHandler.Get)
		r.Post("/", settingsHandler.Update)
		r.Get("/revisions", settingsHandler.Revisions)
	})

	return r
}
