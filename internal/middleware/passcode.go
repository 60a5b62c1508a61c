// Package middleware provides HTTP middlewares for passcode scoping and logging.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type ctxKey string

const passcodeKey ctxKey = "passcode"

// RequirePasscode rejects requests whose {passcode} route parameter is empty
// and stores the passcode in the request context for downstream handlers.
func RequirePasscode(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		passcode := chi.URLParam(r, "passcode")
		if strings.TrimSpace(passcode) == "" {
			http.Error(w, "passcode required", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), passcodeKey, passcode)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPasscodeFromContext returns the passcode stored by RequirePasscode,
// or an empty string if there is none.
func GetPasscodeFromContext(ctx context.Context) string {
	val := ctx.Value(passcodeKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
