package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vantagehq/console/internal/models"
	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/pkg/httpapi"
)

// contextKey is a custom type for context keys
type contextKey string

// SessionContextKey is the key for storing the loaded session in context
const SessionContextKey contextKey = "session"

// RequireSession loads the session named by the session cookie into the
// request context. Requests without a live session get 401; the browser is
// expected to route to the login screen on that.
func RequireSession(store session.Store, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := session.SessionIDFromRequest(r)
			if err != nil {
				httpapi.WriteUnauthorized(w, "Not signed in")
				return
			}

			sess, err := store.Get(r.Context(), id)
			if err != nil {
				if errors.Is(err, models.ErrSessionExpired) {
					httpapi.WriteUnauthorized(w, "Session expired, please sign in again")
					return
				}
				if errors.Is(err, models.ErrSessionNotFound) {
					httpapi.WriteUnauthorized(w, "Not signed in")
					return
				}
				logger.Error("session lookup failed", slog.Any("error", err))
				httpapi.WriteInternalError(w, "Something went wrong")
				return
			}

			ctx := context.WithValue(r.Context(), SessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin gates a route on the session profile's admin role. Must run
// after RequireSession.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := SessionFromContext(r)
		if sess == nil {
			httpapi.WriteUnauthorized(w, "Not signed in")
			return
		}
		if !sess.IsAdmin() {
			httpapi.WriteForbidden(w, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionFromContext returns the session loaded by RequireSession, or nil.
func SessionFromContext(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(SessionContextKey).(*session.Session)
	return sess
}
