package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/pkg/httpapi"
)

// CSRFProtection validates the X-CSRF-Token header on state-changing
// requests against the token stored in the session. Must run after
// RequireSession so the session is already in context.
func CSRFProtection(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			sess := SessionFromContext(r)
			if sess == nil {
				httpapi.WriteUnauthorized(w, "Not signed in")
				return
			}

			token := r.Header.Get("X-CSRF-Token")
			if token == "" {
				if cookie, err := r.Cookie(session.CSRFCookieName); err == nil {
					token = cookie.Value
				}
			}

			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sess.CSRFToken)) != 1 {
				logger.Warn("CSRF token validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				httpapi.WriteForbidden(w, "CSRF token invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isStateChangingMethod checks if the HTTP method modifies state
func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	default:
		return false
	}
}
