// Package session holds the server-side browser session: the upstream
// bearer token, the signed-in profile, and the per-session console state
// (directory query, open dialog, pending delete). Sessions are plain JSON
// so either store can hold them.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vantagehq/console/internal/dialog"
	"github.com/vantagehq/console/internal/directory"
	"github.com/vantagehq/console/internal/models"
)

// Session is one authenticated browser session.
type Session struct {
	ID        string                     `json:"id"`
	Token     string                     `json:"token"`
	Profile   models.Profile             `json:"profile"`
	CSRFToken string                     `json:"csrfToken"`
	Query     directory.Query            `json:"query"`
	Dialog    *dialog.Session            `json:"dialog,omitempty"`
	Delete    *dialog.DeleteConfirmation `json:"delete,omitempty"`
	CreatedAt time.Time                  `json:"createdAt"`
	ExpiresAt time.Time                  `json:"expiresAt"`
}

// New builds a session around an upstream token. The lifetime follows the
// token's own exp claim when readable, falling back to the configured TTL;
// the gateway cannot verify the token since it never holds the signing key.
func New(token string, profile models.Profile, pageSize int, fallbackTTL time.Duration) (*Session, error) {
	csrf, err := generateCSRFToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	expires := now.Add(fallbackTTL)
	if exp, ok := tokenExpiry(token); ok && exp.Before(expires) {
		expires = exp
	}

	return &Session{
		ID:        uuid.NewString(),
		Token:     token,
		Profile:   profile,
		CSRFToken: csrf,
		Query:     *directory.NewQuery(pageSize),
		CreatedAt: now,
		ExpiresAt: expires,
	}, nil
}

// clone returns a copy that shares no mutable state with the receiver.
// Dialog and Delete are pointers; without copying them the memory store
// would hand every caller the same dialog draft and error map.
func (s *Session) clone() *Session {
	copied := *s
	copied.Dialog = s.Dialog.Clone()
	if s.Delete != nil {
		conf := *s.Delete
		copied.Delete = &conf
	}
	return &copied
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsAdmin reports whether the session's profile carries the admin role.
func (s *Session) IsAdmin() bool {
	return s.Profile.Role == models.RoleAdmin
}

// tokenExpiry reads the exp claim without verifying the signature.
func tokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func generateCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
