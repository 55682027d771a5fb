package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagehq/console/internal/dialog"
	"github.com/vantagehq/console/internal/models"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "u-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestNew_UsesTokenExpiryWhenSooner(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute)
	sess, err := New(signedToken(t, exp), models.Profile{Username: "op"}, 10, 12*time.Hour)
	require.NoError(t, err)

	assert.WithinDuration(t, exp, sess.ExpiresAt, 2*time.Second)
	assert.NotEmpty(t, sess.ID)
	assert.Len(t, sess.CSRFToken, 64)
	assert.Equal(t, 1, sess.Query.Page)
}

func TestNew_FallsBackToTTLForOpaqueToken(t *testing.T) {
	sess, err := New("not-a-jwt", models.Profile{}, 10, time.Hour)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 2*time.Second)
}

func TestNew_IgnoresTokenExpiryBeyondTTL(t *testing.T) {
	exp := time.Now().Add(48 * time.Hour)
	sess, err := New(signedToken(t, exp), models.Profile{}, 10, time.Hour)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, 2*time.Second)
}

func TestSession_IsAdmin(t *testing.T) {
	sess := &Session{Profile: models.Profile{Role: models.RoleAdmin}}
	assert.True(t, sess.IsAdmin())

	sess.Profile.Role = models.RoleUser
	assert.False(t, sess.IsAdmin())
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := New("not-a-jwt", models.Profile{Username: "op"}, 10, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "op", got.Profile.Username)

	require.NoError(t, store.Delete(ctx, sess.ID))
	_, err = store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, _ := New("not-a-jwt", models.Profile{}, 10, time.Hour)
	require.NoError(t, store.Save(ctx, sess))

	first, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	first.Query.Search = "mutated"

	second, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, second.Query.Search)
}

func TestMemoryStore_CopiesDialogAndDeleteState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, _ := New("not-a-jwt", models.Profile{}, 10, time.Hour)
	sess.Dialog = &dialog.Session{
		Mode:   dialog.ModeEdit,
		State:  dialog.StateReady,
		Draft:  dialog.Draft{Username: "jane"},
		Errors: map[string]string{"email": "Email is required"},
	}
	sess.Delete = &dialog.DeleteConfirmation{TargetID: "u-2", Visible: true}
	require.NoError(t, store.Save(ctx, sess))

	first, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	first.Dialog.Draft.Username = "mutated"
	first.Dialog.Errors["email"] = "mutated"
	first.Delete.InFlight = true

	second, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", second.Dialog.Draft.Username)
	assert.Equal(t, "Email is required", second.Dialog.Errors["email"])
	assert.False(t, second.Delete.InFlight)

	// Saving must detach from the caller's pointers too.
	sess.Dialog.Draft.Username = "changed-after-save"
	third, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", third.Dialog.Draft.Username)
}

func TestMemoryStore_ExpiredSessionRejected(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, _ := New("not-a-jwt", models.Profile{}, 10, time.Hour)
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, sess))

	_, err := store.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, models.ErrSessionExpired)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	live, _ := New("not-a-jwt", models.Profile{}, 10, time.Hour)
	dead, _ := New("not-a-jwt", models.Profile{}, 10, time.Hour)
	dead.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, store.Save(ctx, live))
	require.NoError(t, store.Save(ctx, dead))

	removed := store.Sweep(time.Now())
	assert.Equal(t, 1, removed)

	_, err := store.Get(ctx, live.ID)
	assert.NoError(t, err)
}

func TestSessionCookies_RoundTrip(t *testing.T) {
	sess, _ := New("not-a-jwt", models.Profile{}, 10, time.Hour)

	rec := httptest.NewRecorder()
	SetSessionCookies(rec, sess, CookieConfig{SameSite: "lax"})

	resp := rec.Result()
	defer resp.Body.Close()
	cookies := resp.Cookies()
	require.Len(t, cookies, 2)

	var sessionCookie, csrfCookie *http.Cookie
	for _, c := range cookies {
		switch c.Name {
		case SessionCookieName:
			sessionCookie = c
		case CSRFCookieName:
			csrfCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	require.NotNil(t, csrfCookie)

	assert.True(t, sessionCookie.HttpOnly)
	assert.False(t, csrfCookie.HttpOnly)
	assert.Equal(t, sess.ID, sessionCookie.Value)
	assert.Equal(t, sess.CSRFToken, csrfCookie.Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie)
	id, err := SessionIDFromRequest(req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, id)
}

func TestClearSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearSessionCookies(rec, CookieConfig{})

	resp := rec.Result()
	defer resp.Body.Close()
	for _, c := range resp.Cookies() {
		assert.Negative(t, c.MaxAge)
		assert.Empty(t, c.Value)
	}
	assert.Len(t, resp.Cookies(), 2)
}
