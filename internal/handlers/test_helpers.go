package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/vantagehq/console/internal/directory"
	"github.com/vantagehq/console/internal/middleware"
	"github.com/vantagehq/console/internal/models"
	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/internal/upstream"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeListClient satisfies directory.ListClient for registry-backed tests.
type fakeListClient struct {
	listFn func(ctx context.Context, token string, query url.Values) (*upstream.DirectoryEnvelope, error)
}

func (f *fakeListClient) ListUsers(ctx context.Context, token string, query url.Values) (*upstream.DirectoryEnvelope, error) {
	if f.listFn == nil {
		return &upstream.DirectoryEnvelope{
			Users:      json.RawMessage(`[]`),
			Pagination: &models.Pagination{CurrentPage: 1, TotalPages: 1, Limit: 10},
		}, nil
	}
	return f.listFn(ctx, token, query)
}

func newTestRegistry(listFn func(ctx context.Context, token string, query url.Values) (*upstream.DirectoryEnvelope, error)) *directory.Registry {
	return directory.NewRegistry(&fakeListClient{listFn: listFn}, testLogger(), 10)
}

func newTestSession(t *testing.T, store session.Store, role string) *session.Session {
	t.Helper()
	sess, err := session.New("upstream-token", models.Profile{
		ID:       "admin-1",
		Username: "op",
		Email:    "op@example.com",
		Role:     role,
	}, 10, time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sess))
	return sess
}

// withSession injects a session into the request context the way
// RequireSession does.
func withSession(r *http.Request, sess *session.Session) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.SessionContextKey, sess)
	return r.WithContext(ctx)
}

// withChiParam injects a chi route parameter for handlers called outside a
// router.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(target))
}
