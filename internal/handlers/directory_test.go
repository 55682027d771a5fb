package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagehq/console/internal/directory"
	"github.com/vantagehq/console/internal/models"
	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/internal/upstream"
)

func patchQuery(t *testing.T, body interface{}) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPatch, "/api/users/query", bytes.NewReader(raw))
}

func TestList_ReturnsCurrentPage(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)

	registry := newTestRegistry(func(ctx context.Context, token string, query url.Values) (*upstream.DirectoryEnvelope, error) {
		assert.Equal(t, "upstream-token", token)
		assert.Equal(t, "1", query.Get("page"))
		return &upstream.DirectoryEnvelope{
			Users:      json.RawMessage(`[{"_id":"u-1","username":"jane","dob":"2000-06-15"}]`),
			Pagination: &models.Pagination{CurrentPage: 1, TotalPages: 3, TotalUsers: 25, HasNextPage: true, Limit: 10},
		}, nil
	})
	handler := NewDirectoryHandler(registry, store, testLogger())

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/users", nil), sess)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Users      []directory.Row   `json:"users"`
		Pagination models.Pagination `json:"pagination"`
		Query      directory.Query   `json:"query"`
	}
	decodeBody(t, rec, &body)
	require.Len(t, body.Users, 1)
	assert.Equal(t, "jane", body.Users[0].Username)
	assert.Equal(t, 3, body.Pagination.TotalPages)
	assert.Equal(t, 1, body.Query.Page)
}

func TestUpdateQuery_SearchResetsPage(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)
	sess.Query.SetPage(4)
	require.NoError(t, store.Save(context.Background(), sess))

	var gotPage string
	registry := newTestRegistry(func(ctx context.Context, token string, query url.Values) (*upstream.DirectoryEnvelope, error) {
		gotPage = query.Get("page")
		return &upstream.DirectoryEnvelope{
			Users:      json.RawMessage(`[]`),
			Pagination: &models.Pagination{CurrentPage: 1, TotalPages: 1, Limit: 10},
		}, nil
	})
	handler := NewDirectoryHandler(registry, store, testLogger())

	req := withSession(patchQuery(t, map[string]interface{}{"search": "jane"}), sess)
	rec := httptest.NewRecorder()
	handler.UpdateQuery(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", gotPage)

	saved, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane", saved.Query.Search)
	assert.Equal(t, 1, saved.Query.Page)
}

func TestUpdateQuery_PageOnlyChangePreservesDimensions(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)
	sess.Query.SetSearch("jane")
	require.NoError(t, store.Save(context.Background(), sess))

	registry := newTestRegistry(nil)
	handler := NewDirectoryHandler(registry, store, testLogger())

	req := withSession(patchQuery(t, map[string]interface{}{"page": 3}), sess)
	rec := httptest.NewRecorder()
	handler.UpdateQuery(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	saved, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, saved.Query.Page)
	assert.Equal(t, "jane", saved.Query.Search)
}

func TestUpdateQuery_PageIgnoredWhenDimensionChanges(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)

	registry := newTestRegistry(nil)
	handler := NewDirectoryHandler(registry, store, testLogger())

	req := withSession(patchQuery(t, map[string]interface{}{"gender": models.GenderFemale, "page": 5}), sess)
	rec := httptest.NewRecorder()
	handler.UpdateQuery(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	saved, err := store.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Query.Page)
	assert.Equal(t, models.GenderFemale, saved.Query.Gender)
}

func TestUpdateQuery_MalformedUpstreamDegradesToEmptyPage(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)

	registry := newTestRegistry(func(ctx context.Context, token string, query url.Values) (*upstream.DirectoryEnvelope, error) {
		return &upstream.DirectoryEnvelope{Users: json.RawMessage(`"garbage"`)}, nil
	})
	handler := NewDirectoryHandler(registry, store, testLogger())

	req := withSession(patchQuery(t, map[string]interface{}{"search": "x"}), sess)
	rec := httptest.NewRecorder()
	handler.UpdateQuery(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Users      []directory.Row   `json:"users"`
		Pagination models.Pagination `json:"pagination"`
	}
	decodeBody(t, rec, &body)
	assert.Empty(t, body.Users)
	assert.Equal(t, 1, body.Pagination.CurrentPage)
	assert.Equal(t, 1, body.Pagination.TotalPages)
}

func TestUpdateQuery_InvalidBody(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)
	handler := NewDirectoryHandler(newTestRegistry(nil), store, testLogger())

	req := httptest.NewRequest(http.MethodPatch, "/api/users/query", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	handler.UpdateQuery(rec, withSession(req, sess))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
