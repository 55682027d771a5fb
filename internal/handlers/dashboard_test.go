package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagehq/console/internal/models"
	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/internal/upstream"
)

type mockDashboardClient struct {
	todayFn  func(ctx context.Context, token string) (int, error)
	periodFn func(ctx context.Context, token, period string) (int, error)
	genderFn func(ctx context.Context, token string) (*models.GenderBreakdown, error)
}

func (m *mockDashboardClient) TodayRegistrations(ctx context.Context, token string) (int, error) {
	return m.todayFn(ctx, token)
}

func (m *mockDashboardClient) PeriodRegistrations(ctx context.Context, token, period string) (int, error) {
	return m.periodFn(ctx, token, period)
}

func (m *mockDashboardClient) GenderDistribution(ctx context.Context, token string) (*models.GenderBreakdown, error) {
	return m.genderFn(ctx, token)
}

func TestDashboardToday(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)

	client := &mockDashboardClient{
		todayFn: func(ctx context.Context, token string) (int, error) {
			assert.Equal(t, "upstream-token", token)
			return 7, nil
		},
	}
	handler := NewDashboardHandler(client, testLogger())

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/dashboard/today", nil), sess)
	rec := httptest.NewRecorder()
	handler.Today(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]int
	decodeBody(t, rec, &body)
	assert.Equal(t, 7, body["count"])
}

func TestDashboardPeriod(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)

	client := &mockDashboardClient{
		periodFn: func(ctx context.Context, token, period string) (int, error) {
			assert.Equal(t, "week", period)
			return 42, nil
		},
	}
	handler := NewDashboardHandler(client, testLogger())

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/dashboard/period?period=week", nil), sess)
	rec := httptest.NewRecorder()
	handler.Period(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Period string `json:"period"`
		Count  int    `json:"count"`
	}
	decodeBody(t, rec, &body)
	assert.Equal(t, "week", body.Period)
	assert.Equal(t, 42, body.Count)
}

func TestDashboardPeriod_RejectsUnknownPeriod(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)
	handler := NewDashboardHandler(&mockDashboardClient{}, testLogger())

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/dashboard/period?period=decade", nil), sess)
	rec := httptest.NewRecorder()
	handler.Period(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardGender(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)

	client := &mockDashboardClient{
		genderFn: func(ctx context.Context, token string) (*models.GenderBreakdown, error) {
			return &models.GenderBreakdown{Male: 10, Female: 12, Other: 1}, nil
		},
	}
	handler := NewDashboardHandler(client, testLogger())

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/dashboard/gender", nil), sess)
	rec := httptest.NewRecorder()
	handler.Gender(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body models.GenderBreakdown
	decodeBody(t, rec, &body)
	assert.Equal(t, 12, body.Female)
}

func TestDashboard_UpstreamFailure(t *testing.T) {
	store := session.NewMemoryStore()
	sess := newTestSession(t, store, models.RoleAdmin)

	client := &mockDashboardClient{
		todayFn: func(ctx context.Context, token string) (int, error) {
			return 0, &upstream.APIError{StatusCode: http.StatusUnauthorized, Message: "Token expired"}
		},
	}
	handler := NewDashboardHandler(client, testLogger())

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/dashboard/today", nil), sess)
	rec := httptest.NewRecorder()
	handler.Today(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
