package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/vantagehq/console/internal/middleware"
	"github.com/vantagehq/console/internal/models"
	"github.com/vantagehq/console/internal/upstream"
	"github.com/vantagehq/console/pkg/httpapi"
)

// DashboardClientInterface defines the upstream aggregation calls.
type DashboardClientInterface interface {
	TodayRegistrations(ctx context.Context, token string) (int, error)
	PeriodRegistrations(ctx context.Context, token, period string) (int, error)
	GenderDistribution(ctx context.Context, token string) (*models.GenderBreakdown, error)
}

// DashboardHandler mirrors the upstream registration aggregates for the
// dashboard charts.
type DashboardHandler struct {
	client DashboardClientInterface
	logger *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(client DashboardClientInterface, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{client: client, logger: logger}
}

// Today handles GET /api/dashboard/today.
func (h *DashboardHandler) Today(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	count, err := h.client.TodayRegistrations(r.Context(), sess.Token)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"count": count})
}

var allowedPeriods = map[string]bool{
	"":      true,
	"week":  true,
	"month": true,
	"year":  true,
}

// Period handles GET /api/dashboard/period?period=week|month|year.
func (h *DashboardHandler) Period(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	period := r.URL.Query().Get("period")
	if !allowedPeriods[period] {
		httpapi.WriteBadRequest(w, "period must be week, month or year")
		return
	}

	count, err := h.client.PeriodRegistrations(r.Context(), sess.Token, period)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"period": period,
		"count":  count,
	})
}

// Gender handles GET /api/dashboard/gender.
func (h *DashboardHandler) Gender(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	breakdown, err := h.client.GenderDistribution(r.Context(), sess.Token)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, breakdown)
}

func (h *DashboardHandler) writeUpstreamError(w http.ResponseWriter, err error) {
	if apiErr, ok := upstream.AsAPIError(err); ok {
		status := apiErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		httpapi.WriteError(w, status, errorCodeForStatus(status), apiErr.Message)
		return
	}
	h.logger.Error("dashboard fetch failed", slog.Any("error", err))
	httpapi.WriteBadGateway(w, "The account service is unreachable")
}
