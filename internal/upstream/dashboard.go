package upstream

import (
	"context"
	"net/http"
	"net/url"

	"github.com/vantagehq/console/internal/models"
)

type countResponse struct {
	Count int `json:"count"`
}

// TodayRegistrations returns the number of accounts registered today.
func (c *Client) TodayRegistrations(ctx context.Context, token string) (int, error) {
	var res countResponse
	if err := c.do(ctx, http.MethodGet, "/user/dashboard/today", nil, token, nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}

// PeriodRegistrations returns the registration count for a named period
// (week, month, year; empty means all time).
func (c *Client) PeriodRegistrations(ctx context.Context, token, period string) (int, error) {
	query := url.Values{}
	if period != "" {
		query.Set("period", period)
	}

	var res countResponse
	if err := c.do(ctx, http.MethodGet, "/user/dashboard/period", query, token, nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}

// GenderDistribution returns the gender aggregation for the pie chart.
func (c *Client) GenderDistribution(ctx context.Context, token string) (*models.GenderBreakdown, error) {
	var res models.GenderBreakdown
	if err := c.do(ctx, http.MethodGet, "/user/dashboard/gender", nil, token, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
