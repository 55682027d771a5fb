package upstream

import (
	"context"
	"net/http"

	"github.com/vantagehq/console/internal/models"
)

type settingsResponse struct {
	Success  bool                `json:"success"`
	Settings *models.OTPSettings `json:"settings"`
	Message  string              `json:"message"`
	Error    string              `json:"error"`
}

// GetOTPSettings fetches the OTP toggle state.
func (c *Client) GetOTPSettings(ctx context.Context, token string) (*models.OTPSettings, error) {
	var res settingsResponse
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, token, nil, &res); err != nil {
		return nil, err
	}
	if !res.Success || res.Settings == nil {
		msg := res.Message
		if msg == "" {
			msg = res.Error
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: failureMessage(msg, "failed to fetch settings")}
	}
	return res.Settings, nil
}

// UpdateOTPSettings writes the OTP toggle state and returns the state the
// backend settled on (registration/login toggles depend on the master flag).
func (c *Client) UpdateOTPSettings(ctx context.Context, token string, settings models.OTPSettings) (*models.OTPSettings, error) {
	var res settingsResponse
	if err := c.do(ctx, http.MethodPut, "/api/settings", nil, token, settings, &res); err != nil {
		return nil, err
	}
	if !res.Success || res.Settings == nil {
		msg := res.Message
		if msg == "" {
			msg = res.Error
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: failureMessage(msg, "failed to update settings")}
	}
	return res.Settings, nil
}
