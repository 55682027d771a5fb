package upstream

import (
	"context"
	"net/http"

	"github.com/vantagehq/console/internal/models"
)

// RegisterRequest carries a new account registration.
type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
	Phone       string `json:"phone"`
	DOB         string `json:"dob"`
	Gender      string `json:"gender"`
	Password    string `json:"password"`
}

// RegisterResult reports the outcome of a registration attempt. When the
// backend requires OTP verification it returns the pending user id the
// verify-otp call must echo back.
type RegisterResult struct {
	Success     bool   `json:"success"`
	RequiresOTP bool   `json:"requiresOtp"`
	UserID      string `json:"userId"`
	Message     string `json:"message"`
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	var res RegisterResult
	if err := c.do(ctx, http.MethodPost, "/user/register", nil, "", req, &res); err != nil {
		return nil, err
	}
	if !res.Success && !res.RequiresOTP {
		return nil, &APIError{StatusCode: http.StatusOK, Message: failureMessage(res.Message, "registration failed")}
	}
	return &res, nil
}

// LoginResult is either a full login (token + profile) or an OTP challenge
// for an unverified account.
type LoginResult struct {
	Success     bool            `json:"success"`
	Token       string          `json:"token"`
	User        *models.Profile `json:"user"`
	RequiresOTP bool            `json:"requiresOtp"`
	UserID      string          `json:"userId"`
	Message     string          `json:"message"`
	Error       string          `json:"error"`
}

// Login authenticates with email and password. A RequiresOTP result is not
// an error: the caller must run the OTP verification flow and retry.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/user/login", nil, "", body, &res)
	if err != nil {
		// The backend may answer the OTP challenge with a non-2xx status;
		// the decoded body still carries the pending user id.
		if _, ok := AsAPIError(err); ok && res.RequiresOTP {
			return &res, nil
		}
		return nil, err
	}
	if res.RequiresOTP {
		return &res, nil
	}
	if !res.Success || res.Token == "" {
		msg := res.Message
		if msg == "" {
			msg = res.Error
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: failureMessage(msg, "login failed")}
	}
	return &res, nil
}

// VerifyOTP confirms the 6-digit code for the pending user.
func (c *Client) VerifyOTP(ctx context.Context, userID, otp string) error {
	body := map[string]string{"userId": userID, "otp": otp}

	var env statusEnvelope
	if err := c.do(ctx, http.MethodPost, "/user/verify-otp", nil, "", body, &env); err != nil {
		return err
	}
	if !env.Success {
		return &APIError{StatusCode: http.StatusOK, Message: env.failureMessage()}
	}
	return nil
}

// ForgotPassword asks the backend to mail a reset link.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	body := map[string]string{"email": email}

	var env statusEnvelope
	if err := c.do(ctx, http.MethodPost, "/user/forgot", nil, "", body, &env); err != nil {
		return err
	}
	if !env.Success {
		return &APIError{StatusCode: http.StatusOK, Message: env.failureMessage()}
	}
	return nil
}

// ResetPassword redeems a reset token from the emailed link.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"newPassword": newPassword}

	var env statusEnvelope
	if err := c.do(ctx, http.MethodPost, "/user/reset-password/"+token, nil, "", body, &env); err != nil {
		return err
	}
	if !env.Success {
		return &APIError{StatusCode: http.StatusOK, Message: env.failureMessage()}
	}
	return nil
}

// UpdatePassword changes the caller's own password.
func (c *Client) UpdatePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	body := map[string]string{
		"currentPassword": currentPassword,
		"newPassword":     newPassword,
	}

	var env statusEnvelope
	if err := c.do(ctx, http.MethodPut, "/user/update-password", nil, token, body, &env); err != nil {
		return err
	}
	if !env.Success {
		return &APIError{StatusCode: http.StatusOK, Message: env.failureMessage()}
	}
	return nil
}

// Logout invalidates the upstream session. Failures are logged and swallowed
// by callers: the console session is destroyed regardless.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/user/logout", nil, token, nil, nil)
}

func failureMessage(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
