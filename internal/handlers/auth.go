package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vantagehq/console/internal/directory"
	"github.com/vantagehq/console/internal/middleware"
	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/internal/upstream"
	"github.com/vantagehq/console/pkg/httpapi"
	pkglogger "github.com/vantagehq/console/pkg/logger"
)

// AuthClientInterface defines the upstream auth operations the handler needs.
type AuthClientInterface interface {
	Register(ctx context.Context, req upstream.RegisterRequest) (*upstream.RegisterResult, error)
	Login(ctx context.Context, email, password string) (*upstream.LoginResult, error)
	VerifyOTP(ctx context.Context, userID, otp string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles the sign-in surface: register, login, OTP
// verification, password recovery, and logout.
type AuthHandler struct {
	client       AuthClientInterface
	store        session.Store
	registry     *directory.Registry
	cookieConfig session.CookieConfig
	ipConfig     *httpapi.IPConfig
	sessionTTL   time.Duration
	pageSize     int
	logger       *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(client AuthClientInterface, store session.Store, registry *directory.Registry, cookieConfig session.CookieConfig, ipConfig *httpapi.IPConfig, sessionTTL time.Duration, pageSize int, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		client:       client,
		store:        store,
		registry:     registry,
		cookieConfig: cookieConfig,
		ipConfig:     ipConfig,
		sessionTTL:   sessionTTL,
		pageSize:     pageSize,
		logger:       logger,
	}
}

// Request DTOs

type registerRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=30"`
	Email       string `json:"email" validate:"required,email"`
	CountryCode string `json:"countryCode"`
	Phone       string `json:"phone" validate:"required,len=10,numeric"`
	DOB         string `json:"dob" validate:"required"`
	Gender      string `json:"gender" validate:"required"`
	Password    string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

type forgotRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// Register handles POST /api/auth/register. The signup form's field rules
// run first and answer 422 with a field map; a clean form is passed through
// and the backend's verdict relayed, including a possible OTP challenge.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if errs := validateSignup(req, time.Now()); len(errs) > 0 {
		httpapi.WriteFieldErrors(w, "Please fix the highlighted fields", errs)
		return
	}

	result, err := h.client.Register(r.Context(), upstream.RegisterRequest{
		Username:    req.Username,
		Email:       req.Email,
		CountryCode: req.CountryCode,
		Phone:       req.Phone,
		DOB:         req.DOB,
		Gender:      req.Gender,
		Password:    req.Password,
	})
	if err != nil {
		h.relayUpstreamError(w, err, "Registration failed")
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success":     true,
		"requiresOtp": result.RequiresOTP,
		"userId":      result.UserID,
		"message":     result.Message,
	})
}

// Login handles POST /api/auth/login. A full login mints a console session
// and sets the session cookies; an OTP challenge is relayed without one.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		httpapi.WriteBadRequest(w, "Email and password are required")
		return
	}

	result, err := h.client.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login rejected",
			slog.String("email", pkglogger.SanitizedEmail(req.Email)),
			slog.String("client_ip", httpapi.ExtractClientIP(r, h.ipConfig)))
		h.relayUpstreamError(w, err, "Invalid email or password")
		return
	}

	if result.RequiresOTP {
		httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"requiresOtp": true,
			"userId":      result.UserID,
			"message":     result.Message,
		})
		return
	}

	if result.Token == "" || result.User == nil {
		h.logger.Error("login response missing token or profile")
		httpapi.WriteBadGateway(w, "Unexpected response from the account service")
		return
	}

	sess, err := session.New(result.Token, *result.User, h.pageSize, h.sessionTTL)
	if err != nil {
		h.logger.Error("session creation failed", slog.Any("error", err))
		httpapi.WriteInternalError(w, "Something went wrong")
		return
	}
	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("session save failed", slog.Any("error", err))
		httpapi.WriteInternalError(w, "Something went wrong")
		return
	}

	session.SetSessionCookies(w, sess, h.cookieConfig)
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    sess.Profile,
	})
}

// VerifyOTP handles POST /api/auth/verify-otp. Success means the account is
// verified; the browser returns to the login form to sign in.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.UserID == "" || req.OTP == "" {
		httpapi.WriteBadRequest(w, "userId and otp are required")
		return
	}
	if !isSixDigits(req.OTP) {
		httpapi.WriteBadRequest(w, "OTP must be 6 digits")
		return
	}

	if err := h.client.VerifyOTP(r.Context(), req.UserID, req.OTP); err != nil {
		h.relayUpstreamError(w, err, "OTP verification failed")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Verification complete, please sign in",
	})
}

// Forgot handles POST /api/auth/forgot. The response never reveals whether
// the address exists.
func (h *AuthHandler) Forgot(w http.ResponseWriter, r *http.Request) {
	var req forgotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		httpapi.WriteBadRequest(w, "Email is required")
		return
	}

	if err := h.client.ForgotPassword(r.Context(), req.Email); err != nil {
		if _, ok := upstream.AsAPIError(err); !ok {
			httpapi.WriteBadGateway(w, "The account service is unreachable")
			return
		}
		h.logger.Warn("forgot password rejected upstream",
			slog.String("email", pkglogger.SanitizedEmail(req.Email)))
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "If that address is registered, a reset link has been sent",
	})
}

// ResetPassword handles POST /api/auth/reset-password/{token}.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		httpapi.WriteBadRequest(w, "Reset token is required")
		return
	}

	var req resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}
	if len(req.NewPassword) < 8 {
		httpapi.WriteBadRequest(w, "Password must be at least 8 characters")
		return
	}

	if err := h.client.ResetPassword(r.Context(), token, req.NewPassword); err != nil {
		h.relayUpstreamError(w, err, "Password reset failed")
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password updated, please sign in",
	})
}

// Logout handles POST /api/auth/logout. The upstream logout is best-effort;
// the console session and its cookies are dropped regardless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)
	if sess != nil {
		if err := h.client.Logout(r.Context(), sess.Token); err != nil {
			h.logger.Warn("upstream logout failed", slog.Any("error", err))
		}
		if err := h.store.Delete(r.Context(), sess.ID); err != nil {
			h.logger.Error("session delete failed", slog.Any("error", err))
		}
		h.registry.Drop(sess.ID)
	}

	session.ClearSessionCookies(w, h.cookieConfig)
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// Me handles GET /api/auth/me and returns the signed-in profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)
	if sess == nil {
		httpapi.WriteUnauthorized(w, "Not signed in")
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": sess.Profile})
}

// relayUpstreamError maps an upstream failure onto the console's error
// surface: API rejections keep their status and message, transport
// failures become 502.
func (h *AuthHandler) relayUpstreamError(w http.ResponseWriter, err error, fallback string) {
	if apiErr, ok := upstream.AsAPIError(err); ok {
		message := apiErr.Message
		if message == "" {
			message = fallback
		}
		status := apiErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		httpapi.WriteError(w, status, errorCodeForStatus(status), message)
		return
	}
	h.logger.Error("upstream unreachable", slog.Any("error", err))
	httpapi.WriteBadGateway(w, "The account service is unreachable")
}

func isSixDigits(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func errorCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusTooManyRequests:
		return "rate_limited"
	default:
		if status >= 500 {
			return "upstream_error"
		}
		return "request_failed"
	}
}
