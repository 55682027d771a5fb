package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/vantagehq/console/internal/dialog"
	"github.com/vantagehq/console/internal/middleware"
	"github.com/vantagehq/console/internal/models"
	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/internal/upstream"
	"github.com/vantagehq/console/pkg/httpapi"
)

// AdminClientInterface defines the upstream calls behind the admin area.
type AdminClientInterface interface {
	GetUser(ctx context.Context, token, id string) (*models.User, error)
	UpdateUser(ctx context.Context, token, id string, payload upstream.UserPayload) error
	UpdatePassword(ctx context.Context, token, currentPassword, newPassword string) error
	GetOTPSettings(ctx context.Context, token string) (*models.OTPSettings, error)
	UpdateOTPSettings(ctx context.Context, token string, settings models.OTPSettings) (*models.OTPSettings, error)
}

// AdminHandler serves the role-gated admin area: own profile, password
// change, and the OTP settings toggles.
type AdminHandler struct {
	client AdminClientInterface
	store  session.Store
	logger *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(client AdminClientInterface, store session.Store, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{client: client, store: store, logger: logger}
}

// GetProfile handles GET /api/admin/profile: the signed-in admin's own
// record, fetched fresh.
func (h *AdminHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	user, err := h.client.GetUser(r.Context(), sess.Token, sess.Profile.ID)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

type profileUpdateRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
	Phone       string `json:"phone"`
	DOB         string `json:"dob"`
	Gender      string `json:"gender"`
}

// UpdateProfile handles PUT /api/admin/profile with the same field rules as
// the user dialog.
func (h *AdminHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}

	draft := dialog.Draft{
		Username:    req.Username,
		Email:       req.Email,
		CountryCode: req.CountryCode,
		Phone:       req.Phone,
		DOB:         req.DOB,
		Gender:      req.Gender,
		Role:        sess.Profile.Role,
		Verified:    sess.Profile.Verified,
	}
	if errs := dialog.ValidateDraft(draft, time.Now()); len(errs) > 0 {
		httpapi.WriteFieldErrors(w, "Please fix the highlighted fields", errs)
		return
	}

	payload := upstream.UserPayload{
		Username:    draft.Username,
		Email:       draft.Email,
		CountryCode: draft.CountryCode,
		Phone:       draft.Phone,
		DOB:         draft.DOB,
		Gender:      draft.Gender,
		Role:        draft.Role,
		Verified:    draft.Verified,
	}
	if err := h.client.UpdateUser(r.Context(), sess.Token, sess.Profile.ID, payload); err != nil {
		h.writeUpstreamError(w, err)
		return
	}

	// Keep the cached profile in step with what was just saved.
	sess.Profile.Username = draft.Username
	sess.Profile.Email = draft.Email
	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("session save failed", slog.Any("error", err))
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    sess.Profile,
	})
}

type passwordUpdateRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// UpdatePassword handles PUT /api/admin/password.
func (h *AdminHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	var req passwordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.CurrentPassword == "" {
		httpapi.WriteBadRequest(w, "Current password is required")
		return
	}
	if len(req.NewPassword) < 8 {
		httpapi.WriteBadRequest(w, "New password must be at least 8 characters")
		return
	}

	if err := h.client.UpdatePassword(r.Context(), sess.Token, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeUpstreamError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Password updated",
	})
}

// GetSettings handles GET /api/admin/settings.
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	settings, err := h.client.GetOTPSettings(r.Context(), sess.Token)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/admin/settings. The registration and
// login toggles only hold while the master toggle is on; turning the master
// off forces both off.
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	var req models.OTPSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}
	if !req.OTPEnabled {
		req.OTPEnabledForRegistration = false
		req.OTPEnabledForLogin = false
	}

	settled, err := h.client.UpdateOTPSettings(r.Context(), sess.Token, req)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, settled)
}

func (h *AdminHandler) writeUpstreamError(w http.ResponseWriter, err error) {
	if apiErr, ok := upstream.AsAPIError(err); ok {
		status := apiErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		httpapi.WriteError(w, status, errorCodeForStatus(status), apiErr.Message)
		return
	}
	h.logger.Error("admin upstream call failed", slog.Any("error", err))
	httpapi.WriteBadGateway(w, "The account service is unreachable")
}
