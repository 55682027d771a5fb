package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vantagehq/console/internal/dialog"
	"github.com/vantagehq/console/internal/directory"
	"github.com/vantagehq/console/internal/middleware"
	"github.com/vantagehq/console/internal/models"
	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/internal/upstream"
	"github.com/vantagehq/console/pkg/httpapi"
)

// DialogHandler drives the user dialog lifecycle and the delete
// confirmation flow. Opening a dialog replaces any dialog already open in
// the session.
type DialogHandler struct {
	controller *dialog.Controller
	registry   *directory.Registry
	store      session.Store
	logger     *slog.Logger
}

// NewDialogHandler creates a new DialogHandler.
func NewDialogHandler(controller *dialog.Controller, registry *directory.Registry, store session.Store, logger *slog.Logger) *DialogHandler {
	return &DialogHandler{
		controller: controller,
		registry:   registry,
		store:      store,
		logger:     logger,
	}
}

type openDialogRequest struct {
	Mode     string `json:"mode"`
	TargetID string `json:"targetId"`
}

type dialogResponse struct {
	Dialog *dialog.Session `json:"dialog"`
}

// Open handles POST /api/users/dialog.
func (h *DialogHandler) Open(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	var req openDialogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}

	dlg, err := h.controller.Open(r.Context(), sess.Token, dialog.Mode(req.Mode), req.TargetID)
	if err != nil {
		h.writeDialogError(w, err)
		return
	}

	sess.Dialog = dlg
	if !h.saveSession(w, r, sess) {
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, dialogResponse{Dialog: dlg})
}

// Get handles GET /api/users/dialog.
func (h *DialogHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)
	if sess.Dialog == nil {
		httpapi.WriteNotFound(w, "No dialog open")
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, dialogResponse{Dialog: sess.Dialog})
}

// Apply handles PATCH /api/users/dialog: merge draft edits.
func (h *DialogHandler) Apply(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)
	if sess.Dialog == nil {
		httpapi.WriteNotFound(w, "No dialog open")
		return
	}

	var patch dialog.DraftPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := h.controller.Apply(sess.Dialog, patch); err != nil {
		h.writeDialogError(w, err)
		return
	}

	if !h.saveSession(w, r, sess) {
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, dialogResponse{Dialog: sess.Dialog})
}

// Submit handles POST /api/users/dialog/submit. Success closes the dialog
// and returns the refetched directory page alongside it.
func (h *DialogHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)
	if sess.Dialog == nil {
		httpapi.WriteNotFound(w, "No dialog open")
		return
	}

	err := h.controller.Submit(r.Context(), sess.Token, sess.Dialog)
	if err != nil {
		if errors.Is(err, models.ErrValidationFailed) {
			fields := sess.Dialog.Errors
			if !h.saveSession(w, r, sess) {
				return
			}
			httpapi.WriteFieldErrors(w, "Please fix the highlighted fields", fields)
			return
		}
		if apiErr, ok := upstream.AsAPIError(err); ok {
			if !h.saveSession(w, r, sess) {
				return
			}
			status := apiErr.StatusCode
			if status < 400 || status > 599 {
				status = http.StatusBadGateway
			}
			httpapi.WriteJSON(w, status, map[string]interface{}{
				"error":   errorCodeForStatus(status),
				"message": apiErr.Message,
				"dialog":  sess.Dialog,
			})
			return
		}
		h.writeDialogError(w, err)
		return
	}

	closed := sess.Dialog
	sess.Dialog = nil
	if !h.saveSession(w, r, sess) {
		return
	}

	page := h.registry.For(sess.ID).Fetch(r.Context(), sess.Token, &sess.Query)
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"dialog":     closed,
		"users":      page.Rows,
		"pagination": page.Pagination,
	})
}

// Close handles DELETE /api/users/dialog: dismiss without submitting.
func (h *DialogHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)
	sess.Dialog = nil
	if !h.saveSession(w, r, sess) {
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// OpenDelete handles POST /api/users/{id}/delete: stage a delete for
// confirmation.
func (h *DialogHandler) OpenDelete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	conf, err := h.controller.OpenDelete(chi.URLParam(r, "id"))
	if err != nil {
		h.writeDialogError(w, err)
		return
	}

	sess.Delete = conf
	if !h.saveSession(w, r, sess) {
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"delete": conf})
}

// ConfirmDelete handles POST /api/users/delete/confirm. Success dismisses
// the confirmation and returns the refetched page; failure keeps it open.
func (h *DialogHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)
	if sess.Delete == nil {
		httpapi.WriteNotFound(w, "No delete pending")
		return
	}

	if err := h.controller.ConfirmDelete(r.Context(), sess.Token, sess.Delete); err != nil {
		if apiErr, ok := upstream.AsAPIError(err); ok {
			if !h.saveSession(w, r, sess) {
				return
			}
			status := apiErr.StatusCode
			if status < 400 || status > 599 {
				status = http.StatusBadGateway
			}
			httpapi.WriteError(w, status, errorCodeForStatus(status), apiErr.Message)
			return
		}
		h.writeDialogError(w, err)
		return
	}

	sess.Delete = nil
	if !h.saveSession(w, r, sess) {
		return
	}

	page := h.registry.For(sess.ID).Fetch(r.Context(), sess.Token, &sess.Query)
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"users":      page.Rows,
		"pagination": page.Pagination,
	})
}

// CancelDelete handles DELETE /api/users/delete: dismiss the confirmation.
func (h *DialogHandler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)
	sess.Delete = nil
	if !h.saveSession(w, r, sess) {
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *DialogHandler) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("session save failed", slog.Any("error", err))
		httpapi.WriteInternalError(w, "Something went wrong")
		return false
	}
	return true
}

func (h *DialogHandler) writeDialogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrBadRequest):
		httpapi.WriteBadRequest(w, "Invalid dialog request")
	case errors.Is(err, models.ErrNoDialogOpen):
		httpapi.WriteNotFound(w, "No dialog open")
	case errors.Is(err, models.ErrDialogReadOnly):
		httpapi.WriteError(w, http.StatusConflict, "read_only", "View dialogs cannot be edited")
	case errors.Is(err, models.ErrSubmitInFlight):
		httpapi.WriteError(w, http.StatusConflict, "in_flight", "A submission is already in progress")
	case errors.Is(err, models.ErrNoDeletePending):
		httpapi.WriteNotFound(w, "No delete pending")
	case errors.Is(err, models.ErrDeleteInFlight):
		httpapi.WriteError(w, http.StatusConflict, "in_flight", "A delete is already in progress")
	default:
		if apiErr, ok := upstream.AsAPIError(err); ok {
			status := apiErr.StatusCode
			if status < 400 || status > 599 {
				status = http.StatusBadGateway
			}
			httpapi.WriteError(w, status, errorCodeForStatus(status), apiErr.Message)
			return
		}
		h.logger.Error("dialog operation failed", slog.Any("error", err))
		httpapi.WriteBadGateway(w, "The account service is unreachable")
	}
}
