// Package dialog implements the console's transient per-record interactions:
// the create/edit/view dialog and the delete confirmation flow. A dialog
// session is plain data scoped to one open dialog; the Controller carries
// the behavior so sessions stay serializable inside the console session.
package dialog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vantagehq/console/internal/directory"
	"github.com/vantagehq/console/internal/models"
	"github.com/vantagehq/console/internal/upstream"
)

// Mode is the dialog operation.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
	ModeView   Mode = "view"
)

// State is the dialog lifecycle phase.
type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateClosed     State = "closed"
)

// Draft is the record being composed or edited. Validation tags mirror the
// server-side rules; they gate submission, they do not replace the backend's
// own checks.
type Draft struct {
	Username    string `json:"username" validate:"required,min=3,max=20"`
	Email       string `json:"email" validate:"required,email"`
	CountryCode string `json:"countryCode"`
	Phone       string `json:"phone" validate:"required,len=10,numeric"`
	DOB         string `json:"dob" validate:"required,adult"`
	Gender      string `json:"gender" validate:"required"`
	Role        string `json:"role"`
	Verified    bool   `json:"verified"`
}

// Session is one open dialog: mode, target, draft and the field error map.
// Exactly one may be open per console session at a time.
type Session struct {
	Mode     Mode              `json:"mode"`
	TargetID string            `json:"targetId,omitempty"`
	State    State             `json:"state"`
	Draft    Draft             `json:"draft"`
	Errors   map[string]string `json:"errors"`
}

// Clone returns an independent copy of the dialog session. The error map is
// the only reference field; stores copy sessions on every read and write, so
// a shared map would let one request's edits bleed into another's.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	copied := *s
	copied.Errors = make(map[string]string, len(s.Errors))
	for field, msg := range s.Errors {
		copied.Errors[field] = msg
	}
	return &copied
}

// UserClient is the slice of the upstream client the controller needs.
type UserClient interface {
	GetUser(ctx context.Context, token, id string) (*models.User, error)
	CreateUser(ctx context.Context, token string, payload upstream.UserPayload) error
	UpdateUser(ctx context.Context, token, id string, payload upstream.UserPayload) error
	DeleteUser(ctx context.Context, token, id string) error
}

// Controller drives dialog sessions against the upstream service.
type Controller struct {
	client UserClient
	logger *slog.Logger
	now    func() time.Time
}

// NewController creates a dialog controller.
func NewController(client UserClient, logger *slog.Logger) *Controller {
	return &Controller{
		client: client,
		logger: logger,
		now:    time.Now,
	}
}

func blankDraft() Draft {
	return Draft{
		CountryCode: "+91",
		Role:        models.RoleUser,
	}
}

// Open starts a dialog session. Create mode opens instantly with a blank
// draft; edit and view fetch the target record first and only open once the
// fetch resolves.
func (c *Controller) Open(ctx context.Context, token string, mode Mode, targetID string) (*Session, error) {
	switch mode {
	case ModeCreate:
		return &Session{
			Mode:   ModeCreate,
			State:  StateReady,
			Draft:  blankDraft(),
			Errors: map[string]string{},
		}, nil
	case ModeEdit, ModeView:
		if targetID == "" {
			return nil, models.ErrBadRequest
		}
	default:
		return nil, models.ErrBadRequest
	}

	sess := &Session{
		Mode:     mode,
		TargetID: targetID,
		State:    StateLoading,
		Errors:   map[string]string{},
	}

	user, err := c.client.GetUser(ctx, token, targetID)
	if err != nil {
		c.logger.Error("dialog prefetch failed",
			slog.String("user_id", targetID),
			slog.Any("error", err))
		return nil, err
	}

	sess.Draft = draftFromUser(user)
	sess.State = StateReady
	return sess, nil
}

func draftFromUser(u *models.User) Draft {
	d := Draft{
		Username:    u.Username,
		Email:       u.Email,
		CountryCode: u.CountryCode,
		Phone:       u.Phone,
		Gender:      u.Gender,
		Role:        u.Role,
		Verified:    u.Verified,
	}
	if d.CountryCode == "" {
		d.CountryCode = "+91"
	}
	if d.Role == "" {
		d.Role = models.RoleUser
	}
	if dob, ok := directory.ParseDOB(u.DOB); ok {
		d.DOB = dob.Format("2006-01-02")
	}
	return d
}

// DraftPatch is a partial draft update; nil fields are untouched.
type DraftPatch struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	CountryCode *string `json:"countryCode"`
	Phone       *string `json:"phone"`
	DOB         *string `json:"dob"`
	Gender      *string `json:"gender"`
	Role        *string `json:"role"`
	Verified    *bool   `json:"verified"`
}

// Apply merges a patch into the draft. Editing a field clears its pending
// error, matching the behavior of typing into an invalid form field.
func (c *Controller) Apply(sess *Session, patch DraftPatch) error {
	if sess == nil || sess.State == StateClosed {
		return models.ErrNoDialogOpen
	}
	if sess.Mode == ModeView {
		return models.ErrDialogReadOnly
	}
	if sess.State != StateReady {
		return models.ErrSubmitInFlight
	}

	set := func(field string, dst *string, src *string) {
		if src != nil {
			*dst = *src
			delete(sess.Errors, field)
		}
	}
	set("username", &sess.Draft.Username, patch.Username)
	set("email", &sess.Draft.Email, patch.Email)
	set("countryCode", &sess.Draft.CountryCode, patch.CountryCode)
	set("dob", &sess.Draft.DOB, patch.DOB)
	set("gender", &sess.Draft.Gender, patch.Gender)
	set("role", &sess.Draft.Role, patch.Role)
	if patch.Phone != nil {
		sess.Draft.Phone = digitsOnly(*patch.Phone)
		delete(sess.Errors, "phone")
	}
	if patch.Verified != nil {
		sess.Draft.Verified = *patch.Verified
	}
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Submit validates the draft and sends the create or update request. A
// validation failure fills the session's error map and blocks the request
// entirely. An upstream rejection keeps the dialog open, with the message
// routed to a field when it names one. Success closes the session; the
// caller is expected to refetch the directory's current page.
func (c *Controller) Submit(ctx context.Context, token string, sess *Session) error {
	if sess == nil || sess.State == StateClosed {
		return models.ErrNoDialogOpen
	}
	if sess.Mode == ModeView {
		return models.ErrDialogReadOnly
	}
	if sess.State == StateSubmitting {
		return models.ErrSubmitInFlight
	}

	if errs := ValidateDraft(sess.Draft, c.now()); len(errs) > 0 {
		sess.Errors = errs
		return models.ErrValidationFailed
	}
	sess.Errors = map[string]string{}
	sess.State = StateSubmitting

	payload := upstream.UserPayload{
		Username:    sess.Draft.Username,
		Email:       sess.Draft.Email,
		CountryCode: sess.Draft.CountryCode,
		Phone:       sess.Draft.Phone,
		DOB:         sess.Draft.DOB,
		Gender:      sess.Draft.Gender,
		Role:        sess.Draft.Role,
		Verified:    sess.Draft.Verified,
	}

	var err error
	if sess.Mode == ModeCreate {
		err = c.client.CreateUser(ctx, token, payload)
	} else {
		err = c.client.UpdateUser(ctx, token, sess.TargetID, payload)
	}

	if err != nil {
		sess.State = StateReady
		if apiErr, ok := upstream.AsAPIError(err); ok {
			if field := routeFieldError(apiErr.Message); field != "" {
				sess.Errors[field] = apiErr.Message
			}
		}
		c.logger.Error("dialog submit failed",
			slog.String("mode", string(sess.Mode)),
			slog.Any("error", err))
		return err
	}

	sess.State = StateClosed
	return nil
}

// routeFieldError maps upstream error prose onto a draft field. Best-effort
// keyword matching only; unmatched messages stay dialog-level.
func routeFieldError(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "username"):
		return "username"
	case strings.Contains(msg, "email"):
		return "email"
	case strings.Contains(msg, "phone"):
		return "phone"
	case strings.Contains(msg, "birth") || strings.Contains(msg, "dob"):
		return "dob"
	case strings.Contains(msg, "gender"):
		return "gender"
	default:
		return ""
	}
}
