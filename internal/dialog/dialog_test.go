package dialog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagehq/console/internal/models"
	"github.com/vantagehq/console/internal/upstream"
)

type mockUserClient struct {
	getUserFn    func(ctx context.Context, token, id string) (*models.User, error)
	createUserFn func(ctx context.Context, token string, payload upstream.UserPayload) error
	updateUserFn func(ctx context.Context, token, id string, payload upstream.UserPayload) error
	deleteUserFn func(ctx context.Context, token, id string) error
}

func (m *mockUserClient) GetUser(ctx context.Context, token, id string) (*models.User, error) {
	return m.getUserFn(ctx, token, id)
}

func (m *mockUserClient) CreateUser(ctx context.Context, token string, payload upstream.UserPayload) error {
	return m.createUserFn(ctx, token, payload)
}

func (m *mockUserClient) UpdateUser(ctx context.Context, token, id string, payload upstream.UserPayload) error {
	return m.updateUserFn(ctx, token, id, payload)
}

func (m *mockUserClient) DeleteUser(ctx context.Context, token, id string) error {
	return m.deleteUserFn(ctx, token, id)
}

func testController(client *mockUserClient) *Controller {
	c := NewController(client, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return c
}

func validDraft() Draft {
	return Draft{
		Username:    "operator",
		Email:       "op@example.com",
		CountryCode: "+91",
		Phone:       "9876543210",
		DOB:         "2000-06-15",
		Gender:      models.GenderMale,
		Role:        models.RoleUser,
	}
}

func TestOpen_CreateStartsBlankAndReady(t *testing.T) {
	c := testController(&mockUserClient{})

	sess, err := c.Open(context.Background(), "tok", ModeCreate, "")
	require.NoError(t, err)

	assert.Equal(t, StateReady, sess.State)
	assert.Equal(t, "+91", sess.Draft.CountryCode)
	assert.Equal(t, models.RoleUser, sess.Draft.Role)
	assert.Empty(t, sess.Draft.Username)
	assert.Empty(t, sess.Errors)
}

func TestOpen_EditPrefetchesTarget(t *testing.T) {
	client := &mockUserClient{
		getUserFn: func(ctx context.Context, token, id string) (*models.User, error) {
			assert.Equal(t, "u-1", id)
			return &models.User{
				ID:       "u-1",
				Username: "jane",
				Email:    "jane@example.com",
				Phone:    "9876543210",
				DOB:      "2000-06-15T00:00:00.000Z",
				Gender:   models.GenderFemale,
				Role:     models.RoleAdmin,
				Verified: true,
			}, nil
		},
	}
	c := testController(client)

	sess, err := c.Open(context.Background(), "tok", ModeEdit, "u-1")
	require.NoError(t, err)

	assert.Equal(t, StateReady, sess.State)
	assert.Equal(t, "jane", sess.Draft.Username)
	assert.Equal(t, "2000-06-15", sess.Draft.DOB)
	assert.True(t, sess.Draft.Verified)
}

func TestOpen_EditFetchFailurePropagates(t *testing.T) {
	client := &mockUserClient{
		getUserFn: func(ctx context.Context, token, id string) (*models.User, error) {
			return nil, &upstream.APIError{StatusCode: 404, Message: "User not found"}
		},
	}
	c := testController(client)

	sess, err := c.Open(context.Background(), "tok", ModeEdit, "missing")
	require.Error(t, err)
	assert.Nil(t, sess)
}

func TestOpen_EditRequiresTarget(t *testing.T) {
	c := testController(&mockUserClient{})

	_, err := c.Open(context.Background(), "tok", ModeEdit, "")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestApply_UpdatesDraftAndClearsFieldError(t *testing.T) {
	c := testController(&mockUserClient{})
	sess, _ := c.Open(context.Background(), "tok", ModeCreate, "")
	sess.Errors["username"] = "Username must be 3-20 characters"

	name := "newname"
	err := c.Apply(sess, DraftPatch{Username: &name})
	require.NoError(t, err)

	assert.Equal(t, "newname", sess.Draft.Username)
	assert.NotContains(t, sess.Errors, "username")
}

func TestApply_StripsNonDigitsFromPhone(t *testing.T) {
	c := testController(&mockUserClient{})
	sess, _ := c.Open(context.Background(), "tok", ModeCreate, "")

	phone := "98-765 432x10"
	require.NoError(t, c.Apply(sess, DraftPatch{Phone: &phone}))
	assert.Equal(t, "9876543210", sess.Draft.Phone)
}

func TestApply_ViewModeIsReadOnly(t *testing.T) {
	client := &mockUserClient{
		getUserFn: func(ctx context.Context, token, id string) (*models.User, error) {
			return &models.User{ID: id, Username: "jane"}, nil
		},
	}
	c := testController(client)
	sess, err := c.Open(context.Background(), "tok", ModeView, "u-1")
	require.NoError(t, err)

	name := "hacked"
	assert.ErrorIs(t, c.Apply(sess, DraftPatch{Username: &name}), models.ErrDialogReadOnly)
	assert.Equal(t, "jane", sess.Draft.Username)
}

func TestSubmit_ValidationFailureBlocksRequest(t *testing.T) {
	called := false
	client := &mockUserClient{
		createUserFn: func(ctx context.Context, token string, payload upstream.UserPayload) error {
			called = true
			return nil
		},
	}
	c := testController(client)
	sess, _ := c.Open(context.Background(), "tok", ModeCreate, "")
	sess.Draft = validDraft()
	sess.Draft.Username = "ab"
	sess.Draft.Phone = "12345"

	err := c.Submit(context.Background(), "tok", sess)
	assert.ErrorIs(t, err, models.ErrValidationFailed)
	assert.False(t, called)
	assert.Equal(t, "Username must be 3-20 characters", sess.Errors["username"])
	assert.Equal(t, "Phone number must be 10 digits", sess.Errors["phone"])
	assert.Equal(t, StateReady, sess.State)
}

func TestSubmit_CreateSuccessClosesDialog(t *testing.T) {
	var got upstream.UserPayload
	client := &mockUserClient{
		createUserFn: func(ctx context.Context, token string, payload upstream.UserPayload) error {
			got = payload
			return nil
		},
	}
	c := testController(client)
	sess, _ := c.Open(context.Background(), "tok", ModeCreate, "")
	sess.Draft = validDraft()

	require.NoError(t, c.Submit(context.Background(), "tok", sess))
	assert.Equal(t, StateClosed, sess.State)
	assert.Equal(t, "operator", got.Username)
	assert.Equal(t, "9876543210", got.Phone)
}

func TestSubmit_EditSendsUpdateForTarget(t *testing.T) {
	var gotID string
	client := &mockUserClient{
		getUserFn: func(ctx context.Context, token, id string) (*models.User, error) {
			return &models.User{
				ID: id, Username: "jane", Email: "jane@example.com",
				Phone: "9876543210", DOB: "2000-06-15", Gender: models.GenderFemale,
				Role: models.RoleUser,
			}, nil
		},
		updateUserFn: func(ctx context.Context, token, id string, payload upstream.UserPayload) error {
			gotID = id
			return nil
		},
	}
	c := testController(client)
	sess, err := c.Open(context.Background(), "tok", ModeEdit, "u-1")
	require.NoError(t, err)

	require.NoError(t, c.Submit(context.Background(), "tok", sess))
	assert.Equal(t, "u-1", gotID)
	assert.Equal(t, StateClosed, sess.State)
}

func TestSubmit_UpstreamRejectionRoutesToField(t *testing.T) {
	client := &mockUserClient{
		createUserFn: func(ctx context.Context, token string, payload upstream.UserPayload) error {
			return &upstream.APIError{StatusCode: 409, Message: "Email already exists"}
		},
	}
	c := testController(client)
	sess, _ := c.Open(context.Background(), "tok", ModeCreate, "")
	sess.Draft = validDraft()

	err := c.Submit(context.Background(), "tok", sess)
	require.Error(t, err)
	assert.Equal(t, StateReady, sess.State)
	assert.Equal(t, "Email already exists", sess.Errors["email"])
}

func TestSubmit_UnroutableMessageStaysDialogLevel(t *testing.T) {
	client := &mockUserClient{
		createUserFn: func(ctx context.Context, token string, payload upstream.UserPayload) error {
			return &upstream.APIError{StatusCode: 500, Message: "Something went wrong"}
		},
	}
	c := testController(client)
	sess, _ := c.Open(context.Background(), "tok", ModeCreate, "")
	sess.Draft = validDraft()

	err := c.Submit(context.Background(), "tok", sess)
	require.Error(t, err)
	assert.Empty(t, sess.Errors)
	assert.Equal(t, StateReady, sess.State)
}

func TestSubmit_ViewModeRejected(t *testing.T) {
	client := &mockUserClient{
		getUserFn: func(ctx context.Context, token, id string) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
	}
	c := testController(client)
	sess, err := c.Open(context.Background(), "tok", ModeView, "u-1")
	require.NoError(t, err)

	assert.ErrorIs(t, c.Submit(context.Background(), "tok", sess), models.ErrDialogReadOnly)
}

func TestSubmit_SecondSubmitWhileInFlight(t *testing.T) {
	c := testController(&mockUserClient{})
	sess, _ := c.Open(context.Background(), "tok", ModeCreate, "")
	sess.Draft = validDraft()
	sess.State = StateSubmitting

	assert.ErrorIs(t, c.Submit(context.Background(), "tok", sess), models.ErrSubmitInFlight)
}

func TestSubmit_ClosedSession(t *testing.T) {
	c := testController(&mockUserClient{})

	assert.ErrorIs(t, c.Submit(context.Background(), "tok", nil), models.ErrNoDialogOpen)
	assert.ErrorIs(t, c.Submit(context.Background(), "tok", &Session{State: StateClosed}), models.ErrNoDialogOpen)
}

func TestValidateDraft_Boundaries(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(*Draft)
		field  string
		want   string
	}{
		{
			name:   "username too short",
			mutate: func(d *Draft) { d.Username = "ab" },
			field:  "username",
			want:   "Username must be 3-20 characters",
		},
		{
			name:   "username too long",
			mutate: func(d *Draft) { d.Username = "abcdefghijklmnopqrstu" },
			field:  "username",
			want:   "Username must be 3-20 characters",
		},
		{
			name:   "email missing domain",
			mutate: func(d *Draft) { d.Email = "nodomain@" },
			field:  "email",
			want:   "Please enter a valid email address",
		},
		{
			name:   "phone too short",
			mutate: func(d *Draft) { d.Phone = "12345" },
			field:  "phone",
			want:   "Phone number must be 10 digits",
		},
		{
			name:   "phone non numeric",
			mutate: func(d *Draft) { d.Phone = "98765abc10" },
			field:  "phone",
			want:   "Phone number must be 10 digits",
		},
		{
			name:   "dob missing",
			mutate: func(d *Draft) { d.DOB = "" },
			field:  "dob",
			want:   "Date of birth is required",
		},
		{
			name:   "underage by one day",
			mutate: func(d *Draft) { d.DOB = "2006-06-16" },
			field:  "dob",
			want:   "User must be at least 18 years old",
		},
		{
			name:   "gender missing",
			mutate: func(d *Draft) { d.Gender = "" },
			field:  "gender",
			want:   "Gender is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			errs := ValidateDraft(d, now)
			require.Contains(t, errs, tt.field)
			assert.Equal(t, tt.want, errs[tt.field])
		})
	}
}

func TestValidateDraft_BoundaryPasses(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	d := validDraft()
	d.Username = "abc"
	d.DOB = "2006-06-15"

	assert.Empty(t, ValidateDraft(d, now))
}

func TestValidateDraft_MultipleFailuresReportedTogether(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	errs := ValidateDraft(Draft{}, now)
	for _, field := range []string{"username", "email", "phone", "dob", "gender"} {
		assert.Contains(t, errs, field)
	}
}

func TestSessionClone_DetachesErrorMap(t *testing.T) {
	orig := &Session{
		Mode:   ModeEdit,
		State:  StateReady,
		Draft:  Draft{Username: "jane"},
		Errors: map[string]string{"email": "Email is required"},
	}

	copied := orig.Clone()
	copied.Errors["email"] = "mutated"
	copied.Draft.Username = "mutated"

	assert.Equal(t, "Email is required", orig.Errors["email"])
	assert.Equal(t, "jane", orig.Draft.Username)

	var nilSession *Session
	assert.Nil(t, nilSession.Clone())
}
