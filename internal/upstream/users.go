package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/vantagehq/console/internal/models"
)

// DirectoryEnvelope is the raw directory listing response. Users is kept as
// raw JSON so the fetcher can degrade a malformed or absent list to an empty
// page instead of failing the whole request.
type DirectoryEnvelope struct {
	Users      json.RawMessage    `json:"users"`
	Pagination *models.Pagination `json:"pagination"`
}

// ListUsers fetches one directory page. The query carries page, limit and
// whichever filters are active; building it is the fetcher's concern.
func (c *Client) ListUsers(ctx context.Context, token string, query url.Values) (*DirectoryEnvelope, error) {
	var env DirectoryEnvelope
	if err := c.do(ctx, http.MethodGet, "/user/users", query, token, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

type getUserResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
	Message string       `json:"message"`
	Error   string       `json:"error"`
}

// GetUser fetches a single record, used to pre-populate edit/view dialogs
// and the admin profile page.
func (c *Client) GetUser(ctx context.Context, token, id string) (*models.User, error) {
	var res getUserResponse
	if err := c.do(ctx, http.MethodGet, "/user/getuser/"+id, nil, token, nil, &res); err != nil {
		return nil, err
	}
	if !res.Success || res.User == nil {
		msg := res.Message
		if msg == "" {
			msg = res.Error
		}
		return nil, &APIError{StatusCode: http.StatusOK, Message: failureMessage(msg, "user not found")}
	}
	return res.User, nil
}

// UserPayload is the create/update request body, mirroring the dialog draft.
type UserPayload struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	CountryCode string `json:"countryCode"`
	Phone       string `json:"phone"`
	DOB         string `json:"dob"`
	Gender      string `json:"gender"`
	Role        string `json:"role"`
	Verified    bool   `json:"verified"`
}

// CreateUser adds a record to the directory.
func (c *Client) CreateUser(ctx context.Context, token string, payload UserPayload) error {
	var env statusEnvelope
	if err := c.do(ctx, http.MethodPost, "/user/users", nil, token, payload, &env); err != nil {
		return err
	}
	if !env.Success {
		return &APIError{StatusCode: http.StatusOK, Message: env.failureMessage()}
	}
	return nil
}

// UpdateUser overwrites an existing record.
func (c *Client) UpdateUser(ctx context.Context, token, id string, payload UserPayload) error {
	var env statusEnvelope
	if err := c.do(ctx, http.MethodPut, "/user/updateUser/"+id, nil, token, payload, &env); err != nil {
		return err
	}
	if !env.Success {
		return &APIError{StatusCode: http.StatusOK, Message: env.failureMessage()}
	}
	return nil
}

// DeleteUser removes a record.
func (c *Client) DeleteUser(ctx context.Context, token, id string) error {
	var env statusEnvelope
	if err := c.do(ctx, http.MethodDelete, "/user/delete/"+id, nil, token, nil, &env); err != nil {
		return err
	}
	if !env.Success {
		return &APIError{StatusCode: http.StatusOK, Message: env.failureMessage()}
	}
	return nil
}
