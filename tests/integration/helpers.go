package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	"github.com/vantagehq/console/internal/dialog"
	"github.com/vantagehq/console/internal/directory"
	"github.com/vantagehq/console/internal/handlers"
	middlewareCustom "github.com/vantagehq/console/internal/middleware"
	"github.com/vantagehq/console/internal/routes"
	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/internal/upstream"
)

// fakeUpstream is an httptest stand-in for the account service. It keeps a
// small mutable user set and implements the endpoints the console calls.
type fakeUpstream struct {
	mu    sync.Mutex
	users []map[string]interface{}

	// requireOTPForLogin makes login answer with an OTP challenge.
	requireOTPForLogin bool

	server *httptest.Server
}

func newFakeUpstream() *fakeUpstream {
	f := &fakeUpstream{
		users: []map[string]interface{}{
			{
				"_id": "u-1", "username": "jane", "email": "jane@example.com",
				"countryCode": "+91", "phone": "9876543210", "dob": "2000-06-15",
				"gender": "female", "role": "user", "verified": true,
				"createdAt": "2024-01-10T00:00:00Z",
			},
			{
				"_id": "u-2", "username": "arun", "email": "arun@example.com",
				"countryCode": "+91", "phone": "9123456780", "dob": "1995-03-02",
				"gender": "male", "role": "user", "verified": false,
				"createdAt": "2024-02-20T00:00:00Z",
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/login", f.handleLogin)
	mux.HandleFunc("POST /user/verify-otp", f.handleVerifyOTP)
	mux.HandleFunc("GET /user/users", f.handleList)
	mux.HandleFunc("GET /user/getuser/{id}", f.handleGet)
	mux.HandleFunc("POST /user/users", f.handleCreate)
	mux.HandleFunc("PUT /user/updateUser/{id}", f.handleUpdate)
	mux.HandleFunc("DELETE /user/delete/{id}", f.handleDelete)
	mux.HandleFunc("GET /user/dashboard/today", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "count": 3})
	})
	mux.HandleFunc("GET /user/dashboard/period", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "count": 12})
	})
	mux.HandleFunc("GET /user/dashboard/gender", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "male": 1, "female": 1, "other": 0})
	})
	mux.HandleFunc("GET /api/settings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"settings": map[string]interface{}{
				"otpEnabled": true, "otpEnabledForLogin": true,
			},
		})
	})
	mux.HandleFunc("GET /user/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	})

	f.server = httptest.NewServer(mux)
	return f
}

func (f *fakeUpstream) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if f.requireOTPForLogin {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false, "requiresOtp": true, "userId": "pending-1",
			"message": "OTP required",
		})
		return
	}
	if req.Password != "correct-password" {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"success": false, "message": "Invalid email or password",
		})
		return
	}

	role := "user"
	if strings.HasPrefix(req.Email, "admin") {
		role = "admin"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   "upstream-token",
		"user": map[string]interface{}{
			"_id": "admin-1", "username": "op", "email": req.Email,
			"role": role, "verified": true,
		},
	})
}

func (f *fakeUpstream) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		OTP    string `json:"otp"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	if req.OTP != "123456" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false, "message": "Invalid OTP",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (f *fakeUpstream) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer upstream-token" {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"success": false, "message": "Unauthorized"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	matched := f.users
	if search := r.URL.Query().Get("search"); search != "" {
		matched = nil
		for _, u := range f.users {
			if strings.Contains(u["username"].(string), search) {
				matched = append(matched, u)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"users":   matched,
		"pagination": map[string]interface{}{
			"currentPage": 1, "totalPages": 1, "totalUsers": len(matched),
			"hasNextPage": false, "hasPrevPage": false, "limit": 10,
		},
	})
}

func (f *fakeUpstream) handleGet(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	for _, u := range f.users {
		if u["_id"] == id {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": u})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "User not found"})
}

func (f *fakeUpstream) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	json.NewDecoder(r.Body).Decode(&payload)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u["email"] == payload["email"] {
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"success": false, "message": "Email already exists",
			})
			return
		}
	}
	payload["_id"] = fmt.Sprintf("u-%d", len(f.users)+1)
	payload["createdAt"] = time.Now().UTC().Format(time.RFC3339)
	f.users = append(f.users, payload)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true})
}

func (f *fakeUpstream) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	json.NewDecoder(r.Body).Decode(&payload)

	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	for i, u := range f.users {
		if u["_id"] == id {
			payload["_id"] = id
			payload["createdAt"] = u["createdAt"]
			f.users[i] = payload
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "User not found"})
}

func (f *fakeUpstream) handleDelete(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	for i, u := range f.users {
		if u["_id"] == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "User not found"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// consoleEnv is a fully wired console router over a fake upstream.
type consoleEnv struct {
	upstream *fakeUpstream
	router   chi.Router
}

func newConsoleEnv(t *testing.T) *consoleEnv {
	t.Helper()

	fake := newFakeUpstream()
	t.Cleanup(fake.server.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := upstream.New(fake.server.URL, 5*time.Second, logger)
	store := session.NewMemoryStore()
	registry := directory.NewRegistry(client, logger, 10)
	cookieConfig := session.CookieConfig{SameSite: "lax"}

	controller := dialog.NewController(client, logger)
	authHandler := handlers.NewAuthHandler(client, store, registry, cookieConfig, nil, time.Hour, 10, logger)
	directoryHandler := handlers.NewDirectoryHandler(registry, store, logger)
	dialogHandler := handlers.NewDialogHandler(controller, registry, store, logger)
	dashboardHandler := handlers.NewDashboardHandler(client, logger)
	adminHandler := handlers.NewAdminHandler(client, store, logger)
	shellHandler, err := handlers.NewShellHandler(logger)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(chiMiddleware.Recoverer)

	routes.RegisterRoutes(router, authHandler, directoryHandler, dialogHandler, dashboardHandler, adminHandler, shellHandler, store, logger)

	return &consoleEnv{upstream: fake, router: router}
}

// client is a cookie-carrying test client against the console router.
type consoleClient struct {
	t       *testing.T
	env     *consoleEnv
	cookies []*http.Cookie
	csrf    string
}

func (e *consoleEnv) client(t *testing.T) *consoleClient {
	return &consoleClient{t: t, env: e}
}

func (c *consoleClient) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "127.0.0.1:9000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}

	rec := httptest.NewRecorder()
	c.env.router.ServeHTTP(rec, req)

	resp := rec.Result()
	resp.Body.Close()
	for _, cookie := range resp.Cookies() {
		c.setCookie(cookie)
		if cookie.Name == session.CSRFCookieName {
			c.csrf = cookie.Value
		}
	}
	return rec
}

func (c *consoleClient) setCookie(cookie *http.Cookie) {
	for i, existing := range c.cookies {
		if existing.Name == cookie.Name {
			if cookie.MaxAge < 0 {
				c.cookies = append(c.cookies[:i], c.cookies[i+1:]...)
			} else {
				c.cookies[i] = cookie
			}
			return
		}
	}
	if cookie.MaxAge >= 0 {
		c.cookies = append(c.cookies, cookie)
	}
}

func (c *consoleClient) login(email string) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": "correct-password",
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(target))
}
