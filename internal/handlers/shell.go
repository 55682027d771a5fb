package handlers

import (
	"log/slog"
	"net/http"

	"github.com/vantagehq/console/web"
	"github.com/vantagehq/console/pkg/httpapi"
)

// ShellHandler serves the embedded single-page shell and the 404 page.
type ShellHandler struct {
	shell    []byte
	notFound []byte
	logger   *slog.Logger
}

// NewShellHandler loads the embedded shell documents.
func NewShellHandler(logger *slog.Logger) (*ShellHandler, error) {
	shell, err := web.Static.ReadFile(web.ShellPath)
	if err != nil {
		return nil, err
	}
	notFound, err := web.Static.ReadFile(web.NotFoundPath)
	if err != nil {
		return nil, err
	}
	return &ShellHandler{shell: shell, notFound: notFound, logger: logger}, nil
}

// Serve returns the shell document. Client-side routing takes over from
// there, so every console route gets the same bytes.
func (h *ShellHandler) Serve(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(h.shell)
}

// NotFound returns the 404 page for unknown non-API paths.
func (h *ShellHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write(h.notFound)
}

// APINotFound returns a JSON 404 for unknown /api paths.
func (h *ShellHandler) APINotFound(w http.ResponseWriter, r *http.Request) {
	httpapi.WriteNotFound(w, "Unknown API route")
}

// Assets serves the embedded static files under /static/.
func (h *ShellHandler) Assets() http.Handler {
	return http.FileServer(http.FS(web.Static))
}
