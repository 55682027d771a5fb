package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vantagehq/console/internal/directory"
	"github.com/vantagehq/console/internal/middleware"
	"github.com/vantagehq/console/internal/session"
	"github.com/vantagehq/console/pkg/httpapi"
)

// DirectoryHandler serves the user directory: the current page and the
// query-state mutations that drive it.
type DirectoryHandler struct {
	registry *directory.Registry
	store    session.Store
	logger   *slog.Logger
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(registry *directory.Registry, store session.Store, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{
		registry: registry,
		store:    store,
		logger:   logger,
	}
}

// queryPatch carries partial query-state changes. Nil fields are untouched;
// any dimension change resets the page to 1 inside the query itself.
type queryPatch struct {
	Search     *string `json:"search"`
	Gender     *string `json:"gender"`
	Verified   *string `json:"verified"`
	DatePreset *string `json:"datePreset"`
	From       *string `json:"from"`
	To         *string `json:"to"`
	Age        *string `json:"age"`
	SortBy     *string `json:"sortBy"`
	SortOrder  *string `json:"sortOrder"`
	Page       *int    `json:"page"`
}

type directoryResponse struct {
	Users      interface{}     `json:"users"`
	Pagination interface{}     `json:"pagination"`
	Query      directory.Query `json:"query"`
}

// List handles GET /api/users: fetch the page described by the session's
// current query state.
func (h *DirectoryHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)
	fetcher := h.registry.For(sess.ID)

	page := fetcher.Fetch(r.Context(), sess.Token, &sess.Query)
	httpapi.WriteJSON(w, http.StatusOK, directoryResponse{
		Users:      page.Rows,
		Pagination: page.Pagination,
		Query:      sess.Query,
	})
}

// UpdateQuery handles PATCH /api/users/query: apply query-state changes,
// persist them, and return the refetched page.
func (h *DirectoryHandler) UpdateQuery(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r)

	var patch queryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpapi.WriteBadRequest(w, "Invalid request body")
		return
	}

	applyQueryPatch(&sess.Query, patch)

	if err := h.store.Save(r.Context(), sess); err != nil {
		h.logger.Error("session save failed", slog.Any("error", err))
		httpapi.WriteInternalError(w, "Something went wrong")
		return
	}

	fetcher := h.registry.For(sess.ID)
	page := fetcher.Fetch(r.Context(), sess.Token, &sess.Query)
	httpapi.WriteJSON(w, http.StatusOK, directoryResponse{
		Users:      page.Rows,
		Pagination: page.Pagination,
		Query:      sess.Query,
	})
}

func applyQueryPatch(q *directory.Query, patch queryPatch) {
	dimensionChanged := patch.Search != nil || patch.Gender != nil ||
		patch.Verified != nil || patch.DatePreset != nil || patch.From != nil ||
		patch.To != nil || patch.Age != nil || patch.SortBy != nil ||
		patch.SortOrder != nil

	if patch.Search != nil {
		q.SetSearch(*patch.Search)
	}
	if patch.Gender != nil {
		q.SetGender(*patch.Gender)
	}
	if patch.Verified != nil {
		q.SetVerified(*patch.Verified)
	}
	if patch.From != nil || patch.To != nil {
		from, to := q.From, q.To
		if patch.From != nil {
			from = *patch.From
		}
		if patch.To != nil {
			to = *patch.To
		}
		q.SetCustomRange(from, to)
	}
	if patch.DatePreset != nil {
		q.SetDatePreset(*patch.DatePreset)
	}
	if patch.Age != nil {
		q.SetAge(*patch.Age)
	}
	if patch.SortBy != nil {
		order := q.SortOrder
		if patch.SortOrder != nil {
			order = *patch.SortOrder
		}
		q.SetSort(*patch.SortBy, order)
	} else if patch.SortOrder != nil {
		q.SetSort(q.SortBy, *patch.SortOrder)
	}
	// A dimension change always lands on page 1; an explicit page applies
	// only when it is the sole change.
	if patch.Page != nil && !dimensionChanged {
		q.SetPage(*patch.Page)
	}
}
