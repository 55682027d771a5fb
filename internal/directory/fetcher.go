package directory

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vantagehq/console/internal/models"
	"github.com/vantagehq/console/internal/upstream"
)

// ListClient is the slice of the upstream client the fetcher needs.
type ListClient interface {
	ListUsers(ctx context.Context, token string, query url.Values) (*upstream.DirectoryEnvelope, error)
}

// Row is a display-ready directory record: the upstream user plus fields
// derived at render time.
type Row struct {
	models.User
	Age     *int   `json:"age,omitempty"`
	Created string `json:"created"` // YYYY-MM-DD
}

// Page is the reconciled result of a directory fetch.
type Page struct {
	Rows       []Row             `json:"users"`
	Pagination models.Pagination `json:"pagination"`
}

// Fetcher translates query state into directory requests and reconciles
// responses into display-ready pages. A generation counter discards
// responses that resolve after a newer fetch started, so a slow early
// response can never overwrite fresher data.
type Fetcher struct {
	client ListClient
	logger *slog.Logger
	limit  int

	gen     atomic.Uint64
	mu      sync.Mutex
	current Page

	now func() time.Time
}

// NewFetcher creates a Fetcher with an empty current page.
func NewFetcher(client ListClient, logger *slog.Logger, limit int) *Fetcher {
	return &Fetcher{
		client:  client,
		logger:  logger,
		limit:   limit,
		current: Page{Rows: []Row{}, Pagination: models.EmptyPagination(limit)},
		now:     time.Now,
	}
}

var agePattern = regexp.MustCompile(`^\d+(-\d+)?$`)

// buildParams renders the query into request parameters. Absent filters are
// omitted entirely rather than sent as empty strings, so the backend never
// has to distinguish "empty filter" from "no filter". A custom date range is
// sent only when both bounds are present.
func buildParams(q *Query) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))

	if s := strings.TrimSpace(q.Search); s != "" {
		params.Set("search", s)
	}
	if q.Gender != "" {
		params.Set("gender", q.Gender)
	}
	if q.Verified != "" {
		params.Set("verified", q.Verified)
	}
	switch q.DatePreset {
	case "":
		// no date filter
	case PresetCustom:
		if q.From != "" && q.To != "" {
			params.Set("from", q.From)
			params.Set("to", q.To)
		}
	default:
		params.Set("date", q.DatePreset)
	}
	if age := strings.TrimSpace(q.Age); age != "" && agePattern.MatchString(age) {
		params.Set("age", age)
	}
	if q.SortBy != "" {
		params.Set("sortBy", q.SortBy)
		order := q.SortOrder
		if order == "" {
			order = "asc"
		}
		params.Set("sortOrder", order)
	}
	return params
}

// Fetch runs one directory request for the given query and returns the
// fetcher's current page afterwards. Failures and malformed payloads degrade
// to an empty page; they never surface as errors, because the table must
// always render something coherent. If a newer fetch started while this one
// was in flight, this response is discarded and the newer state returned.
func (f *Fetcher) Fetch(ctx context.Context, token string, q *Query) Page {
	myGen := f.gen.Add(1)

	page := f.fetchPage(ctx, token, q)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen.Load() == myGen {
		f.current = page
	} else {
		f.logger.Debug("discarding stale directory response",
			slog.Uint64("generation", myGen),
			slog.Uint64("newest", f.gen.Load()))
	}
	return f.current
}

// Current returns the last reconciled page without fetching.
func (f *Fetcher) Current() Page {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *Fetcher) fetchPage(ctx context.Context, token string, q *Query) Page {
	empty := Page{Rows: []Row{}, Pagination: models.EmptyPagination(f.limit)}

	env, err := f.client.ListUsers(ctx, token, buildParams(q))
	if err != nil {
		f.logger.Error("directory fetch failed", slog.Any("error", err))
		return empty
	}

	var users []models.User
	if len(env.Users) == 0 || json.Unmarshal(env.Users, &users) != nil {
		f.logger.Warn("directory response missing or malformed users field")
		return empty
	}

	page := Page{Rows: make([]Row, 0, len(users))}
	if env.Pagination != nil {
		page.Pagination = *env.Pagination
	} else {
		page.Pagination = models.EmptyPagination(f.limit)
	}

	today := f.now()
	for _, u := range users {
		row := Row{User: u}
		if dob, ok := ParseDOB(u.DOB); ok {
			age := Age(dob, today)
			row.Age = &age
		}
		if !u.CreatedAt.IsZero() {
			row.Created = u.CreatedAt.Format("2006-01-02")
		}
		page.Rows = append(page.Rows, row)
	}
	return page
}
