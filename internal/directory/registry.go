package directory

import (
	"log/slog"
	"sync"
	"time"
)

// Registry hands out one Fetcher per console session. Generation tracking is
// inherently per-process state, so fetchers live here rather than inside the
// serialized session.
type Registry struct {
	client ListClient
	logger *slog.Logger
	limit  int

	mu       sync.Mutex
	fetchers map[string]*registryEntry
}

type registryEntry struct {
	fetcher  *Fetcher
	lastUsed time.Time
}

// NewRegistry creates an empty fetcher registry.
func NewRegistry(client ListClient, logger *slog.Logger, limit int) *Registry {
	return &Registry{
		client:   client,
		logger:   logger,
		limit:    limit,
		fetchers: make(map[string]*registryEntry),
	}
}

// For returns the session's fetcher, creating it on first use.
func (r *Registry) For(sessionID string) *Fetcher {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.fetchers[sessionID]
	if !ok {
		entry = &registryEntry{fetcher: NewFetcher(r.client, r.logger, r.limit)}
		r.fetchers[sessionID] = entry
	}
	entry.lastUsed = time.Now()
	return entry.fetcher
}

// Drop removes a session's fetcher (logout or session destruction).
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.fetchers, sessionID)
}

// Purge removes fetchers idle longer than maxIdle and returns how many were
// removed. The background sweeper calls this alongside session expiry.
func (r *Registry) Purge(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-maxIdle)
	removed := 0
	for id, entry := range r.fetchers {
		if entry.lastUsed.Before(cutoff) {
			delete(r.fetchers, id)
			removed++
		}
	}
	return removed
}
