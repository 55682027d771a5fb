// Package background runs the console's periodic housekeeping.
package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/vantagehq/console/internal/directory"
	"github.com/vantagehq/console/internal/session"
)

// Sweeper periodically drops expired sessions and idle directory fetchers.
// The Redis store expires its own keys, so the session sweep only applies
// to the in-memory store.
type Sweeper struct {
	store    session.Sweeper
	registry *directory.Registry
	logger   *slog.Logger
	interval time.Duration
	maxIdle  time.Duration
	stopCh   chan struct{}
}

// NewSweeper creates a sweeper. store may be nil when the session store
// handles its own expiry.
func NewSweeper(store session.Sweeper, registry *directory.Registry, logger *slog.Logger, interval, maxIdle time.Duration) *Sweeper {
	return &Sweeper{
		store:    store,
		registry: registry,
		logger:   logger,
		interval: interval,
		maxIdle:  maxIdle,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic sweep task
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runSweep()
		case <-s.stopCh:
			s.logger.Info("sweeper stopped")
			return
		case <-ctx.Done():
			s.logger.Info("sweeper context cancelled")
			return
		}
	}
}

func (s *Sweeper) runSweep() {
	sessions := 0
	if s.store != nil {
		sessions = s.store.Sweep(time.Now())
	}
	fetchers := s.registry.Purge(s.maxIdle)

	if sessions > 0 || fetchers > 0 {
		s.logger.Info("sweep completed",
			slog.Int("sessions_removed", sessions),
			slog.Int("fetchers_removed", fetchers))
	}
}

// Stop signals the sweeper to stop
func (s *Sweeper) Stop() {
	close(s.stopCh)
}
