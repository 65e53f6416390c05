package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/five82/courier/internal/client"
	"github.com/five82/courier/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
	// Each group listing costs one dbus call per group on the server.
	groupsEvery = 15
)

// Poller refreshes a state.Store from the API, backing off while the API is
// unreachable.
type Poller struct {
	store    *state.Store
	fetcher  client.StatusFetcher
	interval time.Duration
	logger   *slog.Logger

	haveGroups  bool
	sinceGroups int
}

// NewPoller builds a Poller; a non-positive interval uses the default.
func NewPoller(store *state.Store, fetcher client.StatusFetcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		store:    store,
		fetcher:  fetcher,
		interval: interval,
		logger:   slog.Default().With("component", "poller"),
	}
}

// Run refreshes until ctx is cancelled. Refresh must not be called
// concurrently with Run.
func (p *Poller) Run(ctx context.Context) {
	for {
		delay := calculateBackoff(p.store.Snapshot().ConsecutiveFailures, p.interval)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		p.Refresh(ctx)
	}
}

// Refresh performs a single poll. Groups are fetched until one listing
// succeeds, then every groupsEvery polls.
func (p *Poller) Refresh(ctx context.Context) {
	status, err := p.fetcher.FetchStatus(ctx)
	if err != nil {
		p.store.Update(nil, nil, err)
		p.logger.Debug("status poll failed", "error", err)
		return
	}

	var groups map[string]string
	if !p.haveGroups || p.sinceGroups >= groupsEvery {
		groups, err = p.fetcher.FetchGroups(ctx)
		if err != nil {
			// Keep the previous directory; status alone is still useful.
			p.logger.Debug("groups poll failed", "error", err)
			groups = nil
		} else {
			p.haveGroups = true
			p.sinceGroups = 0
		}
	}
	p.sinceGroups++
	p.store.Update(status, groups, nil)
}

// calculateBackoff doubles base per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
