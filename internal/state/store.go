package state

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Snapshot represents the latest data available to the watch UI.
type Snapshot struct {
	Status              Status
	HasStatus           bool
	Groups              map[string]string
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility. A nil groups map keeps the
// previously fetched groups.
func (s *Store) Update(status *Status, groups map[string]string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if status != nil {
		s.snapshot.Status = *status
		s.snapshot.Status.Recent = cloneEvents(status.Recent)
		s.snapshot.Status.DaemonOutput = slices.Clone(status.DaemonOutput)
		s.snapshot.HasStatus = true
	} else {
		s.snapshot.HasStatus = false
	}
	if groups != nil {
		s.snapshot.Groups = maps.Clone(groups)
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Status.Recent = cloneEvents(s.snapshot.Status.Recent)
	snap.Status.DaemonOutput = slices.Clone(s.snapshot.Status.DaemonOutput)
	snap.Groups = maps.Clone(s.snapshot.Groups)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
