package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/courier/internal/state"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

type fakeFetcher struct {
	mu          sync.Mutex
	status      *state.Status
	groups      map[string]string
	statusErr   error
	groupsErr   error
	groupCalls  int
	statusCalls int
}

func (f *fakeFetcher) FetchStatus(context.Context) (*state.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return f.status, nil
}

func (f *fakeFetcher) FetchGroups(context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupCalls++
	if f.groupsErr != nil {
		return nil, f.groupsErr
	}
	return f.groups, nil
}

func TestPoller_RefreshPopulatesStore(t *testing.T) {
	store := &state.Store{}
	fetcher := &fakeFetcher{
		status: &state.Status{Running: true, PID: 9},
		groups: map[string]string{"Family": "abcd"},
	}
	p := NewPoller(store, fetcher, time.Second)

	p.Refresh(context.Background())

	snap := store.Snapshot()
	if !snap.HasStatus || snap.Status.PID != 9 {
		t.Fatalf("status not stored: %+v", snap)
	}
	if snap.Groups["Family"] != "abcd" {
		t.Fatalf("groups not stored: %+v", snap.Groups)
	}
}

func TestPoller_GroupsFetchedPeriodically(t *testing.T) {
	store := &state.Store{}
	fetcher := &fakeFetcher{status: &state.Status{}, groups: map[string]string{}}
	p := NewPoller(store, fetcher, time.Second)

	for i := 0; i < groupsEvery+1; i++ {
		p.Refresh(context.Background())
	}
	if fetcher.statusCalls != groupsEvery+1 {
		t.Fatalf("status calls = %d, want %d", fetcher.statusCalls, groupsEvery+1)
	}
	if fetcher.groupCalls != 2 {
		t.Fatalf("group calls = %d, want 2", fetcher.groupCalls)
	}
}

func TestPoller_GroupsRetriedUntilFirstSuccess(t *testing.T) {
	store := &state.Store{}
	fetcher := &fakeFetcher{status: &state.Status{}, groupsErr: errors.New("dbus busy")}
	p := NewPoller(store, fetcher, time.Second)

	p.Refresh(context.Background())
	p.Refresh(context.Background())
	if fetcher.groupCalls != 2 {
		t.Fatalf("group calls = %d, want 2", fetcher.groupCalls)
	}
	if snap := store.Snapshot(); snap.LastError != nil || !snap.HasStatus {
		t.Fatalf("groups failure should not mark the poll failed: %+v", snap)
	}

	fetcher.groupsErr = nil
	fetcher.groups = map[string]string{"Team": "ef01"}
	p.Refresh(context.Background())
	p.Refresh(context.Background())
	if fetcher.groupCalls != 3 {
		t.Fatalf("group calls = %d, want 3", fetcher.groupCalls)
	}
	if store.Snapshot().Groups["Team"] != "ef01" {
		t.Fatal("groups not stored after recovery")
	}
}

func TestPoller_StatusFailureCounts(t *testing.T) {
	store := &state.Store{}
	fetcher := &fakeFetcher{statusErr: errors.New("connection refused")}
	p := NewPoller(store, fetcher, time.Second)

	p.Refresh(context.Background())
	p.Refresh(context.Background())

	snap := store.Snapshot()
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("snapshot = %+v, want offline after 2 failures", snap)
	}
	if fetcher.groupCalls != 0 {
		t.Fatalf("groups fetched despite status failure")
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	store := &state.Store{}
	fetcher := &fakeFetcher{status: &state.Status{}, groups: map[string]string{}}
	p := NewPoller(store, fetcher, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		fetcher.mu.Lock()
		calls := fetcher.statusCalls
		fetcher.mu.Unlock()
		if calls >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("poller did not refresh")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
