// Package state holds courier's shared runtime state.
//
// # Overview
//
// Two independent pieces live here, one per side of the HTTP API:
//
//   - Activity: the server-side recorder. The daemon read loop, the reply
//     dispatcher and outbound send handlers report into it; /api/status
//     serialises its Status.
//   - Store: the client-side container used by `courier watch`. A poller
//     fetches /api/status and /group and publishes them; the TUI reads
//     Snapshots.
//
// Status, Counters and Event are the wire types shared by both sides.
//
// # Architecture
//
//	Server                              Watch client
//	┌──────────────────┐               ┌────────────────┐
//	│ read loop        │               │ poller          │
//	│ dispatcher  ──→ Activity ──HTTP──→ store.Update() │
//	│ send handlers    │  /api/status  │      ↓          │
//	└──────────────────┘               │ store.Snapshot()│
//	                                    │      ↓          │
//	                                    │  render TUI     │
//	                                    └────────────────┘
//
// # Concurrency Model
//
// Activity uses a plain sync.Mutex: writers and readers are both frequent and
// every operation is tiny. Store uses sync.RWMutex with a single writer (the
// poller) and a reader per UI refresh.
//
// Both return copies. Recent events, daemon output and the group map are
// cloned so callers can keep or mutate what they get without racing the
// next update.
//
// # Bounded History
//
// Activity keeps only the last N events (default 50). Counters are never
// reset while the process lives; there is no persistence across restarts.
//
// # Offline Detection
//
// Snapshot.IsOffline reports true after two consecutive failed polls, so a
// single dropped request does not flash the UI into an offline state.
package state
