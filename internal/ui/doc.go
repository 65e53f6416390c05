// Package ui implements `courier watch`, a Bubble Tea monitor for a running
// courier.
//
// # Layout
//
//	┌ header: daemon state · account · counters ──────────────┐
//	│ command bar: key hints for the focused pane              │
//	├─ Activity · All ─────────────────────────────────────────┤
//	│ 15:04:05  ← received   +4912345   hello                  │
//	│ 15:04:06  → replied    +4912345   hi there               │
//	├─ signal-cli output ───────────────┬─ Groups (2) ─────────┤
//	│ Envelope from: …                  │ Family               │
//	│ Body: hello                       │   6a0f…e21b          │
//	└───────────────────────────────────┴──────────────────────┘
//
// The model never talks to the network. The app package's poller fills a
// state.Store, and the model copies a snapshot on every tick, so a slow or
// unreachable API cannot stall rendering.
//
// # Keys
//
// tab and shift+tab move focus between panes. j/k move the activity
// selection or scroll the focused viewport; f cycles the activity filter
// (all, failures, inbound); space pauses or resumes following the daemon
// output; T cycles the theme. Theme and filter are saved to prefs.
package ui
