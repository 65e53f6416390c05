// Package app is the composition root for courier's commands.
//
// # Serve
//
// Serve builds the long-running bridge:
//
//	┌──────────────┐
//	│   Serve()    │
//	└──────┬───────┘
//	       │
//	       ├─────> cfg.Validate()       phone number and signal config required
//	       ├─────> responder.New()      websocket reply generator
//	       ├─────> metrics.New()        private Prometheus registry
//	       ├─────> bridge.New()         supervisor + dispatcher + sender
//	       ├─────> api.NewServer()      chi router over the bridge
//	       ├─────> svc.Start()          spawn signal-cli, start read loop
//	       └─────> ListenAndServe()     blocks until ctx is cancelled
//
// If signal-cli dies while ctx is live the supervisor exits the process with
// code 4; Serve itself never sees that failure. Cancelling ctx stops the API
// gracefully and is not treated as a daemon failure.
//
// # Watch
//
// Watch runs the monitor TUI against a running courier's API:
//
//	Background Poller Loop:
//	┌─────────────────────────────────────────┐
//	│ Poller.Run() goroutine                  │
//	│  ├─> FetchStatus()     every tick       │
//	│  ├─> FetchGroups()     every 15th tick  │
//	│  └─> store.Update()                     │
//	│      └─> UI reads store.Snapshot()      │
//	└─────────────────────────────────────────┘
//
// A failed status poll doubles the delay before the next one, up to 30
// seconds, and the UI shows the API as offline after two failures. A failed
// groups poll keeps the previous directory and is retried on the next tick.
//
// # One-shot commands
//
// Groups and Send talk to a running courier over HTTP rather than calling
// dbus-send directly, so they work from any machine that can reach the API.
package app
