// Package client is the HTTP client for a running courier's API.
//
// The watch TUI polls FetchStatus and FetchGroups; the `groups` and `send`
// commands use FetchGroups and SendMessage for one-shot calls. Addresses
// may be a bare host:port (http is assumed) or a full URL; any path, query
// or fragment is dropped.
//
// Reads use a short per-request timeout. SendMessage waits longer because
// the server only answers after dbus-send returns.
package client
