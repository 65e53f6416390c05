// Package api serves courier's HTTP interface.
//
// # Routes
//
//	GET  /group       name → hex id map of the account's groups
//	POST /message     multipart: "json" part {"content","number","group"},
//	                  optional "file" part; answers "ok"
//	POST /v1/send     Home Assistant signal_messenger compatible JSON body
//	                  {"message","recipients",["base64_attachment"]}
//	GET  /api/status  daemon state, counters and recent activity (state.Status)
//	GET  /health      200 while signal-cli runs, 503 otherwise
//	GET  /metrics     Prometheus exposition
//
// Recipients of /v1/send that start with "+" are phone numbers; anything
// else is a group hex id.
//
// # Attachments
//
// Uploaded files (and decoded base64 attachments) are written to a temp file
// that keeps the original base name as suffix, passed to signal-cli by path
// and removed once the sends return.
//
// # Errors
//
// Malformed requests and malformed group ids answer 400. A failed dbus-send
// call answers 502. When a request names several targets the first failure
// ends the request; earlier sends are not rolled back.
package api
