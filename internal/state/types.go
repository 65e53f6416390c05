package state

import "time"

// Event kinds recorded by Activity.
const (
	EventReceived    = "received"
	EventReplied     = "replied"
	EventReplyFailed = "reply_failed"
	EventSent        = "sent"
	EventSendFailed  = "send_failed"
	EventDaemon      = "daemon"
)

// Status mirrors the payload served at /api/status.
type Status struct {
	Running      bool      `json:"running"`
	PID          int       `json:"pid"`
	Account      string    `json:"account"`
	StartedAt    time.Time `json:"startedAt"`
	Counters     Counters  `json:"counters"`
	LastError    string    `json:"lastError"`
	Recent       []Event   `json:"recent"`
	DaemonOutput []string  `json:"daemonOutput"`
}

// Counters aggregates bridge traffic since start.
type Counters struct {
	Received      int `json:"received"`
	Replied       int `json:"replied"`
	ReplyFailures int `json:"replyFailures"`
	Sent          int `json:"sent"`
	SendFailures  int `json:"sendFailures"`
}

// Event is one line of the recent activity feed.
type Event struct {
	Time  time.Time `json:"time"`
	Kind  string    `json:"kind"`
	Peer  string    `json:"peer"`
	Text  string    `json:"text,omitempty"`
	Error string    `json:"error,omitempty"`
}

// Failed reports whether the event records a failure.
func (e Event) Failed() bool {
	return e.Kind == EventReplyFailed || e.Kind == EventSendFailed
}
