package state

import (
	"sync"
	"time"
)

const defaultActivityLimit = 50

// Activity records what the bridge has done since start. The daemon read loop
// and HTTP handlers write concurrently; /api/status reads. A nil *Activity
// ignores every call.
type Activity struct {
	mu     sync.Mutex
	status Status
	limit  int
	now    func() time.Time
}

// NewActivity returns a recorder for account keeping the last limit events.
func NewActivity(account string, limit int) *Activity {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	return &Activity{
		status: Status{Account: account},
		limit:  limit,
		now:    time.Now,
	}
}

// DaemonStarted marks the daemon as running under pid.
func (a *Activity) DaemonStarted(pid int) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Running = true
	a.status.PID = pid
	a.status.StartedAt = a.now()
	a.push(Event{Kind: EventDaemon, Text: "started"})
}

// DaemonStopped marks the daemon as gone.
func (a *Activity) DaemonStopped(reason string) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Running = false
	a.status.LastError = reason
	a.push(Event{Kind: EventDaemon, Text: "stopped", Error: reason})
}

func (a *Activity) Received(sender, text string) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Counters.Received++
	a.push(Event{Kind: EventReceived, Peer: sender, Text: text})
}

func (a *Activity) Replied(sender, text string) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Counters.Replied++
	a.push(Event{Kind: EventReplied, Peer: sender, Text: text})
}

func (a *Activity) ReplyFailed(sender string, err error) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Counters.ReplyFailures++
	a.status.LastError = err.Error()
	a.push(Event{Kind: EventReplyFailed, Peer: sender, Error: err.Error()})
}

func (a *Activity) Sent(target, text string) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Counters.Sent++
	a.push(Event{Kind: EventSent, Peer: target, Text: text})
}

func (a *Activity) SendFailed(target string, err error) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status.Counters.SendFailures++
	a.status.LastError = err.Error()
	a.push(Event{Kind: EventSendFailed, Peer: target, Error: err.Error()})
}

// Status returns a copy of the recorded state, newest event last.
func (a *Activity) Status() Status {
	if a == nil {
		return Status{}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	snap := a.status
	snap.Recent = cloneEvents(a.status.Recent)
	return snap
}

// push must be called with mu held.
func (a *Activity) push(e Event) {
	e.Time = a.now()
	a.status.Recent = append(a.status.Recent, e)
	if over := len(a.status.Recent) - a.limit; over > 0 {
		a.status.Recent = append(a.status.Recent[:0:0], a.status.Recent[over:]...)
	}
}

func cloneEvents(events []Event) []Event {
	if len(events) == 0 {
		return nil
	}
	dup := make([]Event, len(events))
	copy(dup, events)
	return dup
}
