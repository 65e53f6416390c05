package state

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func fixedActivity(limit int) *Activity {
	a := NewActivity("+4900", limit)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a.now = func() time.Time { return at }
	return a
}

func TestActivity_CountersAndEvents(t *testing.T) {
	a := fixedActivity(10)

	a.DaemonStarted(77)
	a.Received("+1", "hello")
	a.Replied("+1", "hi")
	a.ReplyFailed("+2", errors.New("responder timeout"))
	a.Sent("abcd", "news")
	a.SendFailed("+3", errors.New("exit status 1"))

	st := a.Status()
	if !st.Running || st.PID != 77 || st.Account != "+4900" {
		t.Fatalf("status = %+v, want running pid 77 account +4900", st)
	}
	want := Counters{Received: 1, Replied: 1, ReplyFailures: 1, Sent: 1, SendFailures: 1}
	if st.Counters != want {
		t.Fatalf("counters = %+v, want %+v", st.Counters, want)
	}
	if st.LastError != "exit status 1" {
		t.Fatalf("LastError = %q, want last failure", st.LastError)
	}
	if len(st.Recent) != 6 {
		t.Fatalf("len(Recent) = %d, want 6", len(st.Recent))
	}
	if !st.Recent[3].Failed() || st.Recent[1].Failed() {
		t.Fatalf("Failed() misclassified events: %+v", st.Recent)
	}
}

func TestActivity_RecentIsBounded(t *testing.T) {
	a := fixedActivity(3)
	for i := 0; i < 5; i++ {
		a.Received(fmt.Sprintf("+%d", i), "m")
	}
	st := a.Status()
	if len(st.Recent) != 3 {
		t.Fatalf("len(Recent) = %d, want 3", len(st.Recent))
	}
	if st.Recent[0].Peer != "+2" || st.Recent[2].Peer != "+4" {
		t.Fatalf("Recent = %+v, want +2..+4", st.Recent)
	}
	if st.Counters.Received != 5 {
		t.Fatalf("Received = %d, want 5", st.Counters.Received)
	}
}

func TestActivity_DaemonStopped(t *testing.T) {
	a := fixedActivity(5)
	a.DaemonStarted(1)
	a.DaemonStopped("signal-cli exited")
	st := a.Status()
	if st.Running {
		t.Fatal("Running = true after DaemonStopped")
	}
	if st.LastError != "signal-cli exited" {
		t.Fatalf("LastError = %q", st.LastError)
	}
}

func TestActivity_NilSafe(t *testing.T) {
	var a *Activity
	a.Received("+1", "x")
	a.SendFailed("+1", errors.New("x"))
	if st := a.Status(); st.Running || len(st.Recent) != 0 {
		t.Fatalf("nil Activity status = %+v, want zero", st)
	}
}

func TestActivity_ConcurrentWriters(t *testing.T) {
	a := NewActivity("", 0)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				a.Sent("+1", "x")
				_ = a.Status()
			}
		}()
	}
	wg.Wait()
	if got := a.Status().Counters.Sent; got != 800 {
		t.Fatalf("Sent = %d, want 800", got)
	}
	if got := len(a.Status().Recent); got != defaultActivityLimit {
		t.Fatalf("len(Recent) = %d, want %d", got, defaultActivityLimit)
	}
}
