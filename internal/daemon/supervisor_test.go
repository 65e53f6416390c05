package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/courier/internal/envelope"
	"github.com/five82/courier/internal/logtail"
	"github.com/five82/courier/internal/state"
	"github.com/five82/courier/internal/testutil"
)

type recorder struct {
	mu        sync.Mutex
	envelopes []envelope.Envelope
	seen      chan struct{}
	fail      bool
}

func newRecorder() *recorder { return &recorder{seen: make(chan struct{}, 16)} }

func (r *recorder) OnEnvelope(_ context.Context, env envelope.Envelope) error {
	r.mu.Lock()
	r.envelopes = append(r.envelopes, env)
	r.mu.Unlock()
	r.seen <- struct{}{}
	if r.fail {
		return errors.New("reply failed")
	}
	return nil
}

func (r *recorder) all() []envelope.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]envelope.Envelope(nil), r.envelopes...)
}

type harness struct {
	sup      *Supervisor
	exec     *testutil.FakeExecutor
	proc     *testutil.FakeProcess
	handler  *recorder
	activity *state.Activity
	exits    chan int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		proc:     testutil.NewFakeProcess(31337),
		handler:  newRecorder(),
		activity: state.NewActivity("+4900", 10),
		exits:    make(chan int, 1),
	}
	h.exec = &testutil.FakeExecutor{Process: h.proc}
	sup, err := New(Options{
		Exec:     h.exec,
		Config:   Config{CLIPath: "/opt/signal-cli", ConfigPath: "/data", Account: "+4900"},
		Handler:  h.handler,
		Activity: h.activity,
		Output:   logtail.NewRing(20),
		Exit:     func(code int) { h.exits <- code },
	})
	require.NoError(t, err)
	h.sup = sup
	return h
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for read loop")
	}
}

func TestSupervisor_StartsDaemonWithArgs(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sup.Start(context.Background()))

	started := h.exec.Started()
	require.Len(t, started, 1)
	assert.Equal(t, "/opt/signal-cli", started[0].Name)
	assert.Equal(t, []string{"--config", "/data", "-u", "+4900", "daemon", "--system"}, started[0].Args)
	assert.Equal(t, 31337, h.sup.PID())
	assert.True(t, h.activity.Status().Running)

	assert.Error(t, h.sup.Start(context.Background()), "second start must fail")
	h.proc.Exit()
	waitClosed(t, h.sup.Done())
}

func TestSupervisor_DispatchesEnvelopesInOrder(t *testing.T) {
	h := newHarness(t)
	h.handler.fail = true
	require.NoError(t, h.sup.Start(context.Background()))

	h.proc.WriteLines(
		"INFO  DaemonCommand - Exported dbus object: /org/asamk/Signal",
		"Envelope from: “S” S1 (device: 1)",
		"Body: hello",
		"",
		"Envelope from: +2 (device: 1)",
		"Body: second",
		"",
	)
	for i := 0; i < 2; i++ {
		select {
		case <-h.handler.seen:
		case <-time.After(5 * time.Second):
			t.Fatal("envelope not dispatched")
		}
	}

	got := h.handler.all()
	require.Len(t, got, 2)
	assert.Equal(t, envelope.Envelope{Sender: "S1", Message: "hello"}, got[0])
	assert.Equal(t, envelope.Envelope{Sender: "+2", Message: "second"}, got[1])

	assert.Contains(t, h.sup.Output(), "Body: hello")

	h.proc.Exit()
	waitClosed(t, h.sup.Done())
}

func TestSupervisor_DaemonDeathIsFatal(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.sup.Start(context.Background()))

	h.proc.WriteLines("Envelope from: +1 (device: 1)", "Body: half")
	h.proc.Exit(
		"Exception in thread \"main\" org.freedesktop.dbus.exceptions.DBusException",
		"\tat org.asamk.signal.Main.main(Main.java:42)",
		"",
	)

	select {
	case code := <-h.exits:
		assert.Equal(t, ExitDaemonFailure, code)
	case <-time.After(5 * time.Second):
		t.Fatal("exit not requested")
	}
	waitClosed(t, h.sup.Done())

	assert.Empty(t, h.handler.all(), "partial envelope must not be dispatched")
	out := h.sup.Output()
	assert.Contains(t, out, "\tat org.asamk.signal.Main.main(Main.java:42)")
	st := h.activity.Status()
	assert.False(t, st.Running)
	assert.Equal(t, "signal-cli exited", st.LastError)
}

func TestSupervisor_ShutdownIsNotFatal(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, h.sup.Start(ctx))

	cancel()
	h.proc.Exit("killed")
	waitClosed(t, h.sup.Done())

	select {
	case code := <-h.exits:
		t.Fatalf("exit(%d) called on shutdown", code)
	default:
	}
}

func TestSupervisor_StartFailure(t *testing.T) {
	h := newHarness(t)
	h.exec.StartErr = errors.New("no such file")
	err := h.sup.Start(context.Background())
	require.ErrorContains(t, err, "no such file")
	waitClosed(t, h.sup.Done())
}

func TestNew_Validation(t *testing.T) {
	handler := HandlerFunc(func(context.Context, envelope.Envelope) error { return nil })
	exec := &testutil.FakeExecutor{}

	_, err := New(Options{Config: Config{Account: "+1", ConfigPath: "/c"}, Handler: handler})
	assert.Error(t, err)
	_, err = New(Options{Exec: exec, Config: Config{Account: "+1", ConfigPath: "/c"}})
	assert.Error(t, err)
	_, err = New(Options{Exec: exec, Handler: handler, Config: Config{ConfigPath: "/c"}})
	assert.Error(t, err)
	_, err = New(Options{Exec: exec, Handler: handler, Config: Config{Account: "+1"}})
	assert.Error(t, err)

	sup, err := New(Options{Exec: exec, Handler: handler, Config: Config{Account: "+1", ConfigPath: "/c"}})
	require.NoError(t, err)
	assert.Equal(t, defaultCLIPath, sup.cfg.CLIPath)
}
