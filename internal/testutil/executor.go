// Package testutil provides test doubles shared by courier's package tests.
package testutil

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/five82/courier/internal/executor"
)

// Call records a single Run or Start invocation.
type Call struct {
	Name string
	Args []string
}

// Method returns the signal-cli method named in a dbus-send call, or "".
func (c Call) Method() string {
	for _, a := range c.Args {
		if m, ok := strings.CutPrefix(a, "org.asamk.Signal."); ok {
			return m
		}
	}
	return ""
}

// Arg returns the first argument carrying prefix, with the prefix removed.
func (c Call) Arg(prefix string) (string, bool) {
	for _, a := range c.Args {
		if v, ok := strings.CutPrefix(a, prefix); ok {
			return v, true
		}
	}
	return "", false
}

// FakeExecutor is a scripted executor.Executor.
type FakeExecutor struct {
	// Respond produces the output of a Run call. Nil means empty output.
	Respond func(call Call) ([]byte, error)
	// Process is returned from Start. Nil makes Start create a fresh one.
	Process  *FakeProcess
	StartErr error

	mu      sync.Mutex
	calls   []Call
	started []Call
}

var _ executor.Executor = (*FakeExecutor)(nil)

// Run records the call and returns the scripted response.
func (f *FakeExecutor) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	call := Call{Name: name, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	respond := f.Respond
	f.mu.Unlock()
	if respond == nil {
		return nil, nil
	}
	return respond(call)
}

// Start records the launch and hands back the fake process.
func (f *FakeExecutor) Start(_ context.Context, name string, args ...string) (executor.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, Call{Name: name, Args: append([]string(nil), args...)})
	if f.StartErr != nil {
		return nil, f.StartErr
	}
	if f.Process == nil {
		f.Process = NewFakeProcess(4242)
	}
	return f.Process, nil
}

// Calls returns a copy of every Run call so far.
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Started returns a copy of every Start call so far.
func (f *FakeExecutor) Started() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.started...)
}

// FakeProcess is a daemon whose stdout is fed by the test. Reads block until
// lines are written or the stream is closed.
type FakeProcess struct {
	pid int

	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	closed bool
	exited bool
}

var _ executor.Process = (*FakeProcess)(nil)

// NewFakeProcess returns a running fake with the given pid.
func NewFakeProcess(pid int) *FakeProcess {
	p := &FakeProcess{pid: pid}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// WriteLines appends newline-terminated lines to stdout.
func (p *FakeProcess) WriteLines(lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range lines {
		p.buf = append(p.buf, l...)
		p.buf = append(p.buf, '\n')
	}
	p.cond.Broadcast()
}

// Exit marks the process dead, leaves trailing output buffered and closes
// the stream once that output is read.
func (p *FakeProcess) Exit(trailing ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range trailing {
		p.buf = append(p.buf, l...)
		p.buf = append(p.buf, '\n')
	}
	p.exited = true
	p.closed = true
	p.cond.Broadcast()
}

func (p *FakeProcess) Stdout() io.Reader { return p }

// Read implements io.Reader over the scripted output.
func (p *FakeProcess) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.buf) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(b, p.buf)
	p.buf = p.buf[n:]
	return n, nil
}

func (p *FakeProcess) Exited() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exited
}

func (p *FakeProcess) PID() int { return p.pid }

func (p *FakeProcess) Wait() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for !p.exited {
		p.cond.Wait()
	}
	return nil
}
