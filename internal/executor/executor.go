package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// Executor runs external commands. Implementations must be safe for
// concurrent use: the daemon read loop and HTTP handlers share one instance.
type Executor interface {
	// Run executes name with args, waits for it to finish and returns stdout.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// Start launches a long-lived process whose stdout is read incrementally.
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

// Process is a running subprocess owned by a single reader.
type Process interface {
	Stdout() io.Reader
	Exited() bool
	PID() int
	Wait() error
}

// Ensure OS implements Executor at compile time.
var _ Executor = OS{}

// OS executes commands with os/exec. Arguments are passed as an argv list,
// never through a shell.
type OS struct{}

// Run executes the command and returns its standard output. Stderr is folded
// into the returned error when the command fails.
func (OS) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("run %s: %w: %s", name, err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("run %s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// Start launches the command with stdout piped. Stderr is merged into the
// same pipe so that daemon diagnostics surface in the read loop.
func (OS) Start(ctx context.Context, name string, args ...string) (Process, error) {
	// A plain os.Pipe rather than cmd.StdoutPipe: Wait must not close the
	// read end, or output still buffered at exit could not be drained.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	if err := cmd.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	_ = pw.Close()
	p := &osProcess{cmd: cmd, stdout: pr, done: make(chan struct{})}
	go p.reap()
	return p, nil
}

type osProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader

	done    chan struct{}
	mu      sync.Mutex
	waitErr error
}

func (p *osProcess) reap() {
	err := p.cmd.Wait()
	p.mu.Lock()
	p.waitErr = err
	p.mu.Unlock()
	close(p.done)
}

func (p *osProcess) Stdout() io.Reader { return p.stdout }

func (p *osProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *osProcess) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *osProcess) Wait() error {
	<-p.done
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waitErr
}
