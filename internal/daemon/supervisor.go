package daemon

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/five82/courier/internal/envelope"
	"github.com/five82/courier/internal/executor"
	"github.com/five82/courier/internal/logtail"
	"github.com/five82/courier/internal/metrics"
	"github.com/five82/courier/internal/state"
)

// ExitDaemonFailure is the process exit code used when signal-cli dies. It is
// distinct from ordinary failures so a service manager can restart the unit.
const ExitDaemonFailure = 4

const defaultCLIPath = "/signal-cli/bin/signal-cli"

// Handler receives every completed envelope, in stream order, on the read
// loop goroutine.
type Handler interface {
	OnEnvelope(ctx context.Context, env envelope.Envelope) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, env envelope.Envelope) error

func (f HandlerFunc) OnEnvelope(ctx context.Context, env envelope.Envelope) error {
	return f(ctx, env)
}

// Config names the signal-cli installation and account to run.
type Config struct {
	CLIPath    string
	ConfigPath string
	Account    string
}

// Args returns the daemon argv (without the binary).
func (c Config) Args() []string {
	return []string{"--config", c.ConfigPath, "-u", c.Account, "daemon", "--system"}
}

// Options configures a Supervisor. Exec, Config and Handler are required.
type Options struct {
	Exec     executor.Executor
	Config   Config
	Handler  Handler
	Activity *state.Activity
	Metrics  *metrics.Metrics
	Output   *logtail.Ring
	Logger   *slog.Logger
	// Exit terminates the host process. Defaults to os.Exit.
	Exit func(code int)
}

// Supervisor owns the signal-cli daemon and its output stream.
type Supervisor struct {
	exec     executor.Executor
	cfg      Config
	handler  Handler
	activity *state.Activity
	metrics  *metrics.Metrics
	output   *logtail.Ring
	logger   *slog.Logger
	exit     func(int)

	assembler envelope.Assembler

	startOnce sync.Once
	pid       int
	done      chan struct{}
}

// New validates opts and returns a Supervisor that has not been started.
func New(opts Options) (*Supervisor, error) {
	if opts.Exec == nil {
		return nil, errors.New("daemon requires an executor")
	}
	if opts.Handler == nil {
		return nil, errors.New("daemon requires an envelope handler")
	}
	if strings.TrimSpace(opts.Config.Account) == "" {
		return nil, errors.New("daemon requires an account number")
	}
	if strings.TrimSpace(opts.Config.ConfigPath) == "" {
		return nil, errors.New("daemon requires a signal-cli config path")
	}
	cfg := opts.Config
	if strings.TrimSpace(cfg.CLIPath) == "" {
		cfg.CLIPath = defaultCLIPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exit := opts.Exit
	if exit == nil {
		exit = os.Exit
	}
	return &Supervisor{
		exec:     opts.Exec,
		cfg:      cfg,
		handler:  opts.Handler,
		activity: opts.Activity,
		metrics:  opts.Metrics,
		output:   opts.Output,
		logger:   logger.With("component", "daemon"),
		exit:     exit,
		done:     make(chan struct{}),
	}, nil
}

// Start launches signal-cli and the read loop. It returns once the process is
// running; the loop lives until the daemon dies. Cancelling ctx stops the
// daemon as a normal shutdown rather than a failure.
func (s *Supervisor) Start(ctx context.Context) error {
	err := errors.New("daemon already started")
	s.startOnce.Do(func() {
		var proc executor.Process
		proc, err = s.exec.Start(ctx, s.cfg.CLIPath, s.cfg.Args()...)
		if err != nil {
			err = fmt.Errorf("start signal-cli: %w", err)
			close(s.done)
			return
		}
		s.pid = proc.PID()
		s.activity.DaemonStarted(s.pid)
		s.metrics.SetDaemonUp(true)
		s.logger.Info("listening to incoming messages", "pid", s.pid, "account", s.cfg.Account)
		go s.readLoop(ctx, proc)
	})
	return err
}

// PID returns the daemon's process id, or 0 before Start.
func (s *Supervisor) PID() int { return s.pid }

// Done is closed when the read loop has returned.
func (s *Supervisor) Done() <-chan struct{} { return s.done }

// Output returns the most recent daemon output lines.
func (s *Supervisor) Output() []string { return s.output.Lines() }

func (s *Supervisor) readLoop(ctx context.Context, proc executor.Process) {
	defer close(s.done)

	reader := bufio.NewReader(proc.Stdout())
	for {
		line, err := logtail.ReadLine(reader)
		if err != nil || proc.Exited() {
			s.terminated(ctx, proc, reader, line, err)
			return
		}

		s.output.Add(line)
		s.logger.Debug(fmt.Sprintf("receiving new line %q", line))
		s.assembler.Consume(line)
		if env, ok := s.assembler.Take(); ok {
			// The handler logs its own failures; one bad reply must not
			// stop ingestion.
			_ = s.handler.OnEnvelope(ctx, env)
		}
	}
}

func (s *Supervisor) terminated(ctx context.Context, proc executor.Process, reader *bufio.Reader, last string, readErr error) {
	s.metrics.SetDaemonUp(false)

	if ctx.Err() != nil {
		s.logger.Info("signal-cli stopped on shutdown")
		s.activity.DaemonStopped("shutdown")
		return
	}

	s.logger.Error("signal has been terminated, check the logs for more information")
	record := func(l string) {
		s.output.Add(l)
		s.logger.Info(l)
	}
	if last != "" {
		record(last)
	}
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		s.logger.Error("daemon stream failed", "error", readErr)
	}
	if err := logtail.Drain(reader, record); err != nil {
		s.logger.Error("drain daemon output", "error", err)
	}

	reason := "signal-cli output closed"
	if proc.Exited() {
		reason = "signal-cli exited"
		if err := proc.Wait(); err != nil {
			reason = fmt.Sprintf("signal-cli exited: %v", err)
		}
	}
	s.logger.Error("signal logs printed", "reason", reason, "exit_code", ExitDaemonFailure)
	s.activity.DaemonStopped(reason)
	s.exit(ExitDaemonFailure)
}
