// Package bridge is the service object shared by the daemon read loop and
// the HTTP API.
//
// It is built once at startup and passed explicitly to whoever needs it.
// Outbound sends and directory lookups go straight to dbus-send through the
// shared executor; inbound envelopes flow daemon → dispatch → dbus.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/courier/internal/daemon"
	"github.com/five82/courier/internal/dbus"
	"github.com/five82/courier/internal/dispatch"
	"github.com/five82/courier/internal/executor"
	"github.com/five82/courier/internal/logtail"
	"github.com/five82/courier/internal/metrics"
	"github.com/five82/courier/internal/state"
)

const defaultOutputLines = 200

// Options configures a Service.
type Options struct {
	Exec         executor.Executor
	Daemon       daemon.Config
	Encoder      dbus.Encoder
	Generator    dispatch.Generator
	ReplyTimeout time.Duration
	OutputLines  int
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	// Exit is forwarded to the supervisor; tests replace os.Exit here.
	Exit func(code int)
}

// Service wires the supervisor, dispatcher and sender together.
type Service struct {
	sender     *dbus.Sender
	supervisor *daemon.Supervisor
	activity   *state.Activity
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New builds a Service. The daemon is not started until Start.
func New(opts Options) (*Service, error) {
	if opts.Exec == nil {
		return nil, errors.New("bridge requires an executor")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	lines := opts.OutputLines
	if lines <= 0 {
		lines = defaultOutputLines
	}

	activity := state.NewActivity(opts.Daemon.Account, 0)
	sender := dbus.NewSender(opts.Exec,
		dbus.WithEncoder(opts.Encoder),
		dbus.WithLogger(logger.With("component", "dbus")),
	)

	dispatcher, err := dispatch.New(dispatch.Options{
		Generator: opts.Generator,
		Sender:    sender,
		Activity:  activity,
		Metrics:   opts.Metrics,
		Logger:    logger,
		Timeout:   opts.ReplyTimeout,
	})
	if err != nil {
		return nil, err
	}

	supervisor, err := daemon.New(daemon.Options{
		Exec:     opts.Exec,
		Config:   opts.Daemon,
		Handler:  dispatcher,
		Activity: activity,
		Metrics:  opts.Metrics,
		Output:   logtail.NewRing(lines),
		Logger:   logger,
		Exit:     opts.Exit,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		sender:     sender,
		supervisor: supervisor,
		activity:   activity,
		metrics:    opts.Metrics,
		logger:     logger,
	}, nil
}

// Start launches the daemon and its read loop.
func (s *Service) Start(ctx context.Context) error {
	return s.supervisor.Start(ctx)
}

// Done is closed when the daemon read loop has ended.
func (s *Service) Done() <-chan struct{} {
	return s.supervisor.Done()
}

// SendToNumber sends text and an optional local attachment to a number.
func (s *Service) SendToNumber(ctx context.Context, number, text, attachment string) error {
	err := s.sender.SendToNumber(ctx, number, text, attachment)
	s.record("number", number, text, err)
	return err
}

// SendToGroup sends text and an optional local attachment to a group hex id.
func (s *Service) SendToGroup(ctx context.Context, hexID, text, attachment string) error {
	err := s.sender.SendToGroup(ctx, hexID, text, attachment)
	s.record("group", hexID, text, err)
	return err
}

// ListGroups resolves the account's groups as name → hex id.
func (s *Service) ListGroups(ctx context.Context) (map[string]string, error) {
	groups, err := s.sender.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// Status reports daemon state, counters, recent activity and daemon output.
func (s *Service) Status() state.Status {
	st := s.activity.Status()
	st.DaemonOutput = s.supervisor.Output()
	return st
}

func (s *Service) record(kind, target, text string, err error) {
	s.metrics.ObserveSend(kind, err)
	if err != nil {
		s.activity.SendFailed(target, err)
		s.logger.Error("send failed", "target", target, "kind", kind, "error", err)
		return
	}
	s.activity.Sent(target, text)
}
