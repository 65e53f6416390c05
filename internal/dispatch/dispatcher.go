// Package dispatch answers inbound envelopes.
//
// For every envelope the Dispatcher asks a Generator for a reply and sends
// it back to the sender's number. It runs on the daemon read loop, so one
// slow reply delays the next envelope; that ordering is intentional. Errors
// are logged and recorded, never retried, and never stop the loop.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/courier/internal/envelope"
	"github.com/five82/courier/internal/metrics"
	"github.com/five82/courier/internal/state"
)

const defaultReplyTimeout = 30 * time.Second

// Generator produces the reply text for an inbound message.
type Generator interface {
	Generate(ctx context.Context, message string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, message string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

// NumberSender delivers text to a phone number.
type NumberSender interface {
	SendToNumber(ctx context.Context, number, text, attachment string) error
}

// Options configures a Dispatcher. Only Generator and Sender are required.
type Options struct {
	Generator Generator
	Sender    NumberSender
	Activity  *state.Activity
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Timeout   time.Duration
}

// Dispatcher turns envelopes into replies.
type Dispatcher struct {
	generator Generator
	sender    NumberSender
	activity  *state.Activity
	metrics   *metrics.Metrics
	logger    *slog.Logger
	timeout   time.Duration
}

// New validates opts and returns a Dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Generator == nil {
		return nil, fmt.Errorf("dispatch requires a generator")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("dispatch requires a sender")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultReplyTimeout
	}
	return &Dispatcher{
		generator: opts.Generator,
		sender:    opts.Sender,
		activity:  opts.Activity,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "dispatch"),
		timeout:   timeout,
	}, nil
}

// OnEnvelope generates and sends the reply for env. The returned error is
// informational; callers keep processing subsequent envelopes either way.
func (d *Dispatcher) OnEnvelope(ctx context.Context, env envelope.Envelope) error {
	start := time.Now()
	d.activity.Received(env.Sender, env.Message)
	d.metrics.ObserveEnvelope()
	d.logger.Info("envelope received", "sender", env.Sender, "length", len(env.Message))

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	reply, err := d.generator.Generate(ctx, env.Message)
	if err != nil {
		err = fmt.Errorf("generate reply: %w", err)
		d.fail(env.Sender, metrics.ReplyGenerateFailed, start, err)
		return err
	}

	if err := d.sender.SendToNumber(ctx, env.Sender, reply, ""); err != nil {
		err = fmt.Errorf("send reply: %w", err)
		d.fail(env.Sender, metrics.ReplySendFailed, start, err)
		return err
	}

	d.activity.Replied(env.Sender, reply)
	d.metrics.ObserveReply(metrics.ReplySent, time.Since(start))
	d.logger.Debug("reply sent", "sender", env.Sender, "elapsed", time.Since(start))
	return nil
}

func (d *Dispatcher) fail(sender, status string, start time.Time, err error) {
	d.activity.ReplyFailed(sender, err)
	d.metrics.ObserveReply(status, time.Since(start))
	d.logger.Error("reply failed", "sender", sender, "error", err)
}
