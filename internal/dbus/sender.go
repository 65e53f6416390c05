package dbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/five82/courier/internal/executor"
)

// Sender issues signal-cli bus calls through an Executor.
type Sender struct {
	exec    executor.Executor
	encoder Encoder
	logger  *slog.Logger
}

// SenderOption customises a Sender.
type SenderOption func(*Sender)

// WithEncoder overrides the default dbus-send encoder.
func WithEncoder(enc Encoder) SenderOption {
	return func(s *Sender) { s.encoder = enc }
}

// WithLogger sets the logger used for send and lookup events.
func WithLogger(logger *slog.Logger) SenderOption {
	return func(s *Sender) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSender builds a Sender around exec.
func NewSender(exec executor.Executor, opts ...SenderOption) *Sender {
	s := &Sender{exec: exec, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SendToNumber delivers text (and an optional attachment path) to a phone number.
func (s *Sender) SendToNumber(ctx context.Context, number, text, attachment string) error {
	s.logSend(text, attachment, number)
	return s.run(ctx, s.encoder.EncodeNumberSend(number, text, attachment))
}

// SendToGroup delivers text to a group. A malformed id fails before any call.
func (s *Sender) SendToGroup(ctx context.Context, hexID, text, attachment string) error {
	call, err := s.encoder.EncodeGroupSend(hexID, text, attachment)
	if err != nil {
		return err
	}
	s.logSend(text, attachment, hexID)
	return s.run(ctx, call)
}

func (s *Sender) run(ctx context.Context, call CallSpec) error {
	out, err := s.exec.Run(ctx, call.Name, call.Args...)
	if err != nil {
		return fmt.Errorf("dbus call: %w", err)
	}
	s.logger.Debug("dbus reply", "method", call.Method, "output", string(out))
	return nil
}

func (s *Sender) logSend(text, attachment, target string) {
	msg := fmt.Sprintf("Sending %q to %s", text, target)
	if attachment != "" {
		msg += " with attachment " + attachment
	}
	s.logger.Info(msg)
}
