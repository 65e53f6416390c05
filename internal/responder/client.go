// Package responder asks a remote service for reply text over WebSocket.
//
// Each Generate call opens one connection, sends
//
//	{"type":"message","content":"<inbound text>"}
//
// and waits for {"type":"response","content":"..."} or
// {"type":"error","error":"..."}. Frames of any other type (progress, typing
// notices) are skipped. The connection is closed after the answer.
package responder

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const defaultHandshakeTimeout = 10 * time.Second

// Frame is the JSON envelope exchanged with the responder.
type Frame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Frame types.
const (
	FrameMessage  = "message"
	FrameResponse = "response"
	FrameError    = "error"
)

// Config configures a Client.
type Config struct {
	// URL of the responder, ws://, wss://, http:// or https://.
	URL string
	// Token is sent as a bearer token when set.
	Token string
	// HandshakeTimeout bounds the WebSocket upgrade (default 10s).
	HandshakeTimeout time.Duration
}

// Client implements dispatch.Generator.
type Client struct {
	url    string
	header http.Header
	dialer websocket.Dialer
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	wsURL, err := normalizeURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	header := http.Header{}
	if cfg.Token != "" {
		header.Set("Authorization", "Bearer "+cfg.Token)
	}
	timeout := cfg.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	return &Client{
		url:    wsURL,
		header: header,
		dialer: websocket.Dialer{HandshakeTimeout: timeout},
	}, nil
}

// Generate sends message and returns the responder's answer.
func (c *Client) Generate(ctx context.Context, message string) (string, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.url, c.header)
	if err != nil {
		return "", fmt.Errorf("dial responder: %w", err)
	}
	defer conn.Close()

	// Unblock a pending read when the context ends first.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
		_ = conn.SetReadDeadline(deadline)
	}

	if err := conn.WriteJSON(Frame{Type: FrameMessage, Content: message}); err != nil {
		return "", wrapCtx(ctx, fmt.Errorf("write request: %w", err))
	}

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			return "", wrapCtx(ctx, fmt.Errorf("read response: %w", err))
		}
		switch frame.Type {
		case FrameResponse:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return frame.Content, nil
		case FrameError:
			return "", fmt.Errorf("responder error: %s", frame.Error)
		}
	}
}

// wrapCtx prefers the context error once the context has ended, since the
// socket error is only a side effect of closing it.
func wrapCtx(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%v)", ctxErr, err)
	}
	// The socket deadline can fire a moment before the context timer does.
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return fmt.Errorf("%w (%v)", context.DeadlineExceeded, err)
	}
	return err
}

func normalizeURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("responder url is empty")
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse responder url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("responder url %q: unsupported scheme %q", raw, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("responder url %q: missing host", raw)
	}
	return u.String(), nil
}
