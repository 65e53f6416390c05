package responder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResponder(t *testing.T, handle func(conn *websocket.Conn, req Frame)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var req Frame
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		handle(conn, req)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Generate(t *testing.T) {
	server := newResponder(t, func(conn *websocket.Conn, req Frame) {
		_ = conn.WriteJSON(Frame{Type: "typing"})
		_ = conn.WriteJSON(Frame{Type: FrameResponse, Content: "echo: " + req.Content})
	})

	client, err := New(Config{URL: server.URL})
	require.NoError(t, err)

	got, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", got)
}

func TestClient_ErrorFrame(t *testing.T) {
	server := newResponder(t, func(conn *websocket.Conn, _ Frame) {
		_ = conn.WriteJSON(Frame{Type: FrameError, Error: "model overloaded"})
	})
	client, err := New(Config{URL: server.URL})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "hello")
	assert.ErrorContains(t, err, "model overloaded")
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var req Frame
		_ = conn.ReadJSON(&req)
		_ = conn.WriteJSON(Frame{Type: FrameResponse, Content: "ok"})
	}))
	defer server.Close()

	client, err := New(Config{URL: server.URL, Token: "s3cret"})
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", gotAuth)
}

func TestClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := newResponder(t, func(*websocket.Conn, Frame) { <-release })
	defer close(release)

	client, err := New(Config{URL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Generate(ctx, "slow")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr string
	}{
		{in: "ws://host:1/chat", want: "ws://host:1/chat"},
		{in: "http://host/ws", want: "ws://host/ws"},
		{in: "https://host/ws", want: "wss://host/ws"},
		{in: "", wantErr: "empty"},
		{in: "ftp://host", wantErr: "unsupported scheme"},
		{in: "ws://", wantErr: "missing host"},
	}
	for _, tt := range tests {
		got, err := normalizeURL(tt.in)
		if tt.wantErr != "" {
			require.Error(t, err, tt.in)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "%q: %v", tt.in, err)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
