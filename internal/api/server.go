package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/five82/courier/internal/metrics"
	"github.com/five82/courier/internal/state"
)

const (
	maxUploadBytes  = 64 << 20
	shutdownTimeout = 5 * time.Second
)

// Bridge is the slice of the bridge service the API needs.
type Bridge interface {
	SendToNumber(ctx context.Context, number, text, attachment string) error
	SendToGroup(ctx context.Context, hexID, text, attachment string) error
	ListGroups(ctx context.Context) (map[string]string, error)
	Status() state.Status
}

// Options configures a Server.
type Options struct {
	Bridge  Bridge
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	// TempDir receives staged attachments; empty uses os.TempDir.
	TempDir string
}

// Server exposes the bridge over HTTP.
type Server struct {
	bridge  Bridge
	metrics *metrics.Metrics
	logger  *slog.Logger
	tempDir string
	router  chi.Router
}

// NewServer builds the router.
func NewServer(opts Options) (*Server, error) {
	if opts.Bridge == nil {
		return nil, errors.New("api requires a bridge")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		bridge:  opts.Bridge,
		metrics: opts.Metrics,
		logger:  logger.With("component", "api"),
		tempDir: opts.TempDir,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/group", s.handleGroups)
	r.Post("/message", s.handleMessage)

	// Home Assistant signal_messenger integration.
	r.Post("/v1/send", s.handleIntegrationSend)

	r.Get("/api/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http api: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http api shutdown: %w", err)
		}
		return nil
	}
}
