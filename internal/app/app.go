package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/courier/internal/api"
	"github.com/five82/courier/internal/bridge"
	"github.com/five82/courier/internal/client"
	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/daemon"
	"github.com/five82/courier/internal/dbus"
	"github.com/five82/courier/internal/executor"
	"github.com/five82/courier/internal/metrics"
	"github.com/five82/courier/internal/prefs"
	"github.com/five82/courier/internal/responder"
	"github.com/five82/courier/internal/state"
	"github.com/five82/courier/internal/ui"
)

// ServeOptions configure the bridge process.
type ServeOptions struct {
	Config config.Config
	Logger *slog.Logger
	// Exec defaults to executor.OS.
	Exec executor.Executor
	// Exit defaults to os.Exit; the supervisor calls it when signal-cli dies.
	Exit func(code int)
}

// Serve starts signal-cli, the reply pipeline and the HTTP API, and blocks
// until ctx is cancelled or the API fails.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exec := opts.Exec
	if exec == nil {
		exec = executor.OS{}
	}

	generator, err := responder.New(responder.Config{
		URL:   cfg.ResponderURL,
		Token: cfg.ResponderToken,
	})
	if err != nil {
		return fmt.Errorf("init responder: %w", err)
	}

	m := metrics.New()
	svc, err := bridge.New(bridge.Options{
		Exec: exec,
		Daemon: daemon.Config{
			CLIPath:    cfg.SignalCLIPath,
			ConfigPath: cfg.SignalConfigPath,
			Account:    cfg.PhoneNumber,
		},
		Encoder:      dbus.Encoder{Binary: cfg.DBusSendPath},
		Generator:    generator,
		ReplyTimeout: cfg.ResponderTimeout,
		Metrics:      m,
		Logger:       logger,
		Exit:         opts.Exit,
	})
	if err != nil {
		return fmt.Errorf("init bridge: %w", err)
	}

	server, err := api.NewServer(api.Options{Bridge: svc, Metrics: m, Logger: logger})
	if err != nil {
		return fmt.Errorf("init api: %w", err)
	}

	logger.Info("Init", "account", cfg.PhoneNumber, "signal_cli", cfg.SignalCLIPath)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start signal-cli: %w", err)
	}
	return server.ListenAndServe(ctx, cfg.APIBind)
}

// WatchOptions configure the monitor TUI.
type WatchOptions struct {
	APIAddress string
	PrefsPath  string // empty uses default ~/.config/courier/prefs.toml
	PollEvery  time.Duration
}

// Watch runs the monitor TUI against a running courier until the user quits
// or ctx is cancelled.
func Watch(ctx context.Context, opts WatchOptions) error {
	c, err := client.NewClient(opts.APIAddress)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	userPrefs := prefs.Load(opts.PrefsPath)
	store := &state.Store{}

	interval := opts.PollEvery
	if interval <= 0 {
		interval = defaultPollInterval
	}

	// Initial refresh so the first frame is not empty.
	poller := NewPoller(store, c, interval)
	poller.Refresh(ctx)
	go poller.Run(ctx)

	return ui.Run(ui.Options{
		Context:   ctx,
		Store:     store,
		Address:   opts.APIAddress,
		PollTick:  interval,
		ThemeName: userPrefs.Theme,
		Filter:    userPrefs.Filter,
		PrefsPath: opts.PrefsPath,
	})
}

// Groups fetches the group directory from a running courier.
func Groups(ctx context.Context, apiAddress string) (map[string]string, error) {
	c, err := client.NewClient(apiAddress)
	if err != nil {
		return nil, fmt.Errorf("init api client: %w", err)
	}
	return c.FetchGroups(ctx)
}

// Send delivers msg through a running courier.
func Send(ctx context.Context, apiAddress string, msg client.Message) error {
	if msg.Content == "" && msg.Attachment == "" {
		return errors.New("message or attachment required")
	}
	c, err := client.NewClient(apiAddress)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}
	return c.SendMessage(ctx, msg)
}
