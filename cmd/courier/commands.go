package main

import (
	"fmt"
	"os"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/courier/internal/app"
	"github.com/five82/courier/internal/client"
	"github.com/five82/courier/internal/config"
	"github.com/five82/courier/internal/logging"
)

type rootFlags struct {
	configPath string
	apiAddress string
}

// newRootCmd builds the command tree. exit is handed to the daemon
// supervisor, which calls it with code 4 when signal-cli dies.
func newRootCmd(exit func(int)) *cobra.Command {
	flags := &rootFlags{}

	serve := newServeCmd(flags, exit)
	root := &cobra.Command{
		Use:   "courier",
		Short: "Signal to chat-responder bridge",
		Long: `courier runs signal-cli as a D-Bus daemon, answers every incoming
message through a websocket responder and exposes an HTTP API for
sending messages to numbers and groups.

Without a subcommand it runs "serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.config/courier/config.toml)")
	root.PersistentFlags().StringVar(&flags.apiAddress, "api", "", "API address for client commands (default from api_bind)")

	root.AddCommand(
		serve,
		newWatchCmd(flags),
		newGroupsCmd(flags),
		newSendCmd(flags),
	)
	return root
}

func newServeCmd(flags *rootFlags, exit func(int)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run signal-cli, the reply loop and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			logger := logging.New(os.Stderr, cfg.LogLevel)
			return app.Serve(cmd.Context(), app.ServeOptions{
				Config: cfg,
				Logger: logger,
				Exit:   exit,
			})
		},
	}
}

func newWatchCmd(flags *rootFlags) *cobra.Command {
	var poll time.Duration
	var prefsPath string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor a running courier in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := flags.resolveAPI()
			if err != nil {
				return err
			}
			return app.Watch(cmd.Context(), app.WatchOptions{
				APIAddress: addr,
				PrefsPath:  prefsPath,
				PollEvery:  poll,
			})
		},
	}
	cmd.Flags().DurationVar(&poll, "poll", 0, "refresh interval (default 2s)")
	cmd.Flags().StringVar(&prefsPath, "prefs", "", "preferences file (default ~/.config/courier/prefs.toml)")
	return cmd
}

func newGroupsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List the account's groups and their hex ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := flags.resolveAPI()
			if err != nil {
				return err
			}
			groups, err := app.Groups(cmd.Context(), addr)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(groups))
			for name := range groups {
				names = append(names, name)
			}
			slices.Sort(names)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tID")
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%s\n", name, groups[name])
			}
			return w.Flush()
		},
	}
}

func newSendCmd(flags *rootFlags) *cobra.Command {
	var msg client.Message
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message through a running courier",
		Example: `  courier send --number +15550001 --message "hello"
  courier send --group 6a0f...e21b --message "report" --attachment report.pdf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if msg.Number == "" && msg.Group == "" {
				return fmt.Errorf("one of --number or --group is required")
			}
			addr, err := flags.resolveAPI()
			if err != nil {
				return err
			}
			if err := app.Send(cmd.Context(), addr, msg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&msg.Number, "number", "", "recipient phone number")
	cmd.Flags().StringVar(&msg.Group, "group", "", "recipient group hex id")
	cmd.Flags().StringVarP(&msg.Content, "message", "m", "", "message text")
	cmd.Flags().StringVar(&msg.Attachment, "attachment", "", "file to attach")
	return cmd
}

// resolveAPI returns --api, or the address derived from the config file.
func (f *rootFlags) resolveAPI() (string, error) {
	if f.apiAddress != "" {
		return f.apiAddress, nil
	}
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return "", err
	}
	return cfg.APIBaseURL(), nil
}
