// courier bridges a Signal account to a chat responder through signal-cli's
// D-Bus interface and serves a small HTTP API for outbound messages.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := newRootCmd(os.Exit)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "courier: %v\n", err)
		return 1
	}
	return 0
}
