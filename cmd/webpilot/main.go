package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/webpilot-dev/webpilot/cmd"
)

// Allows mocking os.Exit in tests.
var osExit = os.Exit

func main() {
	// Graceful shutdown on SIGINT/SIGTERM: the context cancels, the HTTP
	// server drains, and the browser process is torn down.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			osExit(0)
		}
		osExit(1)
	}
}
