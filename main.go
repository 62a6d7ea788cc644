package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// main initializes the application, builds the CLI interface and runs
// the command provided by the user. Interrupt and terminate signals
// cancel the context so a running serve loop or export shuts down
// cleanly.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := NewApp()
	cmd := BuildCLI(application)

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
