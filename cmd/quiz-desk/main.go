package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"quiz-desk/internal/app"
	"quiz-desk/internal/cli"
	"quiz-desk/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so the deferred Close always runs.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	defer a.Close()

	if err := cli.Run(ctx, a, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error("quiz-desk stopped", "error", err)
		return err
	}
	return nil
}
