// Package main is the CLI entry point for benchto-driver.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Version is the driver version.
const Version = "1.0.0"

const (
	exitFatal      = 1
	exitRunsFailed = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		if errors.Is(err, errRunsFailed) {
			os.Exit(exitRunsFailed)
		}
		os.Exit(exitFatal)
	}
}
