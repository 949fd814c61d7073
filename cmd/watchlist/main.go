package main

import (
	"context"
	"os"
	"os/signal"

	"watchlist/internal/cli"
)

// Version information (set by build script)
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cli.SetVersionInfo(Version, Commit)
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
