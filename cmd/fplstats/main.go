// Command fplstats fetches a Fantasy Premier League classic league and
// prints statistics about it.
//
// Usage:
//
//	fplstats fetch --league 12345 --email me@example.com
//	fplstats analyze --league 12345 --season 2023_2024
//	fplstats serve --transport http --addr :8080
//	fplstats export --league 12345 --db stats.db
//	fplstats schema --league 12345
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"fpl-league-stats/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
