package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/SageData-OOD/tap-firebird/internal/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "tap-firebird:", err)
		os.Exit(1)
	}
}

func run() error {
	var opts app.Options
	flag.StringVar(&opts.ConfigPath, "config", "", "Config file (JSON or YAML)")
	flag.BoolVar(&opts.Discover, "discover", false, "Run discovery and print the catalog")
	flag.StringVar(&opts.CatalogPath, "catalog", "", "Catalog file")
	flag.StringVar(&opts.PropertiesPath, "properties", "", "Properties file (legacy catalog)")
	flag.StringVar(&opts.StatePath, "state", "", "State file")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&opts.MCP, "mcp", false, "Serve MCP tools on stdin/stdout")
	flag.StringVar(&opts.Schedule, "schedule", "", "Cron expression; sync repeatedly on this schedule")
	flag.BoolVar(&opts.Watch, "watch", false, "Sync whenever the catalog file changes")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}
