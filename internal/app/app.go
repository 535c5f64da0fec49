package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/SageData-OOD/tap-firebird/internal/config"
	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/etl"
	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"
	"github.com/SageData-OOD/tap-firebird/internal/logging"
	"github.com/SageData-OOD/tap-firebird/internal/metrics"
	"github.com/SageData-OOD/tap-firebird/internal/secret"
	"github.com/SageData-OOD/tap-firebird/internal/service"
	"github.com/SageData-OOD/tap-firebird/internal/storage"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Options are the command line inputs of one invocation.
type Options struct {
	ConfigPath     string
	CatalogPath    string
	PropertiesPath string
	StatePath      string
	LogLevel       string
	Schedule       string
	Discover       bool
	MCP            bool
	Watch          bool

	// Stdout receives the message stream; defaults to os.Stdout.
	Stdout io.Writer
	// Stderr receives logs; defaults to os.Stderr.
	Stderr io.Writer
	// Secrets resolves password_secret; defaults to secret.NewResolver.
	Secrets *secret.Resolver
}

// App wires config, storage, metrics and the tap service for one process.
type App struct {
	opts    Options
	cfg     *config.Config
	loader  *config.Loader
	logger  *slog.Logger
	db      *storage.DB
	metrics *metrics.Collector
	tap     *service.TapService
}

// New loads the config and builds every component. Close releases them.
func New(ctx context.Context, opts Options) (*App, error) {
	if opts.ConfigPath == "" {
		return nil, fmt.Errorf("%w: -config is required", domain.ErrMissingConfig)
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Secrets == nil {
		opts.Secrets = secret.NewResolver()
	}

	loader := config.NewLoader()
	cfg, err := loader.LoadConfig(ctx, opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.PasswordSecret != "" {
		if cfg.Password, err = opts.Secrets.Resolve(cfg.PasswordSecret); err != nil {
			return nil, fmt.Errorf("resolve password_secret: %w", err)
		}
	}

	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	a := &App{
		opts:    opts,
		cfg:     cfg,
		loader:  loader,
		logger:  logging.New(level, opts.Stderr),
		metrics: metrics.New(),
	}

	var runs *storage.RunStore
	if cfg.StateDB != "" {
		if a.db, err = storage.New(cfg.StateDB); err != nil {
			return nil, fmt.Errorf("open state db: %w", err)
		}
		runs = storage.NewRunStore(a.db)
	}

	a.tap = service.NewTapService(service.Deps{
		Config:  cfg,
		Emitter: etl.NewLineEmitter(opts.Stdout),
		Runs:    runs,
		Metrics: a.metrics,
		Logger:  a.logger,
	})
	return a, nil
}

func (a *App) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// Run executes the mode selected by the options.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.MetricsAddr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, a.cfg.MetricsAddr, a.logger); err != nil {
				a.logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	switch {
	case a.opts.MCP:
		return a.serveMCP(ctx)
	case a.opts.Discover:
		return a.discover(ctx)
	case a.catalogPath() != "":
		return a.sync(ctx)
	default:
		a.logger.Info("No properties were selected")
		return nil
	}
}

// catalogPath prefers -catalog over the legacy -properties.
func (a *App) catalogPath() string {
	if a.opts.CatalogPath != "" {
		return a.opts.CatalogPath
	}
	return a.opts.PropertiesPath
}

func (a *App) discover(ctx context.Context) error {
	catalog, err := a.tap.Discover(ctx)
	if err != nil {
		return err
	}
	data, err := jsoncodec.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.opts.Stdout, "%s\n", data)
	return err
}

func (a *App) loadCatalog(ctx context.Context) (*domain.Catalog, error) {
	return a.loader.LoadCatalog(ctx, a.catalogPath())
}

func (a *App) sync(ctx context.Context) error {
	var raw *domain.State
	if a.opts.StatePath != "" {
		var err error
		if raw, err = a.loader.LoadState(ctx, a.opts.StatePath); err != nil {
			return err
		}
	}

	schedule := a.opts.Schedule
	if schedule == "" {
		schedule = a.cfg.Schedule
	}
	triggered := schedule != "" || a.opts.Watch
	if triggered && raw != nil {
		// An explicit state seeds an immediate run; triggers continue from it.
		if err := a.syncOnce(ctx, raw); err != nil {
			return err
		}
	}
	switch {
	case schedule != "":
		return a.tap.RunScheduled(ctx, schedule, a.loadCatalog)
	case a.opts.Watch:
		return a.tap.WatchCatalog(ctx, a.catalogPath(), a.loadCatalog)
	}

	return a.syncOnce(ctx, raw)
}

func (a *App) syncOnce(ctx context.Context, raw *domain.State) error {
	catalog, err := a.loadCatalog(ctx)
	if err != nil {
		return err
	}
	_, err = a.tap.Sync(ctx, catalog, raw)
	return err
}
