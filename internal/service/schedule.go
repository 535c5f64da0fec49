package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

// ── Triggers (cron + catalog watch) ────────────────────────

// CatalogLoader returns the user catalog for the next run. It is called on
// every trigger so edits to the catalog file are picked up.
type CatalogLoader func(ctx context.Context) (*domain.Catalog, error)

// WatchDebounce is the quiet period after a catalog write before a sync.
const WatchDebounce = 500 * time.Millisecond

// triggerSync runs one sync for a trigger and logs the outcome.
func (s *TapService) triggerSync(ctx context.Context, trigger string, load CatalogLoader) {
	catalog, err := load(ctx)
	if err != nil {
		s.logger.Error("load catalog", "trigger", trigger, "error", err)
		return
	}
	result, err := s.Sync(ctx, catalog, nil)
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		s.logger.Warn("sync still running, skipping trigger", "trigger", trigger)
	case err != nil:
		s.logger.Error("sync failed", "trigger", trigger, "error", err)
	default:
		s.logger.Info("triggered sync finished", "trigger", trigger, "records", result.Records, "run", result.RunID)
	}
}

// RunScheduled syncs on the cron expression until ctx is cancelled, then
// waits for an in-flight run to finish.
func (s *TapService) RunScheduled(ctx context.Context, expr string, load CatalogLoader) error {
	c := cron.New()
	if _, err := c.AddFunc(expr, func() { s.triggerSync(ctx, "cron", load) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	c.Start()
	s.logger.Info("sync scheduled", "schedule", expr)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// WatchCatalog syncs whenever the catalog file at path is written, after
// WatchDebounce of quiet. It blocks until ctx is cancelled.
func (s *TapService) WatchCatalog(ctx context.Context, path string, load CatalogLoader) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("bad catalog path %q: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return fmt.Errorf("watch %q: %w", filepath.Dir(absPath), err)
	}
	s.logger.Info("watching catalog", "path", absPath)

	timer := time.NewTimer(WatchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.running.WaitAll(context.Background())
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if p, _ := filepath.Abs(event.Name); p != absPath {
				continue
			}
			timer.Reset(WatchDebounce)
		case <-timer.C:
			s.logger.Info("catalog changed", "path", absPath)
			go s.triggerSync(ctx, "watch", load)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("catalog watcher error", "error", err)
		}
	}
}
