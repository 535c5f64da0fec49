package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SageData-OOD/tap-firebird/internal/config"
	"github.com/SageData-OOD/tap-firebird/internal/dbclient"
	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/etl"
	"github.com/SageData-OOD/tap-firebird/internal/metrics"
	"github.com/SageData-OOD/tap-firebird/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Tap Service: discover, sync and preview against one database
// ─────────────────────────────────────────────────────────────

const syncRun = "sync"

// Source is a row source holding an open connection.
type Source interface {
	etl.RowSource
	Close() error
}

// Opener connects to the configured database.
type Opener func(ctx context.Context, cfg *config.Config) (Source, error)

// OpenDatabase is the default Opener.
func OpenDatabase(ctx context.Context, cfg *config.Config) (Source, error) {
	conn, err := dbclient.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Deps holds everything TapService needs. Only Config and Emitter are
// required; Runs and Metrics are optional.
type Deps struct {
	Config   *config.Config
	Open     Opener
	Emitter  etl.Emitter
	Runs     *storage.RunStore
	Metrics  *metrics.Collector
	Resolver etl.Resolver
	Logger   *slog.Logger
	// CheckpointInterval overrides the engine default when positive.
	CheckpointInterval int
}

// TapService runs discovery and sync. A connection is opened per call and
// closed when the call returns.
type TapService struct {
	cfg       *config.Config
	open      Opener
	emitter   etl.Emitter
	runs      *storage.RunStore
	metrics   *metrics.Collector
	resolver  etl.Resolver
	logger    *slog.Logger
	interval  int
	running   runGuard
	mu        sync.Mutex
	lastState *domain.State
}

func NewTapService(deps Deps) *TapService {
	s := &TapService{
		cfg:      deps.Config,
		open:     deps.Open,
		emitter:  deps.Emitter,
		runs:     deps.Runs,
		metrics:  deps.Metrics,
		resolver: deps.Resolver,
		logger:   deps.Logger,
		interval: deps.CheckpointInterval,
	}
	if s.open == nil {
		s.open = OpenDatabase
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.resolver == nil {
		s.resolver = &etl.SelectionResolver{Logger: s.logger}
	}
	return s
}

// SyncResult summarises one finished sync.
type SyncResult struct {
	RunID   string        `json:"runId,omitempty"`
	Records int64         `json:"records"`
	State   *domain.State `json:"state"`
}

// ── Discover ───────────────────────────────────────────────

func (s *TapService) Discover(ctx context.Context) (*domain.Catalog, error) {
	s.logger.Info("Running discover")
	src, err := s.open(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	catalog, err := etl.Discover(ctx, src)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Completed discover", "streams", len(catalog.Streams))
	return catalog, nil
}

// ── Sync ───────────────────────────────────────────────────

// Sync runs every selected stream of userCatalog. When raw is nil the state
// of the previous run is used: the one held in memory, then the latest
// checkpoint of the run store.
func (s *TapService) Sync(ctx context.Context, userCatalog *domain.Catalog, raw *domain.State) (*SyncResult, error) {
	if !s.running.TryLock(syncRun) {
		return nil, domain.ErrRunInProgress
	}
	defer s.running.Unlock(syncRun)

	result, err := s.sync(ctx, userCatalog, raw)
	s.metrics.RunFinished(err)
	return result, err
}

func (s *TapService) sync(ctx context.Context, userCatalog *domain.Catalog, raw *domain.State) (*SyncResult, error) {
	if userCatalog == nil {
		return nil, domain.ErrNoCatalog
	}
	if raw == nil {
		var err error
		if raw, err = s.previousState(); err != nil {
			return nil, err
		}
	}

	src, err := s.open(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	discovered, err := etl.Discover(ctx, src)
	if err != nil {
		return nil, err
	}
	catalog, err := s.resolver.Resolve(discovered, userCatalog, raw)
	if err != nil {
		return nil, err
	}
	state := etl.BuildState(raw, catalog)

	result := &SyncResult{State: state}
	var runID string
	if s.runs != nil {
		run, err := s.runs.CreateRun()
		if err != nil {
			return nil, err
		}
		runID = run.ID
		result.RunID = runID
	}

	tracker := etl.EmitterFunc(func(_ context.Context, msg domain.Message) error {
		switch m := msg.(type) {
		case *domain.RecordMessage:
			result.Records++
		case *domain.StateMessage:
			s.setLastState(m.Value)
			if s.runs != nil {
				return s.runs.SaveCheckpoint(runID, m.Value)
			}
		}
		return nil
	})

	engine := &etl.Engine{
		Source:             src,
		Emitter:            etl.Tee(s.emitter, tracker),
		Logger:             s.logger,
		Metrics:            s.metrics,
		CheckpointInterval: s.interval,
	}
	if start, err := s.cfg.StartDateTime(); err == nil {
		engine.StartDate = start
	}

	runErr := engine.GenerateMessages(ctx, catalog, state)
	if s.runs != nil {
		if err := s.runs.FinishRun(runID, result.Records, runErr); err != nil {
			s.logger.Error("record run outcome", "run", runID, "error", err)
		}
	}
	if runErr != nil {
		return result, runErr
	}
	s.logger.Info("Completed sync", "records", result.Records, "run", runID)
	return result, nil
}

func (s *TapService) previousState() (*domain.State, error) {
	if st := s.LastState(); st != nil {
		return st, nil
	}
	if s.runs != nil {
		st, err := s.runs.LatestState()
		if err != nil {
			return nil, fmt.Errorf("load latest state: %w", err)
		}
		if st != nil {
			return st, nil
		}
	}
	return domain.NewState(), nil
}

func (s *TapService) setLastState(st *domain.State) {
	s.mu.Lock()
	s.lastState = st
	s.mu.Unlock()
}

// LastState returns a copy of the last STATE emitted, or nil.
func (s *TapService) LastState() *domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastState == nil {
		return nil
	}
	return s.lastState.Clone()
}

// Runs lists the newest recorded runs. Without a run store it returns nil.
func (s *TapService) Runs(limit int) ([]domain.SyncRun, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.ListRuns(limit)
}

// ── Preview ────────────────────────────────────────────────

var errPreviewFull = errors.New("preview limit reached")

// Preview returns the first limit records of one stream as a FULL_TABLE
// read. Nothing is emitted downstream and no state is kept.
func (s *TapService) Preview(ctx context.Context, tapStreamID string, limit int) ([]*domain.Record, error) {
	if limit <= 0 {
		limit = 10
	}
	src, err := s.open(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	discovered, err := etl.Discover(ctx, src)
	if err != nil {
		return nil, err
	}
	entry, ok := discovered.GetStream(tapStreamID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStreamNotFound, tapStreamID)
	}

	md := entry.Metadata.Clone()
	md.Stream.Selected = domain.Bool(true)
	md.Stream.ReplicationMethod = domain.ReplicationFullTable
	user := &domain.Catalog{Streams: []*domain.CatalogEntry{{
		TapStreamID: entry.TapStreamID,
		Stream:      entry.Stream,
		Table:       entry.Table,
		Database:    entry.Database,
		Schema:      entry.Schema,
		Metadata:    md,
	}}}
	catalog, err := s.resolver.Resolve(discovered, user, nil)
	if err != nil {
		return nil, err
	}

	var records []*domain.Record
	collect := etl.EmitterFunc(func(_ context.Context, msg domain.Message) error {
		if m, ok := msg.(*domain.RecordMessage); ok {
			records = append(records, m.Record)
			if len(records) >= limit {
				return errPreviewFull
			}
		}
		return nil
	})

	engine := &etl.Engine{Source: src, Emitter: collect, Logger: s.logger}
	err = engine.GenerateMessages(ctx, catalog, domain.NewState())
	if err != nil && !errors.Is(err, errPreviewFull) {
		return nil, err
	}
	return records, nil
}
