package service_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SageData-OOD/tap-firebird/internal/config"
	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/etl"
	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"
	"github.com/SageData-OOD/tap-firebird/internal/logging"
	"github.com/SageData-OOD/tap-firebird/internal/metrics"
	"github.com/SageData-OOD/tap-firebird/internal/service"
	"github.com/SageData-OOD/tap-firebird/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// RunGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunGuard_TryLock(t *testing.T) {
	var g service.ExportedRunGuard

	if !g.TryLock("sync") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("sync") {
		t.Fatal("expected second TryLock for same run to fail")
	}
	if !g.Running("sync") {
		t.Fatal("expected sync to be running")
	}
	g.Unlock("sync")

	if !g.TryLock("sync") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("sync")
}

func TestRunGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunGuard
	if !g.TryLock("sync") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("sync")
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// TapService tests (SQLite row source)
// ─────────────────────────────────────────────────────────────

func seedDatabase(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, name VARCHAR(20), updated_at TIMESTAMP)`,
		`CREATE TABLE tags (name TEXT NOT NULL)`,
		`INSERT INTO orders VALUES (1, 'a', '2024-01-01 00:00:00')`,
		`INSERT INTO orders VALUES (2, 'b', '2024-01-02 00:00:00')`,
		`INSERT INTO orders VALUES (3, 'c', '2024-01-03 00:00:00')`,
		`INSERT INTO tags VALUES ('x'), ('y')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return &config.Config{Dialect: config.DialectSQLite, Database: path, StartDate: "2020-01-01T00:00:00Z"}
}

func newRunStore(t *testing.T) *storage.RunStore {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return storage.NewRunStore(db)
}

func newService(cfg *config.Config, emitter etl.Emitter, runs *storage.RunStore) *service.TapService {
	return service.NewTapService(service.Deps{
		Config:  cfg,
		Emitter: emitter,
		Runs:    runs,
		Metrics: metrics.New(),
		Logger:  logging.Discard(),
	})
}

// ordersCatalog selects orders incrementally on updated_at.
func ordersCatalog(t *testing.T, svc *service.TapService) *domain.Catalog {
	t.Helper()
	discovered, err := svc.Discover(context.Background())
	require.NoError(t, err)
	orders, ok := discovered.GetStream("orders")
	require.True(t, ok)
	orders.Metadata.Stream.Selected = domain.Bool(true)
	orders.Metadata.Stream.ReplicationMethod = domain.ReplicationIncremental
	orders.Metadata.Stream.ReplicationKey = "updated_at"
	return &domain.Catalog{Streams: []*domain.CatalogEntry{orders}}
}

func TestDiscover(t *testing.T) {
	svc := newService(seedDatabase(t), nil, nil)

	catalog, err := svc.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, catalog.Streams, 2)
	assert.Equal(t, "orders", catalog.Streams[0].TapStreamID)
}

func TestSyncRecordsRunAndCheckpoints(t *testing.T) {
	runs := newRunStore(t)
	rec := &etl.Recorder{}
	svc := newService(seedDatabase(t), rec, runs)

	result, err := svc.Sync(context.Background(), ordersCatalog(t, svc), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Records)
	assert.Len(t, rec.Records(), 3)

	run, err := runs.GetRun(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, run.Status)
	assert.Equal(t, int64(3), run.Records)

	cps, err := runs.Checkpoints(result.RunID)
	require.NoError(t, err)
	assert.Len(t, cps, len(rec.States()))

	latest, err := runs.LatestState()
	require.NoError(t, err)
	b, ok := latest.GetBookmark("orders")
	require.True(t, ok)
	assert.Equal(t, "2024-01-03T00:00:00", b.ReplicationKeyValue)
	assert.Empty(t, latest.CurrentlySyncing())
}

func TestSyncResumesFromPreviousState(t *testing.T) {
	runs := newRunStore(t)
	cfg := seedDatabase(t)
	svc := newService(cfg, &etl.Recorder{}, runs)
	catalog := ordersCatalog(t, svc)

	_, err := svc.Sync(context.Background(), catalog, nil)
	require.NoError(t, err)

	// In-memory state of the same service.
	second, err := svc.Sync(context.Background(), catalog, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), second.Records)

	// A new service falls back to the run store.
	rec := &etl.Recorder{}
	fresh := newService(cfg, rec, runs)
	third, err := fresh.Sync(context.Background(), catalog, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), third.Records)
	id, _ := rec.Records()[0].Record.Get("id")
	assert.EqualValues(t, 3, id)

	list, err := fresh.Runs(10)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestSyncExplicitStateWins(t *testing.T) {
	svc := newService(seedDatabase(t), &etl.Recorder{}, nil)
	catalog := ordersCatalog(t, svc)

	raw := domain.NewState()
	raw.WriteReplicationKey("orders", "updated_at")
	raw.WriteReplicationKeyValue("orders", "2024-01-02T00:00:00")

	result, err := svc.Sync(context.Background(), catalog, raw)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Records)
	assert.Empty(t, result.RunID)
}

func TestSyncWithoutCatalog(t *testing.T) {
	svc := newService(seedDatabase(t), nil, nil)
	_, err := svc.Sync(context.Background(), nil, nil)
	assert.ErrorIs(t, err, domain.ErrNoCatalog)
}

func TestSyncRefusesOverlap(t *testing.T) {
	cfg := seedDatabase(t)
	var svc *service.TapService
	var nested error
	svc = service.NewTapService(service.Deps{
		Config: cfg,
		Logger: logging.Discard(),
		Open: func(ctx context.Context, c *config.Config) (service.Source, error) {
			_, nested = svc.Sync(ctx, &domain.Catalog{}, nil)
			return service.OpenDatabase(ctx, c)
		},
	})

	_, err := svc.Sync(context.Background(), &domain.Catalog{}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, nested, domain.ErrRunInProgress)
}

func TestSyncMarksFailedRun(t *testing.T) {
	runs := newRunStore(t)
	boom := errors.New("stdout closed")
	emitter := etl.EmitterFunc(func(context.Context, domain.Message) error { return boom })
	svc := newService(seedDatabase(t), emitter, runs)

	result, err := svc.Sync(context.Background(), ordersCatalog(t, svc), nil)
	require.ErrorIs(t, err, boom)

	run, err := runs.GetRun(result.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Contains(t, run.Error, "stdout closed")
}

func TestPreview(t *testing.T) {
	rec := &etl.Recorder{}
	svc := newService(seedDatabase(t), rec, nil)

	records, err := svc.Preview(context.Background(), "orders", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	name, _ := records[0].Get("name")
	assert.Equal(t, "a", name)
	assert.Empty(t, rec.Messages)
	assert.Nil(t, svc.LastState())

	_, err = svc.Preview(context.Background(), "missing", 2)
	assert.ErrorIs(t, err, domain.ErrStreamNotFound)
}

func TestRunScheduledRejectsBadExpression(t *testing.T) {
	svc := newService(seedDatabase(t), nil, nil)
	err := svc.RunScheduled(context.Background(), "not a schedule", nil)
	assert.ErrorContains(t, err, "invalid schedule")
}

func TestWatchCatalogSyncsOnWrite(t *testing.T) {
	runs := newRunStore(t)
	svc := newService(seedDatabase(t), &etl.Recorder{}, runs)
	catalog := ordersCatalog(t, svc)

	path := filepath.Join(t.TempDir(), "catalog.json")
	raw, err := jsoncodec.Marshal(catalog)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- svc.WatchCatalog(ctx, path, func(context.Context) (*domain.Catalog, error) {
			return catalog, nil
		})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, raw, 0o644)
		list, _ := runs.ListRuns(1)
		return len(list) == 1 && list[0].Status == domain.RunSucceeded
	}, 10*time.Second, 700*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
