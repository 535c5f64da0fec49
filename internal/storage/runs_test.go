package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "state", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRunStore(db)
}

func TestRunLifecycle(t *testing.T) {
	store := newTestStore(t)

	run, err := store.CreateRun()
	require.NoError(t, err)
	assert.Equal(t, domain.RunRunning, run.Status)
	assert.Len(t, run.ID, 26)

	require.NoError(t, store.FinishRun(run.ID, 42, nil))
	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RunSucceeded, got.Status)
	assert.Equal(t, int64(42), got.Records)
	assert.False(t, got.FinishedAt.IsZero())

	failed, err := store.CreateRun()
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(failed.ID, 0, errors.New("connection reset")))

	runs, err := store.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, failed.ID, runs[0].ID)
	assert.Equal(t, "connection reset", runs[0].Error)
	assert.Equal(t, domain.RunFailed, runs[0].Status)
}

func TestFinishUnknownRun(t *testing.T) {
	store := newTestStore(t)
	assert.ErrorIs(t, store.FinishRun("missing", 0, nil), ErrRunNotFound)

	_, err := store.GetRun("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestLatestState(t *testing.T) {
	store := newTestStore(t)

	state, err := store.LatestState()
	require.NoError(t, err)
	assert.Nil(t, state)

	run, err := store.CreateRun()
	require.NoError(t, err)

	first := domain.NewState()
	first.WriteVersion("ORDERS", domain.Version(1))
	first.WriteReplicationKeyValue("ORDERS", "2024-01-01T00:00:00")
	require.NoError(t, store.SaveCheckpoint(run.ID, first))

	second := first.Clone()
	second.WriteReplicationKeyValue("ORDERS", "2024-01-02T00:00:00")
	require.NoError(t, store.SaveCheckpoint(run.ID, second))

	latest, err := store.LatestState()
	require.NoError(t, err)
	b, ok := latest.GetBookmark("ORDERS")
	require.True(t, ok)
	assert.Equal(t, "2024-01-02T00:00:00", b.ReplicationKeyValue)

	cps, err := store.Checkpoints(run.ID)
	require.NoError(t, err)
	require.Len(t, cps, 2)
	b, _ = cps[0].State.GetBookmark("ORDERS")
	assert.Equal(t, "2024-01-01T00:00:00", b.ReplicationKeyValue)
}

func TestRunsSortByCreation(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := store.CreateRun()
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.True(t, base.Add(3*time.Minute).Equal(runs[0].StartedAt))
}
