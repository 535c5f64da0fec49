package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/ids"
	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("tap-firebird: sync run not found")

const timeLayout = time.RFC3339Nano

// RunStore persists sync runs and every STATE checkpoint they emit.
type RunStore struct {
	db  *DB
	now func() time.Time
}

func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db, now: time.Now}
}

// ── Runs ───────────────────────────────────────────────────

func (s *RunStore) CreateRun() (*domain.SyncRun, error) {
	now := s.now().UTC()
	run := &domain.SyncRun{ID: ids.NewRunIDAt(now), StartedAt: now, Status: domain.RunRunning}
	_, err := s.db.conn.Exec(
		`INSERT INTO sync_runs (id, started_at, status) VALUES (?, ?, ?)`,
		run.ID, now.Format(timeLayout), string(run.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// FinishRun records the outcome of a run.
func (s *RunStore) FinishRun(id string, records int64, runErr error) error {
	status, msg := domain.RunSucceeded, ""
	if runErr != nil {
		status, msg = domain.RunFailed, runErr.Error()
	}
	res, err := s.db.conn.Exec(
		`UPDATE sync_runs SET finished_at=?, status=?, records=?, error=? WHERE id=?`,
		s.now().UTC().Format(timeLayout), string(status), records, msg, id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func (s *RunStore) GetRun(id string) (*domain.SyncRun, error) {
	row := s.db.conn.QueryRow(
		`SELECT id, started_at, finished_at, status, records, error FROM sync_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListRuns returns the newest runs first.
func (s *RunStore) ListRuns(limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.conn.Query(
		`SELECT id, started_at, finished_at, status, records, error
		 FROM sync_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []domain.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.SyncRun, error) {
	var run domain.SyncRun
	var started, finished, status string
	if err := row.Scan(&run.ID, &started, &finished, &status, &run.Records, &run.Error); err != nil {
		return nil, err
	}
	run.Status = domain.RunStatus(status)
	run.StartedAt, _ = time.Parse(timeLayout, started)
	if finished != "" {
		run.FinishedAt, _ = time.Parse(timeLayout, finished)
	}
	return &run, nil
}

// ── Checkpoints ────────────────────────────────────────────

func (s *RunStore) SaveCheckpoint(runID string, state *domain.State) error {
	raw, err := jsoncodec.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = s.db.conn.Exec(
		`INSERT INTO state_checkpoints (id, run_id, created_at, state_json) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), runID, s.now().UTC().Format(timeLayout), string(raw),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// LatestState returns the most recent checkpoint of any run, or nil when
// nothing was ever saved.
func (s *RunStore) LatestState() (*domain.State, error) {
	var raw string
	err := s.db.conn.QueryRow(
		`SELECT state_json FROM state_checkpoints ORDER BY rowid DESC LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	state := domain.NewState()
	if err := jsoncodec.Unmarshal([]byte(raw), state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return state, nil
}

// Checkpoints lists the checkpoints of one run in emission order.
func (s *RunStore) Checkpoints(runID string) ([]domain.Checkpoint, error) {
	rows, err := s.db.conn.Query(
		`SELECT id, run_id, created_at, state_json FROM state_checkpoints
		 WHERE run_id = ? ORDER BY rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Checkpoint
	for rows.Next() {
		var cp domain.Checkpoint
		var created, raw string
		if err := rows.Scan(&cp.ID, &cp.RunID, &created, &raw); err != nil {
			return nil, err
		}
		cp.CreatedAt, _ = time.Parse(timeLayout, created)
		cp.State = domain.NewState()
		if err := jsoncodec.Unmarshal([]byte(raw), cp.State); err != nil {
			return nil, fmt.Errorf("decode state: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}
