package etl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/metrics"
)

// ── Engine ─────────────────────────────────────────────────
// Syncs streams one at a time: STATE, SCHEMA, ACTIVATE_VERSION and RECORD
// messages are pushed into the Emitter in a fixed order.

// DefaultCheckpointInterval is the number of rows between STATE checkpoints.
const DefaultCheckpointInterval = 1000

const tracerName = "github.com/SageData-OOD/tap-firebird/internal/etl"

// Engine owns the state of one sync run. It is not safe for concurrent use.
type Engine struct {
	Source  RowSource
	Emitter Emitter
	Logger  *slog.Logger
	Metrics *metrics.Collector

	// StartDate is the cursor floor of incremental streams without a bookmark.
	StartDate time.Time
	// CheckpointInterval defaults to DefaultCheckpointInterval.
	CheckpointInterval int
	// Now defaults to time.Now.
	Now func() time.Time
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Engine) checkpointInterval() int {
	if e.CheckpointInterval <= 0 {
		return DefaultCheckpointInterval
	}
	return e.CheckpointInterval
}

// GenerateMessages syncs every stream of the resolved catalog in order and
// finishes with a STATE whose currently_syncing is cleared.
func (e *Engine) GenerateMessages(ctx context.Context, catalog *domain.Catalog, state *domain.State) error {
	for _, entry := range catalog.Streams {
		state.SetCurrentlySyncing(entry.TapStreamID)

		if err := e.Emitter.Emit(ctx, domain.NewStateMessage(state)); err != nil {
			return err
		}
		if err := e.Emitter.Emit(ctx, domain.NewSchemaMessage(entry)); err != nil {
			return err
		}

		start := e.now()
		err := e.SyncTable(ctx, entry, state)
		e.Metrics.ObserveSync(entry.Database, entry.Table, err, e.now().Sub(start))
		if err != nil {
			return fmt.Errorf("sync %s: %w", entry.TapStreamID, err)
		}
	}

	state.SetCurrentlySyncing("")
	return e.Emitter.Emit(ctx, domain.NewStateMessage(state))
}

// SyncTable streams one table and advances its bookmark row by row.
func (e *Engine) SyncTable(ctx context.Context, entry *domain.CatalogEntry, state *domain.State) (err error) {
	log := e.logger().With("stream", entry.TapStreamID)

	columns := entry.SelectedColumns()
	if len(columns) == 0 {
		log.Warn("there are no columns selected for table, skipping it", "table", entry.Table)
		return nil
	}

	replicationKey := entry.ReplicationKey()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sync_table",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.name", entry.Database),
			attribute.String("db.table", entry.Table),
			attribute.String("tap.replication_key", replicationKey),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	log.Info("beginning sync for table")

	id := entry.TapStreamID
	bookmark, hasBookmark := state.GetBookmark(id)
	version := e.now().UnixMilli()
	if bookmark.Version != nil {
		version = *bookmark.Version
	}
	state.WriteVersion(id, &version)

	activate := domain.NewActivateVersionMessage(entry.Stream, version)
	if replicationKey != "" || !hasBookmark {
		if err := e.Emitter.Emit(ctx, activate); err != nil {
			return err
		}
	}

	var cursor any
	if replicationKey != "" {
		cursor = bookmark.ReplicationKeyValue
		if cursor == nil && !e.StartDate.IsZero() {
			cursor = e.StartDate.UTC().Format(nativeDatetimeLayout)
		}
	}
	query := buildSelect(e.Source, entry.Table, columns, replicationKey, cursor)

	timeExtracted := e.now()
	log.Info("running query", "sql", query.SQL, "args", query.Args)
	rows, err := e.Source.Query(ctx, query.SQL, query.Args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", entry.Table, err)
	}
	defer rows.Close()

	converter := newRecordConverter(entry, columns)
	interval := e.checkpointInterval()
	saved := 0
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		values, err := rows.Scan()
		if err != nil {
			return fmt.Errorf("scan %s: %w", entry.Table, err)
		}
		record := converter.convert(values)

		msg := domain.NewRecordMessage(entry.Stream, record, version, timeExtracted)
		if err := e.Emitter.Emit(ctx, msg); err != nil {
			return err
		}
		saved++
		e.Metrics.RecordSynced(entry.Database, entry.Table)

		if replicationKey != "" {
			if value, ok := record.Get(replicationKey); ok {
				state.WriteReplicationKeyValue(id, value)
			}
		}
		if saved%interval == 0 {
			if err := e.Emitter.Emit(ctx, domain.NewStateMessage(state)); err != nil {
				return err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read %s: %w", entry.Table, err)
	}

	if replicationKey == "" {
		if err := e.Emitter.Emit(ctx, activate); err != nil {
			return err
		}
		state.WriteVersion(id, nil)
	}

	span.SetAttributes(attribute.Int("tap.records", saved))
	log.Info("completed table sync", "records", saved)
	return e.Emitter.Emit(ctx, domain.NewStateMessage(state))
}
