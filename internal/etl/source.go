package etl

import (
	"context"
	"time"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

// ── RowSource ──────────────────────────────────────────────
// A RowSource is the database the tap reads from. The dbclient package
// implements it for each supported dialect.
//
// Pattern: Singer tap (discover → sync), read-only.

// RowSource exposes catalog introspection and cursor-driven reads.
type RowSource interface {
	// DatabaseName is reported in catalog entries and metric labels.
	DatabaseName() string

	// Tables lists user tables and views.
	Tables(ctx context.Context) ([]domain.TableSpec, error)

	// Columns lists the columns of every table, any order.
	Columns(ctx context.Context) ([]domain.ColumnSpec, error)

	// PrimaryKeys lists primary key columns, in key order per table.
	PrimaryKeys(ctx context.Context) ([]domain.PrimaryKeySpec, error)

	// Query runs a read-only statement and returns a cursor over its rows.
	Query(ctx context.Context, query string, args ...any) (Cursor, error)

	// QuoteIdentifier quotes a table or column name for this dialect.
	QuoteIdentifier(name string) string

	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string
}

// Cursor iterates rows one at a time. Rows are never materialised in bulk.
type Cursor interface {
	Next() bool
	// Scan returns the values of the current row in select-list order.
	Scan() ([]any, error)
	Err() error
	Close() error
}

// DatetimeFormatter is implemented by row sources whose cursor bind values
// need a dialect-specific datetime text.
type DatetimeFormatter interface {
	FormatCursorTime(t time.Time) string
}
