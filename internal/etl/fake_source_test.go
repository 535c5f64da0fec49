package etl

import (
	"context"
	"errors"
	"strings"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

// fakeSource is an in-memory RowSource. Query ignores predicates and returns
// the stored rows of the table named after FROM.
type fakeSource struct {
	tables  []domain.TableSpec
	columns []domain.ColumnSpec
	pks     []domain.PrimaryKeySpec
	rows    map[string][][]any

	metaErr  error
	queryErr error

	queries []string
	args    [][]any
	cursors []*sliceCursor
}

func (f *fakeSource) DatabaseName() string { return "shop" }

func (f *fakeSource) Tables(context.Context) ([]domain.TableSpec, error) {
	return f.tables, f.metaErr
}

func (f *fakeSource) Columns(context.Context) ([]domain.ColumnSpec, error) {
	return f.columns, f.metaErr
}

func (f *fakeSource) PrimaryKeys(context.Context) ([]domain.PrimaryKeySpec, error) {
	return f.pks, f.metaErr
}

func (f *fakeSource) Query(_ context.Context, query string, args ...any) (Cursor, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	table := query[strings.Index(query, " FROM ")+len(" FROM "):]
	if i := strings.Index(table, " "); i >= 0 {
		table = table[:i]
	}
	c := &sliceCursor{rows: f.rows[strings.Trim(table, `"`)]}
	f.cursors = append(f.cursors, c)
	return c, nil
}

func (f *fakeSource) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (f *fakeSource) Placeholder(int) string { return "?" }

type sliceCursor struct {
	rows   [][]any
	pos    int
	closed bool
	err    error
}

func (c *sliceCursor) Next() bool {
	if c.closed || c.pos >= len(c.rows) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Scan() ([]any, error) {
	if c.pos == 0 {
		return nil, errors.New("scan before next")
	}
	return append([]any(nil), c.rows[c.pos-1]...), nil
}

func (c *sliceCursor) Err() error { return c.err }

func (c *sliceCursor) Close() error {
	c.closed = true
	return nil
}
