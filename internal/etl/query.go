package etl

import (
	"strings"
	"time"
)

// cursorLayouts are the bookmark shapes a previous run (of this tap or of
// another Singer tap) may have left behind.
var cursorLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// nativeDatetimeLayout is the datetime text every supported dialect accepts
// in a comparison against a timestamp column.
const nativeDatetimeLayout = "2006-01-02 15:04:05"

// selectQuery is the statement a stream sync runs.
type selectQuery struct {
	SQL  string
	Args []any
}

// buildSelect quotes every identifier. With a replication key the rows are
// ordered by it, and a cursor adds an inclusive lower bound.
func buildSelect(source RowSource, table string, columns []string, replicationKey string, cursor any) selectQuery {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = source.QuoteIdentifier(c)
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(quoted, ","))
	b.WriteString(" FROM ")
	b.WriteString(source.QuoteIdentifier(table))

	q := selectQuery{}
	if replicationKey == "" {
		q.SQL = b.String()
		return q
	}

	key := source.QuoteIdentifier(replicationKey)
	if cursor != nil {
		b.WriteString(" WHERE ")
		b.WriteString(key)
		b.WriteString(" >= ")
		b.WriteString(source.Placeholder(1))
		q.Args = append(q.Args, formatCursorValue(source, cursor))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(key)
	b.WriteString(" ASC")
	q.SQL = b.String()
	return q
}

// formatCursorValue converts a bookmark into the source's datetime text.
// Values that do not parse are used unchanged.
func formatCursorValue(source RowSource, cursor any) any {
	s, ok := cursor.(string)
	if !ok {
		return cursor
	}
	t, ok := parseCursorTime(s)
	if !ok {
		return s
	}
	if f, ok := source.(DatetimeFormatter); ok {
		return f.FormatCursorTime(t)
	}
	return t.Format(nativeDatetimeLayout)
}

func parseCursorTime(s string) (time.Time, bool) {
	for _, layout := range cursorLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
