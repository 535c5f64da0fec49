package etl

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"
)

// ── Record conversion ──────────────────────────────────────
// Driver values → JSON-ready record values. Dates and datetimes become
// ISO-8601 text, decimals stay exact, non-finite floats become null.

const (
	dateLayout          = "2006-01-02"
	datetimeLayout      = "2006-01-02T15:04:05"
	datetimeMicroLayout = "2006-01-02T15:04:05.000000"
)

var jsonNumberPattern = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)

type columnKind int

const (
	kindOther columnKind = iota
	kindNumber
	kindDate
	kindDatetime
	kindDatetimeTZ
)

// recordConverter turns scanned rows of one stream into records.
type recordConverter struct {
	columns []string
	kinds   []columnKind
}

func newRecordConverter(entry *domain.CatalogEntry, columns []string) *recordConverter {
	kinds := make([]columnKind, len(columns))
	for i, name := range columns {
		prop, _ := entry.Schema.Property(name)
		kinds[i] = kindOf(prop, entry.Metadata.Column(name))
	}
	return &recordConverter{columns: columns, kinds: kinds}
}

func kindOf(prop *domain.Schema, md *domain.ColumnMetadata) columnKind {
	if prop == nil {
		return kindOther
	}
	switch prop.Format {
	case domain.FormatDate:
		return kindDate
	case domain.FormatDateTime:
		if md != nil && (strings.Contains(md.SQLDatatype, "with time zone") || md.SQLDatatype == "timestamptz") {
			return kindDatetimeTZ
		}
		return kindDatetime
	}
	if prop.Type.Base() == domain.TypeNumber {
		return kindNumber
	}
	return kindOther
}

func (c *recordConverter) convert(values []any) *domain.Record {
	cleaned := make([]any, len(values))
	for i, v := range values {
		kind := kindOther
		if i < len(c.kinds) {
			kind = c.kinds[i]
		}
		cleaned[i] = cleanValue(v, kind)
	}
	return domain.NewRecord(c.columns, cleaned)
}

func cleanValue(v any, kind columnKind) any {
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		return formatTime(x, kind)
	case *time.Time:
		if x == nil {
			return nil
		}
		return formatTime(*x, kind)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case float32:
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case []byte:
		return cleanText(string(x), kind)
	case string:
		return cleanText(x, kind)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return x
	case fmt.Stringer:
		return cleanText(x.String(), kindNumber)
	default:
		return x
	}
}

func cleanText(s string, kind columnKind) any {
	if kind == kindNumber {
		trimmed := strings.TrimSpace(s)
		if jsonNumberPattern.MatchString(trimmed) {
			return jsoncodec.Number(trimmed)
		}
		if strings.EqualFold(trimmed, "nan") || strings.Contains(strings.ToLower(trimmed), "inf") {
			return nil
		}
	}
	return s
}

func formatTime(t time.Time, kind columnKind) string {
	switch kind {
	case kindDate:
		return t.Format(dateLayout)
	case kindDatetimeTZ:
		return formatDatetime(t) + t.Format("-07:00")
	default:
		return formatDatetime(t)
	}
}

// formatDatetime renders microseconds only when they are non-zero.
func formatDatetime(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		return t.Format(datetimeMicroLayout)
	}
	return t.Format(datetimeLayout)
}
