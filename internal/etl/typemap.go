package etl

import (
	"fmt"
	"strings"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

// ── Type mapping ───────────────────────────────────────────
// Native column type → JSON schema node. Names are matched exactly after
// lower-casing; every dialect's introspection reports names from this set.

var stringTypes = map[string]bool{
	"char": true, "character": true, "nchar": true, "bpchar": true,
	"text": true, "varchar": true, "character varying": true,
	"nvarchar": true, "cstring": true,
}

var bytesForIntegerType = map[string]int{
	"tinyint":   1,
	"smallint":  2,
	"int2":      2,
	"mediumint": 3,
	"integer":   4,
	"int":       4,
	"int4":      4,
	"int64":     8,
	"bigint":    8,
	"int8":      8,
}

var floatTypes = map[string]bool{
	"float": true, "float4": true, "float8": true, "real": true,
	"double": true, "double precision": true, "d_float": true,
}

var numericTypes = map[string]bool{"numeric": true, "decimal": true}

var booleanTypes = map[string]bool{"boolean": true, "bool": true}

var dateTypes = map[string]bool{"date": true}

var datetimeTypes = map[string]bool{
	"timestamp": true, "timestamptz": true,
	"timestamp without time zone": true, "timestamp with time zone": true,
	"datetime": true,
}

// MapType returns the schema node for a column. It never fails: a type
// outside the vocabulary yields an unsupported node without a type.
func MapType(nativeType string, nullable bool) *domain.Schema {
	t := normalizeType(nativeType)
	s := &domain.Schema{Inclusion: domain.InclusionAvailable}

	switch {
	case booleanTypes[t]:
		s.Type = domain.SchemaType{domain.TypeBoolean}
	case bytesForIntegerType[t] > 0:
		bits := bytesForIntegerType[t] * 8
		lo, hi := integerBounds(bits)
		s.Type = domain.SchemaType{domain.TypeInteger}
		s.Minimum, s.Maximum = &lo, &hi
	case floatTypes[t], numericTypes[t]:
		s.Type = domain.SchemaType{domain.TypeNumber}
	case stringTypes[t]:
		s.Type = domain.SchemaType{domain.TypeString}
	case datetimeTypes[t]:
		s.Type = domain.SchemaType{domain.TypeString}
		s.Format = domain.FormatDateTime
	case dateTypes[t]:
		s.Type = domain.SchemaType{domain.TypeString}
		s.Format = domain.FormatDate
	default:
		return &domain.Schema{
			Inclusion:   domain.InclusionUnsupported,
			Description: fmt.Sprintf("Unsupported column type %s", t),
		}
	}

	if nullable {
		s.Type = domain.SchemaType{domain.TypeNull, s.Type[0]}
	}
	return s
}

// IsReplicationKeyType reports whether a column of this type can serve as an
// incremental cursor.
func IsReplicationKeyType(nativeType string) bool {
	return datetimeTypes[normalizeType(nativeType)]
}

func normalizeType(nativeType string) string {
	return strings.ToLower(strings.TrimSpace(nativeType))
}

func integerBounds(bits int) (int64, int64) {
	if bits >= 64 {
		return -1 << 63, 1<<63 - 1
	}
	return -(int64(1) << (bits - 1)), int64(1)<<(bits-1) - 1
}
