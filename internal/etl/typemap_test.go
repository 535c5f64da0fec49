package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

func TestMapTypeIntegerBounds(t *testing.T) {
	cases := map[string][2]int64{
		"SMALLINT": {-32768, 32767},
		"integer":  {-2147483648, 2147483647},
		"INT64":    {-9223372036854775808, 9223372036854775807},
		"tinyint":  {-128, 127},
	}
	for native, bounds := range cases {
		s := MapType(native, false)
		require.Equal(t, domain.SchemaType{domain.TypeInteger}, s.Type, native)
		assert.Equal(t, bounds[0], *s.Minimum, native)
		assert.Equal(t, bounds[1], *s.Maximum, native)
	}
}

func TestMapTypeCategories(t *testing.T) {
	cases := []struct {
		native string
		typ    string
		format string
	}{
		{"VARCHAR", domain.TypeString, ""},
		{"character varying", domain.TypeString, ""},
		{"CSTRING", domain.TypeString, ""},
		{"DOUBLE", domain.TypeNumber, ""},
		{"D_FLOAT", domain.TypeNumber, ""},
		{"NUMERIC", domain.TypeNumber, ""},
		{"BOOLEAN", domain.TypeBoolean, ""},
		{"DATE", domain.TypeString, domain.FormatDate},
		{"TIMESTAMP", domain.TypeString, domain.FormatDateTime},
		{"timestamp with time zone", domain.TypeString, domain.FormatDateTime},
	}
	for _, c := range cases {
		s := MapType(c.native, false)
		assert.Equal(t, domain.SchemaType{c.typ}, s.Type, c.native)
		assert.Equal(t, c.format, s.Format, c.native)
		assert.Equal(t, domain.InclusionAvailable, s.Inclusion, c.native)
		assert.Nil(t, s.Minimum, c.native)
	}
}

func TestMapTypeNullableWidensType(t *testing.T) {
	s := MapType("INTEGER", true)
	assert.Equal(t, domain.SchemaType{domain.TypeNull, domain.TypeInteger}, s.Type)
	assert.Equal(t, int64(2147483647), *s.Maximum)

	s = MapType("TIMESTAMP", true)
	assert.Equal(t, domain.SchemaType{domain.TypeNull, domain.TypeString}, s.Type)
	assert.Equal(t, domain.FormatDateTime, s.Format)
}

func TestMapTypeUnsupported(t *testing.T) {
	for _, native := range []string{"BLOB", "QUAD", "TIME", "UNKNOWN", ""} {
		for _, nullable := range []bool{true, false} {
			s := MapType(native, nullable)
			assert.Equal(t, domain.InclusionUnsupported, s.Inclusion, native)
			assert.Empty(t, s.Type, native)
			assert.Contains(t, s.Description, "Unsupported column type")
		}
	}
}

func TestMapTypeIsPure(t *testing.T) {
	for native := range datetimeTypes {
		assert.Equal(t, MapType(native, true), MapType(native, true))
	}
}

func TestIsReplicationKeyType(t *testing.T) {
	assert.True(t, IsReplicationKeyType("TIMESTAMP"))
	assert.True(t, IsReplicationKeyType("timestamptz"))
	assert.False(t, IsReplicationKeyType("DATE"))
	assert.False(t, IsReplicationKeyType("INTEGER"))
}
