package domain

import (
	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Inclusion tells whether a column can be represented in the output schema.
type Inclusion string

const (
	InclusionAvailable   Inclusion = "available"
	InclusionAutomatic   Inclusion = "automatic"
	InclusionUnsupported Inclusion = "unsupported"
)

const (
	TypeNull    = "null"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeString  = "string"
	TypeObject  = "object"
)

const (
	FormatDate     = "date"
	FormatDateTime = "date-time"
)

// SchemaType is a JSON-schema type: a single name, or a union such as
// ["null", "integer"]. A single name is serialised as a plain string.
type SchemaType []string

func (t SchemaType) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return jsoncodec.Marshal(t[0])
	}
	return jsoncodec.Marshal([]string(t))
}

func (t *SchemaType) UnmarshalJSON(data []byte) error {
	var single string
	if err := jsoncodec.Unmarshal(data, &single); err == nil {
		*t = SchemaType{single}
		return nil
	}
	var union []string
	if err := jsoncodec.Unmarshal(data, &union); err != nil {
		return err
	}
	*t = SchemaType(union)
	return nil
}

// Nullable reports whether the union includes the null marker.
func (t SchemaType) Nullable() bool {
	for _, name := range t {
		if name == TypeNull {
			return true
		}
	}
	return false
}

// Base returns the first non-null member of the type.
func (t SchemaType) Base() string {
	for _, name := range t {
		if name != TypeNull {
			return name
		}
	}
	return ""
}

// Properties keeps columns in ordinal order.
type Properties = orderedmap.OrderedMap[string, *Schema]

// Schema is a JSON-schema node describing either a column or a whole stream.
type Schema struct {
	Type        SchemaType  `json:"type,omitempty"`
	Format      string      `json:"format,omitempty"`
	Minimum     *int64      `json:"minimum,omitempty"`
	Maximum     *int64      `json:"maximum,omitempty"`
	Inclusion   Inclusion   `json:"inclusion,omitempty"`
	Description string      `json:"description,omitempty"`
	Properties  *Properties `json:"properties,omitempty"`
}

// NewObjectSchema returns an empty stream-level schema.
func NewObjectSchema() *Schema {
	return &Schema{
		Type:       SchemaType{TypeObject},
		Properties: orderedmap.New[string, *Schema](),
	}
}

// AddProperty appends a column, keeping insertion order.
func (s *Schema) AddProperty(name string, column *Schema) {
	if s.Properties == nil {
		s.Properties = orderedmap.New[string, *Schema]()
	}
	s.Properties.Set(name, column)
}

// Property looks up a column schema by name.
func (s *Schema) Property(name string) (*Schema, bool) {
	if s == nil || s.Properties == nil {
		return nil, false
	}
	return s.Properties.Get(name)
}

// PropertyNames lists the columns in schema order.
func (s *Schema) PropertyNames() []string {
	if s == nil || s.Properties == nil {
		return nil
	}
	names := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Unsupported reports whether the node cannot be represented in records.
func (s *Schema) Unsupported() bool {
	return s != nil && s.Inclusion == InclusionUnsupported
}
