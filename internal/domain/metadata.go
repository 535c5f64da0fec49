package domain

import (
	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type ReplicationMethod string

const (
	ReplicationFullTable   ReplicationMethod = "FULL_TABLE"
	ReplicationIncremental ReplicationMethod = "INCREMENTAL"
)

// ForcedReplicationMethod marks a stream that can only be synced one way.
type ForcedReplicationMethod struct {
	Method ReplicationMethod `json:"replication-method"`
	Reason string            `json:"reason"`
}

// StreamMetadata is the root ([] breadcrumb) metadata of a stream.
type StreamMetadata struct {
	Selected             *bool
	SelectedByDefault    bool
	IsView               bool
	KeyProperties        []string
	ValidReplicationKeys []string
	ReplicationKey       string
	ReplicationMethod    ReplicationMethod
	Forced               *ForcedReplicationMethod
	SchemaName           string
	DatabaseName         string
}

type streamMetadataJSON struct {
	Selected             *bool                    `json:"selected,omitempty"`
	SelectedByDefault    bool                     `json:"selected-by-default"`
	IsView               bool                     `json:"is-view"`
	TableKeyProperties   *[]string                `json:"table-key-properties,omitempty"`
	ViewKeyProperties    *[]string                `json:"view-key-properties,omitempty"`
	ValidReplicationKeys []string                 `json:"valid-replication-keys,omitempty"`
	ReplicationKey       string                   `json:"replication-key,omitempty"`
	ReplicationMethod    ReplicationMethod        `json:"replication-method,omitempty"`
	Forced               *ForcedReplicationMethod `json:"forced-replication-method,omitempty"`
	SchemaName           string                   `json:"schema-name,omitempty"`
	DatabaseName         string                   `json:"database-name,omitempty"`
}

func (m StreamMetadata) MarshalJSON() ([]byte, error) {
	keys := m.KeyProperties
	if keys == nil {
		keys = []string{}
	}
	out := streamMetadataJSON{
		Selected:             m.Selected,
		SelectedByDefault:    m.SelectedByDefault,
		IsView:               m.IsView,
		ValidReplicationKeys: m.ValidReplicationKeys,
		ReplicationKey:       m.ReplicationKey,
		ReplicationMethod:    m.ReplicationMethod,
		Forced:               m.Forced,
		SchemaName:           m.SchemaName,
		DatabaseName:         m.DatabaseName,
	}
	if m.IsView {
		out.ViewKeyProperties = &keys
	} else {
		out.TableKeyProperties = &keys
	}
	return jsoncodec.Marshal(out)
}

func (m *StreamMetadata) UnmarshalJSON(data []byte) error {
	var in streamMetadataJSON
	if err := jsoncodec.Unmarshal(data, &in); err != nil {
		return err
	}
	*m = StreamMetadata{
		Selected:             in.Selected,
		SelectedByDefault:    in.SelectedByDefault,
		IsView:               in.IsView,
		ValidReplicationKeys: in.ValidReplicationKeys,
		ReplicationKey:       in.ReplicationKey,
		ReplicationMethod:    in.ReplicationMethod,
		Forced:               in.Forced,
		SchemaName:           in.SchemaName,
		DatabaseName:         in.DatabaseName,
	}
	switch {
	case in.IsView && in.ViewKeyProperties != nil:
		m.KeyProperties = *in.ViewKeyProperties
	case in.TableKeyProperties != nil:
		m.KeyProperties = *in.TableKeyProperties
	case in.ViewKeyProperties != nil:
		m.KeyProperties = *in.ViewKeyProperties
	}
	return nil
}

// ColumnMetadata is the ["properties", column] metadata of a stream.
type ColumnMetadata struct {
	Selected          *bool     `json:"selected,omitempty"`
	SelectedByDefault bool      `json:"selected-by-default"`
	SQLDatatype       string    `json:"sql-datatype,omitempty"`
	Inclusion         Inclusion `json:"inclusion,omitempty"`
}

// IsSelected applies the usual rule: an explicit selection wins, otherwise
// the discovery default is used. Automatic columns are always selected.
func (c *ColumnMetadata) IsSelected() bool {
	if c == nil {
		return true
	}
	switch c.Inclusion {
	case InclusionAutomatic:
		return true
	case InclusionUnsupported:
		return false
	}
	if c.Selected != nil {
		return *c.Selected
	}
	return c.SelectedByDefault
}

// ColumnMetadataMap keeps per-column metadata in schema order.
type ColumnMetadataMap = orderedmap.OrderedMap[string, *ColumnMetadata]

// Metadata replaces Singer's breadcrumb-keyed metadata map with a root
// record and a column map. It still serialises as the breadcrumb list.
type Metadata struct {
	Stream  StreamMetadata
	Columns *ColumnMetadataMap
}

func NewMetadata() Metadata {
	return Metadata{Columns: orderedmap.New[string, *ColumnMetadata]()}
}

// Column returns the metadata of a column, or nil when none was recorded.
func (m Metadata) Column(name string) *ColumnMetadata {
	if m.Columns == nil {
		return nil
	}
	c, _ := m.Columns.Get(name)
	return c
}

func (m *Metadata) SetColumn(name string, c *ColumnMetadata) {
	if m.Columns == nil {
		m.Columns = orderedmap.New[string, *ColumnMetadata]()
	}
	m.Columns.Set(name, c)
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	out := NewMetadata()
	out.Stream = m.Stream
	out.Stream.Selected = cloneBool(m.Stream.Selected)
	out.Stream.KeyProperties = cloneStrings(m.Stream.KeyProperties)
	out.Stream.ValidReplicationKeys = cloneStrings(m.Stream.ValidReplicationKeys)
	if m.Stream.Forced != nil {
		forced := *m.Stream.Forced
		out.Stream.Forced = &forced
	}
	if m.Columns != nil {
		for pair := m.Columns.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value == nil {
				out.Columns.Set(pair.Key, nil)
				continue
			}
			c := *pair.Value
			c.Selected = cloneBool(pair.Value.Selected)
			out.Columns.Set(pair.Key, &c)
		}
	}
	return out
}

type breadcrumbEntry struct {
	Breadcrumb []string            `json:"breadcrumb"`
	Metadata   jsoncodec.RawMessage `json:"metadata"`
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	entries := make([]breadcrumbEntry, 0, 1+m.columnCount())
	root, err := jsoncodec.Marshal(m.Stream)
	if err != nil {
		return nil, err
	}
	entries = append(entries, breadcrumbEntry{Breadcrumb: []string{}, Metadata: root})
	if m.Columns != nil {
		for pair := m.Columns.Oldest(); pair != nil; pair = pair.Next() {
			raw, err := jsoncodec.Marshal(pair.Value)
			if err != nil {
				return nil, err
			}
			entries = append(entries, breadcrumbEntry{
				Breadcrumb: []string{"properties", pair.Key},
				Metadata:   raw,
			})
		}
	}
	return jsoncodec.Marshal(entries)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var entries []breadcrumbEntry
	if err := jsoncodec.Unmarshal(data, &entries); err != nil {
		return err
	}
	*m = NewMetadata()
	for _, entry := range entries {
		switch {
		case len(entry.Breadcrumb) == 0:
			if err := jsoncodec.Unmarshal(entry.Metadata, &m.Stream); err != nil {
				return err
			}
		case len(entry.Breadcrumb) == 2 && entry.Breadcrumb[0] == "properties":
			var c ColumnMetadata
			if err := jsoncodec.Unmarshal(entry.Metadata, &c); err != nil {
				return err
			}
			m.Columns.Set(entry.Breadcrumb[1], &c)
		}
	}
	return nil
}

func (m Metadata) columnCount() int {
	if m.Columns == nil {
		return 0
	}
	return m.Columns.Len()
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
