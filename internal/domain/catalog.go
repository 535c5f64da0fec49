package domain

// CatalogEntry describes one table or view exposed as a stream.
type CatalogEntry struct {
	TapStreamID string   `json:"tap_stream_id"`
	Stream      string   `json:"stream"`
	Table       string   `json:"table_name"`
	Database    string   `json:"database_name,omitempty"`
	Schema      *Schema  `json:"schema"`
	Metadata    Metadata `json:"metadata"`
}

// IsSelected reports whether the stream should be synced.
func (e *CatalogEntry) IsSelected() bool {
	if e.Metadata.Stream.Selected != nil {
		return *e.Metadata.Stream.Selected
	}
	return e.Metadata.Stream.SelectedByDefault
}

func (e *CatalogEntry) IsView() bool {
	return e.Metadata.Stream.IsView
}

// KeyProperties returns the table- or view-key-properties of the stream.
func (e *CatalogEntry) KeyProperties() []string {
	if e.Metadata.Stream.KeyProperties == nil {
		return []string{}
	}
	return e.Metadata.Stream.KeyProperties
}

// ReplicationKey is empty for full-table streams.
func (e *CatalogEntry) ReplicationKey() string {
	return e.Metadata.Stream.ReplicationKey
}

func (e *CatalogEntry) ReplicationMethod() ReplicationMethod {
	return e.Metadata.Stream.ReplicationMethod
}

// BookmarkProperties is the replication key as a list, nil when there is none.
func (e *CatalogEntry) BookmarkProperties() []string {
	if key := e.ReplicationKey(); key != "" {
		return []string{key}
	}
	return nil
}

// SelectedColumns returns, in schema order, the columns a sync reads.
// Unsupported columns are never returned. Key and replication-key columns
// are always returned when supported.
func (e *CatalogEntry) SelectedColumns() []string {
	if e.Schema == nil {
		return nil
	}
	forced := make(map[string]bool)
	for _, k := range e.KeyProperties() {
		forced[k] = true
	}
	if key := e.ReplicationKey(); key != "" {
		forced[key] = true
	}

	var columns []string
	for _, name := range e.Schema.PropertyNames() {
		prop, _ := e.Schema.Property(name)
		if prop.Unsupported() {
			continue
		}
		md := e.Metadata.Column(name)
		if md != nil && md.Inclusion == InclusionUnsupported {
			continue
		}
		if forced[name] || md.IsSelected() {
			columns = append(columns, name)
		}
	}
	return columns
}

// Catalog is the list of streams in output order.
type Catalog struct {
	Streams []*CatalogEntry `json:"streams"`
}

// GetStream finds a stream by tap_stream_id.
func (c *Catalog) GetStream(tapStreamID string) (*CatalogEntry, bool) {
	if c == nil {
		return nil, false
	}
	for _, s := range c.Streams {
		if s.TapStreamID == tapStreamID {
			return s, true
		}
	}
	return nil, false
}
