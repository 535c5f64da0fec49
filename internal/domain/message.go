package domain

import "time"

type MessageType string

const (
	MessageSchema          MessageType = "SCHEMA"
	MessageRecord          MessageType = "RECORD"
	MessageState           MessageType = "STATE"
	MessageActivateVersion MessageType = "ACTIVATE_VERSION"
)

// Message is one line of tap output.
type Message interface {
	MessageType() MessageType
}

type SchemaMessage struct {
	Type               MessageType `json:"type"`
	Stream             string      `json:"stream"`
	Schema             *Schema     `json:"schema"`
	KeyProperties      []string    `json:"key_properties"`
	BookmarkProperties []string    `json:"bookmark_properties,omitempty"`
}

func NewSchemaMessage(entry *CatalogEntry) *SchemaMessage {
	return &SchemaMessage{
		Type:               MessageSchema,
		Stream:             entry.Stream,
		Schema:             entry.Schema,
		KeyProperties:      entry.KeyProperties(),
		BookmarkProperties: entry.BookmarkProperties(),
	}
}

func (m *SchemaMessage) MessageType() MessageType { return MessageSchema }

type RecordMessage struct {
	Type          MessageType `json:"type"`
	Stream        string      `json:"stream"`
	Record        *Record     `json:"record"`
	Version       *int64      `json:"version,omitempty"`
	TimeExtracted *time.Time  `json:"time_extracted,omitempty"`
}

func NewRecordMessage(stream string, record *Record, version int64, extracted time.Time) *RecordMessage {
	ts := extracted.UTC()
	return &RecordMessage{
		Type:          MessageRecord,
		Stream:        stream,
		Record:        record,
		Version:       Version(version),
		TimeExtracted: &ts,
	}
}

func (m *RecordMessage) MessageType() MessageType { return MessageRecord }

// StateMessage carries a snapshot of the state; the snapshot is never
// mutated after the message is built.
type StateMessage struct {
	Type  MessageType `json:"type"`
	Value *State      `json:"value"`
}

func NewStateMessage(state *State) *StateMessage {
	return &StateMessage{Type: MessageState, Value: state.Clone()}
}

func (m *StateMessage) MessageType() MessageType { return MessageState }

type ActivateVersionMessage struct {
	Type    MessageType `json:"type"`
	Stream  string      `json:"stream"`
	Version int64       `json:"version"`
}

func NewActivateVersionMessage(stream string, version int64) *ActivateVersionMessage {
	return &ActivateVersionMessage{Type: MessageActivateVersion, Stream: stream, Version: version}
}

func (m *ActivateVersionMessage) MessageType() MessageType { return MessageActivateVersion }
