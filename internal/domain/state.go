package domain

import (
	"sort"

	"github.com/SageData-OOD/tap-firebird/internal/jsoncodec"
)

// Bookmark is the persisted position of one stream. A nil Version means the
// next run mints a new one.
type Bookmark struct {
	Version             *int64 `json:"version"`
	ReplicationKey      string `json:"replication_key,omitempty"`
	ReplicationKeyValue any    `json:"replication_key_value,omitempty"`
}

// State holds the bookmarks of every stream plus the crash-resume marker.
// It is owned by a single sync run and is not safe for concurrent use.
type State struct {
	currentlySyncing string
	bookmarks        map[string]*Bookmark
}

func NewState() *State {
	return &State{bookmarks: make(map[string]*Bookmark)}
}

// GetBookmark returns a copy of the bookmark and whether one exists at all.
// A bookmark holding only a null version still exists.
func (s *State) GetBookmark(tapStreamID string) (Bookmark, bool) {
	if s == nil {
		return Bookmark{}, false
	}
	b, ok := s.bookmarks[tapStreamID]
	if !ok || b == nil {
		return Bookmark{}, false
	}
	return b.clone(), true
}

func (s *State) bookmark(tapStreamID string) *Bookmark {
	if s.bookmarks == nil {
		s.bookmarks = make(map[string]*Bookmark)
	}
	b, ok := s.bookmarks[tapStreamID]
	if !ok || b == nil {
		b = &Bookmark{}
		s.bookmarks[tapStreamID] = b
	}
	return b
}

func (s *State) WriteVersion(tapStreamID string, version *int64) {
	b := s.bookmark(tapStreamID)
	if version == nil {
		b.Version = nil
		return
	}
	v := *version
	b.Version = &v
}

func (s *State) WriteReplicationKey(tapStreamID, key string) {
	s.bookmark(tapStreamID).ReplicationKey = key
}

func (s *State) WriteReplicationKeyValue(tapStreamID string, value any) {
	s.bookmark(tapStreamID).ReplicationKeyValue = value
}

// SetCurrentlySyncing marks the stream in flight; an empty id clears it.
func (s *State) SetCurrentlySyncing(tapStreamID string) {
	s.currentlySyncing = tapStreamID
}

func (s *State) CurrentlySyncing() string {
	if s == nil {
		return ""
	}
	return s.currentlySyncing
}

// StreamIDs lists the bookmarked streams in sorted order.
func (s *State) StreamIDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.bookmarks))
	for id := range s.bookmarks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy; later writes to s never reach the copy.
func (s *State) Clone() *State {
	out := NewState()
	if s == nil {
		return out
	}
	out.currentlySyncing = s.currentlySyncing
	for id, b := range s.bookmarks {
		if b == nil {
			continue
		}
		c := b.clone()
		out.bookmarks[id] = &c
	}
	return out
}

func (b Bookmark) clone() Bookmark {
	out := Bookmark{ReplicationKey: b.ReplicationKey, ReplicationKeyValue: b.ReplicationKeyValue}
	if b.Version != nil {
		v := *b.Version
		out.Version = &v
	}
	return out
}

type stateJSON struct {
	CurrentlySyncing *string              `json:"currently_syncing"`
	Bookmarks        map[string]*Bookmark `json:"bookmarks"`
}

func (s *State) MarshalJSON() ([]byte, error) {
	out := stateJSON{Bookmarks: map[string]*Bookmark{}}
	if s != nil {
		if s.currentlySyncing != "" {
			id := s.currentlySyncing
			out.CurrentlySyncing = &id
		}
		for id, b := range s.bookmarks {
			if b != nil {
				out.Bookmarks[id] = b
			}
		}
	}
	return jsoncodec.Marshal(out)
}

// UnmarshalJSON keeps numeric bookmark values as json.Number.
func (s *State) UnmarshalJSON(data []byte) error {
	var in stateJSON
	if err := jsoncodec.UnmarshalNumber(data, &in); err != nil {
		return err
	}
	*s = State{bookmarks: make(map[string]*Bookmark, len(in.Bookmarks))}
	if in.CurrentlySyncing != nil {
		s.currentlySyncing = *in.CurrentlySyncing
	}
	for id, b := range in.Bookmarks {
		if b != nil {
			s.bookmarks[id] = b
		}
	}
	return nil
}

// Version returns a pointer to v.
func Version(v int64) *int64 { return &v }
