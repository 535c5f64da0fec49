package etl

import (
	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

// ── State ──────────────────────────────────────────────────

// BuildState reconciles a previously persisted state with the catalog about
// to be synced. Only streams of the catalog survive. It never fails.
func BuildState(raw *domain.State, catalog *domain.Catalog) *domain.State {
	state := domain.NewState()
	if current := raw.CurrentlySyncing(); current != "" {
		state.SetCurrentlySyncing(current)
	}
	if catalog == nil {
		return state
	}

	for _, entry := range catalog.Streams {
		id := entry.TapStreamID
		prior, hasPrior := raw.GetBookmark(id)

		switch entry.ReplicationMethod() {
		case domain.ReplicationIncremental:
			key := entry.ReplicationKey()
			state.WriteReplicationKey(id, key)
			// A changed cursor column invalidates the old cursor value.
			if hasPrior && prior.ReplicationKey == key && prior.ReplicationKeyValue != nil {
				state.WriteReplicationKeyValue(id, prior.ReplicationKeyValue)
			}
			if prior.Version != nil {
				state.WriteVersion(id, prior.Version)
			}

		case domain.ReplicationFullTable:
			// An interrupted full load resumes under its version; otherwise
			// the null version makes the engine mint a new one.
			state.WriteVersion(id, prior.Version)
		}
	}
	return state
}
