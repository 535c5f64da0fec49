package etl

import (
	"log/slog"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

// ── Resolve ────────────────────────────────────────────────
// Merges the user's catalog (selection, replication choices) onto a fresh
// discovery so schema changes in the database are always picked up.

// Resolver produces the catalog a sync actually runs.
type Resolver interface {
	Resolve(discovered, user *domain.Catalog, state *domain.State) (*domain.Catalog, error)
}

// SelectionResolver is the default Resolver.
//
// Streams come from the user catalog (its order), restricted to the selected
// ones that still exist. Schema and column types always come from discovery.
// Columns are kept when the user selected them, or when the user catalog says
// nothing about them and discovery selects them by default. Key and
// replication-key columns are always kept and marked automatic. A stream
// whose discovery forces FULL_TABLE is synced that way regardless of the
// user's choice. The stream named by currently_syncing is moved first so an
// interrupted run resumes where it stopped.
type SelectionResolver struct {
	Logger *slog.Logger
}

func (r *SelectionResolver) Resolve(discovered, user *domain.Catalog, state *domain.State) (*domain.Catalog, error) {
	if user == nil {
		return nil, domain.ErrNoCatalog
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	resolved := &domain.Catalog{}
	for _, userEntry := range user.Streams {
		if !userEntry.IsSelected() {
			continue
		}
		fresh, ok := discovered.GetStream(userEntry.TapStreamID)
		if !ok {
			logger.Warn("selected stream no longer exists, skipping", "stream", userEntry.TapStreamID)
			continue
		}
		resolved.Streams = append(resolved.Streams, r.resolveEntry(logger, fresh, userEntry))
	}

	if current := state.CurrentlySyncing(); current != "" {
		moveFirst(resolved, current)
	}
	return resolved, nil
}

func (r *SelectionResolver) resolveEntry(logger *slog.Logger, fresh, userEntry *domain.CatalogEntry) *domain.CatalogEntry {
	md := fresh.Metadata.Clone()
	md.Stream.Selected = domain.Bool(true)

	method, key := replicationChoice(logger, fresh, userEntry)
	md.Stream.ReplicationMethod = method
	md.Stream.ReplicationKey = key

	automatic := make(map[string]bool)
	for _, k := range md.Stream.KeyProperties {
		automatic[k] = true
	}
	if key != "" {
		automatic[key] = true
	}

	schema := domain.NewObjectSchema()
	for _, name := range fresh.Schema.PropertyNames() {
		prop, _ := fresh.Schema.Property(name)
		colMD := md.Column(name)
		if prop.Unsupported() {
			if colMD != nil {
				colMD.Selected = domain.Bool(false)
			}
			continue
		}

		selected := automatic[name]
		if !selected {
			if userMD := userEntry.Metadata.Column(name); userMD != nil {
				selected = userMD.IsSelected()
			} else {
				selected = colMD.IsSelected()
			}
		}
		if colMD != nil {
			colMD.Selected = domain.Bool(selected)
			if automatic[name] {
				colMD.Inclusion = domain.InclusionAutomatic
			}
		}
		if selected {
			schema.AddProperty(name, prop)
		}
	}

	return &domain.CatalogEntry{
		TapStreamID: fresh.TapStreamID,
		Stream:      fresh.Stream,
		Table:       fresh.Table,
		Database:    fresh.Database,
		Schema:      schema,
		Metadata:    md,
	}
}

func replicationChoice(logger *slog.Logger, fresh, userEntry *domain.CatalogEntry) (domain.ReplicationMethod, string) {
	if forced := fresh.Metadata.Stream.Forced; forced != nil {
		return forced.Method, ""
	}

	method := userEntry.ReplicationMethod()
	key := userEntry.ReplicationKey()
	if method == domain.ReplicationFullTable {
		return method, ""
	}
	if key == "" {
		if method == domain.ReplicationIncremental {
			logger.Warn("incremental stream has no replication-key, using FULL_TABLE", "stream", fresh.TapStreamID)
		}
		return domain.ReplicationFullTable, ""
	}
	if !contains(fresh.Metadata.Stream.ValidReplicationKeys, key) {
		logger.Warn("replication-key is not a valid replication key, using FULL_TABLE",
			"stream", fresh.TapStreamID, "replication_key", key)
		return domain.ReplicationFullTable, ""
	}
	return domain.ReplicationIncremental, key
}

func moveFirst(catalog *domain.Catalog, tapStreamID string) {
	for i, s := range catalog.Streams {
		if s.TapStreamID != tapStreamID {
			continue
		}
		copy(catalog.Streams[1:i+1], catalog.Streams[:i])
		catalog.Streams[0] = s
		return
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
