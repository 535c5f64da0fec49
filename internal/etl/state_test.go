package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

func stateCatalog(method domain.ReplicationMethod, key string) *domain.Catalog {
	md := domain.NewMetadata()
	md.Stream.ReplicationMethod = method
	md.Stream.ReplicationKey = key
	return &domain.Catalog{Streams: []*domain.CatalogEntry{{
		TapStreamID: "ORDERS", Stream: "ORDERS", Table: "ORDERS",
		Schema: domain.NewObjectSchema(), Metadata: md,
	}}}
}

func TestBuildStateResetsCursorWhenKeyChanges(t *testing.T) {
	raw := domain.NewState()
	raw.WriteReplicationKey("ORDERS", "updated_at")
	raw.WriteReplicationKeyValue("ORDERS", "2024-01-03T00:00:00")
	raw.WriteVersion("ORDERS", domain.Version(10))

	state := BuildState(raw, stateCatalog(domain.ReplicationIncremental, "modified_at"))

	b, ok := state.GetBookmark("ORDERS")
	require.True(t, ok)
	assert.Equal(t, "modified_at", b.ReplicationKey)
	assert.Nil(t, b.ReplicationKeyValue)
	assert.Equal(t, int64(10), *b.Version)
}

func TestBuildStateKeepsCursorForSameKey(t *testing.T) {
	raw := domain.NewState()
	raw.WriteReplicationKey("ORDERS", "updated_at")
	raw.WriteReplicationKeyValue("ORDERS", "2024-01-03T00:00:00")

	state := BuildState(raw, stateCatalog(domain.ReplicationIncremental, "updated_at"))

	b, _ := state.GetBookmark("ORDERS")
	assert.Equal(t, "2024-01-03T00:00:00", b.ReplicationKeyValue)
	assert.Nil(t, b.Version)
}

func TestBuildStateFullTableWithoutVersion(t *testing.T) {
	state := BuildState(domain.NewState(), stateCatalog(domain.ReplicationFullTable, ""))

	b, ok := state.GetBookmark("ORDERS")
	require.True(t, ok)
	assert.Nil(t, b.Version)
	assert.Empty(t, b.ReplicationKey)
}

func TestBuildStateFullTableKeepsInterruptedVersion(t *testing.T) {
	raw := domain.NewState()
	raw.WriteVersion("ORDERS", domain.Version(99))

	state := BuildState(raw, stateCatalog(domain.ReplicationFullTable, ""))

	b, _ := state.GetBookmark("ORDERS")
	assert.Equal(t, int64(99), *b.Version)
}

func TestBuildStateDropsUnknownStreamsAndKeepsCurrentlySyncing(t *testing.T) {
	raw := domain.NewState()
	raw.SetCurrentlySyncing("ORDERS")
	raw.WriteVersion("GONE", domain.Version(1))

	state := BuildState(raw, stateCatalog(domain.ReplicationFullTable, ""))

	assert.Equal(t, "ORDERS", state.CurrentlySyncing())
	_, ok := state.GetBookmark("GONE")
	assert.False(t, ok)
	assert.Equal(t, []string{"ORDERS"}, state.StreamIDs())
}

func TestBuildStateWithoutMethodWritesNothing(t *testing.T) {
	state := BuildState(nil, stateCatalog("", ""))
	_, ok := state.GetBookmark("ORDERS")
	assert.False(t, ok)
}
