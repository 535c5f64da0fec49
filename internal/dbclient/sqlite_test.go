package dbclient

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SageData-OOD/tap-firebird/internal/config"
	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/etl"
	"github.com/SageData-OOD/tap-firebird/internal/logging"
)

func seedSQLite(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE orders (id INTEGER PRIMARY KEY, name VARCHAR(20), amount NUMERIC, updated_at TIMESTAMP, payload BLOB)`,
		`CREATE TABLE tags (name TEXT NOT NULL)`,
		`CREATE VIEW recent AS SELECT id, updated_at FROM orders`,
		`INSERT INTO orders VALUES (1, 'a', 1.5, '2024-01-01 00:00:00', x'00')`,
		`INSERT INTO orders VALUES (2, 'b', 2.5, '2024-01-02 00:00:00', NULL)`,
		`INSERT INTO orders VALUES (3, 'c', 3.5, '2024-01-03 00:00:00', NULL)`,
		`INSERT INTO tags VALUES ('x')`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	return &config.Config{Dialect: config.DialectSQLite, Database: path, StartDate: "2020-01-01T00:00:00Z"}
}

func openSQLite(t *testing.T, cfg *config.Config) *Connector {
	t.Helper()
	conn, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSQLiteDiscover(t *testing.T) {
	conn := openSQLite(t, seedSQLite(t))

	catalog, err := etl.Discover(context.Background(), conn)
	require.NoError(t, err)
	require.Len(t, catalog.Streams, 3)

	orders, ok := catalog.GetStream("orders")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "name", "amount", "updated_at", "payload"}, orders.Schema.PropertyNames())
	assert.Equal(t, []string{"id"}, orders.KeyProperties())
	assert.Equal(t, []string{"updated_at"}, orders.Metadata.Stream.ValidReplicationKeys)
	assert.Equal(t, domain.InclusionUnsupported, orders.Metadata.Column("payload").Inclusion)
	assert.Equal(t, "varchar", orders.Metadata.Column("name").SQLDatatype)

	id, _ := orders.Schema.Property("id")
	assert.Equal(t, domain.SchemaType{domain.TypeInteger}, id.Type)
	name, _ := orders.Schema.Property("name")
	assert.Equal(t, domain.SchemaType{domain.TypeNull, domain.TypeString}, name.Type)

	recent, _ := catalog.GetStream("recent")
	assert.True(t, recent.IsView())

	tags, _ := catalog.GetStream("tags")
	require.NotNil(t, tags.Metadata.Stream.Forced)
	assert.Equal(t, domain.ReplicationFullTable, tags.Metadata.Stream.Forced.Method)
}

func incrementalCatalog(t *testing.T, discovered *domain.Catalog) *domain.Catalog {
	t.Helper()
	user := &domain.Catalog{}
	for _, s := range discovered.Streams {
		md := s.Metadata.Clone()
		md.Stream.Selected = domain.Bool(s.TapStreamID == "orders")
		if s.TapStreamID == "orders" {
			md.Stream.ReplicationMethod = domain.ReplicationIncremental
			md.Stream.ReplicationKey = "updated_at"
		}
		user.Streams = append(user.Streams, &domain.CatalogEntry{TapStreamID: s.TapStreamID, Metadata: md})
	}
	resolved, err := (&etl.SelectionResolver{Logger: logging.Discard()}).Resolve(discovered, user, nil)
	require.NoError(t, err)
	return resolved
}

func runSync(t *testing.T, conn *Connector, cfg *config.Config, catalog *domain.Catalog, raw *domain.State) (*etl.Recorder, *domain.State) {
	t.Helper()
	start, err := cfg.StartDateTime()
	require.NoError(t, err)
	state := etl.BuildState(raw, catalog)
	rec := &etl.Recorder{}
	engine := &etl.Engine{Source: conn, Emitter: rec, Logger: logging.Discard(), StartDate: start}
	require.NoError(t, engine.GenerateMessages(context.Background(), catalog, state))
	return rec, state
}

func TestSQLiteIncrementalSyncResumesAtBoundary(t *testing.T) {
	cfg := seedSQLite(t)
	conn := openSQLite(t, cfg)

	discovered, err := etl.Discover(context.Background(), conn)
	require.NoError(t, err)
	catalog := incrementalCatalog(t, discovered)
	require.Len(t, catalog.Streams, 1)

	rec, state := runSync(t, conn, cfg, catalog, domain.NewState())
	records := rec.Records()
	require.Len(t, records, 3)
	first := records[0].Record
	assert.Equal(t, []string{"id", "name", "amount", "updated_at"}, recordKeys(first))
	id, _ := first.Get("id")
	assert.EqualValues(t, 1, id)

	b, ok := state.GetBookmark("orders")
	require.True(t, ok)
	assert.Contains(t, b.ReplicationKeyValue, "2024-01-03")
	assert.Empty(t, state.CurrentlySyncing())

	// The inclusive lower bound re-reads the last synced row once.
	rec, _ = runSync(t, conn, cfg, catalog, state)
	records = rec.Records()
	require.Len(t, records, 1)
	id, _ = records[0].Record.Get("id")
	assert.EqualValues(t, 3, id)
	assert.Equal(t, *b.Version, *records[0].Version)
}

func TestSQLiteFullTableSync(t *testing.T) {
	cfg := seedSQLite(t)
	conn := openSQLite(t, cfg)

	discovered, err := etl.Discover(context.Background(), conn)
	require.NoError(t, err)
	user := &domain.Catalog{Streams: []*domain.CatalogEntry{{TapStreamID: "tags", Metadata: domain.Metadata{Stream: domain.StreamMetadata{Selected: domain.Bool(true)}}}}}
	catalog, err := (&etl.SelectionResolver{Logger: logging.Discard()}).Resolve(discovered, user, nil)
	require.NoError(t, err)

	rec, state := runSync(t, conn, cfg, catalog, domain.NewState())
	require.Len(t, rec.Records(), 1)
	b, _ := state.GetBookmark("tags")
	assert.Nil(t, b.Version)
}

func TestOpenFailsWithConnectionError(t *testing.T) {
	cfg := &config.Config{Dialect: config.DialectSQLite, Database: filepath.Join(t.TempDir(), "missing", "dir", "x.db")}
	_, err := Open(context.Background(), cfg)
	assert.ErrorIs(t, err, domain.ErrConnection)

	_, err = Open(context.Background(), &config.Config{Dialect: "oracle"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedDialect)
}

func recordKeys(r *domain.Record) []string {
	var keys []string
	for pair := r.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
