package etl

import (
	"context"
	"fmt"
	"sort"

	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

// ── Discover ───────────────────────────────────────────────
// Introspects the row source and builds one catalog entry per table/view.

// Discover returns the catalog of every table and view, in listing order.
// Metadata query failures are connection errors.
func Discover(ctx context.Context, source RowSource) (*domain.Catalog, error) {
	tables, err := source.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %v", domain.ErrConnection, err)
	}
	columns, err := source.Columns(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list columns: %v", domain.ErrConnection, err)
	}
	pks, err := source.PrimaryKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list primary keys: %v", domain.ErrConnection, err)
	}

	tableColumns := make(map[string][]domain.ColumnSpec)
	for _, c := range columns {
		tableColumns[c.Table] = append(tableColumns[c.Table], c)
	}
	for _, cols := range tableColumns {
		sort.SliceStable(cols, func(i, j int) bool { return cols[i].Position < cols[j].Position })
	}
	tablePKs := make(map[string][]string)
	for _, pk := range pks {
		tablePKs[pk.Table] = append(tablePKs[pk.Table], pk.Column)
	}

	database := source.DatabaseName()
	catalog := &domain.Catalog{Streams: make([]*domain.CatalogEntry, 0, len(tables))}
	for _, table := range tables {
		catalog.Streams = append(catalog.Streams,
			buildEntry(database, table, tableColumns[table.Name], tablePKs[table.Name]))
	}
	return catalog, nil
}

func buildEntry(database string, table domain.TableSpec, cols []domain.ColumnSpec, pks []string) *domain.CatalogEntry {
	schema := domain.NewObjectSchema()
	for _, c := range cols {
		schema.AddProperty(c.Name, MapType(c.Type, c.Nullable))
	}

	keyProperties := make([]string, 0, len(pks))
	for _, pk := range pks {
		prop, ok := schema.Property(pk)
		if !ok || prop.Unsupported() {
			continue
		}
		keyProperties = append(keyProperties, pk)
	}

	return &domain.CatalogEntry{
		TapStreamID: table.Name,
		Stream:      table.Name,
		Table:       table.Name,
		Database:    database,
		Schema:      schema,
		Metadata:    BuildMetadata(database, table, cols, keyProperties),
	}
}
