package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/SageData-OOD/tap-firebird/internal/config"
	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

// sqliteDialect reads columns and keys through PRAGMA table_info, which has
// no catalog-wide form.
type sqliteDialect struct {
	sqlDialect
}

var sqliteDialectInstance = &sqliteDialect{sqlDialect{
	name:   config.DialectSQLite,
	driver: "sqlite",
	tablesQuery: `
		SELECT name, upper(type)
		FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`,
	dsn:       buildSQLiteDSN,
	quoteChar: `"`,
}}

func init() { RegisterDialect(sqliteDialectInstance) }

// buildSQLiteDSN opens the file with a busy timeout.
func buildSQLiteDSN(cfg *config.Config) string {
	if cfg.Database == ":memory:" {
		return cfg.Database
	}
	return cfg.Database + "?_pragma=busy_timeout(5000)"
}

type sqliteColumn struct {
	name     string
	typ      string
	notNull  bool
	pk       int
	position int
}

// tableInfo collects table names first and closes that cursor before running
// the pragmas: the pool holds a single connection.
func (d *sqliteDialect) tableInfo(ctx context.Context, db *sql.DB) (map[string][]sqliteColumn, []string, error) {
	tables, err := d.Tables(ctx, db)
	if err != nil {
		return nil, nil, err
	}

	info := make(map[string][]sqliteColumn, len(tables))
	names := make([]string, 0, len(tables))
	for _, t := range tables {
		rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", d.QuoteIdentifier(t.Name)))
		if err != nil {
			return nil, nil, fmt.Errorf("table info %s: %w", t.Name, err)
		}
		var cols []sqliteColumn
		for rows.Next() {
			var cid, notNull, pk int
			var name, colType string
			var dflt sql.NullString
			if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
				rows.Close()
				return nil, nil, fmt.Errorf("scan table info %s: %w", t.Name, err)
			}
			cols = append(cols, sqliteColumn{
				name:     name,
				typ:      baseType(colType),
				notNull:  notNull != 0,
				pk:       pk,
				position: cid + 1,
			})
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, nil, err
		}
		info[t.Name] = cols
		names = append(names, t.Name)
	}
	return info, names, nil
}

func (d *sqliteDialect) Columns(ctx context.Context, db *sql.DB) ([]domain.ColumnSpec, error) {
	info, names, err := d.tableInfo(ctx, db)
	if err != nil {
		return nil, err
	}
	var out []domain.ColumnSpec
	for _, table := range names {
		for _, c := range info[table] {
			out = append(out, domain.ColumnSpec{
				Table:    table,
				Name:     c.name,
				Position: c.position,
				Type:     c.typ,
				Nullable: !c.notNull && c.pk == 0,
			})
		}
	}
	return out, nil
}

func (d *sqliteDialect) PrimaryKeys(ctx context.Context, db *sql.DB) ([]domain.PrimaryKeySpec, error) {
	info, names, err := d.tableInfo(ctx, db)
	if err != nil {
		return nil, err
	}
	var out []domain.PrimaryKeySpec
	for _, table := range names {
		keys := make([]sqliteColumn, 0)
		for _, c := range info[table] {
			if c.pk > 0 {
				keys = append(keys, c)
			}
		}
		// pk holds the 1-based position inside the key
		for pos := 1; pos <= len(keys); pos++ {
			for _, c := range keys {
				if c.pk == pos {
					out = append(out, domain.PrimaryKeySpec{Table: table, Column: c.name})
				}
			}
		}
	}
	return out, nil
}

// baseType strips a length or precision suffix: VARCHAR(20) → VARCHAR.
func baseType(declared string) string {
	if i := strings.IndexByte(declared, '('); i >= 0 {
		declared = declared[:i]
	}
	return strings.TrimSpace(declared)
}
