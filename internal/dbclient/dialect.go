package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SageData-OOD/tap-firebird/internal/config"
	"github.com/SageData-OOD/tap-firebird/internal/domain"
)

// Dialect knows how one database family describes its catalog, quotes
// identifiers and binds parameters.
type Dialect interface {
	Name() string
	DriverName() string
	DSN(cfg *config.Config) string

	Tables(ctx context.Context, db *sql.DB) ([]domain.TableSpec, error)
	Columns(ctx context.Context, db *sql.DB) ([]domain.ColumnSpec, error)
	PrimaryKeys(ctx context.Context, db *sql.DB) ([]domain.PrimaryKeySpec, error)

	QuoteIdentifier(name string) string
	Placeholder(n int) string
	FormatCursorTime(t time.Time) string
}

// ── Dialect Registry ───────────────────────────────────────
// Compile-time registration via init() in each dialect file.

var (
	registryMu sync.RWMutex
	registry   = map[string]Dialect{}
)

func RegisterDialect(d Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name()] = d
}

// GetDialect returns a registered dialect; an empty name means firebird.
func GetDialect(name string) (Dialect, error) {
	if name == "" {
		name = config.DialectFirebird
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedDialect, name)
	}
	return d, nil
}

// Dialects lists the registered dialect names.
func Dialects() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ── sqlDialect ─────────────────────────────────────────────
// Shared implementation driven by three catalog queries with fixed shapes:
//
//	tables:       table_name, table_type ('VIEW' for views)
//	columns:      table_name, ordinal_position, column_name, type, is_nullable ('YES'/'NO')
//	primary keys: table_name, column_name (in key order)

type sqlDialect struct {
	name   string
	driver string

	tablesQuery  string
	columnsQuery string
	pksQuery     string

	dsn         func(cfg *config.Config) string
	quoteChar   string
	placeholder func(n int) string
}

func (d *sqlDialect) Name() string       { return d.name }
func (d *sqlDialect) DriverName() string { return d.driver }

func (d *sqlDialect) DSN(cfg *config.Config) string { return d.dsn(cfg) }

func (d *sqlDialect) QuoteIdentifier(name string) string {
	return d.quoteChar + strings.ReplaceAll(name, d.quoteChar, d.quoteChar+d.quoteChar) + d.quoteChar
}

func (d *sqlDialect) Placeholder(n int) string {
	if d.placeholder == nil {
		return "?"
	}
	return d.placeholder(n)
}

func (d *sqlDialect) FormatCursorTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

func (d *sqlDialect) Tables(ctx context.Context, db *sql.DB) ([]domain.TableSpec, error) {
	rows, err := db.QueryContext(ctx, d.tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []domain.TableSpec
	for rows.Next() {
		var name, typ sql.NullString
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, domain.TableSpec{
			Name:   strings.TrimSpace(name.String),
			IsView: strings.EqualFold(strings.TrimSpace(typ.String), "VIEW"),
		})
	}
	return tables, rows.Err()
}

func (d *sqlDialect) Columns(ctx context.Context, db *sql.DB) ([]domain.ColumnSpec, error) {
	rows, err := db.QueryContext(ctx, d.columnsQuery)
	if err != nil {
		return nil, fmt.Errorf("list columns: %w", err)
	}
	defer rows.Close()

	var cols []domain.ColumnSpec
	for rows.Next() {
		var table, name, typ, nullable sql.NullString
		var pos sql.NullInt64
		if err := rows.Scan(&table, &pos, &name, &typ, &nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, domain.ColumnSpec{
			Table:    strings.TrimSpace(table.String),
			Name:     strings.TrimSpace(name.String),
			Position: int(pos.Int64),
			Type:     strings.TrimSpace(typ.String),
			Nullable: strings.EqualFold(strings.TrimSpace(nullable.String), "YES"),
		})
	}
	return cols, rows.Err()
}

func (d *sqlDialect) PrimaryKeys(ctx context.Context, db *sql.DB) ([]domain.PrimaryKeySpec, error) {
	rows, err := db.QueryContext(ctx, d.pksQuery)
	if err != nil {
		return nil, fmt.Errorf("list primary keys: %w", err)
	}
	defer rows.Close()

	var pks []domain.PrimaryKeySpec
	for rows.Next() {
		var table, column sql.NullString
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scan primary key: %w", err)
		}
		pks = append(pks, domain.PrimaryKeySpec{
			Table:  strings.TrimSpace(table.String),
			Column: strings.TrimSpace(column.String),
		})
	}
	return pks, rows.Err()
}
