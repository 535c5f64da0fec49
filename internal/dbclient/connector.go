package dbclient

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SageData-OOD/tap-firebird/internal/config"
	"github.com/SageData-OOD/tap-firebird/internal/domain"
	"github.com/SageData-OOD/tap-firebird/internal/etl"
)

// Connector is the row source of a sync: one database, one connection.
type Connector struct {
	db       *sql.DB
	dialect  Dialect
	database string
}

var _ etl.RowSource = (*Connector)(nil)

// Open connects with the configured dialect and verifies the connection.
// Every failure wraps domain.ErrConnection; nothing is retried.
func Open(ctx context.Context, cfg *config.Config) (*Connector, error) {
	dialect, err := GetDialect(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrConnection, dialect.Name(), err)
	}
	// A sync reads one stream at a time through a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := NewConnector(db, dialect, cfg.Database)
	if err := c.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewConnector wraps an already opened database.
func NewConnector(db *sql.DB, dialect Dialect, database string) *Connector {
	return &Connector{db: db, dialect: dialect, database: database}
}

func (c *Connector) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrConnection, c.dialect.Name(), err)
	}
	return nil
}

func (c *Connector) DatabaseName() string { return c.database }

func (c *Connector) Dialect() Dialect { return c.dialect }

func (c *Connector) Tables(ctx context.Context) ([]domain.TableSpec, error) {
	return c.dialect.Tables(ctx, c.db)
}

func (c *Connector) Columns(ctx context.Context) ([]domain.ColumnSpec, error) {
	return c.dialect.Columns(ctx, c.db)
}

func (c *Connector) PrimaryKeys(ctx context.Context) ([]domain.PrimaryKeySpec, error) {
	return c.dialect.PrimaryKeys(ctx, c.db)
}

// Query opens a server-side cursor. The caller must close it before the
// next query: the pool holds a single connection.
func (c *Connector) Query(ctx context.Context, query string, args ...any) (etl.Cursor, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("columns: %w", err)
	}
	return &rowCursor{rows: rows, width: len(cols)}, nil
}

func (c *Connector) QuoteIdentifier(name string) string { return c.dialect.QuoteIdentifier(name) }

func (c *Connector) Placeholder(n int) string { return c.dialect.Placeholder(n) }

func (c *Connector) FormatCursorTime(t time.Time) string { return c.dialect.FormatCursorTime(t) }

func (c *Connector) Close() error { return c.db.Close() }
