package dbclient

import (
	"fmt"
	"strconv"

	_ "github.com/lib/pq"

	"github.com/SageData-OOD/tap-firebird/internal/config"
)

var postgresDialect = &sqlDialect{
	name:   config.DialectPostgres,
	driver: "postgres",
	tablesQuery: `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		ORDER BY table_name`,
	columnsQuery: `
		SELECT table_name, ordinal_position, column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		ORDER BY table_name, ordinal_position`,
	pksQuery: `
		SELECT kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_schema = current_schema()
		ORDER BY kcu.table_name, kcu.ordinal_position`,
	dsn:         buildPostgresDSN,
	quoteChar:   `"`,
	placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
}

func init() { RegisterDialect(postgresDialect) }

// buildPostgresDSN constructs a Postgres connection string.
func buildPostgresDSN(cfg *config.Config) string {
	port := int(cfg.Port)
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, port, cfg.User, quoteDSNValue(cfg.Password), cfg.Database, sslMode,
	)
}

// quoteDSNValue quotes a key/value DSN value when it contains spaces or quotes.
func quoteDSNValue(v string) string {
	needs := v == ""
	for _, r := range v {
		if r == ' ' || r == '\'' || r == '\\' {
			needs = true
			break
		}
	}
	if !needs {
		return v
	}
	out := []rune{'\''}
	for _, r := range v {
		if r == '\'' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(append(out, '\''))
}
