package dbclient

import (
	"fmt"
	"net/url"

	_ "github.com/nakagami/firebirdsql"

	"github.com/SageData-OOD/tap-firebird/internal/config"
)

const firebirdDefaultPort = 3050

// Firebird reports CHAR-padded names; sqlDialect trims them. Scaled integer
// columns (negative RDB$FIELD_SCALE) are fixed-point numbers.
var firebirdDialect = &sqlDialect{
	name:   config.DialectFirebird,
	driver: "firebirdsql",
	tablesQuery: `
		SELECT RDB$RELATION_NAME AS table_name,
		CASE
			WHEN RDB$VIEW_BLR IS NULL THEN 'BASE TABLE'
			ELSE 'VIEW'
		END AS table_type
		FROM RDB$RELATIONS
		WHERE RDB$RELATION_TYPE = 0 AND RDB$SYSTEM_FLAG = 0
		ORDER BY RDB$RELATION_NAME`,
	columnsQuery: `
		SELECT rf.RDB$RELATION_NAME AS table_name,
			COALESCE(rf.RDB$FIELD_POSITION, 0) AS ordinal_position,
			rf.RDB$FIELD_NAME AS column_name,
			CASE
				WHEN f.RDB$FIELD_SCALE < 0 AND f.RDB$FIELD_TYPE IN (7, 8, 16, 27) THEN 'NUMERIC'
				WHEN f.RDB$FIELD_TYPE = 7 THEN 'SMALLINT'
				WHEN f.RDB$FIELD_TYPE = 8 THEN 'INTEGER'
				WHEN f.RDB$FIELD_TYPE = 9 THEN 'QUAD'
				WHEN f.RDB$FIELD_TYPE = 10 THEN 'FLOAT'
				WHEN f.RDB$FIELD_TYPE = 11 THEN 'D_FLOAT'
				WHEN f.RDB$FIELD_TYPE = 12 THEN 'DATE'
				WHEN f.RDB$FIELD_TYPE = 13 THEN 'TIME'
				WHEN f.RDB$FIELD_TYPE = 14 THEN 'CHAR'
				WHEN f.RDB$FIELD_TYPE = 16 THEN 'INT64'
				WHEN f.RDB$FIELD_TYPE = 23 THEN 'BOOLEAN'
				WHEN f.RDB$FIELD_TYPE = 27 THEN 'DOUBLE'
				WHEN f.RDB$FIELD_TYPE = 35 THEN 'TIMESTAMP'
				WHEN f.RDB$FIELD_TYPE = 37 THEN 'VARCHAR'
				WHEN f.RDB$FIELD_TYPE = 40 THEN 'CSTRING'
				WHEN f.RDB$FIELD_TYPE = 261 THEN 'BLOB'
				ELSE 'UNKNOWN'
			END AS udt_name,
			CASE
				WHEN COALESCE(rf.RDB$NULL_FLAG, f.RDB$NULL_FLAG, 0) = 1 THEN 'NO'
				ELSE 'YES'
			END AS is_nullable
		FROM RDB$RELATION_FIELDS rf
		INNER JOIN RDB$RELATIONS r ON r.RDB$RELATION_NAME = rf.RDB$RELATION_NAME
		INNER JOIN RDB$FIELDS f ON rf.RDB$FIELD_SOURCE = f.RDB$FIELD_NAME
		WHERE r.RDB$RELATION_TYPE = 0 AND r.RDB$SYSTEM_FLAG = 0
		ORDER BY 1, 2`,
	pksQuery: `
		SELECT rc.RDB$RELATION_NAME AS table_name, sg.RDB$FIELD_NAME AS field_name
		FROM RDB$INDICES ix
		LEFT JOIN RDB$INDEX_SEGMENTS sg ON ix.RDB$INDEX_NAME = sg.RDB$INDEX_NAME
		LEFT JOIN RDB$RELATION_CONSTRAINTS rc ON rc.RDB$INDEX_NAME = ix.RDB$INDEX_NAME
		WHERE rc.RDB$CONSTRAINT_TYPE = 'PRIMARY KEY'
		ORDER BY 1, sg.RDB$FIELD_POSITION`,
	dsn:       buildFirebirdDSN,
	quoteChar: `"`,
}

func init() { RegisterDialect(firebirdDialect) }

// buildFirebirdDSN returns user:password@host:port/database. An absolute
// database path keeps its leading slash after the separator.
func buildFirebirdDSN(cfg *config.Config) string {
	port := int(cfg.Port)
	if port == 0 {
		port = firebirdDefaultPort
	}
	return fmt.Sprintf("%s@%s:%d/%s",
		url.UserPassword(cfg.User, cfg.Password).String(), cfg.Host, port, cfg.Database)
}
