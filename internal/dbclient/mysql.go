package dbclient

import (
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/SageData-OOD/tap-firebird/internal/config"
)

var mysqlDialect = &sqlDialect{
	name:   config.DialectMySQL,
	driver: "mysql",
	tablesQuery: `
		SELECT TABLE_NAME, TABLE_TYPE
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE()
		ORDER BY TABLE_NAME`,
	columnsQuery: `
		SELECT TABLE_NAME, ORDINAL_POSITION, COLUMN_NAME, DATA_TYPE, IS_NULLABLE
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE()
		ORDER BY TABLE_NAME, ORDINAL_POSITION`,
	pksQuery: `
		SELECT TABLE_NAME, COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE() AND CONSTRAINT_NAME = 'PRIMARY'
		ORDER BY TABLE_NAME, ORDINAL_POSITION`,
	dsn:       buildMySQLDSN,
	quoteChar: "`",
}

func init() { RegisterDialect(mysqlDialect) }

// buildMySQLDSN constructs a MySQL DSN with parseTime so DATETIME columns
// arrive as time.Time.
func buildMySQLDSN(cfg *config.Config) string {
	port := int(cfg.Port)
	if port == 0 {
		port = 3306
	}
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Host + ":" + strconv.Itoa(port)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	if cfg.SSLMode == "require" {
		mc.TLSConfig = "true"
	}
	return mc.FormatDSN()
}
