package sqlparser

import "strings"

// Dialect names the SQL grammar variant a data source speaks.
type Dialect string

const (
	DialectMySQL       Dialect = "mysql"
	DialectPostgreSQL  Dialect = "postgresql"
	DialectSQLite      Dialect = "sqlite"
	DialectMariaDB     Dialect = "mariadb"
	DialectBigQuery    Dialect = "bigquery"
	DialectSnowflake   Dialect = "snowflake"
	DialectTransactSQL Dialect = "transactsql"
	DialectFlinkSQL    Dialect = "flinksql"
	DialectHive        Dialect = "hive"
	DialectDB2         Dialect = "db2"
)

// DefaultDialect is used for unknown or empty data source tags.
const DefaultDialect = DialectPostgreSQL

var dialectsByTag = map[string]Dialect{
	"mysql":      DialectMySQL,
	"postgresql": DialectPostgreSQL,
	"postgres":   DialectPostgreSQL,
	"sqlite":     DialectSQLite,
	"mariadb":    DialectMariaDB,
	"bigquery":   DialectBigQuery,
	"snowflake":  DialectSnowflake,
	"redshift":   DialectPostgreSQL,
	"mssql":      DialectTransactSQL,
	"sqlserver":  DialectTransactSQL,
	"flinksql":   DialectFlinkSQL,
	"hive":       DialectHive,
	"athena":     DialectPostgreSQL,
	"db2":        DialectDB2,
	"noql":       DialectMySQL,
}

// ResolveDialect maps a data source syntax tag to its dialect.
func ResolveDialect(tag string) Dialect {
	if d, ok := dialectsByTag[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return d
	}
	return DefaultDialect
}

// grammar is the parser family used for a dialect.
type grammar int

const (
	grammarPostgres grammar = iota
	grammarMySQL
)

func (d Dialect) grammar() grammar {
	switch d {
	case DialectMySQL, DialectMariaDB:
		return grammarMySQL
	default:
		return grammarPostgres
	}
}
