// Package builtin lists the plugins compiled into the binary. Importing it
// registers their database/sql drivers and sqlx metadata products.
//
//	registry := plugin.NewRegistry(builtin.Providers()...)
package builtin

import (
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/bigquery"
	"github.com/viant/dbkit/plugin/clickhouse"
	"github.com/viant/dbkit/plugin/mssql"
	"github.com/viant/dbkit/plugin/mysql"
	"github.com/viant/dbkit/plugin/oracle"
	"github.com/viant/dbkit/plugin/postgres"
	"github.com/viant/dbkit/plugin/snowflake"
	"github.com/viant/dbkit/plugin/sqlite"
	_ "github.com/viant/sqlx/metadata/product/ansi"
)

// Providers returns the installed plugin providers.
func Providers() []plugin.Provider {
	return []plugin.Provider{
		mysql.Legacy,
		mysql.Current,
		postgres.Legacy,
		postgres.Current,
		oracle.New,
		sqlite.New,
		bigquery.New,
		mssql.New,
		clickhouse.New,
		snowflake.New,
	}
}
