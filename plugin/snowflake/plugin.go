// Package snowflake provides the Snowflake plugin built on gosnowflake.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/snowflakedb/gosnowflake"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/base"
)

const Family = "snowflake"

type Plugin struct {
	*base.Plugin
}

// New creates the Snowflake plugin. Host carries the account identifier.
func New() (plugin.Plugin, error) {
	return &Plugin{Plugin: base.New(plugin.Info{
		ID:      "snowflake",
		Name:    "Snowflake",
		Version: "1.0.0",
		Family:  Family,
		Capabilities: []plugin.Capability{plugin.Connect, plugin.Tables, plugin.Views, plugin.Procedures,
			plugin.DDL, plugin.Execute},
	}, &base.Dialect{
		DriverName:   "snowflake",
		DSN:          "$Username:$Password@${Host}/${Db}?${Options}",
		Required:     []string{"Host", "Username", "Database"},
		VersionQuery: "SELECT CURRENT_VERSION()",
		Scope: func(config *plugin.ConnectionConfig) plugin.Scope {
			return plugin.Scope{Catalog: config.Database, Schema: "PUBLIC"}
		},
	})}, nil
}

func (p *Plugin) ListTables(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Table, error) {
	return p.tables(ctx, db, scope, "BASE TABLE")
}

func (p *Plugin) ListViews(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Table, error) {
	return p.tables(ctx, db, scope, "VIEW")
}

func (p *Plugin) tables(ctx context.Context, db *sql.DB, scope plugin.Scope, tableType string) ([]plugin.Table, error) {
	SQL := `SELECT TABLE_CATALOG, TABLE_SCHEMA, TABLE_NAME, TABLE_TYPE
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_TYPE = '` + tableType + `'`
	SQL, args := p.Scoped(SQL, "TABLE_SCHEMA", scope)
	return base.Read[plugin.Table](ctx, db, SQL+" ORDER BY TABLE_NAME", args...)
}

// FetchDDL calls GET_DDL for tables and views.
func (p *Plugin) FetchDDL(ctx context.Context, db *sql.DB, object plugin.Object) (string, error) {
	objectType := object.Type
	switch objectType {
	case "":
		objectType = plugin.ObjectTable
	case plugin.ObjectTable, plugin.ObjectView:
	default:
		return "", fmt.Errorf("%w: %s DDL of %s", plugin.ErrCapabilityUnsupported, p.Info().ID, object.Type)
	}
	var ret string
	if err := db.QueryRowContext(ctx, "SELECT GET_DDL(?, ?)", string(objectType), p.Qualify(object.Scope, object.Name)).Scan(&ret); err != nil {
		return "", err
	}
	return ret, nil
}
