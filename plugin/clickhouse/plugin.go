// Package clickhouse provides the ClickHouse plugin built on clickhouse-go.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/base"
)

const Family = "clickhouse"

type Plugin struct {
	*base.Plugin
}

// New targets ClickHouse 22.x onwards. Databases act as schemas.
func New() (plugin.Plugin, error) {
	return &Plugin{Plugin: base.New(plugin.Info{
		ID:               "clickhouse",
		Name:             "ClickHouse",
		Version:          "1.0.0",
		Family:           Family,
		MinServerVersion: "22.0.0",
		Capabilities:     []plugin.Capability{plugin.Connect, plugin.Tables, plugin.Views, plugin.DDL, plugin.Execute},
	}, &base.Dialect{
		DriverName: "clickhouse",
		DSN:        "clickhouse://$Username:$Password@${Host}:${Port}/${Db}?${Options}",
		Defaults: base.Defaults{
			Host: "localhost",
			Port: 9000,
		},
		Required:     []string{"Host", "Port"},
		VersionQuery: "SELECT version()",
		Quote: func(identifier string) string {
			return "`" + identifier + "`"
		},
	})}, nil
}

func (p *Plugin) ListTables(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Table, error) {
	return p.tables(ctx, db, scope, "engine NOT IN ('View', 'MaterializedView')")
}

func (p *Plugin) ListViews(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Table, error) {
	return p.tables(ctx, db, scope, "engine IN ('View', 'MaterializedView')")
}

func (p *Plugin) tables(ctx context.Context, db *sql.DB, scope plugin.Scope, predicate string) ([]plugin.Table, error) {
	SQL := `SELECT '' AS TABLE_CATALOG,
	database AS TABLE_SCHEMA,
	name AS TABLE_NAME,
	engine AS TABLE_TYPE
FROM system.tables
WHERE is_temporary = 0 AND ` + predicate
	SQL, args := p.Scoped(SQL, "database", scope)
	return base.Read[plugin.Table](ctx, db, SQL+" ORDER BY name", args...)
}

// FetchDDL returns the create_table_query recorded in system.tables.
func (p *Plugin) FetchDDL(ctx context.Context, db *sql.DB, object plugin.Object) (string, error) {
	switch object.Type {
	case "", plugin.ObjectTable, plugin.ObjectView:
	default:
		return "", fmt.Errorf("%w: %s DDL of %s", plugin.ErrCapabilityUnsupported, p.Info().ID, object.Type)
	}
	SQL := "SELECT create_table_query FROM system.tables WHERE name = ?"
	args := []interface{}{object.Name}
	if object.Schema != "" {
		SQL += " AND database = ?"
		args = append(args, object.Schema)
	}
	var ret string
	if err := db.QueryRowContext(ctx, SQL, args...).Scan(&ret); err != nil {
		return "", err
	}
	return ret, nil
}
