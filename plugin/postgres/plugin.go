// Package postgres provides PostgreSQL plugins: a lib/pq based one for 9.x
// servers and a pgx based one for 10 onwards.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/base"
	_ "github.com/viant/sqlx/metadata/product/pg"
)

const Family = "postgres"

// Plugin overrides DDL retrieval with the pg_catalog definition functions.
type Plugin struct {
	*base.Plugin
}

func dialect(driverName string, artifact *base.Artifact) *base.Dialect {
	return &base.Dialect{
		DriverName: driverName,
		DSN:        "postgres://$Username:$Password@${Host}:${Port}/${Db}?${Options}",
		Defaults: base.Defaults{
			Host:    "localhost",
			Port:    5432,
			Options: "sslmode=disable",
		},
		Required:     []string{"Host", "Port"},
		VersionQuery: "SHOW server_version",
		Placeholder: func(n int) string {
			return "$" + strconv.Itoa(n)
		},
		Scope: func(config *plugin.ConnectionConfig) plugin.Scope {
			return plugin.Scope{Catalog: config.Database, Schema: "public"}
		},
		Driver: artifact,
	}
}

// Legacy targets 9.x servers through lib/pq.
func Legacy() (plugin.Plugin, error) {
	return &Plugin{Plugin: base.New(plugin.Info{
		ID:               "postgres-9",
		Name:             "PostgreSQL 9 (lib/pq)",
		Version:          "1.0.0",
		Family:           Family,
		MinServerVersion: "9.0.0",
		MaxServerVersion: "9.99.99",
	}, dialect("postgres", &base.Artifact{
		Group:      "com.github.lib",
		Artifact:   "pq-driver",
		Version:    "1.10.6",
		Constraint: ">= 1.10, < 2.0",
	}))}, nil
}

// Current targets 10 onwards through pgx.
func Current() (plugin.Plugin, error) {
	return &Plugin{Plugin: base.New(plugin.Info{
		ID:               "postgres",
		Name:             "PostgreSQL (pgx)",
		Version:          "2.0.0",
		Family:           Family,
		MinServerVersion: "10.0.0",
	}, dialect("pgx", &base.Artifact{
		Group:      "com.github.jackc",
		Artifact:   "pgx-driver",
		Version:    "5.7.6",
		Constraint: ">= 5.0, < 6.0",
	}))}, nil
}

func (p *Plugin) FetchDDL(ctx context.Context, db *sql.DB, object plugin.Object) (string, error) {
	schema := object.Schema
	if schema == "" {
		schema = "public"
	}
	var SQL string
	args := []interface{}{schema, object.Name}
	switch object.Type {
	case "", plugin.ObjectTable:
		return p.Plugin.FetchDDL(ctx, db, object)
	case plugin.ObjectView:
		SQL = `SELECT 'CREATE VIEW ' || quote_ident(n.nspname) || '.' || quote_ident(c.relname) || ' AS ' || pg_get_viewdef(c.oid, true)
FROM pg_class c JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1 AND c.relname = $2 AND c.relkind IN ('v', 'm')`
	case plugin.ObjectFunction, plugin.ObjectProcedure:
		SQL = `SELECT pg_get_functiondef(p.oid)
FROM pg_proc p JOIN pg_namespace n ON n.oid = p.pronamespace
WHERE n.nspname = $1 AND p.proname = $2
LIMIT 1`
	case plugin.ObjectTrigger:
		SQL = `SELECT pg_get_triggerdef(t.oid, true)
FROM pg_trigger t JOIN pg_class c ON c.oid = t.tgrelid JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1 AND t.tgname = $2 AND NOT t.tgisinternal`
	default:
		return "", fmt.Errorf("%w: %s DDL of %s", plugin.ErrCapabilityUnsupported, p.Info().ID, object.Type)
	}
	var ret string
	if err := db.QueryRowContext(ctx, SQL, args...).Scan(&ret); err != nil {
		return "", fmt.Errorf("failed to fetch %s %s.%s definition: %w", strings.ToLower(string(object.Type)), schema, object.Name, err)
	}
	return ret, nil
}

// ListDatabases reads pg_database; INFORMATION_SCHEMA only shows the current one.
func (p *Plugin) ListDatabases(ctx context.Context, db *sql.DB) ([]plugin.Catalog, error) {
	return base.Read[plugin.Catalog](ctx, db, "SELECT datname AS CATALOG_NAME FROM pg_database WHERE NOT datistemplate ORDER BY datname")
}
