// Package mssql provides the SQL Server plugin built on microsoft/go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/base"
	_ "github.com/viant/sqlx/metadata/product/sqlserver"
)

const Family = "mssql"

// Plugin reads triggers and object definitions from the sys catalog views.
type Plugin struct {
	*base.Plugin
}

// New targets SQL Server 2016 (13.x) onwards.
func New() (plugin.Plugin, error) {
	dialect := &base.Dialect{
		DriverName: "sqlserver",
		DSN:        "sqlserver://$Username:$Password@${Host}:${Port}?database=${Db}&${Options}",
		Defaults: base.Defaults{
			Host:    "localhost",
			Port:    1433,
			Options: "encrypt=disable",
		},
		Required:     []string{"Host", "Port", "Database"},
		VersionQuery: "SELECT CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))",
		Placeholder: func(n int) string {
			return "@p" + strconv.Itoa(n)
		},
		Quote: func(identifier string) string {
			return "[" + strings.ReplaceAll(identifier, "]", "]]") + "]"
		},
		Scope: func(config *plugin.ConnectionConfig) plugin.Scope {
			return plugin.Scope{Catalog: config.Database, Schema: "dbo"}
		},
		Driver: &base.Artifact{
			Group:      "com.microsoft",
			Artifact:   "mssql-driver",
			Version:    "1.9.3",
			Constraint: ">= 1.0",
		},
	}
	return &Plugin{Plugin: base.New(plugin.Info{
		ID:               "mssql",
		Name:             "SQL Server",
		Version:          "1.0.0",
		Family:           Family,
		MinServerVersion: "13.0.0",
		Capabilities:     dialect.Standard(),
	}, dialect)}, nil
}

// ListTriggers reads sys.triggers; SQL Server has no INFORMATION_SCHEMA.TRIGGERS.
func (p *Plugin) ListTriggers(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Trigger, error) {
	SQL := `SELECT DB_NAME() AS TRIGGER_CATALOG,
	SCHEMA_NAME(o.schema_id) AS TRIGGER_SCHEMA,
	t.name AS TRIGGER_NAME,
	o.name AS EVENT_OBJECT_TABLE,
	'' AS EVENT_MANIPULATION,
	CASE WHEN t.is_instead_of_trigger = 1 THEN 'INSTEAD OF' ELSE 'AFTER' END AS ACTION_TIMING
FROM sys.triggers t
JOIN sys.objects o ON o.object_id = t.parent_id
WHERE t.parent_class = 1`
	SQL, args := p.Scoped(SQL, "SCHEMA_NAME(o.schema_id)", scope)
	return base.Read[plugin.Trigger](ctx, db, SQL+" ORDER BY t.name", args...)
}

// FetchDDL returns OBJECT_DEFINITION for programmable objects; tables get
// the generic column based definition.
func (p *Plugin) FetchDDL(ctx context.Context, db *sql.DB, object plugin.Object) (string, error) {
	switch object.Type {
	case "", plugin.ObjectTable:
		return p.Plugin.FetchDDL(ctx, db, object)
	case plugin.ObjectView, plugin.ObjectFunction, plugin.ObjectProcedure, plugin.ObjectTrigger:
	default:
		return "", fmt.Errorf("%w: %s DDL of %s", plugin.ErrCapabilityUnsupported, p.Info().ID, object.Type)
	}
	name := object.Name
	if object.Schema != "" {
		name = object.Schema + "." + name
	}
	var ret sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT OBJECT_DEFINITION(OBJECT_ID(@p1))", name).Scan(&ret); err != nil {
		return "", err
	}
	if !ret.Valid {
		return "", fmt.Errorf("%s %s: %w", object.Type, name, sql.ErrNoRows)
	}
	return ret.String, nil
}
