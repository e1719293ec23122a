// Package mysql provides MySQL plugins for 5.7 and 8.x servers.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/base"
	_ "github.com/viant/sqlx/metadata/product/mysql"
)

const Family = "mysql"

// Plugin overrides DDL retrieval with SHOW CREATE statements.
type Plugin struct {
	*base.Plugin
}

func dialect() *base.Dialect {
	return &base.Dialect{
		DriverName: "mysql",
		DSN:        "$Username:$Password@tcp(${Host}:${Port})/${Db}?${Options}",
		Defaults: base.Defaults{
			Host:    "localhost",
			Port:    3306,
			Options: "parseTime=true",
		},
		Required:     []string{"Host", "Port"},
		VersionQuery: "SELECT VERSION()",
		Quote: func(identifier string) string {
			return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
		},
		Scope: func(config *plugin.ConnectionConfig) plugin.Scope {
			return plugin.Scope{Schema: config.Database}
		},
		Driver: &base.Artifact{
			Group:      "com.github.go-sql-driver",
			Artifact:   "mysql-driver",
			Version:    "1.6.0",
			Constraint: ">= 1.5, < 2.0",
		},
	}
}

// Legacy targets 5.7 and the forks versioned up to 7.x.
func Legacy() (plugin.Plugin, error) {
	return &Plugin{Plugin: base.New(plugin.Info{
		ID:               "mysql-5.7",
		Name:             "MySQL 5.7",
		Version:          "1.0.0",
		Family:           Family,
		MinServerVersion: "5.7.0",
		MaxServerVersion: "7.9.99",
	}, dialect())}, nil
}

// Current targets 8.0 onwards.
func Current() (plugin.Plugin, error) {
	return &Plugin{Plugin: base.New(plugin.Info{
		ID:               "mysql-8",
		Name:             "MySQL 8",
		Version:          "1.1.0",
		Family:           Family,
		MinServerVersion: "8.0.0",
	}, dialect())}, nil
}

func (p *Plugin) FetchDDL(ctx context.Context, db *sql.DB, object plugin.Object) (string, error) {
	name := p.Qualify(object.Scope, object.Name)
	var SQL string
	switch object.Type {
	case "", plugin.ObjectTable:
		SQL = "SHOW CREATE TABLE " + name
	case plugin.ObjectView:
		SQL = "SHOW CREATE VIEW " + name
	case plugin.ObjectFunction:
		SQL = "SHOW CREATE FUNCTION " + name
	case plugin.ObjectProcedure:
		SQL = "SHOW CREATE PROCEDURE " + name
	case plugin.ObjectTrigger:
		SQL = "SHOW CREATE TRIGGER " + name
	default:
		return "", fmt.Errorf("%w: %s DDL of %s", plugin.ErrCapabilityUnsupported, p.Info().ID, object.Type)
	}
	return showCreate(ctx, db, SQL)
}

// showCreate returns the "Create ..." column of a SHOW CREATE result, whose
// position differs by object type.
func showCreate(ctx context.Context, db *sql.DB, SQL string) (string, error) {
	rows, err := db.QueryContext(ctx, SQL)
	if err != nil {
		return "", err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return "", err
	}
	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return "", err
		}
		return "", sql.ErrNoRows
	}
	values := make([]sql.NullString, len(columns))
	targets := make([]interface{}, len(columns))
	for i := range values {
		targets[i] = &values[i]
	}
	if err = rows.Scan(targets...); err != nil {
		return "", err
	}
	for i, column := range columns {
		if strings.HasPrefix(strings.ToLower(column), "create ") || strings.EqualFold(column, "SQL Original Statement") {
			return values[i].String, nil
		}
	}
	return "", fmt.Errorf("unexpected SHOW CREATE result columns: %v", columns)
}

// ListDatabases reports schemas; INFORMATION_SCHEMA catalogs are always "def".
func (p *Plugin) ListDatabases(ctx context.Context, db *sql.DB) ([]plugin.Catalog, error) {
	return base.Read[plugin.Catalog](ctx, db, "SELECT SCHEMA_NAME AS CATALOG_NAME FROM INFORMATION_SCHEMA.SCHEMATA ORDER BY SCHEMA_NAME")
}
