package base

import (
	"context"
	"database/sql"
	"strings"

	"github.com/viant/dbkit/plugin"
	"github.com/viant/sqlx/io/read"
	"github.com/viant/sqlx/metadata/info"
	"github.com/viant/sqlx/option"
)

// ListDatabases falls back to INFORMATION_SCHEMA.SCHEMATA when sqlx has no
// catalog query for the product.
func (p *Plugin) ListDatabases(ctx context.Context, db *sql.DB) ([]plugin.Catalog, error) {
	return describe[plugin.Catalog](ctx, p, db, info.KindCatalogs, option.NewArgs(),
		"SELECT DISTINCT CATALOG_NAME FROM INFORMATION_SCHEMA.SCHEMATA ORDER BY CATALOG_NAME")
}

func (p *Plugin) ListSchemas(ctx context.Context, db *sql.DB, catalog string) ([]plugin.Schema, error) {
	var ret []plugin.Schema
	err := p.metadata.Info(ctx, db, info.KindSchemas, &ret, option.NewArgs(catalog))
	return ret, err
}

func (p *Plugin) ListTables(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Table, error) {
	var ret []plugin.Table
	err := p.metadata.Info(ctx, db, info.KindTables, &ret, option.NewArgs(scope.Catalog, scope.Schema))
	return ret, err
}

// ListViews falls back to INFORMATION_SCHEMA.VIEWS.
func (p *Plugin) ListViews(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Table, error) {
	SQL, args := p.Scoped(`SELECT COALESCE(TABLE_CATALOG, '') AS TABLE_CATALOG,
	TABLE_SCHEMA,
	TABLE_NAME
FROM INFORMATION_SCHEMA.VIEWS
WHERE 1 = 1`, "TABLE_SCHEMA", scope)
	return describe[plugin.Table](ctx, p, db, info.KindViews, option.NewArgs(scope.Catalog, scope.Schema), SQL+" ORDER BY TABLE_NAME", args...)
}

func (p *Plugin) ListColumns(ctx context.Context, db *sql.DB, scope plugin.Scope, table string) ([]plugin.Column, error) {
	var ret []plugin.Column
	err := p.metadata.Info(ctx, db, info.KindTable, &ret, option.NewArgs(scope.Catalog, scope.Schema, table))
	return ret, err
}

func (p *Plugin) ListIndexes(ctx context.Context, db *sql.DB, scope plugin.Scope, table string) ([]plugin.Index, error) {
	var ret []plugin.Index
	err := p.metadata.Info(ctx, db, info.KindIndexes, &ret, option.NewArgs(scope.Catalog, scope.Schema, table))
	return ret, err
}

func (p *Plugin) ListPrimaryKeys(ctx context.Context, db *sql.DB, scope plugin.Scope, table string) ([]plugin.Key, error) {
	var ret []plugin.Key
	err := p.metadata.Info(ctx, db, info.KindPrimaryKeys, &ret, option.NewArgs(scope.Catalog, scope.Schema, table))
	return ret, err
}

func (p *Plugin) ListForeignKeys(ctx context.Context, db *sql.DB, scope plugin.Scope, table string) ([]plugin.Key, error) {
	var ret []plugin.Key
	err := p.metadata.Info(ctx, db, info.KindForeignKeys, &ret, option.NewArgs(scope.Catalog, scope.Schema, table))
	return ret, err
}

// ListFunctions falls back to INFORMATION_SCHEMA.ROUTINES.
func (p *Plugin) ListFunctions(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Function, error) {
	SQL, args := p.Scoped(`SELECT COALESCE(ROUTINE_CATALOG, '') AS ROUTINE_CATALOG,
	COALESCE(ROUTINE_SCHEMA, '') AS ROUTINE_SCHEMA,
	ROUTINE_NAME,
	ROUTINE_TYPE
FROM INFORMATION_SCHEMA.ROUTINES
WHERE ROUTINE_TYPE = 'FUNCTION'`, "ROUTINE_SCHEMA", scope)
	return describe[plugin.Function](ctx, p, db, info.KindFunctions, option.NewArgs(scope.Catalog, scope.Schema), SQL+" ORDER BY ROUTINE_NAME", args...)
}

// ListProcedures reads INFORMATION_SCHEMA.ROUTINES.
func (p *Plugin) ListProcedures(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Procedure, error) {
	SQL := `SELECT COALESCE(ROUTINE_CATALOG, '') AS ROUTINE_CATALOG,
	COALESCE(ROUTINE_SCHEMA, '') AS ROUTINE_SCHEMA,
	ROUTINE_NAME
FROM INFORMATION_SCHEMA.ROUTINES
WHERE ROUTINE_TYPE = 'PROCEDURE'`
	SQL, args := p.Scoped(SQL, "ROUTINE_SCHEMA", scope)
	return Read[plugin.Procedure](ctx, db, SQL+" ORDER BY ROUTINE_NAME", args...)
}

// ListTriggers reads INFORMATION_SCHEMA.TRIGGERS.
func (p *Plugin) ListTriggers(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Trigger, error) {
	SQL := `SELECT COALESCE(TRIGGER_CATALOG, '') AS TRIGGER_CATALOG,
	COALESCE(TRIGGER_SCHEMA, '') AS TRIGGER_SCHEMA,
	TRIGGER_NAME,
	EVENT_OBJECT_TABLE,
	EVENT_MANIPULATION,
	ACTION_TIMING
FROM INFORMATION_SCHEMA.TRIGGERS
WHERE 1 = 1`
	SQL, args := p.Scoped(SQL, "TRIGGER_SCHEMA", scope)
	return Read[plugin.Trigger](ctx, db, SQL+" ORDER BY TRIGGER_NAME", args...)
}

// Scoped appends a schema filter on schemaColumn to SQL, which must already
// have a WHERE clause.
func (p *Plugin) Scoped(SQL, schemaColumn string, scope plugin.Scope) (string, []interface{}) {
	if scope.Schema == "" {
		return SQL, nil
	}
	return SQL + " AND " + schemaColumn + " = " + p.placeholder(1), []interface{}{scope.Schema}
}

// describe reads kind through sqlx metadata and runs fallback instead when
// the detected product registers no query for kind.
func describe[T any](ctx context.Context, p *Plugin, db *sql.DB, kind info.Kind, args *option.Args, fallback string, fallbackArgs ...interface{}) ([]T, error) {
	var ret []T
	err := p.metadata.Info(ctx, db, kind, &ret, args)
	if err == nil || !unsupportedKind(err) {
		return ret, err
	}
	return Read[T](ctx, db, fallback, fallbackArgs...)
}

// unsupportedKind matches the sqlx metadata error for a kind without a
// registered product query.
func unsupportedKind(err error) bool {
	return strings.HasPrefix(err.Error(), "unsupported info kind") || strings.HasPrefix(err.Error(), "unsupported kind")
}

// Read runs SQL and maps each row to T using sqlx column tags.
func Read[T any](ctx context.Context, db *sql.DB, SQL string, args ...interface{}) ([]T, error) {
	reader, err := read.New(ctx, db, SQL, func() interface{} { return new(T) })
	if err != nil {
		return nil, err
	}
	var ret []T
	err = reader.QueryAll(ctx, func(row interface{}) error {
		ret = append(ret, *row.(*T))
		return nil
	}, args...)
	return ret, err
}

// Qualify returns the quoted, schema qualified object name.
func (p *Plugin) Qualify(scope plugin.Scope, name string) string {
	var parts []string
	if scope.Schema != "" {
		parts = append(parts, p.quote(scope.Schema))
	}
	return strings.Join(append(parts, p.quote(name)), ".")
}
