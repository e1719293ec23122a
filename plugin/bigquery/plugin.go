// Package bigquery provides the BigQuery plugin built on viant/bigquery.
package bigquery

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/viant/bigquery"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/base"
	_ "github.com/viant/sqlx/metadata/product/bigquery"
)

const Family = "bigquery"

// serverVersion stands in for the version of a service that has none.
const serverVersion = "2.0.0"

type Plugin struct {
	*base.Plugin
}

// New creates the BigQuery plugin. Projects, functions, triggers, procedures,
// keys and indexes are not exposed.
func New() (plugin.Plugin, error) {
	return &Plugin{Plugin: base.New(plugin.Info{
		ID:      "bigquery",
		Name:    "BigQuery",
		Version: "1.0.0",
		Family:  Family,
		Capabilities: []plugin.Capability{plugin.Connect, plugin.Schemas, plugin.Tables,
			plugin.Views, plugin.Columns, plugin.DDL, plugin.Execute},
	}, &base.Dialect{
		DriverName: "bigquery",
		DSN:        "bigquery://${Project}/${Db}?${Options}",
		Required:   []string{"Project"},
		Quote: func(identifier string) string {
			return "`" + identifier + "`"
		},
		Scope: func(config *plugin.ConnectionConfig) plugin.Scope {
			return plugin.Scope{Catalog: config.Project, Schema: config.Database}
		},
	})}, nil
}

// ServerVersion reports a constant; the service is not versioned.
func (p *Plugin) ServerVersion(ctx context.Context, db *sql.DB) (string, error) {
	return serverVersion, nil
}

// ListViews reads the dataset INFORMATION_SCHEMA.VIEWS.
func (p *Plugin) ListViews(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Table, error) {
	dataset, err := qualify(scope.Catalog, scope.Schema)
	if err != nil {
		return nil, err
	}
	SQL := "SELECT table_catalog AS TABLE_CATALOG, table_schema AS TABLE_SCHEMA, table_name AS TABLE_NAME FROM `" +
		dataset + "`.INFORMATION_SCHEMA.VIEWS ORDER BY table_name"
	return base.Read[plugin.Table](ctx, db, SQL)
}

func qualify(project, dataset string) (string, error) {
	if dataset == "" {
		return "", plugin.NewConfigError(Family, "schema", "dataset is required")
	}
	if project != "" {
		return project + "." + dataset, nil
	}
	return dataset, nil
}

// FetchDDL reads the ddl column of the dataset INFORMATION_SCHEMA.TABLES.
func (p *Plugin) FetchDDL(ctx context.Context, db *sql.DB, object plugin.Object) (string, error) {
	switch object.Type {
	case "", plugin.ObjectTable, plugin.ObjectView:
	default:
		return "", fmt.Errorf("%w: %s DDL of %s", plugin.ErrCapabilityUnsupported, p.Info().ID, object.Type)
	}
	dataset, err := qualify(object.Catalog, object.Schema)
	if err != nil {
		return "", err
	}
	SQL := "SELECT ddl FROM `" + dataset + "`.INFORMATION_SCHEMA.TABLES WHERE table_name = ?"
	var ret string
	if err := db.QueryRowContext(ctx, SQL, object.Name).Scan(&ret); err != nil {
		return "", err
	}
	return ret, nil
}
