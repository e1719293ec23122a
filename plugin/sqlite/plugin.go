// Package sqlite provides the SQLite plugin built on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/base"
	_ "github.com/viant/sqlx/metadata/product/sqlite"
	_ "modernc.org/sqlite"
)

const Family = "sqlite"

// Plugin reads DDL and triggers from sqlite_master. SQLite has neither
// catalogs nor stored procedures.
type Plugin struct {
	*base.Plugin
}

// New targets SQLite 3.
func New() (plugin.Plugin, error) {
	dialect := &base.Dialect{
		DriverName:   "sqlite",
		DSN:          "${Db}",
		Required:     []string{"Database"},
		VersionQuery: "SELECT sqlite_version()",
		Scope: func(config *plugin.ConnectionConfig) plugin.Scope {
			return plugin.Scope{}
		},
		Driver: &base.Artifact{
			Group:      "org.modernc",
			Artifact:   "sqlite-driver",
			Version:    "1.18.1",
			Constraint: ">= 1.14",
		},
	}
	var capabilities []plugin.Capability
	for _, capability := range dialect.Standard() {
		if capability != plugin.Procedures && capability != plugin.Databases {
			capabilities = append(capabilities, capability)
		}
	}
	return &Plugin{Plugin: base.New(plugin.Info{
		ID:               "sqlite",
		Name:             "SQLite",
		Version:          "1.0.0",
		Family:           Family,
		MinServerVersion: "3.0.0",
		Capabilities:     capabilities,
	}, dialect)}, nil
}

var masterTypes = map[plugin.ObjectType]string{
	"":                   "table",
	plugin.ObjectTable:   "table",
	plugin.ObjectView:    "view",
	plugin.ObjectTrigger: "trigger",
}

func (p *Plugin) FetchDDL(ctx context.Context, db *sql.DB, object plugin.Object) (string, error) {
	objectType, ok := masterTypes[object.Type]
	if !ok {
		return "", fmt.Errorf("%w: %s DDL of %s", plugin.ErrCapabilityUnsupported, p.Info().ID, object.Type)
	}
	var ret sql.NullString
	err := db.QueryRowContext(ctx, "SELECT sql FROM sqlite_master WHERE type = ? AND name = ?", objectType, object.Name).Scan(&ret)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s %s definition: %w", objectType, object.Name, err)
	}
	return ret.String, nil
}

func (p *Plugin) ListTriggers(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Trigger, error) {
	SQL := `SELECT '' AS TRIGGER_CATALOG,
	'' AS TRIGGER_SCHEMA,
	name AS TRIGGER_NAME,
	tbl_name AS EVENT_OBJECT_TABLE,
	'' AS EVENT_MANIPULATION,
	'' AS ACTION_TIMING
FROM sqlite_master
WHERE type = 'trigger'
ORDER BY name`
	return base.Read[plugin.Trigger](ctx, db, SQL)
}

func (p *Plugin) ListViews(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Table, error) {
	SQL := `SELECT '' AS TABLE_CATALOG,
	'' AS TABLE_SCHEMA,
	name AS TABLE_NAME
FROM sqlite_master
WHERE type = 'view'
ORDER BY name`
	return base.Read[plugin.Table](ctx, db, SQL)
}
