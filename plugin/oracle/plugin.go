// Package oracle provides the Oracle plugin built on go-ora.
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/sijms/go-ora/v2"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/base"
	_ "github.com/viant/sqlx/metadata/product/oracle"
)

const Family = "oracle"

// Plugin reads DDL through DBMS_METADATA and routines from the ALL_ views.
type Plugin struct {
	*base.Plugin
}

// New targets Oracle 11g onwards.
func New() (plugin.Plugin, error) {
	return &Plugin{Plugin: base.New(plugin.Info{
		ID:               "oracle",
		Name:             "Oracle",
		Version:          "1.0.0",
		Family:           Family,
		MinServerVersion: "11.0.0",
	}, &base.Dialect{
		DriverName: "oracle",
		DSN:        "oracle://$Username:$Password@${Host}:${Port}/${Db}?${Options}",
		Defaults: base.Defaults{
			Host: "localhost",
			Port: 1521,
		},
		Required:     []string{"Host", "Port", "Database"},
		VersionQuery: "SELECT VERSION FROM PRODUCT_COMPONENT_VERSION WHERE PRODUCT LIKE 'Oracle%' AND ROWNUM = 1",
		Placeholder: func(n int) string {
			return ":" + strconv.Itoa(n)
		},
		Scope: func(config *plugin.ConnectionConfig) plugin.Scope {
			return plugin.Scope{Schema: strings.ToUpper(config.Username)}
		},
		Driver: &base.Artifact{
			Group:      "com.github.sijms",
			Artifact:   "go-ora-driver",
			Version:    "2.9.0",
			Constraint: ">= 2.7, < 3.0",
		},
	})}, nil
}

var ddlTypes = map[plugin.ObjectType]string{
	"":                     "TABLE",
	plugin.ObjectTable:     "TABLE",
	plugin.ObjectView:      "VIEW",
	plugin.ObjectFunction:  "FUNCTION",
	plugin.ObjectProcedure: "PROCEDURE",
	plugin.ObjectTrigger:   "TRIGGER",
}

func (p *Plugin) FetchDDL(ctx context.Context, db *sql.DB, object plugin.Object) (string, error) {
	objectType, ok := ddlTypes[object.Type]
	if !ok {
		return "", fmt.Errorf("%w: %s DDL of %s", plugin.ErrCapabilityUnsupported, p.Info().ID, object.Type)
	}
	SQL := "SELECT DBMS_METADATA.GET_DDL(:1, :2) FROM DUAL"
	args := []interface{}{objectType, strings.ToUpper(object.Name)}
	if object.Schema != "" {
		SQL = "SELECT DBMS_METADATA.GET_DDL(:1, :2, :3) FROM DUAL"
		args = append(args, strings.ToUpper(object.Schema))
	}
	var ret string
	if err := db.QueryRowContext(ctx, SQL, args...).Scan(&ret); err != nil {
		return "", err
	}
	return strings.TrimSpace(ret), nil
}

func (p *Plugin) ListProcedures(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Procedure, error) {
	SQL := `SELECT '' AS ROUTINE_CATALOG, OWNER AS ROUTINE_SCHEMA, OBJECT_NAME AS ROUTINE_NAME
FROM ALL_PROCEDURES
WHERE OBJECT_TYPE = 'PROCEDURE'`
	var args []interface{}
	if scope.Schema != "" {
		SQL += " AND OWNER = :1"
		args = append(args, strings.ToUpper(scope.Schema))
	}
	return base.Read[plugin.Procedure](ctx, db, SQL+" ORDER BY OBJECT_NAME", args...)
}

func (p *Plugin) ListTriggers(ctx context.Context, db *sql.DB, scope plugin.Scope) ([]plugin.Trigger, error) {
	SQL := `SELECT '' AS TRIGGER_CATALOG, OWNER AS TRIGGER_SCHEMA, TRIGGER_NAME,
	TABLE_NAME AS EVENT_OBJECT_TABLE, TRIGGERING_EVENT AS EVENT_MANIPULATION, TRIGGER_TYPE AS ACTION_TIMING
FROM ALL_TRIGGERS`
	var args []interface{}
	if scope.Schema != "" {
		SQL += " WHERE OWNER = :1"
		args = append(args, strings.ToUpper(scope.Schema))
	}
	return base.Read[plugin.Trigger](ctx, db, SQL+" ORDER BY TRIGGER_NAME", args...)
}
