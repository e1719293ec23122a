// Package base provides the default behaviour of every capability contract.
// Vendor plugins embed *Plugin, describe their driver in a Dialect and
// override only the operations needing vendor SQL.
package base

import (
	"github.com/viant/dbkit/db/query"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/scy"
	"github.com/viant/sqlx/metadata"
)

type (
	// Dialect describes how a plugin reaches its database.
	Dialect struct {
		// DriverName is the database/sql driver name passed to sql.Open.
		DriverName string
		// DSN is a template with ${Host}, ${Port}, ${Db}, ${Project}, ${Options}
		// placeholders and $Username/$Password credentials.
		DSN      string
		Defaults Defaults
		// Required lists ConnectionConfig fields that must be set once
		// defaults are applied: Host, Port, Database, Project or Username.
		Required []string
		// VersionQuery returns the server version text, SELECT VERSION() when empty.
		VersionQuery string
		// Placeholder renders the n-th (1 based) bind parameter, ? when nil.
		Placeholder func(n int) string
		// Quote quotes an identifier, ANSI double quotes when nil.
		Quote func(identifier string) string
		// Scope returns the default catalog and schema of a connection.
		Scope func(config *plugin.ConnectionConfig) plugin.Scope
		// Driver locates the driver artifact; nil when the driver is compiled in
		// and cannot be acquired.
		Driver *Artifact
	}

	Defaults struct {
		Host    string
		Port    int
		Options string
	}

	// Artifact describes the driver shared object published to the repository.
	Artifact struct {
		Group    string
		Artifact string
		// Version is used when no version is requested.
		Version string
		// Constraint lists the driver versions the plugin works with, e.g. ">= 1.5, < 2.0".
		Constraint string
	}

	// Plugin implements every capability contract generically.
	Plugin struct {
		*Dialect
		info     plugin.Info
		secrets  *scy.Service
		metadata *metadata.Service
		query    *query.Service
	}
)

// Info returns the plugin description.
func (p *Plugin) Info() *plugin.Info {
	return &p.info
}

// DefaultScope returns the catalog and schema used when a caller names none.
func (p *Plugin) DefaultScope(config *plugin.ConnectionConfig) plugin.Scope {
	if p.Scope != nil {
		return p.Scope(config)
	}
	return plugin.Scope{Schema: config.Database}
}

func (p *Plugin) placeholder(n int) string {
	if p.Placeholder != nil {
		return p.Placeholder(n)
	}
	return "?"
}

func (p *Plugin) quote(identifier string) string {
	if p.Quote != nil {
		return p.Quote(identifier)
	}
	return `"` + identifier + `"`
}

// New creates a plugin. Without declared capabilities the dialect standard
// set is used.
func New(info plugin.Info, dialect *Dialect) *Plugin {
	if dialect == nil {
		dialect = &Dialect{}
	}
	if len(info.Capabilities) == 0 {
		info.Capabilities = dialect.Standard()
	}
	return &Plugin{
		Dialect:  dialect,
		info:     info,
		secrets:  scy.New(),
		metadata: metadata.New(),
		query:    query.New(32),
	}
}

// Standard lists the capabilities every relational plugin built on Plugin
// supports; driver acquisition is added when the dialect names an artifact.
func (d *Dialect) Standard() []plugin.Capability {
	ret := []plugin.Capability{plugin.Connect, plugin.Databases, plugin.Schemas, plugin.Tables, plugin.Views,
		plugin.Columns, plugin.Indexes, plugin.Keys, plugin.Functions, plugin.Procedures, plugin.Triggers,
		plugin.DDL, plugin.Execute}
	if d.Driver != nil {
		ret = append(ret, plugin.Driver)
	}
	return ret
}
