package plugin

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/viant/scy"
	"github.com/viant/sqlx/metadata/sink"
)

// ConnectionConfig carries the parameters needed to open a raw connection.
type ConnectionConfig struct {
	Family   string `json:"family" yaml:"family"`
	Host     string `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" internal:"true"`
	Project  string `json:"project,omitempty" yaml:"project,omitempty"`
	Options  string `json:"options,omitempty" yaml:"options,omitempty"`

	// Secrets, when set, points to a scy resource holding the credentials
	// expanded into $Username / $Password of the DSN template.
	Secrets *scy.Resource `json:"secrets,omitempty" yaml:"secrets,omitempty"`

	ConnectTimeout time.Duration `json:"connectTimeout,omitempty" yaml:"connectTimeout,omitempty"`
	MaxOpenConns   int           `json:"maxOpenConns,omitempty" yaml:"maxOpenConns,omitempty"`
}

// Validate checks the parameters every family needs.
func (c *ConnectionConfig) Validate() error {
	if c == nil {
		return NewConfigError("", "", "config is nil")
	}
	if strings.TrimSpace(c.Family) == "" {
		return NewConfigError(c.Family, "family", "cannot be empty")
	}
	if c.Port < 0 || c.Port > 65535 {
		return NewConfigError(c.Family, "port", fmt.Sprintf("out of range: %d", c.Port))
	}
	return nil
}

// Scope narrows metadata and command operations to a catalog and schema.
type Scope struct {
	Catalog string `json:"catalog,omitempty"`
	Schema  string `json:"schema,omitempty"`
}

// ObjectType enumerates objects with a DDL definition.
type ObjectType string

const (
	ObjectTable     ObjectType = "TABLE"
	ObjectView      ObjectType = "VIEW"
	ObjectFunction  ObjectType = "FUNCTION"
	ObjectProcedure ObjectType = "PROCEDURE"
	ObjectTrigger   ObjectType = "TRIGGER"
)

// Object identifies a database object for DDL retrieval.
type Object struct {
	Scope
	Name string     `json:"name"`
	Type ObjectType `json:"type,omitempty"`
}

// Result is the outcome of a CommandExecutor call. Rows is set for statements
// producing a result set, RowsAffected/LastInsertID otherwise.
type Result struct {
	Rows         []interface{} `json:"rows,omitempty"`
	RowsAffected int64         `json:"rowsAffected,omitempty"`
	LastInsertID int64         `json:"lastInsertId,omitempty"`
}

// Metadata records produced by reflection.
type (
	Schema   = sink.Schema
	Table    = sink.Table
	Column   = sink.Column
	Index    = sink.Index
	Key      = sink.Key
	Function = sink.Function
)

// Catalog describes a database.
type Catalog struct {
	Name string `sqlx:"CATALOG_NAME" json:"name"`
}

// Procedure describes a stored procedure.
type Procedure struct {
	Catalog string `sqlx:"ROUTINE_CATALOG" json:"catalog,omitempty"`
	Schema  string `sqlx:"ROUTINE_SCHEMA" json:"schema,omitempty"`
	Name    string `sqlx:"ROUTINE_NAME" json:"name"`
}

// Trigger describes a table trigger.
type Trigger struct {
	Catalog string `sqlx:"TRIGGER_CATALOG" json:"catalog,omitempty"`
	Schema  string `sqlx:"TRIGGER_SCHEMA" json:"schema,omitempty"`
	Name    string `sqlx:"TRIGGER_NAME" json:"name"`
	Table   string `sqlx:"EVENT_OBJECT_TABLE" json:"table,omitempty"`
	Event   string `sqlx:"EVENT_MANIPULATION" json:"event,omitempty"`
	Timing  string `sqlx:"ACTION_TIMING" json:"timing,omitempty"`
}

// Coordinate locates a driver artifact in a Maven style repository.
type Coordinate struct {
	Group     string `json:"group"`
	Artifact  string `json:"artifact"`
	Version   string `json:"version,omitempty"`
	Extension string `json:"extension,omitempty"`
}

// FileName returns the artifact file name, e.g. mysql-driver-1.9.3.so.
func (c *Coordinate) FileName() string {
	return c.Artifact + "-" + c.Version + "." + c.ext()
}

// Dir returns the repository directory of the artifact, without version.
func (c *Coordinate) Dir() string {
	return path.Join(strings.ReplaceAll(c.Group, ".", "/"), c.Artifact)
}

// Path returns the repository path of the versioned artifact file.
func (c *Coordinate) Path() string {
	return path.Join(c.Dir(), c.Version, c.FileName())
}

// WithVersion returns a copy of c pointing at version.
func (c *Coordinate) WithVersion(version string) *Coordinate {
	ret := *c
	ret.Version = version
	return &ret
}

func (c *Coordinate) ext() string {
	if c.Extension == "" {
		return "so"
	}
	return strings.TrimPrefix(c.Extension, ".")
}

func (c *Coordinate) String() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}
