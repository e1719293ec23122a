package plugin

import (
	"context"
	"database/sql"
	"reflect"
)

// Capability names an operation a plugin may implement.
type Capability string

const (
	Connect    Capability = "connect"
	Databases  Capability = "databases"
	Schemas    Capability = "schemas"
	Tables     Capability = "tables"
	Views      Capability = "views"
	Columns    Capability = "columns"
	Indexes    Capability = "indexes"
	Keys       Capability = "keys"
	Functions  Capability = "functions"
	Procedures Capability = "procedures"
	Triggers   Capability = "triggers"
	DDL        Capability = "ddl"
	Execute    Capability = "execute"
	Driver     Capability = "driver"
)

type (
	// Connector opens and closes raw connections and reports the server version.
	Connector interface {
		Connect(ctx context.Context, config *ConnectionConfig) (*sql.DB, error)
		ServerVersion(ctx context.Context, db *sql.DB) (string, error)
		Close(db *sql.DB) error
	}

	DatabaseLister interface {
		ListDatabases(ctx context.Context, db *sql.DB) ([]Catalog, error)
	}

	SchemaLister interface {
		ListSchemas(ctx context.Context, db *sql.DB, catalog string) ([]Schema, error)
	}

	TableLister interface {
		ListTables(ctx context.Context, db *sql.DB, scope Scope) ([]Table, error)
	}

	ViewLister interface {
		ListViews(ctx context.Context, db *sql.DB, scope Scope) ([]Table, error)
	}

	ColumnLister interface {
		ListColumns(ctx context.Context, db *sql.DB, scope Scope, table string) ([]Column, error)
	}

	IndexLister interface {
		ListIndexes(ctx context.Context, db *sql.DB, scope Scope, table string) ([]Index, error)
	}

	KeyLister interface {
		ListPrimaryKeys(ctx context.Context, db *sql.DB, scope Scope, table string) ([]Key, error)
		ListForeignKeys(ctx context.Context, db *sql.DB, scope Scope, table string) ([]Key, error)
	}

	FunctionLister interface {
		ListFunctions(ctx context.Context, db *sql.DB, scope Scope) ([]Function, error)
	}

	ProcedureLister interface {
		ListProcedures(ctx context.Context, db *sql.DB, scope Scope) ([]Procedure, error)
	}

	TriggerLister interface {
		ListTriggers(ctx context.Context, db *sql.DB, scope Scope) ([]Trigger, error)
	}

	// DDLFetcher returns the definition text of a database object.
	DDLFetcher interface {
		FetchDDL(ctx context.Context, db *sql.DB, object Object) (string, error)
	}

	// CommandExecutor runs a statement and returns either rows or the write outcome.
	CommandExecutor interface {
		Execute(ctx context.Context, db *sql.DB, scope Scope, command string, args ...interface{}) (*Result, error)
	}

	// DriverProvider supplies repository coordinates of the driver a plugin
	// needs. An empty version asks for the plugin default; a version the
	// plugin does not recognise is rejected with ErrVersionRejected.
	DriverProvider interface {
		DriverCoordinate(version string) (*Coordinate, error)
	}
)

var contracts = map[Capability]reflect.Type{
	Connect:    reflect.TypeOf((*Connector)(nil)).Elem(),
	Databases:  reflect.TypeOf((*DatabaseLister)(nil)).Elem(),
	Schemas:    reflect.TypeOf((*SchemaLister)(nil)).Elem(),
	Tables:     reflect.TypeOf((*TableLister)(nil)).Elem(),
	Views:      reflect.TypeOf((*ViewLister)(nil)).Elem(),
	Columns:    reflect.TypeOf((*ColumnLister)(nil)).Elem(),
	Indexes:    reflect.TypeOf((*IndexLister)(nil)).Elem(),
	Keys:       reflect.TypeOf((*KeyLister)(nil)).Elem(),
	Functions:  reflect.TypeOf((*FunctionLister)(nil)).Elem(),
	Procedures: reflect.TypeOf((*ProcedureLister)(nil)).Elem(),
	Triggers:   reflect.TypeOf((*TriggerLister)(nil)).Elem(),
	DDL:        reflect.TypeOf((*DDLFetcher)(nil)).Elem(),
	Execute:    reflect.TypeOf((*CommandExecutor)(nil)).Elem(),
	Driver:     reflect.TypeOf((*DriverProvider)(nil)).Elem(),
}

var capabilityByContract = func() map[reflect.Type]Capability {
	ret := make(map[reflect.Type]Capability, len(contracts))
	for capability, contract := range contracts {
		ret[contract] = capability
	}
	return ret
}()

// Capabilities returns every known capability in a stable order.
func Capabilities() []Capability {
	return []Capability{Connect, Databases, Schemas, Tables, Views, Columns, Indexes, Keys,
		Functions, Procedures, Triggers, DDL, Execute, Driver}
}

// Known reports whether c is a defined capability.
func (c Capability) Known() bool {
	_, ok := contracts[c]
	return ok
}

// SatisfiedBy reports whether the concrete plugin implements the contract.
func (c Capability) SatisfiedBy(p Plugin) bool {
	contract, ok := contracts[c]
	if !ok || p == nil {
		return false
	}
	return reflect.TypeOf(p).Implements(contract)
}

// CapabilityOf returns the capability bound to the contract type T.
func CapabilityOf[T any]() (Capability, bool) {
	capability, ok := capabilityByContract[reflect.TypeOf((*T)(nil)).Elem()]
	return capability, ok
}
