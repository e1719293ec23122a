// Package meta dispatches metadata listing and DDL retrieval to the plugin
// bound to a connection.
package meta

import (
	"context"
	"database/sql"

	"github.com/viant/dbkit/auth"
	"github.com/viant/dbkit/db/connector"
	"github.com/viant/dbkit/plugin"
)

// Input names a connection and an optional scope overriding its defaults.
type Input struct {
	// Connection id returned by Open.
	Connection string `json:"connection"`

	// Catalog/database name (optional).
	Catalog string `json:"catalog,omitempty"`

	// Schema name (optional, defaults depend on the plugin).
	Schema string `json:"schema,omitempty"`
}

// TableInput names a table within the input scope.
type TableInput struct {
	Input
	Table string `json:"table"`
}

// DDLInput names an object whose definition is requested.
type DDLInput struct {
	Input
	Name string            `json:"name"`
	Type plugin.ObjectType `json:"type,omitempty"`
}

// Service provides metadata listing capabilities.
type Service struct {
	connections *connector.Registry
	auth        *auth.Service
}

func (s *Service) ListDatabases(ctx context.Context, input *Input) ([]plugin.Catalog, error) {
	return call(ctx, s, input, func(lister plugin.DatabaseLister, db *sql.DB, scope plugin.Scope) ([]plugin.Catalog, error) {
		return lister.ListDatabases(ctx, db)
	})
}

func (s *Service) ListSchemas(ctx context.Context, input *Input) ([]plugin.Schema, error) {
	return call(ctx, s, input, func(lister plugin.SchemaLister, db *sql.DB, scope plugin.Scope) ([]plugin.Schema, error) {
		return lister.ListSchemas(ctx, db, scope.Catalog)
	})
}

func (s *Service) ListTables(ctx context.Context, input *Input) ([]plugin.Table, error) {
	return call(ctx, s, input, func(lister plugin.TableLister, db *sql.DB, scope plugin.Scope) ([]plugin.Table, error) {
		return lister.ListTables(ctx, db, scope)
	})
}

func (s *Service) ListViews(ctx context.Context, input *Input) ([]plugin.Table, error) {
	return call(ctx, s, input, func(lister plugin.ViewLister, db *sql.DB, scope plugin.Scope) ([]plugin.Table, error) {
		return lister.ListViews(ctx, db, scope)
	})
}

func (s *Service) ListColumns(ctx context.Context, input *TableInput) ([]plugin.Column, error) {
	return call(ctx, s, &input.Input, func(lister plugin.ColumnLister, db *sql.DB, scope plugin.Scope) ([]plugin.Column, error) {
		return lister.ListColumns(ctx, db, scope, input.Table)
	})
}

func (s *Service) ListIndexes(ctx context.Context, input *TableInput) ([]plugin.Index, error) {
	return call(ctx, s, &input.Input, func(lister plugin.IndexLister, db *sql.DB, scope plugin.Scope) ([]plugin.Index, error) {
		return lister.ListIndexes(ctx, db, scope, input.Table)
	})
}

func (s *Service) ListPrimaryKeys(ctx context.Context, input *TableInput) ([]plugin.Key, error) {
	return call(ctx, s, &input.Input, func(lister plugin.KeyLister, db *sql.DB, scope plugin.Scope) ([]plugin.Key, error) {
		return lister.ListPrimaryKeys(ctx, db, scope, input.Table)
	})
}

func (s *Service) ListForeignKeys(ctx context.Context, input *TableInput) ([]plugin.Key, error) {
	return call(ctx, s, &input.Input, func(lister plugin.KeyLister, db *sql.DB, scope plugin.Scope) ([]plugin.Key, error) {
		return lister.ListForeignKeys(ctx, db, scope, input.Table)
	})
}

func (s *Service) ListFunctions(ctx context.Context, input *Input) ([]plugin.Function, error) {
	return call(ctx, s, input, func(lister plugin.FunctionLister, db *sql.DB, scope plugin.Scope) ([]plugin.Function, error) {
		return lister.ListFunctions(ctx, db, scope)
	})
}

func (s *Service) ListProcedures(ctx context.Context, input *Input) ([]plugin.Procedure, error) {
	return call(ctx, s, input, func(lister plugin.ProcedureLister, db *sql.DB, scope plugin.Scope) ([]plugin.Procedure, error) {
		return lister.ListProcedures(ctx, db, scope)
	})
}

func (s *Service) ListTriggers(ctx context.Context, input *Input) ([]plugin.Trigger, error) {
	return call(ctx, s, input, func(lister plugin.TriggerLister, db *sql.DB, scope plugin.Scope) ([]plugin.Trigger, error) {
		return lister.ListTriggers(ctx, db, scope)
	})
}

// FetchDDL returns the definition text of the named object.
func (s *Service) FetchDDL(ctx context.Context, input *DDLInput) (string, error) {
	return call(ctx, s, &input.Input, func(fetcher plugin.DDLFetcher, db *sql.DB, scope plugin.Scope) (string, error) {
		return fetcher.FetchDDL(ctx, db, plugin.Object{Scope: scope, Name: input.Name, Type: input.Type})
	})
}

// call resolves the caller owned connection and the contract T of its plugin.
func call[T, R any](ctx context.Context, s *Service, input *Input, fn func(handle T, db *sql.DB, scope plugin.Scope) (R, error)) (R, error) {
	var zero R
	owner, err := s.auth.Owner(ctx)
	if err != nil {
		return zero, err
	}
	handle, active, err := connector.Bind[T](s.connections, input.Connection, owner, input.Catalog, input.Schema)
	if err != nil {
		return zero, err
	}
	return fn(handle, active.DB, plugin.Scope{Catalog: active.Catalog, Schema: active.Schema})
}

// New creates a metadata service instance.
func New(connections *connector.Registry, authService *auth.Service) *Service {
	return &Service{connections: connections, auth: authService}
}
