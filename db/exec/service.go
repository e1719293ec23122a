// Package exec dispatches commands to the plugin bound to a connection.
package exec

import (
	"context"

	"github.com/viant/dbkit/auth"
	"github.com/viant/dbkit/db/connector"
	"github.com/viant/dbkit/plugin"
)

type Input struct {
	Connection string        `json:"connection"`
	Catalog    string        `json:"catalog,omitempty"`
	Schema     string        `json:"schema,omitempty"`
	Command    string        `json:"command"`
	Parameters []interface{} `json:"parameters,omitempty"`
}

type Service struct {
	connections *connector.Registry
	auth        *auth.Service
}

// Execute runs input.Command on a connection owned by the caller.
func (s *Service) Execute(ctx context.Context, input *Input) (*plugin.Result, error) {
	owner, err := s.auth.Owner(ctx)
	if err != nil {
		return nil, err
	}
	executor, active, err := connector.Bind[plugin.CommandExecutor](s.connections, input.Connection, owner, input.Catalog, input.Schema)
	if err != nil {
		return nil, err
	}
	scope := plugin.Scope{Catalog: active.Catalog, Schema: active.Schema}
	return executor.Execute(ctx, active.DB, scope, input.Command, input.Parameters...)
}

func New(connections *connector.Registry, authService *auth.Service) *Service {
	return &Service{connections: connections, auth: authService}
}
