package base

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/viant/dbkit/plugin"
)

// Connect opens a handle and verifies it with a ping, honouring
// config.ConnectTimeout. Driver and network failures are returned as
// *plugin.ConnectError; a ping outliving ConnectTimeout returns
// plugin.ErrTimeout, which is not a rejection.
func (p *Plugin) Connect(ctx context.Context, config *plugin.ConnectionConfig) (*sql.DB, error) {
	resolved, err := p.Resolve(config)
	if err != nil {
		return nil, err
	}
	if p.DriverName == "" {
		return nil, &plugin.CapabilityError{PluginID: p.info.ID, Capability: plugin.Connect}
	}
	dsn, err := p.DSN(ctx, resolved)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(p.DriverName, dsn)
	if err != nil {
		return nil, plugin.NewConnectError(p.info.ID, resolved.Host, resolved.Port, err)
	}
	if resolved.MaxOpenConns > 0 {
		db.SetMaxOpenConns(resolved.MaxOpenConns)
	}
	pingCtx := ctx
	if resolved.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, resolved.ConnectTimeout)
		defer cancel()
	}
	if err = db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		if ctx.Err() == nil && errors.Is(pingCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: connect exceeded %s: %w", plugin.ErrTimeout, p.info.ID, resolved.ConnectTimeout, err)
		}
		return nil, plugin.NewConnectError(p.info.ID, resolved.Host, resolved.Port, err)
	}
	return db, nil
}

// ServerVersion returns the raw server version text.
func (p *Plugin) ServerVersion(ctx context.Context, db *sql.DB) (string, error) {
	SQL := p.VersionQuery
	if SQL == "" {
		SQL = "SELECT VERSION()"
	}
	var ret string
	if err := db.QueryRowContext(ctx, SQL).Scan(&ret); err != nil {
		return "", fmt.Errorf("%s: failed to read server version: %w", p.info.ID, err)
	}
	return ret, nil
}

// Close closes the handle.
func (p *Plugin) Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
