package base

import (
	"context"
	"reflect"
	"strconv"
	"strings"

	"github.com/viant/dbkit/plugin"
	"github.com/viant/scy/cred"
)

// Resolve returns a copy of config with dialect defaults applied and required
// fields checked.
func (p *Plugin) Resolve(config *plugin.ConnectionConfig) (*plugin.ConnectionConfig, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := *config
	if ret.Host == "" {
		ret.Host = p.Defaults.Host
	}
	if ret.Port == 0 {
		ret.Port = p.Defaults.Port
	}
	if ret.Options == "" {
		ret.Options = p.Defaults.Options
	}
	for _, field := range p.Required {
		if isEmpty(&ret, field) {
			return nil, plugin.NewConfigError(ret.Family, strings.ToLower(field), "cannot be empty")
		}
	}
	return &ret, nil
}

func isEmpty(config *plugin.ConnectionConfig, field string) bool {
	switch field {
	case "Host":
		return config.Host == ""
	case "Port":
		return config.Port == 0
	case "Database":
		return config.Database == ""
	case "Project":
		return config.Project == ""
	case "Username":
		return config.Username == "" && config.Secrets == nil
	}
	return false
}

// DSN expands the dialect template with config values and credentials.
// Credentials come from config.Secrets when set, otherwise from
// Username/Password.
func (p *Plugin) DSN(ctx context.Context, config *plugin.ConnectionConfig) (string, error) {
	dsn := expand(p.Dialect.DSN, config)
	if !strings.Contains(dsn, "$") {
		return dsn, nil
	}
	if config.Secrets != nil {
		resource := *config.Secrets
		resource.SetTarget(reflect.TypeOf(&cred.Basic{}))
		secret, err := p.secrets.Load(ctx, &resource)
		if err != nil {
			return "", plugin.NewConfigError(config.Family, "secrets", err.Error())
		}
		return secret.Expand(dsn), nil
	}
	dsn = strings.ReplaceAll(dsn, "$Username", config.Username)
	return strings.ReplaceAll(dsn, "$Password", config.Password), nil
}

func expand(dsn string, config *plugin.ConnectionConfig) string {
	replacer := strings.NewReplacer(
		"${Host}", config.Host,
		"${Port}", strconv.Itoa(config.Port),
		"${Db}", config.Database,
		"${Project}", config.Project,
		"${Options}", config.Options,
	)
	ret := replacer.Replace(dsn)
	if config.Options == "" {
		ret = strings.TrimSuffix(strings.TrimSuffix(ret, "&"), "?")
	}
	return ret
}
