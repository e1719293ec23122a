package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"github.com/viant/dbkit/auth"
	"github.com/viant/dbkit/db/exec"
	"github.com/viant/dbkit/db/meta"
	"github.com/viant/dbkit/plugin"
	"github.com/viant/dbkit/plugin/builtin"
	"github.com/viant/dbkit/service"
	"github.com/viant/structology/conv"
)

func run(argv []string) error {
	opts, err := parseFlags(argv)
	if err != nil || opts == nil {
		return err
	}
	if opts.Verbose {
		log.SetLevel(log.DebugLevel)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cfg.Init()
	cfg.LoadEnv(opts.EnvFiles...)

	srv := service.New(cfg, builtin.Providers()...)
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.Token != "" {
		ctx = auth.WithToken(ctx, opts.Token)
	}
	output, err := dispatch(ctx, srv, opts)
	if err != nil {
		return err
	}
	return emit(output)
}

func parseFlags(args []string) (*Options, error) {
	opts := &Options{}
	_, err := flags.ParseArgs(opts, args)
	if err == nil {
		return opts, nil
	}
	var fe *flags.Error
	if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
		return nil, nil
	}
	return nil, err
}

func loadConfig(opts *Options) (*service.Config, error) {
	cfg := &service.Config{}
	if opts.ConfigPath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", opts.ConfigPath, err)
	}
	return cfg, nil
}

// connectionConfig maps -C key=value pairs onto plugin.ConnectionConfig.
func connectionConfig(pairs map[string]string) (*plugin.ConnectionConfig, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("connection parameters are missing, use -C family=... -C host=...")
	}
	values := make(map[string]interface{}, len(pairs))
	for k, v := range pairs {
		values[k] = v
	}
	ret := &plugin.ConnectionConfig{}
	if err := conv.NewConverter(conv.DefaultOptions()).Convert(values, ret); err != nil {
		return nil, fmt.Errorf("invalid connection parameters: %w", err)
	}
	return ret, ret.Validate()
}

func dispatch(ctx context.Context, srv *service.Service, opts *Options) (interface{}, error) {
	switch opts.Args.Command {
	case "plugins":
		return srv.ListPlugins(opts.Family), nil
	case "versions":
		return srv.Drivers().ListAvailableVersions(ctx, opts.Family)
	case "drivers":
		return srv.Drivers().ListInstalled(ctx, opts.Family)
	case "download":
		return srv.DownloadDriver(ctx, opts.Family, opts.Version)
	case "delete":
		return nil, srv.Drivers().Delete(ctx, opts.Family, opts.Version)
	case "load":
		return srv.Drivers().Load(ctx, opts.Family, opts.Version)
	}

	config, err := connectionConfig(opts.Connection)
	if err != nil {
		return nil, err
	}
	connection, err := srv.OpenConnection(ctx, config)
	if err != nil {
		return nil, err
	}
	input := meta.Input{Connection: connection.ID, Catalog: opts.Catalog, Schema: opts.Schema}
	tableInput := &meta.TableInput{Input: input, Table: opts.Table}
	switch opts.Args.Command {
	case "connect":
		return connection, nil
	case "databases":
		return srv.Meta().ListDatabases(ctx, &input)
	case "schemas":
		return srv.Meta().ListSchemas(ctx, &input)
	case "tables":
		return srv.Meta().ListTables(ctx, &input)
	case "views":
		return srv.Meta().ListViews(ctx, &input)
	case "columns":
		return srv.Meta().ListColumns(ctx, tableInput)
	case "indexes":
		return srv.Meta().ListIndexes(ctx, tableInput)
	case "keys":
		primary, err := srv.Meta().ListPrimaryKeys(ctx, tableInput)
		if err != nil {
			return nil, err
		}
		foreign, err := srv.Meta().ListForeignKeys(ctx, tableInput)
		return map[string]interface{}{"primary": primary, "foreign": foreign}, err
	case "functions":
		return srv.Meta().ListFunctions(ctx, &input)
	case "procedures":
		return srv.Meta().ListProcedures(ctx, &input)
	case "triggers":
		return srv.Meta().ListTriggers(ctx, &input)
	case "ddl":
		return srv.Meta().FetchDDL(ctx, &meta.DDLInput{Input: input, Name: opts.Name, Type: plugin.ObjectType(opts.Type)})
	case "exec":
		params := make([]interface{}, len(opts.Params))
		for i, p := range opts.Params {
			params[i] = p
		}
		return srv.Exec().Execute(ctx, &exec.Input{Connection: connection.ID, Catalog: opts.Catalog, Schema: opts.Schema, Command: opts.SQL, Parameters: params})
	}
	return nil, fmt.Errorf("unsupported command: %v", opts.Args.Command)
}

func emit(output interface{}) error {
	if output == nil {
		return nil
	}
	if text, ok := output.(string); ok {
		_, err := fmt.Fprintln(os.Stdout, text)
		return err
	}
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
