package main

// Options defines CLI flags for the dbkit command.
type Options struct {
	ConfigPath string   `short:"c" long:"config" description:"Path to JSON configuration file"`
	EnvFiles   []string `short:"e" long:"env" description:"dotenv files with DBKIT_* overrides" default:".env"`
	Token      string   `short:"t" long:"token" description:"identity token (JWT) of the caller"`
	Verbose    bool     `short:"V" long:"verbose" description:"debug logging"`

	Connection map[string]string `short:"C" long:"conn" key-value-delimiter:"=" description:"connection parameter, e.g. -C family=mysql -C host=localhost"`

	Catalog string `long:"catalog" description:"catalog (database)"`
	Schema  string `long:"schema" description:"schema"`
	Table   string `short:"T" long:"table" description:"table name"`
	Name    string `short:"n" long:"name" description:"object name for ddl"`
	Type    string `long:"type" description:"object type for ddl" choice:"TABLE" choice:"VIEW" choice:"FUNCTION" choice:"PROCEDURE" choice:"TRIGGER"`

	SQL    string   `short:"q" long:"sql" description:"SQL command"`
	Params []string `short:"p" long:"param" description:"positional SQL parameter"`

	Family  string `short:"f" long:"family" description:"database family (plugin and driver commands)"`
	Version string `short:"v" long:"version" description:"driver version (driver commands)"`

	Args struct {
		Command string `positional-arg-name:"command" description:"plugins|versions|drivers|download|delete|load|connect|databases|schemas|tables|views|columns|indexes|keys|functions|procedures|triggers|ddl|exec"`
	} `positional-args:"yes" required:"yes"`
}
