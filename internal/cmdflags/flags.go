package cmdflags

import (
	"github.com/andrebq/mindgate/gate"
	"github.com/urfave/cli/v2"
)

func Bind(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "bind",
		Usage:       "Address to bind for incoming requests",
		Destination: out,
		Value:       *out,
	}
}

func Config(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to the gate configuration (a Lua file returning a table)",
		Destination: out,
		Value:       *out,
		Required:    true,
	}
}

func Database(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = "stuff.db"
	}
	return &cli.StringFlag{
		Name:        "db",
		Aliases:     []string{"d"},
		Usage:       "Path to the stuff database",
		EnvVars:     []string{"MINDGATE_DB"},
		Destination: out,
		Value:       *out,
	}
}

func RootKeyEnvVar(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = gate.RootKeyEnvVar
	}
	return &cli.StringFlag{
		Name:        "root-key-envvar-name",
		Usage:       "Name of the environment variable that holds the root key. The key itself should not be passed as an argument",
		Value:       *out,
		Destination: out,
	}
}

func SaltEnvVar(out *string) cli.Flag {
	if len(*out) == 0 {
		*out = gate.SaltEnvVar
	}
	return &cli.StringFlag{
		Name:        "salt-envvar-name",
		Usage:       "Name of the environment variable that holds the password salt, used when the configuration has none",
		Value:       *out,
		Destination: out,
	}
}
