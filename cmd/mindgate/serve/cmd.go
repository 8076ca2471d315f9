package serve

import (
	"github.com/andrebq/mindgate/cmd/mindgate/serve/gate"
	"github.com/andrebq/mindgate/cmd/mindgate/serve/stuff"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Root command to start various mindgate services",
		Subcommands: []*cli.Command{
			gate.Cmd(),
			stuff.Cmd(),
		},
	}
}
