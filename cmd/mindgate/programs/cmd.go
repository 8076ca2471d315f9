package programs

import (
	"github.com/andrebq/mindgate/cmd/mindgate/programs/authprogram"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:    "programs",
		Aliases: []string{"p"},
		Usage:   "Helper programs used to setup a gate",
		Subcommands: []*cli.Command{
			authprogram.Cmd(),
		},
	}
}
