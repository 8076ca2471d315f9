package stuff

import (
	"github.com/andrebq/mindgate/internal/cmdflags"
	"github.com/andrebq/mindgate/internal/httpserver"
	"github.com/andrebq/mindgate/stuff"
	"github.com/andrebq/mindgate/stuff/api"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:7008"
	var db string
	var assets string
	return &cli.Command{
		Name:  "stuff",
		Usage: "Start the stuff API, usually as the upstream of a gate",
		Flags: []cli.Flag{
			cmdflags.Bind(&bindAddr),
			cmdflags.Database(&db),
			&cli.StringFlag{
				Name:        "assets",
				Usage:       "Directory with static files served for unknown paths",
				Destination: &assets,
			},
		},
		Action: func(ctx *cli.Context) error {
			st, err := stuff.Open(ctx.Context, db, true)
			if err != nil {
				return err
			}
			defer st.Close()
			handler, err := api.AsHandler(ctx.Context, st, assets)
			if err != nil {
				return err
			}
			return httpserver.Serve(ctx.Context, bindAddr, handler)
		},
	}
}
