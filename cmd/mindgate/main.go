package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/andrebq/mindgate/cmd/mindgate/programs"
	"github.com/andrebq/mindgate/cmd/mindgate/serve"
	"github.com/andrebq/mindgate/cmd/mindgate/stuff"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "mindgate",
		Usage: "Keep your stuff behind a tiny authentication gate",
		Commands: []*cli.Command{
			serve.Cmd(),
			stuff.Cmd(),
			programs.Cmd(),
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	err := app.RunContext(ctx, os.Args)
	if err != nil {
		log.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}
