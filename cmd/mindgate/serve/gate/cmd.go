package gate

import (
	"os"

	"github.com/andrebq/mindgate/gate"
	"github.com/andrebq/mindgate/gate/api"
	"github.com/andrebq/mindgate/internal/cmdflags"
	"github.com/andrebq/mindgate/internal/httpserver"
	"github.com/andrebq/mindgate/internal/logutil"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	bindAddr := "localhost:7007"
	var configFile string
	var rootKeyEnvVar string
	var saltEnvVar string
	return &cli.Command{
		Name:  "gate",
		Usage: "Start the authentication gate in front of the configured upstream",
		Flags: []cli.Flag{
			cmdflags.Bind(&bindAddr),
			cmdflags.Config(&configFile),
			cmdflags.RootKeyEnvVar(&rootKeyEnvVar),
			cmdflags.SaltEnvVar(&saltEnvVar),
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := gate.LoadConfigFile(ctx.Context, configFile)
			if err != nil {
				return err
			}
			cfg.Key, err = gate.KeyFromEnv(rootKeyEnvVar, os.Getenv, os.Setenv)
			if err != nil {
				return err
			}
			salt, err := gate.SaltFromEnv(saltEnvVar, os.Getenv, os.Setenv)
			if err != nil {
				return err
			}
			if cfg.Salt == "" {
				cfg.Salt = salt
			}
			handler, err := api.New(ctx.Context, cfg)
			if err != nil {
				return err
			}
			defer handler.Close()
			log := logutil.GetOrDefault(ctx.Context)
			log.Info().
				Str("bind", bindAddr).
				Str("upstream", cfg.Upstream.String()).
				Str("deny", string(cfg.Deny)).
				Int("users", len(cfg.Logins)).
				Msg("Starting gate")
			return httpserver.Serve(ctx.Context, bindAddr, handler)
		},
	}
}
