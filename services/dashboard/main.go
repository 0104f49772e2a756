package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"

	"github.com/jihyolabs/ddareungi-monitor/services/dashboard/config"
	"github.com/jihyolabs/ddareungi-monitor/services/dashboard/data"
	httpserver "github.com/jihyolabs/ddareungi-monitor/services/dashboard/http"
)

func main() {
	if os.Getenv("LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	app := &cli.App{
		Name:        "dashboard",
		Description: "Serves the bike station status read API with flat-file fallback",

		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the dashboard REST API",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}

					access := data.New(cfg)
					srv := httpserver.New(cfg, access)
					log.Info().Str("addr", cfg.ListenAddr()).Msg("Dashboard API listening")
					return srv.Run(c.Context)
				},
			},
			{
				Name:  "export-csv",
				Usage: "dump the bike_status table into the fallback corpus file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "out",
						Usage: "Output CSV path (defaults to the configured corpus path)",
					},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}

					out := c.String("out")
					if out == "" {
						out = cfg.CorpusPath
					}
					return data.ExportCorpus(c.Context, cfg.DatabaseURL, out)
				},
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Send()
	}
}
