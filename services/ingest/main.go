package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"

	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/backfill"
	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/blob"
	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/config"
	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/schedule"
	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/seoulbike"
	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/snapshot"
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
		Name:        "ingest",
		Description: "Collects Seoul bike station status and stores timestamped snapshots",

		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the scheduled collector on fixed interval boundaries",
				Action: func(c *cli.Context) error {
					cfg, store, err := setup(c.Context)
					if err != nil {
						return err
					}
					defer store.Close()

					runner := &schedule.Runner{
						Interval: cfg.Interval,
						Cycle: func(ctx context.Context, scheduled time.Time) error {
							return cycle(ctx, cfg, store)
						},
					}
					log.Info().Dur("interval", cfg.Interval).Msg("Scheduler started")
					if err := runner.Start(c.Context); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				},
			},
			{
				Name:  "once",
				Usage: "run a single fetch and upload cycle",
				Action: func(c *cli.Context) error {
					cfg, store, err := setup(c.Context)
					if err != nil {
						return err
					}
					defer store.Close()
					return cycle(c.Context, cfg, store)
				},
			},
			{
				Name:  "backfill",
				Usage: "seed the snapshot store by duplicating a template payload",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "template",
						Usage:    "Path to a snapshot JSON file used as the payload",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Number of snapshots to create",
						Value: 8,
					},
				},
				Action: func(c *cli.Context) error {
					_, store, err := setup(c.Context)
					if err != nil {
						return err
					}
					defer store.Close()
					return backfill.Run(c.Context, store, c.String("template"), c.Int("count"), time.Now())
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

func setup(ctx context.Context) (config.Config, blob.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, err
	}

	if cfg.DryRun {
		return cfg, blob.NewMemory(), nil
	}

	store, err := blob.NewGCS(ctx, cfg.Bucket, cfg.ProjectID)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, store, nil
}

// cycle runs one fetch-and-upload pass. Zero fetched rows skips the write so
// no empty snapshots are stored.
func cycle(ctx context.Context, cfg config.Config, store blob.Store) error {
	client := seoulbike.New(&http.Client{Timeout: cfg.PageTimeout}, cfg.BaseURL, cfg.APIKey)
	ts := time.Now().UTC().Truncate(time.Second)

	rows, err := client.FetchAll(ctx, cfg.StationBound, cfg.PageSize)
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		log.Warn().Msg("No rows fetched, skipping snapshot upload")
		return nil
	}

	if cfg.DryRun {
		log.Info().Int("rows", len(rows)).Str("path", snapshot.ObjectPath(ts)).Msg("dry-run: skipping upload")
		return nil
	}

	_, err = snapshot.NewWriter(store).Write(ctx, rows, ts)
	return err
}
