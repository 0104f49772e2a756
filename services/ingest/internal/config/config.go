package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultBaseURL      = "http://openapi.seoul.go.kr:8088"
	defaultStationBound = 2725
	defaultPageSize     = 999
	defaultPageTimeout  = 15 * time.Second
	defaultInterval     = 5 * time.Minute
)

// Config holds runtime configuration for the ingest service.
type Config struct {
	APIKey       string
	BaseURL      string
	Bucket       string
	ProjectID    string
	StationBound int
	PageSize     int
	PageTimeout  time.Duration
	Interval     time.Duration
	DryRun       bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		BaseURL:      defaultBaseURL,
		StationBound: defaultStationBound,
		PageSize:     defaultPageSize,
		PageTimeout:  defaultPageTimeout,
		Interval:     defaultInterval,
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("SEOUL_BIKE_API_KEY"))
	if cfg.APIKey == "" {
		return cfg, errors.New("SEOUL_BIKE_API_KEY is required")
	}

	cfg.Bucket = strings.TrimSpace(os.Getenv("SNAPSHOT_BUCKET"))
	if cfg.Bucket == "" {
		return cfg, errors.New("SNAPSHOT_BUCKET is required")
	}

	if v := strings.TrimSpace(os.Getenv("SEOUL_BIKE_BASE_URL")); v != "" {
		cfg.BaseURL = strings.TrimRight(v, "/")
	}

	// Only needed when the bucket does not exist yet and must be created.
	cfg.ProjectID = strings.TrimSpace(os.Getenv("GCP_PROJECT_ID"))

	if v := strings.TrimSpace(os.Getenv("INGEST_STATION_BOUND")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid INGEST_STATION_BOUND: %s", v)
		}
		cfg.StationBound = n
	}

	if v := strings.TrimSpace(os.Getenv("INGEST_PAGE_SIZE")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid INGEST_PAGE_SIZE: %s", v)
		}
		cfg.PageSize = n
	}

	if v := strings.TrimSpace(os.Getenv("INGEST_PAGE_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid INGEST_PAGE_TIMEOUT: %w", err)
		}
		cfg.PageTimeout = d
	}

	if v := strings.TrimSpace(os.Getenv("INGEST_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid INGEST_INTERVAL: %w", err)
		}
		cfg.Interval = d
	}

	dryRun := strings.TrimSpace(os.Getenv("DRY_RUN"))
	cfg.DryRun = dryRun == "1" || strings.EqualFold(dryRun, "true")

	return cfg, nil
}
