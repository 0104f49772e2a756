package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/blob"
	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/snapshot"
)

// Run uploads count copies of a template snapshot payload at 5-minute-spaced
// timestamps walking backwards from the top of the current hour. This is a
// best-effort way to seed the store with history; the payload rows are
// duplicated as-is, only the ingestion timestamp is stamped per copy.
func Run(ctx context.Context, store blob.Store, templatePath string, count int, now time.Time) error {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}

	var template map[string]any
	if err := json.Unmarshal(raw, &template); err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := store.EnsureBucket(ctx); err != nil {
		return err
	}

	base := now.UTC().Truncate(time.Hour)
	for i := 0; i < count; i++ {
		ts := base.Add(-time.Duration(i) * 5 * time.Minute)
		template["_ingest_ts"] = ts.Format(time.RFC3339)

		payload, err := json.Marshal(template)
		if err != nil {
			return fmt.Errorf("marshal copy %d: %w", i, err)
		}

		path := snapshot.ObjectPath(ts)
		if err := store.Upload(ctx, path, payload, "application/json"); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("Backfilled snapshot")
	}

	return nil
}
