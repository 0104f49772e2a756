package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/blob"
	"github.com/jihyolabs/ddareungi-monitor/services/ingest/internal/models"
)

// ObjectPath returns the time-partitioned object name for a snapshot taken
// at ts. The instant is the snapshot's identity: calls for the same UTC
// second collide (and overwrite), distinct seconds never do.
func ObjectPath(ts time.Time) string {
	ts = ts.UTC()
	return fmt.Sprintf("%s/bike_snapshot_%s.json", ts.Format("2006/01/02/15"), ts.Format("20060102_150405"))
}

// Writer persists fetch-cycle aggregates as immutable snapshot objects.
type Writer struct {
	store blob.Store
}

// NewWriter wraps a blob store.
func NewWriter(store blob.Store) *Writer {
	return &Writer{store: store}
}

// Envelope wraps rows with collection metadata for the instant ts.
func Envelope(rows []models.StationRow, ts time.Time) models.SnapshotEnvelope {
	return models.SnapshotEnvelope{
		Meta: models.SnapshotMeta{
			TimestampUTC: ts.UTC().Format(time.RFC3339),
			TotalRows:    len(rows),
		},
		RentBikeStatus: models.RentBikeStatus{Row: rows},
	}
}

// Write serializes the aggregate and uploads it under its partitioned path,
// creating the bucket if needed. It returns the object path written.
func (w *Writer) Write(ctx context.Context, rows []models.StationRow, ts time.Time) (string, error) {
	if err := w.store.EnsureBucket(ctx); err != nil {
		return "", err
	}

	payload, err := json.Marshal(Envelope(rows, ts))
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	path := ObjectPath(ts)
	if err := w.store.Upload(ctx, path, payload, "application/json"); err != nil {
		return "", err
	}

	log.Info().Str("path", path).Int("rows", len(rows)).Msg("Uploaded snapshot")
	return path, nil
}
