package data

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const exportSQL = `
    SELECT station_id, station_name, rack_tot_cnt::float8, parking_bike_tot_cnt::float8,
           slots_available::float8, lat::float8, lon::float8, ts_utc
    FROM bike_status
    ORDER BY ts_utc DESC
`

// ExportCorpus dumps the whole relational table into the flat-file corpus
// format, producing the file the fallback path reads. The output is UTF-8
// with a BOM signature.
func ExportCorpus(ctx context.Context, databaseURL, outPath string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	rows, err := conn.Query(ctx, exportSQL)
	if err != nil {
		return fmt.Errorf("query bike_status: %w", err)
	}
	defer rows.Close()

	fileRows := make([]corpusRow, 0)
	for rows.Next() {
		var (
			stationID string
			name      *string
			rack      *float64
			parked    *float64
			slots     *float64
			lat       *float64
			lon       *float64
			ts        time.Time
		)
		if err := rows.Scan(&stationID, &name, &rack, &parked, &slots, &lat, &lon, &ts); err != nil {
			return err
		}

		fr := corpusRow{
			StationID:      stationID,
			RackTotCnt:     formatFloat(rack),
			ParkingBikeTot: formatFloat(parked),
			SlotsAvailable: formatFloat(slots),
			Lat:            formatFloat(lat),
			Lon:            formatFloat(lon),
			TSUTC:          ts.UTC().Format(time.RFC3339),
		}
		if name != nil {
			fr.StationName = *name
		}
		fileRows = append(fileRows, fr)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	body, err := gocsv.MarshalBytes(&fileRows)
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	out := append(append([]byte{}, utf8BOM...), body...)
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}

	log.Info().Int("rows", len(fileRows)).Str("path", outPath).Msg("Exported corpus")
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}
