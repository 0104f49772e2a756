package data

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/jihyolabs/ddareungi-monitor/services/dashboard/config"
)

// Access is the resilient read layer. The primary path queries the
// relational sink over a fresh connection per call; any primary failure
// falls back to the flat-file corpus. Results are cached with a short TTL to
// bound load under repeated refreshes.
type Access struct {
	cfg   config.Config
	cache *TTLCache

	// Query seams, swapped out in tests.
	queryPrimary    func(ctx context.Context, lookbackMinutes int) (*Result, error)
	queryRecent     func(ctx context.Context, conn *pgx.Conn, lookbackMinutes int) ([]StationStatus, error)
	queryPeakHours  func(ctx context.Context, conn *pgx.Conn) ([]PeakHour, error)
	queryRelocation func(ctx context.Context, conn *pgx.Conn) ([]RelocationCandidate, error)
}

// New builds an Access layer for the given configuration.
func New(cfg config.Config) *Access {
	a := &Access{
		cfg:   cfg,
		cache: NewTTLCache(cfg.CacheTTL),
	}
	a.queryPrimary = a.loadFromSQL
	a.queryRecent = queryRecent
	a.queryPeakHours = queryPeakHours
	a.queryRelocation = queryRelocation
	return a
}

// Load returns the read-side working set for the trailing lookback window.
// On primary failure the whole result is rebuilt from the corpus and labeled
// as degraded; the failure never propagates to the caller.
func (a *Access) Load(ctx context.Context, lookbackMinutes int) (*Result, error) {
	if lookbackMinutes <= 0 {
		lookbackMinutes = a.cfg.LookbackMinutes
	}

	key := fmt.Sprintf("load:%d", lookbackMinutes)
	if cached, ok := a.cache.Get(key); ok {
		return cached.(*Result), nil
	}

	result, err := a.queryPrimary(ctx, lookbackMinutes)
	if err != nil {
		log.Warn().Err(err).Msg("Primary query failed, switching to corpus fallback")
		result, err = a.loadFromCorpus(ctx)
		if err != nil {
			return nil, err
		}
	}

	a.cache.Put(key, result)
	return result, nil
}

// Corpus returns the full historical flat file, enriched, under the same TTL
// cache as Load.
func (a *Access) Corpus(ctx context.Context) ([]StationStatus, error) {
	if cached, ok := a.cache.Get("corpus"); ok {
		return cached.([]StationStatus), nil
	}

	rows, err := ReadCorpus(a.cfg.CorpusPath)
	if err != nil {
		return nil, err
	}
	enriched := Enrich(rows)

	a.cache.Put("corpus", enriched)
	return enriched, nil
}

// ClearCache drops all cached results so the next read hits the sources.
func (a *Access) ClearCache() {
	a.cache.Clear()
}

const recentSQL = `
    SELECT station_id, station_name, rack_tot_cnt::float8, parking_bike_tot_cnt::float8,
           slots_available::float8, lat::float8, lon::float8, ts_utc
    FROM bike_status
    WHERE ts_utc >= (now() AT TIME ZONE 'utc') - make_interval(mins => $1)
`

const peakHoursSQL = `
    SELECT hour_utc, availability_pct::float8, avg_slots_available::float8, avg_rack_capacity::float8
    FROM vw_station_peak_hours
    ORDER BY hour_utc
`

const relocationSQL = `SELECT * FROM vw_relocation_candidate`

// loadFromSQL opens a fresh connection, reads the recent window, and
// best-effort reads the two analytical views. A view failure degrades that
// view to empty; only the recent-window query can fail the whole call.
func (a *Access) loadFromSQL(ctx context.Context, lookbackMinutes int) (*Result, error) {
	conn, err := pgx.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	return a.assemble(ctx, conn, lookbackMinutes)
}

// assemble runs the window and view queries over an established connection.
func (a *Access) assemble(ctx context.Context, conn *pgx.Conn, lookbackMinutes int) (*Result, error) {
	recent, err := a.queryRecent(ctx, conn, lookbackMinutes)
	if err != nil {
		return nil, err
	}
	recent = Enrich(recent)

	peak, err := a.queryPeakHours(ctx, conn)
	if err != nil {
		log.Debug().Err(err).Msg("Peak-hours view unavailable")
		peak = []PeakHour{}
	}

	reloc, err := a.queryRelocation(ctx, conn)
	if err != nil {
		log.Debug().Err(err).Msg("Relocation view unavailable")
		reloc = []RelocationCandidate{}
	}

	return &Result{
		Recent:     recent,
		Latest:     LatestPerStation(recent),
		PeakHours:  peak,
		Relocation: reloc,
		Source:     SourceSQL,
	}, nil
}

func queryRecent(ctx context.Context, conn *pgx.Conn, lookbackMinutes int) ([]StationStatus, error) {
	rows, err := conn.Query(ctx, recentSQL, lookbackMinutes)
	if err != nil {
		return nil, fmt.Errorf("query recent window: %w", err)
	}
	defer rows.Close()

	out := make([]StationStatus, 0)
	for rows.Next() {
		var (
			row  StationStatus
			name *string
		)
		if err := rows.Scan(
			&row.StationID,
			&name,
			&row.RackCount,
			&row.ParkedCount,
			&row.SlotsAvailable,
			&row.Lat,
			&row.Lon,
			&row.TSUTC,
		); err != nil {
			return nil, err
		}
		if name != nil {
			row.StationName = *name
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func queryPeakHours(ctx context.Context, conn *pgx.Conn) ([]PeakHour, error) {
	rows, err := conn.Query(ctx, peakHoursSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PeakHour, 0)
	for rows.Next() {
		var ph PeakHour
		if err := rows.Scan(&ph.HourUTC, &ph.AvailabilityPct, &ph.AvgSlots, &ph.AvgRackCapacity); err != nil {
			return nil, err
		}
		ph.HourKST = (ph.HourUTC + 9) % 24
		out = append(out, ph)
	}
	return out, rows.Err()
}

// queryRelocation passes the view rows through untyped since the view's
// schema is owned by the database side.
func queryRelocation(ctx context.Context, conn *pgx.Conn) ([]RelocationCandidate, error) {
	rows, err := conn.Query(ctx, relocationSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]RelocationCandidate, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		candidate := make(RelocationCandidate, len(fields))
		for i, fd := range fields {
			candidate[string(fd.Name)] = values[i]
		}
		out = append(out, candidate)
	}
	return out, rows.Err()
}

// loadFromCorpus rebuilds the working set from the full flat file. The
// lookback window is ignored on purpose: a stale corpus filtered to the last
// hour would usually be empty, so the latest-per-station reduction runs over
// the whole history instead.
func (a *Access) loadFromCorpus(ctx context.Context) (*Result, error) {
	rows, err := a.Corpus(ctx)
	if err != nil {
		return nil, err
	}

	return &Result{
		Recent:     rows,
		Latest:     LatestPerStation(rows),
		PeakHours:  []PeakHour{},
		Relocation: []RelocationCandidate{},
		Source:     SourceCSVFallback,
	}, nil
}
