package data

import "time"

// Source labels where a read-side result came from.
type Source string

const (
	// SourceSQL means the primary relational query served the result.
	SourceSQL Source = "sql"
	// SourceCSVFallback means the primary failed and the flat-file corpus
	// served the result (degraded mode).
	SourceCSVFallback Source = "csv-fallback"
)

// StationStatus is one station's observed state at one instant. Numeric
// fields are pointers: nil means the source value was absent or unparseable,
// and derived ratios stay nil rather than turning into Inf or NaN.
type StationStatus struct {
	StationID   string `json:"station_id"`
	StationName string `json:"station_name"`

	RackCount      *float64 `json:"rack_tot_cnt,omitempty"`
	ParkedCount    *float64 `json:"bike_count,omitempty"`
	SlotsAvailable *float64 `json:"slots_available,omitempty"`
	Lat            *float64 `json:"lat,omitempty"`
	Lon            *float64 `json:"lon,omitempty"`

	TSUTC time.Time `json:"ts_utc"`

	// Derived on read, never persisted.
	AvailRatio *float64 `json:"avail_ratio,omitempty"`
	OccRatio   *float64 `json:"occ_ratio,omitempty"`
	TSKST      string   `json:"ts_kst,omitempty"`
}

// PeakHour is one row of the hourly-aggregate analytical view.
type PeakHour struct {
	HourUTC         int      `json:"hour_utc"`
	HourKST         int      `json:"hour_kst"`
	AvailabilityPct *float64 `json:"availability_pct,omitempty"`
	AvgSlots        *float64 `json:"avg_slots_available,omitempty"`
	AvgRackCapacity *float64 `json:"avg_rack_capacity,omitempty"`
}

// RelocationCandidate is one row of the relocation view, passed through as-is
// since its schema is owned by the database side.
type RelocationCandidate map[string]any

// Result is one refresh of the read-side working set.
type Result struct {
	// Recent holds every enriched row inside the lookback window (primary
	// path) or the whole corpus (fallback path).
	Recent []StationStatus
	// Latest is exactly one row per station, the most recent by timestamp.
	Latest []StationStatus
	// PeakHours and Relocation are best-effort view reads; empty when the
	// views are missing.
	PeakHours  []PeakHour
	Relocation []RelocationCandidate
	Source     Source
}
