package data

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

var kst = mustLoadKST()

func mustLoadKST() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		panic(err)
	}
	return loc
}

// ParseFloat coerces a raw field to a number. Empty or unparseable input
// yields nil, the missing marker, never an error.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Enrich recomputes every derived field from the raw ones: slots fallback,
// availability and occupancy ratios, and the KST display string. It is a
// pure function of the raw fields, so applying it twice equals applying it
// once.
func Enrich(rows []StationStatus) []StationStatus {
	out := make([]StationStatus, len(rows))
	for i, row := range rows {
		out[i] = enrichRow(row)
	}
	return out
}

func enrichRow(row StationStatus) StationStatus {
	capacity := row.RackCount

	slots := row.SlotsAvailable
	if slots == nil && capacity != nil && row.ParkedCount != nil {
		v := *capacity - *row.ParkedCount
		slots = &v
	}
	row.SlotsAvailable = slots

	row.AvailRatio = ratio(slots, capacity)
	row.OccRatio = ratio(row.ParkedCount, capacity)

	if !row.TSUTC.IsZero() {
		row.TSKST = row.TSUTC.In(kst).Format("2006-01-02 15:04:05")
	} else {
		row.TSKST = ""
	}

	return row
}

// ratio divides num by capacity, treating a missing or zero capacity as missing.
func ratio(num, capacity *float64) *float64 {
	if num == nil || capacity == nil || *capacity == 0 {
		return nil
	}
	v := *num / *capacity
	return &v
}

// LatestPerStation reduces rows to exactly one per station identifier, the
// most recent by observation timestamp. The sort is stable, so rows sharing
// a timestamp keep their original ingestion order and the earliest-positioned
// one wins the tie.
func LatestPerStation(rows []StationStatus) []StationStatus {
	sorted := make([]StationStatus, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TSUTC.After(sorted[j].TSUTC)
	})

	seen := make(map[string]bool, len(sorted))
	latest := make([]StationStatus, 0, len(sorted))
	for _, row := range sorted {
		if seen[row.StationID] {
			continue
		}
		seen[row.StationID] = true
		latest = append(latest, row)
	}
	return latest
}
