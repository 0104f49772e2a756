package data

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/gocarina/gocsv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// corpusRow mirrors the flat-file schema. Everything is a string on disk;
// coercion happens when turning a row into a StationStatus.
type corpusRow struct {
	StationID      string `csv:"station_id"`
	StationName    string `csv:"station_name"`
	RackTotCnt     string `csv:"rack_tot_cnt"`
	ParkingBikeTot string `csv:"parking_bike_tot_cnt"`
	BikesAvailable string `csv:"bikes_available"`
	SlotsAvailable string `csv:"slots_available"`
	Lat            string `csv:"lat"`
	Lon            string `csv:"lon"`
	TSUTC          string `csv:"ts_utc"`
}

// ReadCorpus loads the full historical flat file. The file is UTF-8 with a
// BOM signature; a file without the BOM also parses.
func ReadCorpus(path string) ([]StationStatus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	var fileRows []corpusRow
	if err := gocsv.UnmarshalBytes(raw, &fileRows); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	rows := make([]StationStatus, 0, len(fileRows))
	for _, fr := range fileRows {
		rows = append(rows, fr.toStatus())
	}
	return rows, nil
}

// toStatus coerces one file row. The parked count is unified here: the
// original-schema column wins, the renamed variant is the fallback.
func (fr corpusRow) toStatus() StationStatus {
	row := StationStatus{
		StationID:      fr.StationID,
		StationName:    fr.StationName,
		RackCount:      ParseFloat(fr.RackTotCnt),
		SlotsAvailable: ParseFloat(fr.SlotsAvailable),
		Lat:            ParseFloat(fr.Lat),
		Lon:            ParseFloat(fr.Lon),
	}

	row.ParkedCount = ParseFloat(fr.ParkingBikeTot)
	if row.ParkedCount == nil {
		row.ParkedCount = ParseFloat(fr.BikesAvailable)
	}

	if ts, err := time.Parse(time.RFC3339, fr.TSUTC); err == nil {
		row.TSUTC = ts.UTC()
	} else if ts, err := time.Parse("2006-01-02 15:04:05", fr.TSUTC); err == nil {
		row.TSUTC = ts.UTC()
	}

	return row
}
