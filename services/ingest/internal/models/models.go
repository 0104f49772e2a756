package models

// StationRow is one station's status exactly as the Seoul bike API reports
// it. Numeric fields arrive as strings; they are kept verbatim here and only
// coerced on the read side.
type StationRow struct {
	StationID         string `json:"stationId"`
	StationName       string `json:"stationName"`
	RackTotCnt        string `json:"rackTotCnt"`
	ParkingBikeTotCnt string `json:"parkingBikeTotCnt"`
	Shared            string `json:"shared"`
	StationLatitude   string `json:"stationLatitude"`
	StationLongitude  string `json:"stationLongitude"`
}

// PageResponse models one page of the bikeList endpoint. The collection
// field is absent on empty pages, which is not an error.
type PageResponse struct {
	RentBikeStatus *RentBikeStatus `json:"rentBikeStatus"`
}

// RentBikeStatus is the named collection wrapper used by the upstream API.
type RentBikeStatus struct {
	ListTotalCount int          `json:"list_total_count,omitempty"`
	Row            []StationRow `json:"row"`
}

// SnapshotMeta describes one collected snapshot.
type SnapshotMeta struct {
	TimestampUTC string `json:"timestamp_utc"`
	TotalRows    int    `json:"total_rows"`
}

// SnapshotEnvelope is the durable form of one fetch cycle. The payload keeps
// the upstream collection name so stored snapshots and live API responses
// read the same way.
type SnapshotEnvelope struct {
	Meta           SnapshotMeta   `json:"meta"`
	RentBikeStatus RentBikeStatus `json:"rentBikeStatus"`
}
