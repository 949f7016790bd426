package model

import "time"

// ReadingTimeLayout is the wire format of reading timestamps.
const ReadingTimeLayout = "2006-01-02 15:04:05"

// Reading is one sensor sample stored in a per-sensor table.
type Reading struct {
	ID         uint64    `json:"id"`
	MACAddress string    `json:"mac_address"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Timestamp  time.Time `json:"-"`
}

// ReadingView is the JSON shape of a reading.
type ReadingView struct {
	ID         uint64  `json:"id"`
	MACAddress string  `json:"mac_address"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Timestamp  string  `json:"timestamp"`
}

// View converts the reading to its wire representation.
func (r Reading) View() ReadingView {
	return ReadingView{
		ID:         r.ID,
		MACAddress: r.MACAddress,
		Value:      r.Value,
		Unit:       r.Unit,
		Timestamp:  r.Timestamp.Format(ReadingTimeLayout),
	}
}
