// Package queue defines message payloads exchanged over the message broker.
package queue

// ReadingsQueueName is the durable queue receiving ReadingRecordedEvent.
const ReadingsQueueName = "reading.recorded"

// ReadingRecordedEvent is published after a sensor reading is stored.  It
// carries enough data for consumers to log or alert without querying the
// primary database.
type ReadingRecordedEvent struct {
	ReadingID  uint64  `json:"reading_id"`
	Sensor     string  `json:"sensor"`
	MACAddress string  `json:"mac_address"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Timestamp  string  `json:"timestamp"`
	RecordedAt string  `json:"recorded_at"`
}
