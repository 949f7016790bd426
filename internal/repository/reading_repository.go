package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/weatherwear/weatherwear/internal/model"
)

// ReadingFilter narrows a reading history query.  Nil bounds are open;
// both bounds are inclusive.  OrderBy accepts "value" or "timestamp";
// anything else keeps insertion order.
type ReadingFilter struct {
	Start   *time.Time
	End     *time.Time
	OrderBy string
}

// sensorTables maps each accepted sensor kind to its table.  Table names
// never come from request data.
var sensorTables = map[model.SensorKind]string{
	model.SensorTemperature: "temperature",
}

var readingOrder = map[string]string{
	"value":     " ORDER BY value, id",
	"timestamp": " ORDER BY timestamp, id",
}

// ReadingRepo stores time-series readings keyed by device MAC address.
type ReadingRepo struct{ DB *sql.DB }

func NewReadingRepo(db *sql.DB) *ReadingRepo { return &ReadingRepo{DB: db} }

// Insert stores one reading.  The MAC must belong to a registered device;
// otherwise the foreign key rejects the row and ErrUnknownDevice is returned.
func (r *ReadingRepo) Insert(ctx context.Context, kind model.SensorKind, rd model.Reading) (uint64, error) {
	table, ok := sensorTables[kind]
	if !ok {
		return 0, ErrUnknownSensor
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO "+table+" (mac_address, value, unit, timestamp) VALUES (?,?,?,?)",
		NormalizeMAC(rd.MACAddress), rd.Value, rd.Unit, rd.Timestamp)
	if err != nil {
		if mysqlErrNo(err) == mysqlNoReferencedRow {
			return 0, ErrUnknownDevice
		}
		return 0, fmt.Errorf("insert reading: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Query returns the readings of one device within the filter.
func (r *ReadingRepo) Query(ctx context.Context, kind model.SensorKind, mac string, f ReadingFilter) ([]model.Reading, error) {
	table, ok := sensorTables[kind]
	if !ok {
		return nil, ErrUnknownSensor
	}
	var q strings.Builder
	q.WriteString("SELECT id, mac_address, value, unit, timestamp FROM " + table + " WHERE mac_address = ?")
	args := []any{NormalizeMAC(mac)}
	if f.Start != nil {
		q.WriteString(" AND timestamp >= ?")
		args = append(args, *f.Start)
	}
	if f.End != nil {
		q.WriteString(" AND timestamp <= ?")
		args = append(args, *f.End)
	}
	if order, ok := readingOrder[f.OrderBy]; ok {
		q.WriteString(order)
	} else {
		q.WriteString(" ORDER BY id")
	}

	rows, err := r.DB.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()
	out := []model.Reading{}
	for rows.Next() {
		var rd model.Reading
		if err := rows.Scan(&rd.ID, &rd.MACAddress, &rd.Value, &rd.Unit, &rd.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}
