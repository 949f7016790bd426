package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/weatherwear/weatherwear/internal/model"
)

// DeviceRepo maps device MAC addresses to optional owners.
type DeviceRepo struct{ DB *sql.DB }

func NewDeviceRepo(db *sql.DB) *DeviceRepo { return &DeviceRepo{DB: db} }

const deviceColumns = "id, mac_address, name, user_id, created_at"

// NormalizeMAC trims and upper-cases a MAC address.
func NormalizeMAC(mac string) string {
	return strings.ToUpper(strings.TrimSpace(mac))
}

// Register inserts the device if its MAC is new.  For a known MAC the
// existing row is returned and created is false.
func (r *DeviceRepo) Register(ctx context.Context, mac string) (d model.Device, created bool, err error) {
	mac = NormalizeMAC(mac)
	if mac == "" {
		return model.Device{}, false, errors.New("mac address required")
	}
	_, err = r.DB.ExecContext(ctx, "INSERT INTO devices (mac_address) VALUES (?)", mac)
	switch {
	case err == nil:
		created = true
	case mysqlErrNo(err) == mysqlDuplicateEntry:
		created = false
	default:
		return model.Device{}, false, fmt.Errorf("insert device: %w", err)
	}
	d, err = r.GetByMAC(ctx, mac)
	return d, created, err
}

// GetByMAC fetches one device by MAC address.
func (r *DeviceRepo) GetByMAC(ctx context.Context, mac string) (model.Device, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE mac_address=? LIMIT 1", NormalizeMAC(mac))
	return scanDevice(row)
}

// ListUnowned returns devices no user has claimed yet.
func (r *DeviceRepo) ListUnowned(ctx context.Context) ([]model.Device, error) {
	return r.list(ctx, "SELECT "+deviceColumns+" FROM devices WHERE user_id IS NULL ORDER BY id")
}

// ListByUser returns the devices owned by userID, or ErrNotFound when the
// user owns none.
func (r *DeviceRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Device, error) {
	out, err := r.list(ctx, "SELECT "+deviceColumns+" FROM devices WHERE user_id=? ORDER BY id", userID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Assign sets the owner of an unowned device.  A device owned by a
// different user yields ErrAlreadyAssigned; assigning to the current owner
// again succeeds without a write.
func (r *DeviceRepo) Assign(ctx context.Context, userID, deviceID uint64) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		var owner sql.NullInt64
		err := tx.QueryRowContext(ctx,
			"SELECT user_id FROM devices WHERE id=? FOR UPDATE", deviceID).Scan(&owner)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock device: %w", err)
		}
		if owner.Valid {
			if uint64(owner.Int64) == userID {
				return nil
			}
			return ErrAlreadyAssigned
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE devices SET user_id=? WHERE id=?", userID, deviceID); err != nil {
			if mysqlErrNo(err) == mysqlNoReferencedRow {
				return ErrNotFound
			}
			return fmt.Errorf("assign device: %w", err)
		}
		return nil
	})
}

func (r *DeviceRepo) list(ctx context.Context, query string, args ...any) ([]model.Device, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()
	out := []model.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (model.Device, error) {
	var (
		d     model.Device
		name  sql.NullString
		owner sql.NullInt64
	)
	err := s.Scan(&d.ID, &d.MACAddress, &name, &owner, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Device{}, ErrNotFound
	}
	if err != nil {
		return model.Device{}, fmt.Errorf("scan device: %w", err)
	}
	if name.Valid {
		d.Name = &name.String
	}
	if owner.Valid {
		uid := uint64(owner.Int64)
		d.UserID = &uid
	}
	return d, nil
}
