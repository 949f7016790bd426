package model

import "time"

// Device is a temperature sensor identified by its hardware MAC address.
// UserID is nil until the device is claimed by a user.
type Device struct {
	ID         uint64    `json:"device_id"`
	MACAddress string    `json:"mac_address"`
	Name       *string   `json:"name"`
	UserID     *uint64   `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Owned reports whether the device has been assigned to a user.
func (d Device) Owned() bool { return d.UserID != nil }
