// Package repository defines the MySQL data access layer and the sentinel
// errors shared by all repositories.  Handlers use errors.Is against these
// values to pick a response status.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailExists is returned by UserRepo.Create for a duplicate email.
	ErrEmailExists = errors.New("email already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionInvalid is returned for unknown or expired session tokens.
	ErrSessionInvalid = errors.New("session invalid or expired")

	// ErrAlreadyAssigned is returned when a device is owned by another user.
	ErrAlreadyAssigned = errors.New("device already assigned")

	// ErrUnknownDevice is returned when a reading references a MAC address
	// that was never registered.
	ErrUnknownDevice = errors.New("unknown device")

	// ErrUnknownSensor is returned for sensor kinds without a backing table.
	ErrUnknownSensor = errors.New("unknown sensor type")
)

// MySQL server error numbers mapped to the sentinels above.
const (
	mysqlDuplicateEntry  = 1062
	mysqlNoReferencedRow = 1452
)

func mysqlErrNo(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}
