// Package repository implements raw-SQL data access over MySQL. Sentinel
// errors defined here let the service layer distinguish failure modes
// without inspecting driver error strings itself. Absent rows are reported
// as sql.ErrNoRows straight from the driver.
package repository

import (
	"errors"
	"strings"
)

// ErrDuplicateBooking is returned when an insert or update trips the
// unique (room_id, start_time, end_time, user_id) constraint. The service
// layer classifies it as a booking conflict: it is the storage-level
// backstop for exact-duplicate submissions that race past the
// in-transaction overlap check.
var ErrDuplicateBooking = errors.New("duplicate booking")

// ErrRoomNameExists is returned when creating or renaming a room would
// reuse the name of another non-deleted room.
var ErrRoomNameExists = errors.New("room name already exists")

// ErrEmailExists is returned when a user insert or update would reuse an
// existing email address.
var ErrEmailExists = errors.New("email already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error number 1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
