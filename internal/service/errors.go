// Package service implements the booking engine: the transaction
// coordinator that makes conflict detection and the subsequent write one
// atomic unit, the lifecycle rules for updates and cancellation, and the
// availability resolver. Handlers translate the typed errors defined here
// into HTTP responses; nothing in this package knows about HTTP.
package service

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors classified by handlers via errors.Is.
var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrRoomNotFound    = errors.New("room not found or does not exist")
	ErrUserNotFound    = errors.New("user not found or does not exist")

	// ErrForbidden means the requester is not the booking's owner.
	ErrForbidden = errors.New("you can only modify your own bookings")

	// Illegal lifecycle transitions. Cancelling twice is an explicit
	// failure, not an idempotent success; a booking that has started is
	// immutable.
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrAlreadyStarted   = errors.New("booking has already started or is in progress")
)

// ValidationError reports malformed or out-of-range input. It is detected
// before any transaction is opened.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError reports an overlapping booking on the same room. It always
// carries the colliding owner and interval so callers can present an
// actionable message. Retrying with the same input will fail again, so
// callers must not retry automatically.
type ConflictError struct {
	BookedBy  string
	StartTime time.Time
	EndTime   time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room is already booked from %s to %s by %s; please choose a different time slot",
		e.StartTime.UTC().Format(time.RFC3339), e.EndTime.UTC().Format(time.RFC3339), e.BookedBy)
}
