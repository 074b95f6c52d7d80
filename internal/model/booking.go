package model

import "time"

// Booking status values. The stored column only ever holds StatusScheduled,
// StatusActive or StatusCancelled; whether a non-cancelled booking is
// currently "active" is derived at read time via EffectiveStatus so that the
// derivation has a single implementation instead of drifting per call site.
const (
	StatusScheduled = "scheduled"
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// PurposeMaxLen caps the free-text purpose field after trimming.
const PurposeMaxLen = 200

// Booking records a user's claim on a room for a half-open time interval
// [StartTime, EndTime). Status holds the stored state; read paths derive
// the live state through EffectiveStatus. Version increments on every
// mutation.
type Booking struct {
	ID        uint64    `json:"id"`         // bookings.id
	RoomID    uint64    `json:"room_id"`    // bookings.room_id
	UserID    uint64    `json:"user_id"`    // bookings.user_id
	StartTime time.Time `json:"start_time"` // bookings.start_time
	EndTime   time.Time `json:"end_time"`   // bookings.end_time
	Purpose   string    `json:"purpose"`    // bookings.purpose
	Status    string    `json:"status"`     // bookings.status
	Version   uint64    `json:"version"`    // bookings.version
	CreatedAt time.Time `json:"created_at"` // bookings.created_at
	UpdatedAt time.Time `json:"updated_at"` // bookings.updated_at
}

// Interval returns the booking's time range as a half-open interval.
func (b Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// EffectiveStatus derives the booking state at the given instant. A
// cancelled booking stays cancelled forever. Otherwise the booking is
// active while now lies inside its interval and scheduled while the
// interval is still in the future; a past booking keeps reporting its
// stored status and simply stops being relevant.
func (b Booking) EffectiveStatus(now time.Time) string {
	if b.Status == StatusCancelled {
		return StatusCancelled
	}
	if b.Interval().Contains(now) {
		return StatusActive
	}
	if b.StartTime.After(now) {
		return StatusScheduled
	}
	return b.Status
}

// InitialStatus computes the stored status for a booking inserted at now.
// Creation rejects past start times, so this is StatusScheduled in all but
// the edge case where now already falls inside the interval.
func InitialStatus(iv Interval, now time.Time) string {
	if iv.Contains(now) {
		return StatusActive
	}
	return StatusScheduled
}
