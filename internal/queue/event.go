// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into notifications.
package queue

// Event type values carried in BookingEvent.Event.
const (
	EventBookingCreated   = "booking.created"
	EventBookingUpdated   = "booking.updated"
	EventBookingCancelled = "booking.cancelled"
)

// bookingQueueName is the durable queue all booking events flow through.
const bookingQueueName = "booking.events"

// BookingEvent is published whenever a booking is created, updated or
// cancelled. It contains enough information for downstream consumers to
// notify the owner or feed analytics without querying the primary
// database. Timestamps are RFC3339 in UTC.
type BookingEvent struct {
	Event        string `json:"event"`
	BookingID    uint64 `json:"booking_id"`
	RoomID       uint64 `json:"room_id"`
	RoomName     string `json:"room_name"`
	RoomLocation string `json:"room_location"`
	UserID       uint64 `json:"user_id"`
	UserName     string `json:"user_name"`
	UserEmail    string `json:"user_email"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Purpose      string `json:"purpose"`
	Status       string `json:"status"`
	OccurredAt   string `json:"occurred_at"`
}
