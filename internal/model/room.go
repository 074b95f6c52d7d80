package model

import "time"

// Room status values. Only RoomAvailable rooms accept new bookings; the
// other states are set by administrators through the room endpoints.
const (
	RoomAvailable    = "available"
	RoomOccupied     = "occupied"
	RoomMaintenance  = "maintenance"
	RoomOutOfService = "out-of-service"
)

// Room represents a bookable meeting room. Name is unique among
// non-deleted rooms and Capacity is bounded to 1..1000 at the handler.
// Rooms are soft deleted: IsDeleted retires the row while bookings
// referencing it remain intact for history.
type Room struct {
	ID          uint64     `json:"id"`                    // rooms.id
	Name        string     `json:"name"`                  // rooms.name
	Location    string     `json:"location"`              // rooms.location
	Capacity    uint32     `json:"capacity"`              // rooms.capacity
	Amenities   []string   `json:"amenities"`             // rooms.amenities (TEXT, comma separated)
	Status      string     `json:"status"`                // rooms.status
	Description *string    `json:"description,omitempty"` // rooms.description (nullable)
	IsDeleted   bool       `json:"-"`                     // rooms.is_deleted
	DeletedAt   *time.Time `json:"-"`                     // rooms.deleted_at (nullable)
	CreatedAt   time.Time  `json:"created_at"`            // rooms.created_at
	UpdatedAt   time.Time  `json:"updated_at"`            // rooms.updated_at
}

// Bookable reports whether the room's own administrative status allows new
// bookings. Conflict checks are a separate concern handled by the
// availability service.
func (r Room) Bookable() bool {
	return !r.IsDeleted && r.Status == RoomAvailable
}
