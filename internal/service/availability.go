package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/model"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/repository"
)

// AvailabilityService answers "is room R free for interval I" and "what is
// room R's schedule". It is the single place that derives a room's dynamic
// status, so listings and booking creation cannot drift apart in how
// "currently booked" is computed.
type AvailabilityService struct {
	bookings *repository.BookingRepo
	rooms    *repository.RoomRepo
	now      func() time.Time
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(bookings *repository.BookingRepo, rooms *repository.RoomRepo) *AvailabilityService {
	if bookings == nil || rooms == nil {
		panic("nil dependency passed to NewAvailabilityService")
	}
	return &AvailabilityService{
		bookings: bookings,
		rooms:    rooms,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// RoomAvailability decorates a room with its availability derived at
// request time.
type RoomAvailability struct {
	model.Room
	IsCurrentlyAvailable bool   `json:"isCurrentlyAvailable"`
	DynamicStatus        string `json:"dynamicStatus"`
}

// IsAvailable reports whether the room accepts a booking for iv: the
// room's own status must allow booking and no non-cancelled booking may
// overlap the interval. This is an advisory read; the authoritative check
// re-runs inside the create/update transaction.
func (s *AvailabilityService) IsAvailable(ctx context.Context, roomID uint64, iv model.Interval) (bool, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrRoomNotFound
		}
		return false, err
	}
	if !room.Bookable() {
		return false, nil
	}
	c, err := s.bookings.FindConflict(ctx, roomID, iv, 0)
	if err != nil {
		return false, err
	}
	return c == nil, nil
}

// Schedule returns the room's non-cancelled bookings intersecting
// [from, to), ordered by start time ascending, with read-time statuses.
func (s *AvailabilityService) Schedule(ctx context.Context, roomID uint64, from, to time.Time) ([]repository.BookingDetail, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	items, err := s.bookings.ListRange(ctx, roomID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range items {
		items[i].Status = items[i].EffectiveStatus(now)
	}
	return items, nil
}

// DecorateRooms annotates rooms with whether each one is booked right now.
// A room occupied by a current booking reports dynamicStatus "occupied"
// regardless of its stored administrative status.
func (s *AvailabilityService) DecorateRooms(ctx context.Context, rooms []model.Room) ([]RoomAvailability, error) {
	now := s.now()
	// A zero-length instant probe: [now, now+1ns) contains exactly now.
	probe := model.Interval{Start: now, End: now.Add(time.Nanosecond)}
	out := make([]RoomAvailability, 0, len(rooms))
	for _, rm := range rooms {
		c, err := s.bookings.FindConflict(ctx, rm.ID, probe, 0)
		if err != nil {
			return nil, err
		}
		booked := c != nil
		dyn := rm.Status
		if booked {
			dyn = model.RoomOccupied
		}
		out = append(out, RoomAvailability{
			Room:                 rm,
			IsCurrentlyAvailable: !booked && rm.Status == model.RoomAvailable,
			DynamicStatus:        dyn,
		})
	}
	return out, nil
}

// AvailableRooms returns the rooms free for the whole of iv, for the
// availability lookup endpoint. The interval is validated the same way as
// a booking request.
func (s *AvailabilityService) AvailableRooms(ctx context.Context, iv model.Interval) ([]model.Room, error) {
	now := s.now()
	if err := validateInterval(model.Interval{Start: iv.Start.UTC(), End: iv.End.UTC()}, now); err != nil {
		return nil, err
	}
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, err
	}
	free := make([]model.Room, 0, len(rooms))
	for _, rm := range rooms {
		if !rm.Bookable() {
			continue
		}
		c, err := s.bookings.FindConflict(ctx, rm.ID, iv, 0)
		if err != nil {
			return nil, err
		}
		if c == nil {
			free = append(free, rm)
		}
	}
	return free, nil
}
