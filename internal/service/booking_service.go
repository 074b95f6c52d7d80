package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/model"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/repository"
)

// EventPublisher receives booking lifecycle events after a successful
// commit. Implementations must never fail the booking flow; errors are
// theirs to log and swallow.
type EventPublisher interface {
	BookingCreated(ctx context.Context, d repository.BookingDetail)
	BookingUpdated(ctx context.Context, d repository.BookingDetail)
	BookingCancelled(ctx context.Context, d repository.BookingDetail)
}

// BookingService is the only mutating entry point for bookings. Each
// mutation runs validate → conflict check → write inside one serializable
// transaction so that two overlapping requests can never both commit: the
// loser either sees the winner's row in the conflict query or trips the
// duplicate-slot constraint, and both outcomes surface as ConflictError.
type BookingService struct {
	db       *sql.DB
	bookings *repository.BookingRepo
	rooms    *repository.RoomRepo
	users    *repository.UserRepo
	events   EventPublisher

	// now is injectable for tests; defaults to time.Now in UTC.
	now func() time.Time
}

// NewBookingService constructs the booking engine. events may be nil when
// no broker is configured.
func NewBookingService(db *sql.DB, bookings *repository.BookingRepo, rooms *repository.RoomRepo, users *repository.UserRepo, events EventPublisher) *BookingService {
	if db == nil || bookings == nil || rooms == nil || users == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{
		db:       db,
		bookings: bookings,
		rooms:    rooms,
		users:    users,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// serializableTx opts every booking mutation into SERIALIZABLE isolation.
// Under InnoDB this turns the conflict query's index-range scan into a
// locking read with gap locks, so a second transaction inserting into the
// same room/time range blocks until the first commits and then observes
// its row.
var serializableTx = &sql.TxOptions{Isolation: sql.LevelSerializable}

// CreateBookingInput carries the fields of a create request. Times must be
// UTC instants parsed at the boundary.
type CreateBookingInput struct {
	RoomID  uint64
	UserID  uint64
	Start   time.Time
	End     time.Time
	Purpose string
}

// UpdateBookingInput is a partial patch; nil fields stay unchanged.
// Status may only be "cancelled" (same rules as Cancel) or "scheduled"
// (a no-op on a live booking).
type UpdateBookingInput struct {
	Start   *time.Time
	End     *time.Time
	Purpose *string
	Status  *string
}

func validatePurpose(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", &ValidationError{Field: "purpose", Reason: "cannot be empty"}
	}
	if len(p) > model.PurposeMaxLen {
		return "", &ValidationError{Field: "purpose", Reason: "cannot exceed 200 characters"}
	}
	return p, nil
}

func validateInterval(iv model.Interval, now time.Time) error {
	if !iv.Valid() {
		return &ValidationError{Field: "time", Reason: "start time must be before end time"}
	}
	if iv.Start.Before(now) {
		return &ValidationError{Field: "start_time", Reason: "cannot create booking for past time"}
	}
	return nil
}

// Create books a room for the requested interval. Exactly one of any set
// of concurrent overlapping attempts succeeds; the others receive a
// ConflictError naming the winning booking's owner and interval.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput) (*repository.BookingDetail, error) {
	now := s.now()
	purpose, err := validatePurpose(in.Purpose)
	if err != nil {
		return nil, err
	}
	iv := model.Interval{Start: in.Start.UTC(), End: in.End.UTC()}
	if err := validateInterval(iv, now); err != nil {
		return nil, err
	}

	// Confirm both entities exist and are not soft deleted before paying
	// for a transaction.
	room, err := s.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !room.Bookable() {
		return nil, &ValidationError{Field: "room_id", Reason: "room is not available for booking (status: " + room.Status + ")"}
	}
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, serializableTx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if c, err := s.bookings.FindConflictTx(ctx, tx, in.RoomID, iv, 0); err != nil {
		return nil, err
	} else if c != nil {
		return nil, &ConflictError{BookedBy: c.BookedBy, StartTime: c.StartTime, EndTime: c.EndTime}
	}

	b := model.Booking{
		RoomID:    in.RoomID,
		UserID:    in.UserID,
		StartTime: iv.Start,
		EndTime:   iv.End,
		Purpose:   purpose,
		Status:    model.InitialStatus(iv, now),
	}
	if err := s.bookings.CreateTx(ctx, tx, &b); err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) {
			// Exact-duplicate race caught by the storage constraint: a
			// conflict, not a generic failure. The duplicate necessarily
			// shares our interval and owner.
			return nil, &ConflictError{BookedBy: user.Name, StartTime: iv.Start, EndTime: iv.End}
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) || strings.Contains(err.Error(), "1062") {
			return nil, &ConflictError{BookedBy: user.Name, StartTime: iv.Start, EndTime: iv.End}
		}
		return nil, err
	}
	committed = true

	detail, err := s.bookings.GetDetail(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.BookingCreated(ctx, *detail)
	}
	return detail, nil
}

// Update modifies a booking's interval, purpose or status before it
// starts. Only the owner may update; a booking in progress or in the past
// is immutable except through its history.
func (s *BookingService) Update(ctx context.Context, bookingID, requesterID uint64, in UpdateBookingInput) (*repository.BookingDetail, error) {
	now := s.now()
	if in.Status != nil && *in.Status != model.StatusScheduled && *in.Status != model.StatusCancelled {
		return nil, &ValidationError{Field: "status", Reason: "must be 'scheduled' or 'cancelled'"}
	}

	tx, err := s.db.BeginTx(ctx, serializableTx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	current, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if current.UserID != requesterID {
		return nil, ErrForbidden
	}
	if current.Status == model.StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	// Immutability is judged against the stored interval, not the patch.
	if !now.Before(current.StartTime) {
		return nil, ErrAlreadyStarted
	}

	newIv := current.Interval()
	intervalChanged := false
	if in.Start != nil {
		newIv.Start = in.Start.UTC()
		intervalChanged = true
	}
	if in.End != nil {
		newIv.End = in.End.UTC()
		intervalChanged = true
	}
	if intervalChanged {
		if err := validateInterval(newIv, now); err != nil {
			return nil, err
		}
		if c, err := s.bookings.FindConflictTx(ctx, tx, current.RoomID, newIv, current.ID); err != nil {
			return nil, err
		} else if c != nil {
			return nil, &ConflictError{BookedBy: c.BookedBy, StartTime: c.StartTime, EndTime: c.EndTime}
		}
	}

	purpose := current.Purpose
	if in.Purpose != nil {
		if purpose, err = validatePurpose(*in.Purpose); err != nil {
			return nil, err
		}
	}

	status := current.Status
	if intervalChanged {
		status = model.InitialStatus(newIv, now)
	}
	cancelled := in.Status != nil && *in.Status == model.StatusCancelled
	if cancelled {
		status = model.StatusCancelled
	}

	if err := s.bookings.UpdateTx(ctx, tx, current.ID, newIv.Start, newIv.End, purpose, status); err != nil {
		if errors.Is(err, repository.ErrDuplicateBooking) {
			return nil, &ConflictError{BookedBy: "another booking", StartTime: newIv.Start, EndTime: newIv.End}
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	detail, err := s.bookings.GetDetail(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		if cancelled {
			s.events.BookingCancelled(ctx, *detail)
		} else {
			s.events.BookingUpdated(ctx, *detail)
		}
	}
	return detail, nil
}

// Cancel marks a booking cancelled before it starts. Cancellation is
// terminal: repeating it fails with ErrAlreadyCancelled rather than
// succeeding twice.
func (s *BookingService) Cancel(ctx context.Context, bookingID, requesterID uint64) (*repository.BookingDetail, error) {
	now := s.now()

	tx, err := s.db.BeginTx(ctx, serializableTx)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	current, err := s.bookings.GetForUpdateTx(ctx, tx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if current.UserID != requesterID {
		return nil, ErrForbidden
	}
	if current.Status == model.StatusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if !now.Before(current.StartTime) {
		return nil, ErrAlreadyStarted
	}

	if err := s.bookings.CancelTx(ctx, tx, current.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	detail, err := s.bookings.GetDetail(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.BookingCancelled(ctx, *detail)
	}
	return detail, nil
}

// Get returns a booking joined with its room and owner, with the status
// field rewritten to its read-time derivation.
func (s *BookingService) Get(ctx context.Context, bookingID uint64) (*repository.BookingDetail, error) {
	d, err := s.bookings.GetDetail(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	d.Status = d.EffectiveStatus(s.now())
	return d, nil
}

// List returns bookings matching the filter plus the total match count
// for pagination. Statuses in the result are derived at read time.
func (s *BookingService) List(ctx context.Context, f repository.BookingFilter, p repository.Page) ([]repository.BookingDetail, int, error) {
	now := s.now()
	total, err := s.bookings.Count(ctx, f, now)
	if err != nil {
		return nil, 0, err
	}
	items, err := s.bookings.List(ctx, f, p, now)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i].Status = items[i].EffectiveStatus(now)
	}
	return items, total, nil
}
