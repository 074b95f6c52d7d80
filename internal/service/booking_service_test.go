package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/model"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/repository"
)

// recordingPublisher counts lifecycle events instead of talking to a broker.
type recordingPublisher struct {
	created, updated, cancelled int
}

func (p *recordingPublisher) BookingCreated(context.Context, repository.BookingDetail)   { p.created++ }
func (p *recordingPublisher) BookingUpdated(context.Context, repository.BookingDetail)   { p.updated++ }
func (p *recordingPublisher) BookingCancelled(context.Context, repository.BookingDetail) { p.cancelled++ }

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

func newService(t *testing.T) (*BookingService, sqlmock.Sqlmock, *recordingPublisher) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events := &recordingPublisher{}
	svc := NewBookingService(db,
		repository.NewBookingRepo(db),
		repository.NewRoomRepo(db),
		repository.NewUserRepo(db),
		events)
	svc.now = func() time.Time { return testNow }
	return svc, mock, events
}

func roomRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "location", "capacity", "amenities", "status",
		"description", "is_deleted", "deleted_at", "created_at", "updated_at",
	}).AddRow(3, "Boardroom", "4F", 12, "projector,whiteboard", model.RoomAvailable,
		nil, false, nil, testNow, testNow)
}

func roomRowsWithStatus(status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "location", "capacity", "amenities", "status",
		"description", "is_deleted", "deleted_at", "created_at", "updated_at",
	}).AddRow(3, "Boardroom", "4F", 12, "", status, nil, false, nil, testNow, testNow)
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "designation",
		"is_deleted", "deleted_at", "created_at", "updated_at",
	}).AddRow(7, "Priya Nair", "priya@neatmeet.io", "x", model.RoleEmployee, "Engineer",
		false, nil, testNow, testNow)
}

func bookingRow(id uint64, start, end time.Time, status string, owner uint64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "room_id", "user_id", "start_time", "end_time", "purpose", "status",
		"version", "created_at", "updated_at",
	}).AddRow(id, 3, owner, start, end, "standup", status, 0, testNow, testNow)
}

func detailRow(id uint64, start, end time.Time, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "room_id", "user_id", "start_time", "end_time", "purpose", "status",
		"version", "created_at", "updated_at",
		"name", "location", "capacity", "name", "email", "designation",
	}).AddRow(id, 3, 7, start, end, "standup", status, 0, testNow, testNow,
		"Boardroom", "4F", 12, "Priya Nair", "priya@neatmeet.io", "Engineer")
}

func validCreate() CreateBookingInput {
	return CreateBookingInput{RoomID: 3, UserID: 7, Start: at(10, 0), End: at(11, 0), Purpose: "standup"}
}

func TestCreateSuccess(t *testing.T) {
	svc, mock, events := newService(t)

	mock.ExpectQuery(`FROM rooms WHERE id = \? AND is_deleted = 0`).WillReturnRows(roomRows())
	mock.ExpectQuery(`FROM users WHERE id = \? AND is_deleted = 0`).WillReturnRows(userRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE room_id = .+ FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO bookings`).WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(`FROM bookings WHERE id = \?`).
		WillReturnRows(bookingRow(42, at(10, 0), at(11, 0), model.StatusScheduled, 7))
	mock.ExpectCommit()
	mock.ExpectQuery(`JOIN rooms r ON`).
		WillReturnRows(detailRow(42, at(10, 0), at(11, 0), model.StatusScheduled))

	d, err := svc.Create(context.Background(), validCreate())
	require.NoError(t, err)
	assert.Equal(t, uint64(42), d.ID)
	assert.Equal(t, "Boardroom", d.RoomName)
	assert.Equal(t, 1, events.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateConflict(t *testing.T) {
	svc, mock, events := newService(t)

	mock.ExpectQuery(`FROM rooms WHERE id`).WillReturnRows(roomRows())
	mock.ExpectQuery(`FROM users WHERE id = \? AND is_deleted = 0`).WillReturnRows(userRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE room_id = .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "start_time", "end_time"}).
			AddRow(17, 8, at(10, 30), at(11, 30)))
	mock.ExpectQuery(`SELECT name FROM users WHERE id`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Arjun Shah"))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), validCreate())
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Arjun Shah", ce.BookedBy)
	assert.Equal(t, at(10, 30), ce.StartTime)
	assert.Contains(t, ce.Error(), "already booked")
	assert.Zero(t, events.created, "no event on a failed booking")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateSlotRace(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectQuery(`FROM rooms WHERE id`).WillReturnRows(roomRows())
	mock.ExpectQuery(`FROM users WHERE id = \? AND is_deleted = 0`).WillReturnRows(userRows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE room_id = .+ FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	mock.ExpectRollback()

	// The storage constraint is the backstop: a race that slips past the
	// conflict query still surfaces as Conflict, not a 500.
	_, err := svc.Create(context.Background(), validCreate())
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Priya Nair", ce.BookedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateValidation(t *testing.T) {
	svc, mock, _ := newService(t)

	cases := []struct {
		name   string
		mutate func(*CreateBookingInput)
		field  string
	}{
		{"empty purpose", func(in *CreateBookingInput) { in.Purpose = "   " }, "purpose"},
		{"end before start", func(in *CreateBookingInput) { in.Start, in.End = in.End, in.Start }, "time"},
		{"zero length", func(in *CreateBookingInput) { in.End = in.Start }, "time"},
		{"past start", func(in *CreateBookingInput) { in.Start, in.End = at(7, 0), at(8, 0) }, "start_time"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validCreate()
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
	// Validation failures never touch the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoomUnavailable(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectQuery(`FROM rooms WHERE id`).WillReturnRows(roomRowsWithStatus(model.RoomMaintenance))

	_, err := svc.Create(context.Background(), validCreate())
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "room_id", ve.Field)
	assert.Contains(t, ve.Error(), "maintenance")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoomMissing(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectQuery(`FROM rooms WHERE id`).WillReturnError(sql.ErrNoRows)

	_, err := svc.Create(context.Background(), validCreate())
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelSuccess(t *testing.T) {
	svc, mock, events := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id = \? FOR UPDATE`).
		WillReturnRows(bookingRow(42, at(10, 0), at(11, 0), model.StatusScheduled, 7))
	mock.ExpectExec(`UPDATE bookings SET status = 'cancelled'`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`JOIN rooms r ON`).
		WillReturnRows(detailRow(42, at(10, 0), at(11, 0), model.StatusCancelled))

	d, err := svc.Cancel(context.Background(), 42, 7)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, d.Status)
	assert.Equal(t, 1, events.cancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelNotOwner(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id = \? FOR UPDATE`).
		WillReturnRows(bookingRow(42, at(10, 0), at(11, 0), model.StatusScheduled, 8))
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAlreadyCancelled(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id = \? FOR UPDATE`).
		WillReturnRows(bookingRow(42, at(10, 0), at(11, 0), model.StatusCancelled, 7))
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAfterStart(t *testing.T) {
	svc, mock, _ := newService(t)

	// Booking started at 08:30; fixed clock reads 09:00.
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id = \? FOR UPDATE`).
		WillReturnRows(bookingRow(42, at(8, 30), at(9, 30), model.StatusScheduled, 7))
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelMissing(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id = \? FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Cancel(context.Background(), 42, 7)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReschedule(t *testing.T) {
	svc, mock, events := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id = \? FOR UPDATE`).
		WillReturnRows(bookingRow(42, at(10, 0), at(11, 0), model.StatusScheduled, 7))
	// Re-check excludes the booking itself so it cannot conflict with its
	// own old interval.
	mock.ExpectQuery(`AND id <> \? LIMIT 1 FOR UPDATE`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`UPDATE bookings`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`JOIN rooms r ON`).
		WillReturnRows(detailRow(42, at(14, 0), at(15, 0), model.StatusScheduled))

	start, end := at(14, 0), at(15, 0)
	d, err := svc.Update(context.Background(), 42, 7, UpdateBookingInput{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, at(14, 0), d.StartTime)
	assert.Equal(t, 1, events.updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRescheduleConflict(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id = \? FOR UPDATE`).
		WillReturnRows(bookingRow(42, at(10, 0), at(11, 0), model.StatusScheduled, 7))
	mock.ExpectQuery(`AND id <> \? LIMIT 1 FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "start_time", "end_time"}).
			AddRow(51, 8, at(14, 0), at(16, 0)))
	mock.ExpectQuery(`SELECT name FROM users WHERE id`).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Arjun Shah"))
	mock.ExpectRollback()

	start, end := at(14, 0), at(15, 0)
	_, err := svc.Update(context.Background(), 42, 7, UpdateBookingInput{Start: &start, End: &end})
	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Arjun Shah", ce.BookedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAfterStart(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id = \? FOR UPDATE`).
		WillReturnRows(bookingRow(42, at(8, 0), at(9, 30), model.StatusScheduled, 7))
	mock.ExpectRollback()

	p := "moved standup"
	_, err := svc.Update(context.Background(), 42, 7, UpdateBookingInput{Purpose: &p})
	assert.ErrorIs(t, err, ErrAlreadyStarted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBadStatus(t *testing.T) {
	svc, mock, _ := newService(t)

	s := "active"
	_, err := svc.Update(context.Background(), 42, 7, UpdateBookingInput{Status: &s})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "status", ve.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCancelViaStatus(t *testing.T) {
	svc, mock, events := newService(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE id = \? FOR UPDATE`).
		WillReturnRows(bookingRow(42, at(10, 0), at(11, 0), model.StatusScheduled, 7))
	mock.ExpectExec(`UPDATE bookings`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`JOIN rooms r ON`).
		WillReturnRows(detailRow(42, at(10, 0), at(11, 0), model.StatusCancelled))

	s := model.StatusCancelled
	_, err := svc.Update(context.Background(), 42, 7, UpdateBookingInput{Status: &s})
	require.NoError(t, err)
	assert.Equal(t, 1, events.cancelled, "cancel via patch emits the cancelled event")
	assert.Zero(t, events.updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetDerivesStatus(t *testing.T) {
	svc, mock, _ := newService(t)

	// Stored as scheduled, but the fixed clock (09:00) sits inside the
	// interval, so the read reports active.
	mock.ExpectQuery(`JOIN rooms r ON`).
		WillReturnRows(detailRow(42, at(8, 30), at(9, 30), model.StatusScheduled))

	d, err := svc.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, d.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDerivesStatuses(t *testing.T) {
	svc, mock, _ := newService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	rows := detailRow(1, at(8, 30), at(9, 30), model.StatusScheduled).
		AddRow(2, 3, 7, at(14, 0), at(15, 0), "standup", model.StatusScheduled, 0, testNow, testNow,
			"Boardroom", "4F", 12, "Priya Nair", "priya@neatmeet.io", "Engineer")
	mock.ExpectQuery(`JOIN rooms r ON`).WillReturnRows(rows)

	items, total, err := svc.List(context.Background(), repository.BookingFilter{}, repository.Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, model.StatusActive, items[0].Status)
	assert.Equal(t, model.StatusScheduled, items[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
