package repository

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
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 2, h, m, 0, 0, time.UTC)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestFindConflictFree(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectQuery(`SELECT id, user_id, start_time, end_time FROM bookings WHERE room_id`).
		WithArgs(uint64(3), at(11, 0), at(10, 0)).
		WillReturnError(sql.ErrNoRows)

	c, err := repo.FindConflict(context.Background(), 3, model.Interval{Start: at(10, 0), End: at(11, 0)}, 0)
	require.NoError(t, err)
	assert.Nil(t, c, "a free slot yields no conflict and no error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindConflictFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectQuery(`SELECT id, user_id, start_time, end_time FROM bookings WHERE room_id`).
		WithArgs(uint64(3), at(11, 0), at(10, 0)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "start_time", "end_time"}).
			AddRow(42, 7, at(10, 30), at(11, 30)))
	mock.ExpectQuery(`SELECT name FROM users WHERE id`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Priya Nair"))

	c, err := repo.FindConflict(context.Background(), 3, model.Interval{Start: at(10, 0), End: at(11, 0)}, 0)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, uint64(42), c.BookingID)
	assert.Equal(t, "Priya Nair", c.BookedBy)
	assert.Equal(t, at(10, 30), c.StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindConflictTxLocksRow(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM bookings WHERE room_id = .+ LIMIT 1 FOR UPDATE`).
		WithArgs(uint64(3), at(11, 0), at(10, 0), uint64(9)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	c, err := repo.FindConflictTx(context.Background(), tx, 3, model.Interval{Start: at(10, 0), End: at(11, 0)}, 9)
	require.NoError(t, err)
	assert.Nil(t, c)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTxDuplicateKey(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	b := model.Booking{RoomID: 3, UserID: 7, StartTime: at(10, 0), EndTime: at(11, 0), Purpose: "standup", Status: model.StatusScheduled}
	err = repo.CreateTx(context.Background(), tx, &b)
	assert.ErrorIs(t, err, ErrDuplicateBooking)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildFilter(t *testing.T) {
	now := at(12, 0)

	t.Run("empty", func(t *testing.T) {
		where, args := buildFilter(BookingFilter{}, now)
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("room and user", func(t *testing.T) {
		where, args := buildFilter(BookingFilter{RoomID: 3, UserID: 7}, now)
		assert.Equal(t, " WHERE b.room_id = ? AND b.user_id = ?", where)
		assert.Equal(t, []interface{}{uint64(3), uint64(7)}, args)
	})

	t.Run("active mirrors EffectiveStatus", func(t *testing.T) {
		where, args := buildFilter(BookingFilter{Status: model.StatusActive}, now)
		assert.Contains(t, where, "b.status <> 'cancelled' AND b.start_time <= ? AND b.end_time > ?")
		assert.Equal(t, []interface{}{now, now}, args)
	})

	t.Run("scheduled", func(t *testing.T) {
		where, args := buildFilter(BookingFilter{Status: model.StatusScheduled}, now)
		assert.Contains(t, where, "b.status <> 'cancelled' AND b.start_time > ?")
		assert.Equal(t, []interface{}{now}, args)
	})

	t.Run("cancelled", func(t *testing.T) {
		where, args := buildFilter(BookingFilter{Status: model.StatusCancelled}, now)
		assert.Contains(t, where, "b.status = 'cancelled'")
		assert.Empty(t, args)
	})

	t.Run("date uses day bounds with the overlap predicate", func(t *testing.T) {
		day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
		where, args := buildFilter(BookingFilter{Date: &day}, now)
		assert.Contains(t, where, "b.start_time < ? AND b.end_time > ?")
		assert.Equal(t, []interface{}{day.Add(24 * time.Hour), day}, args)
	})
}

func TestListSortWhitelist(t *testing.T) {
	db, mock := newMock(t)
	repo := NewBookingRepo(db)

	// An unknown sort field must fall back to start_time, never reach the
	// query text.
	mock.ExpectQuery(`ORDER BY b.start_time ASC LIMIT \? OFFSET \?`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "room_id", "user_id", "start_time", "end_time", "purpose", "status",
			"version", "created_at", "updated_at",
			"name", "location", "capacity", "name", "email", "designation",
		}))

	_, err := repo.List(context.Background(), BookingFilter{},
		Page{Limit: 10, SortField: "purpose; DROP TABLE bookings"}, at(12, 0))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
