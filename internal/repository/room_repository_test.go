package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/model"
)

func roomRow(id uint64, name, status string, deleted bool) *sqlmock.Rows {
	isDeleted := 0
	var deletedAt interface{}
	if deleted {
		isDeleted = 1
		deletedAt = at(8, 0)
	}
	return sqlmock.NewRows([]string{
		"id", "name", "location", "capacity", "amenities", "status",
		"description", "is_deleted", "deleted_at", "created_at", "updated_at",
	}).AddRow(id, name, "4F", 12, "tv,whiteboard", status, nil, isDeleted, deletedAt, at(7, 0), at(7, 0))
}

func TestRestoreRoom(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRoomRepo(db)

	mock.ExpectQuery(`FROM rooms WHERE id = \? AND is_deleted = 1`).
		WithArgs(uint64(3)).
		WillReturnRows(roomRow(3, "Boardroom", model.RoomAvailable, true))
	mock.ExpectQuery(`SELECT id FROM rooms WHERE name = \? AND is_deleted = 0`).
		WithArgs("Boardroom").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`UPDATE rooms SET is_deleted = 0, deleted_at = NULL WHERE id = \? AND is_deleted = 1`).
		WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM rooms WHERE id = \? AND is_deleted = 0`).
		WithArgs(uint64(3)).
		WillReturnRows(roomRow(3, "Boardroom", model.RoomAvailable, false))

	rm, err := repo.Restore(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), rm.ID)
	assert.False(t, rm.IsDeleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A live room may have claimed the deleted room's name; restoring must
// not produce two live rooms with the same name.
func TestRestoreRoomNameTaken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRoomRepo(db)

	mock.ExpectQuery(`FROM rooms WHERE id = \? AND is_deleted = 1`).
		WithArgs(uint64(3)).
		WillReturnRows(roomRow(3, "Boardroom", model.RoomAvailable, true))
	mock.ExpectQuery(`SELECT id FROM rooms WHERE name = \? AND is_deleted = 0`).
		WithArgs("Boardroom").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))

	_, err := repo.Restore(context.Background(), 3)
	require.ErrorIs(t, err, ErrRoomNameExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRestoreRoomMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRoomRepo(db)

	mock.ExpectQuery(`FROM rooms WHERE id = \? AND is_deleted = 1`).
		WithArgs(uint64(3)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Restore(context.Background(), 3)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusChangesOnlyStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRoomRepo(db)

	mock.ExpectExec(`UPDATE rooms SET status = \? WHERE id = \? AND is_deleted = 0`).
		WithArgs(model.RoomMaintenance, uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM rooms WHERE id = \? AND is_deleted = 0`).
		WithArgs(uint64(3)).
		WillReturnRows(roomRow(3, "Boardroom", model.RoomMaintenance, false))

	rm, err := repo.UpdateStatus(context.Background(), 3, model.RoomMaintenance)
	require.NoError(t, err)
	assert.Equal(t, model.RoomMaintenance, rm.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingRoom(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRoomRepo(db)

	mock.ExpectExec(`UPDATE rooms SET status = \? WHERE id = \? AND is_deleted = 0`).
		WithArgs(model.RoomMaintenance, uint64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM rooms WHERE id = \? AND is_deleted = 0`).
		WithArgs(uint64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), 99, model.RoomMaintenance)
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListDeletedRooms(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRoomRepo(db)

	rows := sqlmock.NewRows([]string{
		"id", "name", "location", "capacity", "amenities", "status",
		"description", "is_deleted", "deleted_at", "created_at", "updated_at",
	}).
		AddRow(5, "Annex", "2F", 6, "", model.RoomAvailable, nil, 1, at(9, 0), at(7, 0), at(7, 0)).
		AddRow(3, "Boardroom", "4F", 12, "tv", model.RoomAvailable, nil, 1, at(8, 0), at(7, 0), at(7, 0))

	mock.ExpectQuery(`FROM rooms WHERE is_deleted = 1 ORDER BY deleted_at DESC`).
		WillReturnRows(rows)

	rooms, err := repo.ListDeleted(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Annex", rooms[0].Name)
	assert.True(t, rooms[1].IsDeleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
