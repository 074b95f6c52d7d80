package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/model"
)

// RoomRepo provides CRUD operations for rooms. Deletion is a soft delete:
// the row keeps its bookings and is excluded from lookups by is_deleted.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo returns a RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, name, location, capacity, amenities, status, description, is_deleted, deleted_at, created_at, updated_at`

func scanRoom(row interface{ Scan(...interface{}) error }) (model.Room, error) {
	var (
		rm        model.Room
		amenities sql.NullString
		desc      sql.NullString
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&rm.ID, &rm.Name, &rm.Location, &rm.Capacity, &amenities, &rm.Status,
		&desc, &rm.IsDeleted, &deletedAt, &rm.CreatedAt, &rm.UpdatedAt,
	)
	if err != nil {
		return rm, err
	}
	rm.Amenities = splitAmenities(amenities.String)
	if desc.Valid {
		d := desc.String
		rm.Description = &d
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		rm.DeletedAt = &t
	}
	return rm, nil
}

// Amenities are stored as a single comma-separated TEXT column; the list
// is only ever displayed, never queried by element.
func joinAmenities(a []string) string {
	trimmed := make([]string, 0, len(a))
	for _, s := range a {
		if s = strings.TrimSpace(s); s != "" {
			trimmed = append(trimmed, s)
		}
	}
	return strings.Join(trimmed, ",")
}

func splitAmenities(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Create inserts a room and returns it with generated fields populated.
// Returns ErrRoomNameExists when another non-deleted room has the name.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	taken, err := r.nameTaken(ctx, rm.Name, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrRoomNameExists
	}
	const q = `INSERT INTO rooms (name, location, capacity, amenities, status, description) VALUES (?, ?, ?, ?, ?, ?)`
	var desc interface{}
	if rm.Description != nil {
		desc = *rm.Description
	}
	res, err := r.db.ExecContext(ctx, q, rm.Name, rm.Location, rm.Capacity, joinAmenities(rm.Amenities), rm.Status, desc)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if err != nil {
		return err
	}
	*rm = got
	return nil
}

// GetByID returns a non-deleted room. Returns sql.ErrNoRows when the room
// is absent or soft deleted.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (model.Room, error) {
	return scanRoom(r.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ? AND is_deleted = 0`, id))
}

// List returns all non-deleted rooms ordered by name.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE is_deleted = 0 ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rooms := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Update rewrites a room's mutable fields. Renames are checked against
// other live rooms first; ErrRoomNameExists on collision.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	taken, err := r.nameTaken(ctx, rm.Name, rm.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrRoomNameExists
	}
	const q = `UPDATE rooms SET name = ?, location = ?, capacity = ?, amenities = ?, status = ?, description = ?
	           WHERE id = ? AND is_deleted = 0`
	var desc interface{}
	if rm.Description != nil {
		desc = *rm.Description
	}
	res, err := r.db.ExecContext(ctx, q, rm.Name, rm.Location, rm.Capacity, joinAmenities(rm.Amenities), rm.Status, desc, rm.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish "absent" from "unchanged row": re-read below does both.
		if _, err := r.GetByID(ctx, rm.ID); err != nil {
			return err
		}
	}
	got, err := r.GetByID(ctx, rm.ID)
	if err != nil {
		return err
	}
	*rm = got
	return nil
}

// SoftDelete marks a room deleted. Existing bookings are untouched; the
// service layer decides whether future bookings block deletion. Returns
// sql.ErrNoRows when the room is already gone.
func (r *RoomRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET is_deleted = 1, deleted_at = UTC_TIMESTAMP() WHERE id = ? AND is_deleted = 0`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDeleted returns soft-deleted rooms, most recently deleted first.
// Backs the admin recycle-bin view that feeds Restore.
func (r *RoomRepo) ListDeleted(ctx context.Context) ([]model.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE is_deleted = 1 ORDER BY deleted_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rooms := make([]model.Room, 0)
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Restore brings a soft-deleted room back into service. A live room may
// have claimed the name since the delete, so the same uniqueness check as
// Create runs first; ErrRoomNameExists on collision. Returns
// sql.ErrNoRows when no soft-deleted room has the id.
func (r *RoomRepo) Restore(ctx context.Context, id uint64) (model.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = ? AND is_deleted = 1`, id))
	if err != nil {
		return model.Room{}, err
	}
	taken, err := r.nameTaken(ctx, rm.Name, 0)
	if err != nil {
		return model.Room{}, err
	}
	if taken {
		return model.Room{}, ErrRoomNameExists
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET is_deleted = 0, deleted_at = NULL WHERE id = ? AND is_deleted = 1`, id); err != nil {
		return model.Room{}, err
	}
	return r.GetByID(ctx, id)
}

// UpdateStatus changes only the operational status of a live room and
// returns the updated row. Returns sql.ErrNoRows when the room is absent
// or soft deleted.
func (r *RoomRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Room, error) {
	// RowsAffected is 0 both for a missing room and an unchanged status,
	// so the re-read below decides which it was.
	if _, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET status = ? WHERE id = ? AND is_deleted = 0`, status, id); err != nil {
		return model.Room{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *RoomRepo) nameTaken(ctx context.Context, name string, excludeID uint64) (bool, error) {
	query := `SELECT id FROM rooms WHERE name = ? AND is_deleted = 0`
	args := []interface{}{strings.TrimSpace(name)}
	if excludeID != 0 {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	var id uint64
	err := r.db.QueryRowContext(ctx, query+` LIMIT 1`, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
