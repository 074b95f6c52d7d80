package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/model"
)

// BookingRepo provides persistence for bookings. Conflict-sensitive
// operations come in Tx variants taking a *sql.Tx so that the conflict
// query and the subsequent write share one transaction; the caller owns
// commit and rollback. All timestamps are stored and compared in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Conflict describes an existing booking that collides with a requested
// interval. It carries the colliding owner's name so callers can build an
// actionable error message.
type Conflict struct {
	BookingID uint64
	UserID    uint64
	BookedBy  string
	StartTime time.Time
	EndTime   time.Time
}

// BookingDetail is a booking joined with its room and owner, mirroring
// what the API returns for listings and single lookups.
type BookingDetail struct {
	model.Booking
	RoomName        string `json:"room_name"`
	RoomLocation    string `json:"room_location"`
	RoomCapacity    uint32 `json:"room_capacity"`
	UserName        string `json:"user_name"`
	UserEmail       string `json:"user_email"`
	UserDesignation string `json:"user_designation"`
}

// BookingFilter narrows listing queries. Zero values mean "no filter".
// Status is interpreted with read-time semantics: "active" matches
// non-cancelled bookings whose interval contains now, "scheduled" matches
// non-cancelled bookings starting after now.
type BookingFilter struct {
	RoomID uint64
	UserID uint64
	Status string
	Date   *time.Time // bookings intersecting this calendar day (UTC)
}

// Page controls pagination and ordering for List. SortField is validated
// against a whitelist; unknown fields fall back to start_time.
type Page struct {
	Offset    int
	Limit     int
	SortField string
	SortOrder string // "asc" or "desc"
}

// queryRower is satisfied by both *sql.DB and *sql.Tx, letting the
// conflict query run identically inside and outside a transaction.
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// conflictPredicate is the SQL form of model.Interval.Overlaps for the
// half-open interval [start, end): an existing row collides iff
// row.start_time < end AND row.end_time > start. It must stay in lockstep
// with the Go predicate.
const conflictPredicate = `room_id = ? AND status <> 'cancelled' AND start_time < ? AND end_time > ?`

// FindConflictTx returns the first non-cancelled booking of the room whose
// interval overlaps iv, or nil if the slot is free. The row is read with
// FOR UPDATE so it stays locked until the caller's transaction ends.
// excludeID, when non-zero, skips that booking (used when re-checking an
// update against all other bookings). The owner's name is resolved with a
// follow-up read inside the same transaction.
func (r *BookingRepo) FindConflictTx(ctx context.Context, tx *sql.Tx, roomID uint64, iv model.Interval, excludeID uint64) (*Conflict, error) {
	c, err := findConflict(ctx, tx, roomID, iv, excludeID, true)
	if err != nil || c == nil {
		return c, err
	}
	// Plain read; the locking read above already serializes writers.
	if err := tx.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, c.UserID).Scan(&c.BookedBy); err != nil {
		if err == sql.ErrNoRows {
			c.BookedBy = "unknown user"
			return c, nil
		}
		return nil, err
	}
	return c, nil
}

// FindConflict is the read-only variant used by availability queries; it
// takes no lock and runs outside any transaction.
func (r *BookingRepo) FindConflict(ctx context.Context, roomID uint64, iv model.Interval, excludeID uint64) (*Conflict, error) {
	c, err := findConflict(ctx, r.db, roomID, iv, excludeID, false)
	if err != nil || c == nil {
		return c, err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, c.UserID).Scan(&c.BookedBy); err != nil {
		if err == sql.ErrNoRows {
			c.BookedBy = "unknown user"
			return c, nil
		}
		return nil, err
	}
	return c, nil
}

func findConflict(ctx context.Context, q queryRower, roomID uint64, iv model.Interval, excludeID uint64, forUpdate bool) (*Conflict, error) {
	query := `SELECT id, user_id, start_time, end_time FROM bookings WHERE ` + conflictPredicate
	args := []interface{}{roomID, iv.End, iv.Start}
	if excludeID != 0 {
		query += ` AND id <> ?`
		args = append(args, excludeID)
	}
	query += ` LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var c Conflict
	err := q.QueryRowContext(ctx, query, args...).Scan(&c.BookingID, &c.UserID, &c.StartTime, &c.EndTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateTx inserts a booking within the caller's transaction and populates
// the generated ID, version and timestamps on b. A duplicate-key violation
// of the (room_id, start_time, end_time, user_id) constraint is mapped to
// ErrDuplicateBooking.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (room_id, user_id, start_time, end_time, purpose, status, version)
	           VALUES (?, ?, ?, ?, ?, ?, 0)`
	res, err := tx.ExecContext(ctx, q, b.RoomID, b.UserID, b.StartTime, b.EndTime, b.Purpose, b.Status)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateBooking
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query the row back so defaults (version, timestamps) are populated.
	const sel = `SELECT id, room_id, user_id, start_time, end_time, purpose, status, version, created_at, updated_at
	             FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(
		&b.ID, &b.RoomID, &b.UserID, &b.StartTime, &b.EndTime,
		&b.Purpose, &b.Status, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
}

// GetForUpdateTx loads a booking by ID with FOR UPDATE, keeping the row
// locked for the rest of the transaction. Returns sql.ErrNoRows when the
// booking does not exist.
func (r *BookingRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Booking, error) {
	const q = `SELECT id, room_id, user_id, start_time, end_time, purpose, status, version, created_at, updated_at
	           FROM bookings WHERE id = ? FOR UPDATE`
	var b model.Booking
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.RoomID, &b.UserID, &b.StartTime, &b.EndTime,
		&b.Purpose, &b.Status, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// UpdateTx rewrites a booking's mutable fields and increments its version
// within the caller's transaction. Duplicate-key violations map to
// ErrDuplicateBooking, consistent with CreateTx.
func (r *BookingRepo) UpdateTx(ctx context.Context, tx *sql.Tx, id uint64, start, end time.Time, purpose, status string) error {
	const q = `UPDATE bookings
	           SET start_time = ?, end_time = ?, purpose = ?, status = ?, version = version + 1
	           WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, start, end, purpose, status, id); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateBooking
		}
		return err
	}
	return nil
}

// CancelTx marks a booking cancelled and increments its version. The
// service layer has already verified the transition is legal.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE bookings SET status = 'cancelled', version = version + 1 WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, id)
	return err
}

// detailColumns is the join used by every read that returns BookingDetail.
const detailColumns = `SELECT b.id, b.room_id, b.user_id, b.start_time, b.end_time, b.purpose, b.status,
	       b.version, b.created_at, b.updated_at,
	       r.name, r.location, r.capacity,
	       u.name, u.email, u.designation
	FROM bookings b
	JOIN rooms r ON r.id = b.room_id
	JOIN users u ON u.id = b.user_id`

func scanDetail(row interface{ Scan(...interface{}) error }) (BookingDetail, error) {
	var d BookingDetail
	err := row.Scan(
		&d.ID, &d.RoomID, &d.UserID, &d.StartTime, &d.EndTime, &d.Purpose, &d.Status,
		&d.Version, &d.CreatedAt, &d.UpdatedAt,
		&d.RoomName, &d.RoomLocation, &d.RoomCapacity,
		&d.UserName, &d.UserEmail, &d.UserDesignation,
	)
	return d, err
}

// GetDetail returns a single booking joined with its room and owner.
// Returns sql.ErrNoRows when the booking does not exist.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*BookingDetail, error) {
	d, err := scanDetail(r.db.QueryRowContext(ctx, detailColumns+` WHERE b.id = ?`, id))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// buildFilter translates a BookingFilter into a WHERE fragment and its
// arguments. The status cases mirror model.Booking.EffectiveStatus so the
// read-time derivation has exactly one SQL counterpart; the date case
// reuses the half-open overlap predicate against the day's bounds.
func buildFilter(f BookingFilter, now time.Time) (string, []interface{}) {
	clauses := make([]string, 0, 4)
	args := make([]interface{}, 0, 6)
	if f.RoomID != 0 {
		clauses = append(clauses, "b.room_id = ?")
		args = append(args, f.RoomID)
	}
	if f.UserID != 0 {
		clauses = append(clauses, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	switch f.Status {
	case model.StatusCancelled:
		clauses = append(clauses, "b.status = 'cancelled'")
	case model.StatusActive:
		clauses = append(clauses, "b.status <> 'cancelled' AND b.start_time <= ? AND b.end_time > ?")
		args = append(args, now, now)
	case model.StatusScheduled:
		clauses = append(clauses, "b.status <> 'cancelled' AND b.start_time > ?")
		args = append(args, now)
	}
	if f.Date != nil {
		dayStart := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC)
		dayEnd := dayStart.Add(24 * time.Hour)
		clauses = append(clauses, "b.start_time < ? AND b.end_time > ?")
		args = append(args, dayEnd, dayStart)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// sortColumns whitelists fields accepted for ORDER BY.
var sortColumns = map[string]string{
	"start_time": "b.start_time",
	"end_time":   "b.end_time",
	"created_at": "b.created_at",
	"status":     "b.status",
}

// List returns bookings matching f, ordered and paginated per p. now is
// passed in so status filtering and status derivation agree on a single
// instant.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter, p Page, now time.Time) ([]BookingDetail, error) {
	where, args := buildFilter(f, now)
	col, ok := sortColumns[p.SortField]
	if !ok {
		col = "b.start_time"
	}
	dir := "ASC"
	if strings.EqualFold(p.SortOrder, "desc") {
		dir = "DESC"
	}
	query := detailColumns + where + fmt.Sprintf(" ORDER BY %s %s", col, dir)
	if p.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, p.Limit, p.Offset)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// Count returns the total number of bookings matching f, for pagination
// envelopes.
func (r *BookingRepo) Count(ctx context.Context, f BookingFilter, now time.Time) (int, error) {
	where, args := buildFilter(f, now)
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bookings b"+where, args...).Scan(&n)
	return n, err
}

// ListRange returns the room's non-cancelled bookings whose interval
// intersects [from, to), ordered by start time ascending. This backs the
// schedule view of the availability service.
func (r *BookingRepo) ListRange(ctx context.Context, roomID uint64, from, to time.Time) ([]BookingDetail, error) {
	query := detailColumns + ` WHERE b.room_id = ? AND b.status <> 'cancelled'
	        AND b.start_time < ? AND b.end_time > ?
	        ORDER BY b.start_time ASC`
	rows, err := r.db.QueryContext(ctx, query, roomID, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}
