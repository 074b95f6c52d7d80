package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Zoroh26/NeatMeet-Room-Management/internal/model"
	"github.com/Zoroh26/NeatMeet-Room-Management/internal/utils"
)

// UserRepo provides persistence for users. Like rooms, users are soft
// deleted so their past bookings stay attributable.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, name, email, password_hash, role, designation, is_deleted, deleted_at, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (model.User, error) {
	var (
		u         model.User
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Designation,
		&u.IsDeleted, &deletedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if deletedAt.Valid {
		t := deletedAt.Time
		u.DeletedAt = &t
	}
	return u, err
}

// Create hashes the password and inserts a user, returning its ID.
// Returns ErrEmailExists when the email is already registered.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role, designation string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, role, designation) VALUES (?,?,?,?,?)`,
		strings.TrimSpace(name), email, hash, role, strings.TrimSpace(designation))
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a non-deleted user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND is_deleted = 0 LIMIT 1`, email))
}

// GetByID fetches a non-deleted user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? AND is_deleted = 0 LIMIT 1`, id))
}

// List returns all non-deleted users ordered by name.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_deleted = 0 ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Update rewrites name, role and designation. Email and password changes
// go through dedicated flows and are not handled here.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET name = ?, role = ?, designation = ? WHERE id = ? AND is_deleted = 0`,
		strings.TrimSpace(u.Name), u.Role, strings.TrimSpace(u.Designation), u.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		if _, err := r.GetByID(ctx, u.ID); err != nil {
			return err
		}
	}
	got, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = got
	return nil
}

// SoftDelete marks a user deleted. Returns sql.ErrNoRows when the user is
// absent or already deleted.
func (r *UserRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET is_deleted = 1, deleted_at = UTC_TIMESTAMP() WHERE id = ? AND is_deleted = 0`, id)
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
