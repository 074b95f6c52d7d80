package model

import "time"

// User roles. Admins manage rooms and users; employees book rooms.
const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User represents an application user. Email is unique and stored lower
// case. Users are soft deleted like rooms; deleted users cannot log in and
// never own new bookings, but their past bookings remain for audit.
type User struct {
	ID           uint64     `json:"id"`          // users.id
	Name         string     `json:"name"`        // users.name
	Email        string     `json:"email"`       // users.email
	PasswordHash string     `json:"-"`           // users.password_hash
	Role         string     `json:"role"`        // users.role
	Designation  string     `json:"designation"` // users.designation
	IsDeleted    bool       `json:"-"`           // users.is_deleted
	DeletedAt    *time.Time `json:"-"`           // users.deleted_at (nullable)
	CreatedAt    time.Time  `json:"created_at"`  // users.created_at
	UpdatedAt    time.Time  `json:"updated_at"`  // users.updated_at
}
