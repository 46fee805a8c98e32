package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus is the account status of a user.
type UserStatus string

const (
	UserActive   UserStatus = "activo"
	UserInactive UserStatus = "inactivo"
)

// Role is a capability set referenced by users. Roles are mutually
// exclusive per user: a user holds a single role reference.
type Role struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"nombre"`
	IsAdmin      bool      `json:"esAdmin"`
	IsSuperAdmin bool      `json:"esSuperAdmin"`
}

// User represents a platform user with their role loaded.
type User struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"nombre"`
	Email     string     `json:"correo"`
	Password  string     `json:"-"`
	Status    UserStatus `json:"estado"`
	Role      Role       `json:"rol"`
	CreatedAt time.Time  `json:"fechaCreacion"`
	UpdatedAt time.Time  `json:"-"`
}

// IsActive reports whether the account may use the platform.
func (u *User) IsActive() bool { return u.Status == UserActive }
