// Package account implements user accounts, registration, and the fallback
// admin invariant: the generic "admin" account exists exactly when no other
// privileged account does.
package account

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Account roles.
const (
	RoleAdmin   = "admin"
	RoleDoctor  = "doctor"
	RoleNurse   = "nurse"
	RolePatient = "patient"
)

// Fallback admin constants. The handle and default credential are documented
// and public; deployments must create a real privileged account promptly,
// which removes the fallback.
const (
	FallbackAdminHandle   = "admin"
	FallbackAdminPassword = "12345678"
)

var (
	ErrNotFound    = errors.New("account not found")
	ErrHandleTaken = errors.New("handle already in use")
	ErrBadPassword = errors.New("current password does not match")
)

// Account is a login identity with a role tag and contact fields.
type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Handle       string    `db:"handle" json:"handle"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	Superuser    bool      `db:"superuser" json:"superuser"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ValidRole reports whether role is one of the known role tags.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDoctor, RoleNurse, RolePatient:
		return true
	}
	return false
}

// IsFallback reports whether the account is the generic fallback admin.
func (a *Account) IsFallback() bool {
	return a.Handle == FallbackAdminHandle
}
