package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Role determines which administrative actions a user may perform.
type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

// ErrPermissionDenied is returned when a user's role does not permit an
// administrative action.
var ErrPermissionDenied = errors.New("role does not permit this action")

// User is an authenticated library user.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

// CanWaiveFines reports whether the role permits waiving fines.
func (r Role) CanWaiveFines() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

// CanViewAll reports whether the role permits viewing other users' records.
func (r Role) CanViewAll() bool {
	return r == RoleLibrarian || r == RoleAdmin
}
