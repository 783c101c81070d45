// Package auth handles accounts inside a single church database:
// registration, login and token refresh. Every query runs against the
// database of the tenant resolved for the request; accounts in different
// churches never share a table.
package auth

import (
	"time"

	"github.com/google/uuid"
)

// Roles a church account can hold. The first registered account becomes
// the administrator; everyone after that starts as a member.
const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleMember     = "member"
)

// ValidRole reports whether role is one of the church roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAccountant, RoleMember:
		return true
	}
	return false
}

// User is an account row in a tenant database.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone,omitempty"`
	Role           string    `json:"role"`
	Active         bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
