package model

import (
	"fmt"
	"time"
)

// User represents an authentication principal.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	BaseID       *int64     `json:"base_id"`
	Email        string     `json:"email,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Company      string     `json:"company,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`

	// Joined fields (not always populated).
	BaseName string `json:"base_name,omitempty"`
}

// Role is the closed set of principal roles.
type Role string

// Roles.
const (
	RoleAdmin            Role = "admin"
	RoleBaseCommander    Role = "base_commander"
	RoleLogisticsOfficer Role = "logistics_officer"
	RoleUser             Role = "user"
)

var validRoles = []Role{RoleAdmin, RoleBaseCommander, RoleLogisticsOfficer, RoleUser}

func (r Role) String() string { return string(r) }

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// BaseScoped reports whether the role only sees rows of its own base.
func (r Role) BaseScoped() bool {
	return r == RoleBaseCommander || r == RoleLogisticsOfficer
}

// ParseRole converts raw input into a Role.
func ParseRole(value string) (Role, error) {
	r := Role(value)
	if !r.IsValid() {
		return "", fmt.Errorf("invalid role %q", value)
	}
	return r, nil
}

// Principal is the authenticated caller of an operation, as carried by its session token.
type Principal struct {
	ID       int64
	Username string
	Role     Role
	BaseID   *int64
}

// HasBase reports whether the principal is stationed at the given base.
func (p Principal) HasBase(baseID int64) bool {
	return p.BaseID != nil && *p.BaseID == baseID
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// ValidatePassword checks password requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}
