package models

import (
	"time"
)

// User roles. "instructor" is the legacy spelling of the host role and is kept
// for accounts created before the rename.
const (
	RoleAdmin      = "admin"
	RoleHost       = "host"
	RoleInstructor = "instructor"
	RoleStudent    = "student"
)

// User is a platform account. Accounts are provisioned by the frontend after
// external authentication; this service only stores identity and role.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Photo     string    `json:"photo,omitempty"`
	Role      string    `json:"role" gorm:"default:'student'"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// Capabilities is the authorization surface derived from a role. Handlers
// check capabilities, never role strings.
type Capabilities struct {
	CanHost  bool `json:"canHost"`
	CanAdmin bool `json:"canAdmin"`
}

// CapabilitiesForRole maps a stored role onto its capability set.
func CapabilitiesForRole(role string) Capabilities {
	switch role {
	case RoleAdmin:
		return Capabilities{CanHost: true, CanAdmin: true}
	case RoleHost, RoleInstructor:
		return Capabilities{CanHost: true}
	default:
		return Capabilities{}
	}
}

// Identity is the authenticated caller as asserted by the gateway and resolved
// against the users table.
type Identity struct {
	Email        string       `json:"email"`
	Role         string       `json:"role"`
	Capabilities Capabilities `json:"capabilities"`
}
