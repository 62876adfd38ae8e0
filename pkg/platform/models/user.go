package models

import (
	"fmt"
	"time"
)

// UserRole represents the role of a user in the system.
type UserRole string

const (
	// RoleAdmin is an administrator with full permissions.
	RoleAdmin UserRole = "admin"
	// RoleOperator can manage endpoints and read all monitoring data.
	RoleOperator UserRole = "operator"
	// RoleViewer has read-only access to monitoring data.
	RoleViewer UserRole = "viewer"
)

// DefaultExternalRole is assigned to users created by identity
// reconciliation after a first successful external login. Role elevation
// is a separate administrative operation.
const DefaultExternalRole = RoleOperator

// IsValid checks if the role is a valid UserRole.
func (r UserRole) IsValid() bool {
	return r == RoleAdmin || r == RoleOperator || r == RoleViewer
}

// User represents a platform user for authentication and authorization.
//
// A user is owned by exactly one authentication provider (the AuthProvider
// tag). Local users carry a password hash in salt:digest form; externally
// authenticated users are created by reconciliation on first login and
// carry the provider-native identifier in ExternalID.
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null;size:255" json:"username"`
	AuthProvider string     `gorm:"not null;default:local;size:50" json:"auth_provider"`
	ExternalID   string     `gorm:"size:512" json:"external_id,omitempty"`
	DisplayName  string     `gorm:"size:255" json:"display_name,omitempty"`
	Email        string     `gorm:"size:255" json:"email,omitempty"`
	Role         string     `gorm:"not null;default:viewer;size:50" json:"role"`
	// No column default: GORM drops zero values for defaulted columns,
	// which would silently flip an explicit Active: false back to true.
	Active       bool       `json:"active"`
	FailedLogins int        `gorm:"default:0" json:"failed_logins"`
	PasswordHash string     `json:"-"` // salt:digest, local users only
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for User.
func (User) TableName() string {
	return "users"
}

// GetDisplayName returns the display name, or username if display name is not set.
func (u *User) GetDisplayName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// IsLocal reports whether the user is owned by the local password provider.
func (u *User) IsLocal() bool {
	return u.AuthProvider == "local"
}

// IsAdmin checks if the user has admin role.
func (u *User) IsAdmin() bool {
	return u.Role == string(RoleAdmin)
}

// GetRole returns the user's role as a UserRole type.
func (u *User) GetRole() UserRole {
	return UserRole(u.Role)
}

// Validate checks if the user has valid configuration.
func (u *User) Validate() error {
	if u.Username == "" {
		return fmt.Errorf("username is required")
	}
	if u.Role != "" && !UserRole(u.Role).IsValid() {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	if !u.IsLocal() && u.PasswordHash != "" {
		return fmt.Errorf("password hash is only allowed for local users")
	}
	return nil
}
