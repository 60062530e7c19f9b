// Package domain defines the durable identity records: users, the organization
// hierarchy with its roles, audit log entries and settings.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a durable identity record. Users are never deleted, only deactivated.
type User struct {
	ID uuid.UUID
	// ExternalID references the identity provider account, nil for local accounts.
	ExternalID *string
	// Email is set for accounts registered with local credentials.
	Email          *string
	DisplayName    string
	FirstName      string
	LastName       string
	AvatarURL      string
	PasswordHash   string
	IsActive       bool
	OrganizationID *uuid.UUID
	GroupID        *uuid.UUID
	RoleID         *uuid.UUID
	TrustLevel     int
	IsAdmin        bool
	IsModerator    bool
	CreatedAt      time.Time
	LastLoginAt    *time.Time
	LastSeenAt     *time.Time
}

// HasPassword reports whether the user can log in with local credentials.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ExternalUser carries the verified account data returned by the identity provider.
type ExternalUser struct {
	ExternalID  string
	DisplayName string
	AvatarURL   string
	TrustLevel  int
	IsAdmin     bool
	IsModerator bool
}
