// Package domain defines the session lifecycle types of the authorization service:
// registration and login inputs, the sanitized user profile returned to clients and
// the errors every authentication step reports.
package domain

import (
	"time"

	"github.com/google/uuid"

	identityDomain "github.com/allisson/planner/internal/identity/domain"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

// Rate limited actions.
const (
	ActionLogin    = "login"
	ActionRegister = "register"
	ActionExternal = "external_login"
)

// RequestMeta describes the client behind a call, for rate limiting and audit.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	RequestID string
}

// RegisterInput contains the data for a local account registration.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput contains local credentials.
type LoginInput struct {
	Email    string
	Password string
	Meta     RequestMeta
}

// Profile is the user as returned to clients. It never carries the credential hash.
type Profile struct {
	ID             uuid.UUID
	Email          string
	DisplayName    string
	FirstName      string
	LastName       string
	AvatarURL      string
	OrganizationID *uuid.UUID
	TrustLevel     int
	IsAdmin        bool
	IsModerator    bool
	CreatedAt      time.Time
	LastLoginAt    *time.Time
}

// NewProfile copies the public attributes of user.
func NewProfile(user *identityDomain.User) *Profile {
	profile := &Profile{
		ID:             user.ID,
		DisplayName:    user.DisplayName,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		AvatarURL:      user.AvatarURL,
		OrganizationID: user.OrganizationID,
		TrustLevel:     user.TrustLevel,
		IsAdmin:        user.IsAdmin,
		IsModerator:    user.IsModerator,
		CreatedAt:      user.CreatedAt,
		LastLoginAt:    user.LastLoginAt,
	}
	if user.Email != nil {
		profile.Email = *user.Email
	}
	return profile
}

// LoginOutput is returned once per login. Token is never stored in plain form.
type LoginOutput struct {
	User      *Profile
	SessionID string
	Token     string
	ExpiresAt time.Time
}

// IsSensitive reports whether checks of permission are written to the audit log.
func IsSensitive(permission relationshipDomain.Permission) bool {
	switch permission {
	case relationshipDomain.PermissionDelete,
		relationshipDomain.PermissionManageMembers,
		relationshipDomain.PermissionUpdate:
		return true
	default:
		return false
	}
}

// IdentityProviderID names the single external identity provider in the relationship
// graph: identity_provider:forum.
const IdentityProviderID = "forum"

// Audit resource types.
const (
	AuditResourceUser    = "user"
	AuditResourceSession = "session"
	AuditResourceSetting = "setting"
)
