package dto

import (
	"encoding/json"
	"time"

	authDomain "github.com/allisson/planner/internal/auth/domain"
)

// ProfileResponse is the sanitized user returned by the authentication endpoints.
type ProfileResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email,omitempty"`
	DisplayName    string     `json:"display_name"`
	FirstName      string     `json:"first_name,omitempty"`
	LastName       string     `json:"last_name,omitempty"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	OrganizationID *string    `json:"organization_id,omitempty"`
	TrustLevel     int        `json:"trust_level"`
	IsAdmin        bool       `json:"is_admin"`
	IsModerator    bool       `json:"is_moderator"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

// MapProfileToResponse converts a profile to an API response.
func MapProfileToResponse(profile *authDomain.Profile) ProfileResponse {
	response := ProfileResponse{
		ID:          profile.ID.String(),
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		AvatarURL:   profile.AvatarURL,
		TrustLevel:  profile.TrustLevel,
		IsAdmin:     profile.IsAdmin,
		IsModerator: profile.IsModerator,
		CreatedAt:   profile.CreatedAt,
		LastLoginAt: profile.LastLoginAt,
	}
	if profile.OrganizationID != nil {
		id := profile.OrganizationID.String()
		response.OrganizationID = &id
	}
	return response
}

// LoginResponse contains the session credentials.
// The token is only returned once and must be sent back as a bearer token.
type LoginResponse struct {
	User      ProfileResponse `json:"user"`
	SessionID string          `json:"session_id"`
	Token     string          `json:"token"` //nolint:gosec // returned once on login
	ExpiresAt time.Time       `json:"expires_at"`
}

// MapLoginOutputToResponse converts a login result to an API response.
func MapLoginOutputToResponse(output *authDomain.LoginOutput) LoginResponse {
	return LoginResponse{
		User:      MapProfileToResponse(output.User),
		SessionID: output.SessionID,
		Token:     output.Token,
		ExpiresAt: output.ExpiresAt,
	}
}

// RevokeSessionsResponse reports how many sessions were removed right away.
type RevokeSessionsResponse struct {
	Revoked int `json:"revoked"`
}

// SettingResponse represents one setting.
type SettingResponse struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// ListSettingsResponse holds every setting of the caller keyed by setting key.
type ListSettingsResponse struct {
	Data map[string]json.RawMessage `json:"data"`
}
