// Package dto provides data transfer objects for the authentication and settings endpoints.
package dto

import (
	"encoding/json"

	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/planner/internal/auth/domain"
	identityDomain "github.com/allisson/planner/internal/identity/domain"
	customValidation "github.com/allisson/planner/internal/validation"
)

// RegisterRequest contains the parameters for creating a local account.
// Password strength is enforced by the authorization service.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"` //nolint:gosec // request field
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Validate checks if the register request is valid.
func (r *RegisterRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(5, 255),
		),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(1, 128),
		),
		validation.Field(&r.FirstName,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.LastName,
			validation.Length(0, 255),
		),
	)
}

// ToInput converts the request to the service input.
func (r *RegisterRequest) ToInput() *authDomain.RegisterInput {
	return &authDomain.RegisterInput{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
	}
}

// LoginRequest contains local credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"` //nolint:gosec // request field
}

// Validate checks if the login request is valid.
func (r *LoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Email,
			validation.Required,
			validation.Length(1, 255),
		),
		validation.Field(&r.Password,
			validation.Required,
			validation.Length(1, 128),
		),
	)
}

// ExternalLoginRequest is the account description handed over by the identity provider
// after its handshake.
type ExternalLoginRequest struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
	TrustLevel  int    `json:"trust_level"`
	IsAdmin     bool   `json:"is_admin"`
	IsModerator bool   `json:"is_moderator"`
}

// Validate checks if the external login request is valid.
func (r *ExternalLoginRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ExternalID,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.DisplayName,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.AvatarURL,
			validation.Length(0, 2048),
		),
		validation.Field(&r.TrustLevel,
			validation.Min(0),
			validation.Max(4),
		),
	)
}

// ToExternalUser converts the request to the identity provider tuple.
func (r *ExternalLoginRequest) ToExternalUser() *identityDomain.ExternalUser {
	return &identityDomain.ExternalUser{
		ExternalID:  r.ExternalID,
		DisplayName: r.DisplayName,
		AvatarURL:   r.AvatarURL,
		TrustLevel:  r.TrustLevel,
		IsAdmin:     r.IsAdmin,
		IsModerator: r.IsModerator,
	}
}

// SetSettingRequest carries an arbitrary JSON value.
type SetSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

// Validate checks that a JSON value was given.
func (r *SetSettingRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Value,
			validation.Required,
			validation.By(func(value any) error {
				raw, _ := value.(json.RawMessage)
				if !json.Valid(raw) {
					return validation.NewError("validation_json", "must be valid JSON")
				}
				return nil
			}),
		),
	)
}

// ValidateSettingKey checks a setting key taken from the route.
func ValidateSettingKey(key string) error {
	return validation.Validate(key,
		validation.Required,
		validation.Length(1, 128),
		customValidation.SettingKey,
	)
}
