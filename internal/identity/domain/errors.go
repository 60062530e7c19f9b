package domain

import (
	"github.com/allisson/planner/internal/errors"
)

// Identity errors.
var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")

	// ErrEmailAlreadyExists indicates another user is registered with the same email.
	ErrEmailAlreadyExists = errors.Wrap(errors.ErrConflict, "email already registered")

	// ErrExternalIDAlreadyExists indicates the identity provider account is already linked.
	ErrExternalIDAlreadyExists = errors.Wrap(errors.ErrConflict, "external account already linked")

	// ErrOrganizationNotFound indicates the requested organization does not exist.
	ErrOrganizationNotFound = errors.Wrap(errors.ErrNotFound, "organization not found")

	// ErrGroupNotFound indicates the requested group does not exist in the organization.
	ErrGroupNotFound = errors.Wrap(errors.ErrNotFound, "group not found")

	// ErrRoleNotFound indicates the requested role does not exist in the organization.
	ErrRoleNotFound = errors.Wrap(errors.ErrNotFound, "role not found")

	// ErrUserNotMember indicates the user holds no relation on the organization.
	ErrUserNotMember = errors.Wrap(errors.ErrNotFound, "user is not a member of the organization")

	// ErrSettingNotFound indicates no durable value exists for the setting key.
	ErrSettingNotFound = errors.Wrap(errors.ErrNotFound, "setting not found")

	// ErrInvalidRetention indicates a negative audit log retention period.
	ErrInvalidRetention = errors.Wrap(errors.ErrInvalidInput, "retention days must not be negative")

	// ErrInvalidSettingValue indicates the setting value is not valid JSON.
	ErrInvalidSettingValue = errors.Wrap(errors.ErrInvalidInput, "setting value must be valid JSON")

	// ErrSignatureInvalid indicates an audit log entry no longer matches its signature.
	ErrSignatureInvalid = errors.New("audit log signature is invalid")

	// ErrSigningKeyTooShort indicates the configured audit signing secret is too short.
	ErrSigningKeyTooShort = errors.Wrap(errors.ErrInvalidInput, "audit signing key must be at least 32 bytes")

	// ErrAuditSigningDisabled indicates no audit signing key is configured.
	ErrAuditSigningDisabled = errors.New("audit log signing is not configured")
)
