package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit actions written by the authorization service.
const (
	AuditActionLogin               = "auth.login"
	AuditActionLoginFailed         = "auth.login_failed"
	AuditActionLogout              = "auth.logout"
	AuditActionRegister            = "auth.register"
	AuditActionExternalLogin       = "auth.external_login"
	AuditActionAuthorize           = "auth.authorize"
	AuditActionAuthorizeDenied     = "auth.authorize_denied"
	AuditActionSessionsRevoked     = "auth.sessions_revoked"
	AuditActionUserDeactivated     = "user.deactivated"
	AuditActionSettingUpdated      = "setting.updated"
	AuditActionSettingDeleted      = "setting.deleted"
	AuditActionOrganizationCreated = "organization.created"
	AuditActionOrganizationDeleted = "organization.deleted"
	AuditActionRoleAssigned        = "role.assigned"
)

// AuditLog is an append-only record of a sensitive action.
type AuditLog struct {
	ID uuid.UUID
	// SubjectID is the acting user, nil for anonymous attempts.
	SubjectID    *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Before       json.RawMessage
	After        json.RawMessage
	IPAddress    *string
	UserAgent    *string
	RequestID    string
	// Signature is the HMAC-SHA256 of the entry's canonical form, set when IsSigned.
	Signature []byte
	IsSigned  bool
	CreatedAt time.Time
}

// HasSignature reports whether the entry carries a signature to verify.
func (a *AuditLog) HasSignature() bool {
	return a.IsSigned && len(a.Signature) > 0
}

// VerificationReport summarizes a signature check over a time range.
type VerificationReport struct {
	TotalChecked  int64
	SignedCount   int64
	UnsignedCount int64
	ValidCount    int64
	InvalidCount  int64
	InvalidLogs   []uuid.UUID
}

// AuditLogFilter narrows an audit log listing to one resource. Both time bounds are
// optional and inclusive.
type AuditLogFilter struct {
	ResourceType  string
	ResourceID    string
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}
