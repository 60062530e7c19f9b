// Package usecase implements the authorization service: registration, login and the
// session lifecycle, fail-closed permission checks and the settings caching protocol.
package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/planner/internal/auth/domain"
	cacheDomain "github.com/allisson/planner/internal/cache/domain"
	identityDomain "github.com/allisson/planner/internal/identity/domain"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

// Config holds the authorization service settings.
type Config struct {
	SessionTTL           time.Duration
	SettingsTTL          time.Duration
	LoginRateLimitMax    int
	LoginRateLimitWindow time.Duration
	// StoreTimeout bounds each cache and durable store call.
	StoreTimeout      time.Duration
	PasswordMinLength int
}

// UserRepository persists users. Implementations join the transaction carried by ctx.
type UserRepository interface {
	Create(ctx context.Context, user *identityDomain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error)
	GetByEmail(ctx context.Context, email string) (*identityDomain.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*identityDomain.User, error)
	UpdateProfile(ctx context.Context, user *identityDomain.User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	AssignRole(ctx context.Context, userID uuid.UUID, role identityDomain.RoleAssignment) error
}

// SettingRepository holds the authoritative copy of settings.
type SettingRepository interface {
	Get(ctx context.Context, entityType, entityID, key string) (*identityDomain.Setting, error)
	Upsert(ctx context.Context, setting *identityDomain.Setting) error
	Delete(ctx context.Context, entityType, entityID, key string) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*identityDomain.Setting, error)
}

// OrganizationCreator provisions an organization with its owner as admin.
type OrganizationCreator interface {
	CreateOrganization(ctx context.Context, ownerID uuid.UUID, name string) (*identityDomain.Organization, error)
}

// AuditLogWriter appends audit entries.
type AuditLogWriter interface {
	Create(ctx context.Context, auditLog *identityDomain.AuditLog) error
}

// RelationshipStore is the part of the relationship store the service consults.
type RelationshipStore interface {
	CheckPermission(
		ctx context.Context,
		subjectID string,
		permission relationshipDomain.Permission,
		resourceType relationshipDomain.ResourceType,
		resourceID string,
	) (bool, error)
	WriteRelationship(ctx context.Context, tuple relationshipDomain.Tuple) error
	DeleteRelationship(ctx context.Context, tuple relationshipDomain.Tuple) error
}

// SessionCache holds sessions, cached settings and rate limit counters.
type SessionCache interface {
	CreateSession(ctx context.Context, session *cacheDomain.Session, ttl time.Duration) error
	GetSession(ctx context.Context, id string) (*cacheDomain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteAllSessionsForSubject(ctx context.Context, subjectID string) (int, error)
	GetSetting(ctx context.Context, entityType, entityID, key string) ([]byte, bool, error)
	SetSetting(ctx context.Context, entityType, entityID, key string, value []byte, ttl time.Duration) error
	InvalidateSetting(ctx context.Context, entityType, entityID, key string) error
	CheckRateLimit(
		ctx context.Context,
		identifier, action string,
		max int,
		window time.Duration,
	) (*cacheDomain.RateLimitResult, error)
}

// InvalidationPublisher records cache invalidations in the outbox so they survive a
// cache outage.
type InvalidationPublisher interface {
	RevokeSessions(ctx context.Context, subjectID string) error
	InvalidateSetting(ctx context.Context, entityType, entityID, key string) error
}

// AuthUseCase is the session lifecycle and permission gate.
type AuthUseCase interface {
	// Register creates a local account, its default organization and the admin
	// relationship on it.
	Register(ctx context.Context, input *authDomain.RegisterInput) (*authDomain.Profile, error)

	// Login checks the per-IP rate limit, verifies the credentials and opens a session.
	Login(ctx context.Context, input *authDomain.LoginInput) (*authDomain.LoginOutput, error)

	// FindOrCreateExternalUser links a verified identity provider account and opens a
	// session for it.
	FindOrCreateExternalUser(
		ctx context.Context,
		external *identityDomain.ExternalUser,
		meta authDomain.RequestMeta,
	) (*authDomain.LoginOutput, error)

	// Logout deletes the session.
	Logout(ctx context.Context, sessionID string, meta authDomain.RequestMeta) error

	// ValidateSession resolves a session and checks the token and the account status.
	ValidateSession(ctx context.Context, sessionID, token string) (*cacheDomain.Session, error)

	// Authorize reports whether the subject holds permission on the resource. Any error
	// is a denial.
	Authorize(
		ctx context.Context,
		subjectID string,
		permission relationshipDomain.Permission,
		resourceType relationshipDomain.ResourceType,
		resourceID string,
	) bool

	// GetProfile returns the sanitized user behind a subject id.
	GetProfile(ctx context.Context, subjectID string) (*authDomain.Profile, error)

	// RevokeAllSessions deletes every session of the subject.
	RevokeAllSessions(ctx context.Context, subjectID string) (int, error)

	// DeactivateUser disables the account and revokes its sessions.
	DeactivateUser(ctx context.Context, userID uuid.UUID) error
}

// SettingUseCase reads settings cache-aside and writes them write-through.
type SettingUseCase interface {
	GetSetting(ctx context.Context, entityType, entityID, key string) (json.RawMessage, error)
	SetSetting(ctx context.Context, entityType, entityID, key string, value json.RawMessage) error
	DeleteSetting(ctx context.Context, entityType, entityID, key string) error
	ListSettings(ctx context.Context, entityType, entityID string) (map[string]json.RawMessage, error)
}
