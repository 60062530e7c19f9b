package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/planner/internal/auth/domain"
	authService "github.com/allisson/planner/internal/auth/service"
	cacheDomain "github.com/allisson/planner/internal/cache/domain"
	"github.com/allisson/planner/internal/database"
	apperrors "github.com/allisson/planner/internal/errors"
	identityDomain "github.com/allisson/planner/internal/identity/domain"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
	appValidation "github.com/allisson/planner/internal/validation"
)

// Dependencies groups the collaborators of the authorization service.
type Dependencies struct {
	TxManager     database.TxManager
	Users         UserRepository
	Settings      SettingRepository
	Organizations OrganizationCreator
	Relationships RelationshipStore
	Cache         SessionCache
	Publisher     InvalidationPublisher
	AuditLogs     AuditLogWriter
	Passwords     authService.PasswordService
	Tokens        authService.TokenService
	Logger        *slog.Logger
}

type authUseCase struct {
	config Config
	Dependencies
	now func() time.Time
}

// NewAuthUseCase creates the authorization service.
func NewAuthUseCase(config Config, deps Dependencies) AuthUseCase {
	if config.SessionTTL <= 0 {
		config.SessionTTL = 24 * time.Hour
	}
	if config.SettingsTTL <= 0 {
		config.SettingsTTL = time.Hour
	}
	if config.LoginRateLimitMax <= 0 {
		config.LoginRateLimitMax = 5
	}
	if config.LoginRateLimitWindow <= 0 {
		config.LoginRateLimitWindow = 5 * time.Minute
	}
	if config.PasswordMinLength <= 0 {
		config.PasswordMinLength = 8
	}
	return &authUseCase{
		config:       config,
		Dependencies: deps,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (a *authUseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return storeTimeout(ctx, a.config.StoreTimeout)
}

func storeTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *authUseCase) validateRegisterInput(input *authDomain.RegisterInput) error {
	err := validation.ValidateStruct(input,
		validation.Field(&input.Email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(&input.Password,
			validation.Required.Error("password is required"),
			validation.Length(0, 128).Error("password must be at most 128 characters"),
			appValidation.PasswordStrength{MinLength: a.config.PasswordMinLength},
		),
		validation.Field(&input.FirstName,
			validation.Required.Error("first name is required"),
			appValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&input.LastName,
			validation.Length(0, 255),
		),
	)
	return appValidation.WrapValidationError(err)
}

// Register creates the user, a default organization and the admin tuple on it inside
// one transaction. The relationship store shares the database, so a failure at any
// step leaves nothing behind.
func (a *authUseCase) Register(ctx context.Context, input *authDomain.RegisterInput) (*authDomain.Profile, error) {
	if err := a.validateRegisterInput(input); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)

	lookupCtx, cancel := a.withTimeout(ctx)
	_, err := a.Users.GetByEmail(lookupCtx, email)
	cancel()
	switch {
	case err == nil:
		return nil, authDomain.ErrDuplicateAccount
	case !errors.Is(err, identityDomain.ErrUserNotFound):
		return nil, err
	}

	hash, err := a.Passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	user := &identityDomain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Email:        &email,
		DisplayName:  strings.TrimSpace(firstName + " " + lastName),
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    a.now(),
	}

	ctx, cancel = a.withTimeout(ctx)
	defer cancel()

	err = a.TxManager.WithTx(ctx, func(ctx context.Context) error {
		if err := a.Users.Create(ctx, user); err != nil {
			if errors.Is(err, identityDomain.ErrEmailAlreadyExists) {
				return authDomain.ErrDuplicateAccount
			}
			return err
		}

		org, err := a.Organizations.CreateOrganization(ctx, user.ID, fmt.Sprintf("%s's organization", firstName))
		if err != nil {
			return err
		}

		if err := a.Users.AssignRole(ctx, user.ID, identityDomain.RoleAssignment{OrganizationID: &org.ID}); err != nil {
			return err
		}
		user.OrganizationID = &org.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.audit(ctx, auditEntry{
		subjectID:    &user.ID,
		action:       identityDomain.AuditActionRegister,
		resourceType: authDomain.AuditResourceUser,
		resourceID:   user.ID.String(),
		after:        map[string]any{"email": email, "organization_id": user.OrganizationID},
	})

	return authDomain.NewProfile(user), nil
}

// Login runs its steps strictly in order: rate limit, lookup, password check, session
// creation, settings seeding and audit. A failing step stops the sequence.
func (a *authUseCase) Login(ctx context.Context, input *authDomain.LoginInput) (*authDomain.LoginOutput, error) {
	if err := a.checkLoginRateLimit(ctx, input.Meta.ClientIP); err != nil {
		return nil, err
	}

	email := normalizeEmail(input.Email)
	lookupCtx, cancel := a.withTimeout(ctx)
	user, err := a.Users.GetByEmail(lookupCtx, email)
	cancel()
	if err != nil && !errors.Is(err, identityDomain.ErrUserNotFound) {
		return nil, err
	}

	// Verify runs outside any store deadline.
	if user == nil || !user.IsActive || !user.HasPassword() {
		a.Passwords.Verify(input.Password, "")
		a.auditFailedLogin(ctx, user, email, input.Meta)
		return nil, authDomain.ErrInvalidCredentials
	}

	if !a.Passwords.Verify(input.Password, user.PasswordHash) {
		a.auditFailedLogin(ctx, user, email, input.Meta)
		return nil, authDomain.ErrInvalidCredentials
	}

	sessionCtx, cancel := a.withTimeout(ctx)
	output, err := a.openSession(sessionCtx, user, input.Meta)
	cancel()
	if err != nil {
		return nil, err
	}

	a.audit(ctx, auditEntry{
		subjectID:    &user.ID,
		action:       identityDomain.AuditActionLogin,
		resourceType: authDomain.AuditResourceSession,
		resourceID:   output.SessionID,
		meta:         input.Meta,
	})
	return output, nil
}

// checkLoginRateLimit fails open when the counter store cannot be reached.
func (a *authUseCase) checkLoginRateLimit(ctx context.Context, clientIP string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	result, err := a.Cache.CheckRateLimit(
		ctx,
		clientIP,
		authDomain.ActionLogin,
		a.config.LoginRateLimitMax,
		a.config.LoginRateLimitWindow,
	)
	if err != nil {
		a.Logger.Warn("login rate limit unavailable, allowing attempt",
			slog.String("client_ip", clientIP),
			slog.Any("error", err),
		)
		return nil
	}
	if !result.Allowed {
		return authDomain.NewRateLimitedError(result.ResetAt)
	}
	return nil
}

func (a *authUseCase) auditFailedLogin(
	ctx context.Context,
	user *identityDomain.User,
	email string,
	meta authDomain.RequestMeta,
) {
	entry := auditEntry{
		action:       identityDomain.AuditActionLoginFailed,
		resourceType: authDomain.AuditResourceUser,
		after:        map[string]any{"email": email},
		meta:         meta,
	}
	if user != nil {
		entry.subjectID = &user.ID
		entry.resourceID = user.ID.String()
	}
	a.audit(ctx, entry)
}

// openSession creates a session with a fresh token and warms the settings cache.
func (a *authUseCase) openSession(
	ctx context.Context,
	user *identityDomain.User,
	meta authDomain.RequestMeta,
) (*authDomain.LoginOutput, error) {
	plainToken, tokenHash, err := a.Tokens.GenerateToken()
	if err != nil {
		return nil, err
	}

	now := a.now()
	if err := a.Users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		a.Logger.Warn("failed to record last login",
			slog.String("user_id", user.ID.String()),
			slog.Any("error", err),
		)
	} else {
		user.LastLoginAt = &now
	}

	session := &cacheDomain.Session{
		ID:             uuid.NewString(),
		SubjectID:      user.ID.String(),
		DisplayName:    user.DisplayName,
		AvatarURL:      user.AvatarURL,
		TokenHash:      tokenHash,
		ClientIP:       meta.ClientIP,
		UserAgent:      meta.UserAgent,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	if user.Email != nil {
		session.Email = *user.Email
	}
	if err := a.Cache.CreateSession(ctx, session, a.config.SessionTTL); err != nil {
		return nil, err
	}

	a.seedSettings(ctx, user.ID.String())

	return &authDomain.LoginOutput{
		User:      authDomain.NewProfile(user),
		SessionID: session.ID,
		Token:     plainToken,
		ExpiresAt: now.Add(a.config.SessionTTL),
	}, nil
}

// seedSettings copies the user's durable settings into the cache. Failures are logged;
// reads fall back to the durable store.
func (a *authUseCase) seedSettings(ctx context.Context, userID string) {
	settings, err := a.Settings.ListByEntity(ctx, identityDomain.EntityUser, userID)
	if err != nil {
		a.Logger.Warn("failed to load settings for cache seeding",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return
	}
	for _, setting := range settings {
		err := a.Cache.SetSetting(
			ctx,
			setting.EntityType,
			setting.EntityID,
			setting.Key,
			setting.Value,
			a.config.SettingsTTL,
		)
		if err != nil {
			a.Logger.Warn("failed to seed setting cache",
				slog.String("user_id", userID),
				slog.String("key", setting.Key),
				slog.Any("error", err),
			)
			return
		}
	}
}

// identityProviderTuple places the user on identity_provider:forum with relation.
func identityProviderTuple(relation string, userID uuid.UUID) relationshipDomain.Tuple {
	return relationshipDomain.Tuple{
		ResourceType: relationshipDomain.ResourceIdentityProvider,
		ResourceID:   authDomain.IdentityProviderID,
		Relation:     relation,
		SubjectType:  relationshipDomain.SubjectUser,
		SubjectID:    userID.String(),
	}
}

// FindOrCreateExternalUser creates or refreshes the user linked to an identity provider
// account, mirrors the provider flags as relationship tuples and opens a session.
func (a *authUseCase) FindOrCreateExternalUser(
	ctx context.Context,
	external *identityDomain.ExternalUser,
	meta authDomain.RequestMeta,
) (*authDomain.LoginOutput, error) {
	if strings.TrimSpace(external.ExternalID) == "" {
		return nil, authDomain.ErrInvalidCredentials
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	var user *identityDomain.User
	err := a.TxManager.WithTx(ctx, func(ctx context.Context) error {
		existing, err := a.Users.GetByExternalID(ctx, external.ExternalID)
		switch {
		case errors.Is(err, identityDomain.ErrUserNotFound):
			externalID := external.ExternalID
			user = &identityDomain.User{
				ID:          uuid.Must(uuid.NewV7()),
				ExternalID:  &externalID,
				DisplayName: external.DisplayName,
				AvatarURL:   external.AvatarURL,
				TrustLevel:  external.TrustLevel,
				IsAdmin:     external.IsAdmin,
				IsModerator: external.IsModerator,
				IsActive:    true,
				CreatedAt:   a.now(),
			}
			if err := a.Users.Create(ctx, user); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if !existing.IsActive {
				return authDomain.ErrInvalidCredentials
			}
			existing.DisplayName = external.DisplayName
			existing.AvatarURL = external.AvatarURL
			existing.TrustLevel = external.TrustLevel
			existing.IsAdmin = external.IsAdmin
			existing.IsModerator = external.IsModerator
			if err := a.Users.UpdateProfile(ctx, existing); err != nil {
				return err
			}
			user = existing
		}
		return a.syncIdentityProviderTuples(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	output, err := a.openSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	a.audit(ctx, auditEntry{
		subjectID:    &user.ID,
		action:       identityDomain.AuditActionExternalLogin,
		resourceType: authDomain.AuditResourceSession,
		resourceID:   output.SessionID,
		after:        map[string]any{"external_id": external.ExternalID},
		meta:         meta,
	})
	return output, nil
}

func (a *authUseCase) syncIdentityProviderTuples(ctx context.Context, user *identityDomain.User) error {
	if err := a.Relationships.WriteRelationship(
		ctx,
		identityProviderTuple(relationshipDomain.RelationMember, user.ID),
	); err != nil {
		return err
	}

	flags := []struct {
		relation string
		granted  bool
	}{
		{relationshipDomain.RelationAdmin, user.IsAdmin},
		{relationshipDomain.RelationModerator, user.IsModerator},
	}
	for _, flag := range flags {
		tuple := identityProviderTuple(flag.relation, user.ID)
		var err error
		if flag.granted {
			err = a.Relationships.WriteRelationship(ctx, tuple)
		} else {
			err = a.Relationships.DeleteRelationship(ctx, tuple)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Logout writes a best effort audit entry and then deletes the session.
func (a *authUseCase) Logout(ctx context.Context, sessionID string, meta authDomain.RequestMeta) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	entry := auditEntry{
		action:       identityDomain.AuditActionLogout,
		resourceType: authDomain.AuditResourceSession,
		resourceID:   sessionID,
		meta:         meta,
	}
	if session, err := a.Cache.GetSession(ctx, sessionID); err == nil {
		if subjectID, err := uuid.Parse(session.SubjectID); err == nil {
			entry.subjectID = &subjectID
		}
	}
	a.audit(ctx, entry)

	return a.Cache.DeleteSession(ctx, sessionID)
}

// ValidateSession re-reads the user on every call so a deactivation takes effect on
// the next request. The session of a deactivated user is deleted.
func (a *authUseCase) ValidateSession(ctx context.Context, sessionID, token string) (*cacheDomain.Session, error) {
	if sessionID == "" || token == "" {
		return nil, authDomain.ErrMissingCredentials
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	session, err := a.Cache.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, cacheDomain.ErrSessionNotFound) {
			return nil, authDomain.ErrInvalidSession
		}
		return nil, err
	}

	if !a.Tokens.Matches(token, session.TokenHash) {
		return nil, authDomain.ErrInvalidToken
	}

	userID, err := uuid.Parse(session.SubjectID)
	if err != nil {
		return nil, authDomain.ErrInvalidSession
	}

	user, err := a.Users.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, identityDomain.ErrUserNotFound) {
		return nil, err
	}
	if user == nil || !user.IsActive {
		if err := a.Cache.DeleteSession(ctx, sessionID); err != nil {
			a.Logger.Warn("failed to delete session of inactive user",
				slog.String("session_id", sessionID),
				slog.Any("error", err),
			)
		}
		return nil, authDomain.ErrUserInactive
	}
	return session, nil
}

// Authorize never returns true on error. Checks of update, delete and manage_members
// are audited with their outcome.
func (a *authUseCase) Authorize(
	ctx context.Context,
	subjectID string,
	permission relationshipDomain.Permission,
	resourceType relationshipDomain.ResourceType,
	resourceID string,
) bool {
	allowed, err := a.Relationships.CheckPermission(ctx, subjectID, permission, resourceType, resourceID)
	if err != nil {
		a.Logger.Warn("permission check failed, denying",
			slog.String("subject_id", subjectID),
			slog.String("permission", string(permission)),
			slog.String("resource", string(resourceType)+":"+resourceID),
			slog.Any("error", err),
		)
		allowed = false
	}

	if authDomain.IsSensitive(permission) {
		action := identityDomain.AuditActionAuthorize
		if !allowed {
			action = identityDomain.AuditActionAuthorizeDenied
		}
		entry := auditEntry{
			action:       action,
			resourceType: string(resourceType),
			resourceID:   resourceID,
			after:        map[string]any{"permission": permission, "allowed": allowed},
		}
		if id, err := uuid.Parse(subjectID); err == nil {
			entry.subjectID = &id
		}
		a.audit(ctx, entry)
	}
	return allowed
}

// GetProfile returns the sanitized user for a session subject.
func (a *authUseCase) GetProfile(ctx context.Context, subjectID string) (*authDomain.Profile, error) {
	userID, err := uuid.Parse(subjectID)
	if err != nil {
		return nil, identityDomain.ErrUserNotFound
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	user, err := a.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return authDomain.NewProfile(user), nil
}

// RevokeAllSessions deletes every session of the subject. When the cache is down the
// revocation is queued in the outbox and zero is returned.
func (a *authUseCase) RevokeAllSessions(ctx context.Context, subjectID string) (int, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	deleted, err := a.Cache.DeleteAllSessionsForSubject(ctx, subjectID)
	if err != nil {
		a.Logger.Warn("failed to revoke sessions, queueing retry",
			slog.String("subject_id", subjectID),
			slog.Any("error", err),
		)
		if pubErr := a.Publisher.RevokeSessions(ctx, subjectID); pubErr != nil {
			return 0, apperrors.Join(err, pubErr)
		}
		deleted = 0
	}

	entry := auditEntry{
		action:       identityDomain.AuditActionSessionsRevoked,
		resourceType: authDomain.AuditResourceUser,
		resourceID:   subjectID,
		after:        map[string]any{"deleted": deleted},
	}
	if id, err := uuid.Parse(subjectID); err == nil {
		entry.subjectID = &id
	}
	a.audit(ctx, entry)
	return deleted, nil
}

// DeactivateUser flags the user inactive and queues the session revocation in the same
// transaction, then tries the revocation right away.
func (a *authUseCase) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	err := a.TxManager.WithTx(ctx, func(ctx context.Context) error {
		if err := a.Users.Deactivate(ctx, userID); err != nil {
			return err
		}
		return a.Publisher.RevokeSessions(ctx, userID.String())
	})
	if err != nil {
		return err
	}

	if _, err := a.Cache.DeleteAllSessionsForSubject(ctx, userID.String()); err != nil {
		a.Logger.Warn("session revocation deferred to outbox",
			slog.String("user_id", userID.String()),
			slog.Any("error", err),
		)
	}

	a.audit(ctx, auditEntry{
		subjectID:    &userID,
		action:       identityDomain.AuditActionUserDeactivated,
		resourceType: authDomain.AuditResourceUser,
		resourceID:   userID.String(),
		after:        map[string]any{"is_active": false},
	})
	return nil
}

type auditEntry struct {
	subjectID    *uuid.UUID
	action       string
	resourceType string
	resourceID   string
	before       any
	after        any
	meta         authDomain.RequestMeta
}

// audit appends an entry. Failures are logged and never reach the caller.
func (a *authUseCase) audit(ctx context.Context, entry auditEntry) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	writeAudit(ctx, a.AuditLogs, a.Logger, entry)
}

func writeAudit(ctx context.Context, writer AuditLogWriter, logger *slog.Logger, entry auditEntry) {
	auditLog := &identityDomain.AuditLog{
		SubjectID:    entry.subjectID,
		Action:       entry.action,
		ResourceType: entry.resourceType,
		ResourceID:   entry.resourceID,
		Before:       marshalState(entry.before),
		After:        marshalState(entry.after),
		RequestID:    entry.meta.RequestID,
	}
	if entry.meta.ClientIP != "" {
		ip := entry.meta.ClientIP
		auditLog.IPAddress = &ip
	}
	if entry.meta.UserAgent != "" {
		agent := entry.meta.UserAgent
		auditLog.UserAgent = &agent
	}

	if err := writer.Create(ctx, auditLog); err != nil {
		logger.Error("failed to write audit log",
			slog.String("action", entry.action),
			slog.String("resource_type", entry.resourceType),
			slog.String("resource_id", entry.resourceID),
			slog.Any("error", err),
		)
	}
}

func marshalState(state any) json.RawMessage {
	if state == nil {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return nil
	}
	return data
}
