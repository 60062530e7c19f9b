package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/planner/internal/auth/domain"
	cacheDomain "github.com/allisson/planner/internal/cache/domain"
	identityDomain "github.com/allisson/planner/internal/identity/domain"
	"github.com/allisson/planner/internal/metrics"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

func recordOperation(
	ctx context.Context,
	m metrics.BusinessMetrics,
	operation string,
	start time.Time,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RecordOperation(ctx, "auth", operation, status)
	m.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// authUseCaseWithMetrics decorates AuthUseCase with metrics instrumentation.
type authUseCaseWithMetrics struct {
	next    AuthUseCase
	metrics metrics.BusinessMetrics
}

// NewAuthUseCaseWithMetrics wraps an AuthUseCase with metrics recording.
func NewAuthUseCaseWithMetrics(useCase AuthUseCase, m metrics.BusinessMetrics) AuthUseCase {
	return &authUseCaseWithMetrics{next: useCase, metrics: m}
}

func (a *authUseCaseWithMetrics) Register(
	ctx context.Context,
	input *authDomain.RegisterInput,
) (*authDomain.Profile, error) {
	start := time.Now()
	profile, err := a.next.Register(ctx, input)
	recordOperation(ctx, a.metrics, "register", start, err)
	return profile, err
}

func (a *authUseCaseWithMetrics) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.LoginOutput, error) {
	start := time.Now()
	output, err := a.next.Login(ctx, input)
	recordOperation(ctx, a.metrics, "login", start, err)

	outcome := "allowed"
	if errors.Is(err, authDomain.ErrRateLimited) {
		outcome = "limited"
	}
	a.metrics.RecordRateLimit(ctx, authDomain.ActionLogin, outcome)
	return output, err
}

func (a *authUseCaseWithMetrics) FindOrCreateExternalUser(
	ctx context.Context,
	external *identityDomain.ExternalUser,
	meta authDomain.RequestMeta,
) (*authDomain.LoginOutput, error) {
	start := time.Now()
	output, err := a.next.FindOrCreateExternalUser(ctx, external, meta)
	recordOperation(ctx, a.metrics, "external_login", start, err)
	return output, err
}

func (a *authUseCaseWithMetrics) Logout(ctx context.Context, sessionID string, meta authDomain.RequestMeta) error {
	start := time.Now()
	err := a.next.Logout(ctx, sessionID, meta)
	recordOperation(ctx, a.metrics, "logout", start, err)
	return err
}

func (a *authUseCaseWithMetrics) ValidateSession(
	ctx context.Context,
	sessionID, token string,
) (*cacheDomain.Session, error) {
	start := time.Now()
	session, err := a.next.ValidateSession(ctx, sessionID, token)
	recordOperation(ctx, a.metrics, "session_validate", start, err)
	return session, err
}

// Authorize records the decision per resource type and permission.
func (a *authUseCaseWithMetrics) Authorize(
	ctx context.Context,
	subjectID string,
	permission relationshipDomain.Permission,
	resourceType relationshipDomain.ResourceType,
	resourceID string,
) bool {
	start := time.Now()
	allowed := a.next.Authorize(ctx, subjectID, permission, resourceType, resourceID)
	recordOperation(ctx, a.metrics, "authorize", start, nil)

	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	a.metrics.RecordAuthorization(ctx, string(resourceType), string(permission), outcome)
	return allowed
}

func (a *authUseCaseWithMetrics) GetProfile(ctx context.Context, subjectID string) (*authDomain.Profile, error) {
	start := time.Now()
	profile, err := a.next.GetProfile(ctx, subjectID)
	recordOperation(ctx, a.metrics, "profile_get", start, err)
	return profile, err
}

func (a *authUseCaseWithMetrics) RevokeAllSessions(ctx context.Context, subjectID string) (int, error) {
	start := time.Now()
	deleted, err := a.next.RevokeAllSessions(ctx, subjectID)
	recordOperation(ctx, a.metrics, "sessions_revoke", start, err)
	return deleted, err
}

func (a *authUseCaseWithMetrics) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	start := time.Now()
	err := a.next.DeactivateUser(ctx, userID)
	recordOperation(ctx, a.metrics, "user_deactivate", start, err)
	return err
}

// settingUseCaseWithMetrics decorates SettingUseCase with metrics instrumentation.
type settingUseCaseWithMetrics struct {
	next    SettingUseCase
	metrics metrics.BusinessMetrics
}

// NewSettingUseCaseWithMetrics wraps a SettingUseCase with metrics recording.
func NewSettingUseCaseWithMetrics(useCase SettingUseCase, m metrics.BusinessMetrics) SettingUseCase {
	return &settingUseCaseWithMetrics{next: useCase, metrics: m}
}

func (s *settingUseCaseWithMetrics) GetSetting(
	ctx context.Context,
	entityType, entityID, key string,
) (json.RawMessage, error) {
	start := time.Now()
	value, err := s.next.GetSetting(ctx, entityType, entityID, key)
	recordOperation(ctx, s.metrics, "setting_get", start, err)
	return value, err
}

func (s *settingUseCaseWithMetrics) SetSetting(
	ctx context.Context,
	entityType, entityID, key string,
	value json.RawMessage,
) error {
	start := time.Now()
	err := s.next.SetSetting(ctx, entityType, entityID, key, value)
	recordOperation(ctx, s.metrics, "setting_set", start, err)
	return err
}

func (s *settingUseCaseWithMetrics) DeleteSetting(ctx context.Context, entityType, entityID, key string) error {
	start := time.Now()
	err := s.next.DeleteSetting(ctx, entityType, entityID, key)
	recordOperation(ctx, s.metrics, "setting_delete", start, err)
	return err
}

func (s *settingUseCaseWithMetrics) ListSettings(
	ctx context.Context,
	entityType, entityID string,
) (map[string]json.RawMessage, error) {
	start := time.Now()
	values, err := s.next.ListSettings(ctx, entityType, entityID)
	recordOperation(ctx, s.metrics, "setting_list", start, err)
	return values, err
}
