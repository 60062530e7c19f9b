package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cacheDomain "github.com/allisson/planner/internal/cache/domain"
	identityDomain "github.com/allisson/planner/internal/identity/domain"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *identityDomain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*identityDomain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*identityDomain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.User), args.Error(1)
}

func (m *mockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*identityDomain.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.User), args.Error(1)
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *identityDomain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockUserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepository) AssignRole(
	ctx context.Context,
	userID uuid.UUID,
	role identityDomain.RoleAssignment,
) error {
	return m.Called(ctx, userID, role).Error(0)
}

type mockSettingRepository struct {
	mock.Mock
}

func (m *mockSettingRepository) Get(
	ctx context.Context,
	entityType, entityID, key string,
) (*identityDomain.Setting, error) {
	args := m.Called(ctx, entityType, entityID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Setting), args.Error(1)
}

func (m *mockSettingRepository) Upsert(ctx context.Context, setting *identityDomain.Setting) error {
	return m.Called(ctx, setting).Error(0)
}

func (m *mockSettingRepository) Delete(ctx context.Context, entityType, entityID, key string) error {
	return m.Called(ctx, entityType, entityID, key).Error(0)
}

func (m *mockSettingRepository) ListByEntity(
	ctx context.Context,
	entityType, entityID string,
) ([]*identityDomain.Setting, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*identityDomain.Setting), args.Error(1)
}

type mockOrganizationCreator struct {
	mock.Mock
}

func (m *mockOrganizationCreator) CreateOrganization(
	ctx context.Context,
	ownerID uuid.UUID,
	name string,
) (*identityDomain.Organization, error) {
	args := m.Called(ctx, ownerID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identityDomain.Organization), args.Error(1)
}

type mockAuditLogWriter struct {
	mock.Mock
}

func (m *mockAuditLogWriter) Create(ctx context.Context, auditLog *identityDomain.AuditLog) error {
	return m.Called(ctx, auditLog).Error(0)
}

type mockRelationshipStore struct {
	mock.Mock
}

func (m *mockRelationshipStore) CheckPermission(
	ctx context.Context,
	subjectID string,
	permission relationshipDomain.Permission,
	resourceType relationshipDomain.ResourceType,
	resourceID string,
) (bool, error) {
	args := m.Called(ctx, subjectID, permission, resourceType, resourceID)
	return args.Bool(0), args.Error(1)
}

func (m *mockRelationshipStore) WriteRelationship(ctx context.Context, tuple relationshipDomain.Tuple) error {
	return m.Called(ctx, tuple).Error(0)
}

func (m *mockRelationshipStore) DeleteRelationship(ctx context.Context, tuple relationshipDomain.Tuple) error {
	return m.Called(ctx, tuple).Error(0)
}

type mockSessionCache struct {
	mock.Mock
}

func (m *mockSessionCache) CreateSession(ctx context.Context, session *cacheDomain.Session, ttl time.Duration) error {
	return m.Called(ctx, session, ttl).Error(0)
}

func (m *mockSessionCache) GetSession(ctx context.Context, id string) (*cacheDomain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cacheDomain.Session), args.Error(1)
}

func (m *mockSessionCache) DeleteSession(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSessionCache) DeleteAllSessionsForSubject(ctx context.Context, subjectID string) (int, error) {
	args := m.Called(ctx, subjectID)
	return args.Int(0), args.Error(1)
}

func (m *mockSessionCache) GetSetting(ctx context.Context, entityType, entityID, key string) ([]byte, bool, error) {
	args := m.Called(ctx, entityType, entityID, key)
	var value []byte
	if v := args.Get(0); v != nil {
		value = v.([]byte)
	}
	return value, args.Bool(1), args.Error(2)
}

func (m *mockSessionCache) SetSetting(
	ctx context.Context,
	entityType, entityID, key string,
	value []byte,
	ttl time.Duration,
) error {
	return m.Called(ctx, entityType, entityID, key, value, ttl).Error(0)
}

func (m *mockSessionCache) InvalidateSetting(ctx context.Context, entityType, entityID, key string) error {
	return m.Called(ctx, entityType, entityID, key).Error(0)
}

func (m *mockSessionCache) CheckRateLimit(
	ctx context.Context,
	identifier, action string,
	max int,
	window time.Duration,
) (*cacheDomain.RateLimitResult, error) {
	args := m.Called(ctx, identifier, action, max, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cacheDomain.RateLimitResult), args.Error(1)
}

type mockInvalidationPublisher struct {
	mock.Mock
}

func (m *mockInvalidationPublisher) RevokeSessions(ctx context.Context, subjectID string) error {
	return m.Called(ctx, subjectID).Error(0)
}

func (m *mockInvalidationPublisher) InvalidateSetting(ctx context.Context, entityType, entityID, key string) error {
	return m.Called(ctx, entityType, entityID, key).Error(0)
}

type mockPasswordService struct {
	mock.Mock
}

func (m *mockPasswordService) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordService) Verify(password, hash string) bool {
	return m.Called(password, hash).Bool(0)
}

type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

func (m *mockBusinessMetrics) RecordAuthorization(ctx context.Context, resourceType, permission, outcome string) {
	m.Called(ctx, resourceType, permission, outcome)
}

func (m *mockBusinessMetrics) RecordRateLimit(ctx context.Context, action, outcome string) {
	m.Called(ctx, action, outcome)
}

func (m *mockBusinessMetrics) RecordCacheLookup(ctx context.Context, cache string, hit bool) {
	m.Called(ctx, cache, hit)
}

func (m *mockBusinessMetrics) RecordAuditFailure(ctx context.Context, action string) {
	m.Called(ctx, action)
}
