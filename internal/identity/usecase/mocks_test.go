package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/planner/internal/identity/domain"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

type mockOrganizationRepository struct {
	mock.Mock
}

func (m *mockOrganizationRepository) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	return m.Called(ctx, org).Error(0)
}

func (m *mockOrganizationRepository) GetOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

func (m *mockOrganizationRepository) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrganizationRepository) CreateGroup(ctx context.Context, group *domain.Group) error {
	return m.Called(ctx, group).Error(0)
}

func (m *mockOrganizationRepository) GetGroup(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

func (m *mockOrganizationRepository) DeleteGroupsByOrganization(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockOrganizationRepository) CreateRole(ctx context.Context, role *domain.Role) error {
	return m.Called(ctx, role).Error(0)
}

func (m *mockOrganizationRepository) GetRole(ctx context.Context, id uuid.UUID) (*domain.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *mockOrganizationRepository) DeleteRolesByOrganization(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) get(args mock.Arguments) (*domain.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.get(m.Called(ctx, id))
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.get(m.Called(ctx, email))
}

func (m *mockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	return m.get(m.Called(ctx, externalID))
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *mockUserRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepository) AssignRole(ctx context.Context, userID uuid.UUID, role domain.RoleAssignment) error {
	return m.Called(ctx, userID, role).Error(0)
}

func (m *mockUserRepository) ClearOrganization(ctx context.Context, organizationID uuid.UUID) (int64, error) {
	args := m.Called(ctx, organizationID)
	return args.Get(0).(int64), args.Error(1)
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

func (m *mockRelationshipStore) DeleteResource(
	ctx context.Context,
	ref relationshipDomain.ResourceRef,
) (int64, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(int64), args.Error(1)
}

type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	return m.Called(ctx, auditLog).Error(0)
}

func (m *mockAuditLogRepository) List(
	ctx context.Context,
	offset, limit int,
	filter domain.AuditLogFilter,
) ([]*domain.AuditLog, error) {
	args := m.Called(ctx, offset, limit, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditLog), args.Error(1)
}

func (m *mockAuditLogRepository) ListBetween(
	ctx context.Context,
	start, end time.Time,
	offset, limit int,
) ([]*domain.AuditLog, error) {
	args := m.Called(ctx, start, end, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditLog), args.Error(1)
}

type mockAuditSigner struct {
	mock.Mock
}

func (m *mockAuditSigner) Sign(log *domain.AuditLog) ([]byte, error) {
	args := m.Called(log)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockAuditSigner) Verify(log *domain.AuditLog) error {
	return m.Called(log).Error(0)
}

func (m *mockAuditLogRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
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
