// Package mocks provides mock implementations of the identity use cases for testing.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/planner/internal/identity/domain"
	"github.com/allisson/planner/internal/identity/usecase"
)

// MockOrganizationUseCase is a mock implementation of OrganizationUseCase.
type MockOrganizationUseCase struct {
	mock.Mock
}

// CreateOrganization mocks the CreateOrganization method.
func (m *MockOrganizationUseCase) CreateOrganization(
	ctx context.Context,
	ownerID uuid.UUID,
	name string,
) (*domain.Organization, error) {
	args := m.Called(ctx, ownerID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

// GetOrganization mocks the GetOrganization method.
func (m *MockOrganizationUseCase) GetOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Organization), args.Error(1)
}

// CreateGroup mocks the CreateGroup method.
func (m *MockOrganizationUseCase) CreateGroup(
	ctx context.Context,
	organizationID uuid.UUID,
	name string,
) (*domain.Group, error) {
	args := m.Called(ctx, organizationID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Group), args.Error(1)
}

// CreateRole mocks the CreateRole method.
func (m *MockOrganizationUseCase) CreateRole(ctx context.Context, input *usecase.CreateRoleInput) (*domain.Role, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

// AssignRole mocks the AssignRole method.
func (m *MockOrganizationUseCase) AssignRole(ctx context.Context, input *usecase.AssignRoleInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

// DeleteOrganization mocks the DeleteOrganization method.
func (m *MockOrganizationUseCase) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// HasRolePermission mocks the HasRolePermission method.
func (m *MockOrganizationUseCase) HasRolePermission(
	ctx context.Context,
	userID, organizationID uuid.UUID,
	permission string,
) (*domain.RoleCheck, error) {
	args := m.Called(ctx, userID, organizationID, permission)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RoleCheck), args.Error(1)
}

// MockAuditLogUseCase is a mock implementation of AuditLogUseCase.
type MockAuditLogUseCase struct {
	mock.Mock
}

// Create mocks the Create method.
func (m *MockAuditLogUseCase) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	args := m.Called(ctx, auditLog)
	return args.Error(0)
}

// List mocks the List method.
func (m *MockAuditLogUseCase) List(
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

// DeleteOlderThan mocks the DeleteOlderThan method.
func (m *MockAuditLogUseCase) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	args := m.Called(ctx, days)
	return args.Get(0).(int64), args.Error(1)
}

// VerifyBatch mocks the VerifyBatch method.
func (m *MockAuditLogUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*domain.VerificationReport, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VerificationReport), args.Error(1)
}
