// Package mocks provides mock implementations of the relationship use cases for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/planner/internal/relationship/domain"
)

// MockRelationshipUseCase is a mock implementation of RelationshipUseCase.
type MockRelationshipUseCase struct {
	mock.Mock
}

// CheckPermission mocks the CheckPermission method.
func (m *MockRelationshipUseCase) CheckPermission(
	ctx context.Context,
	subjectID string,
	permission domain.Permission,
	resourceType domain.ResourceType,
	resourceID string,
) (bool, error) {
	args := m.Called(ctx, subjectID, permission, resourceType, resourceID)
	return args.Bool(0), args.Error(1)
}

// WriteRelationship mocks the WriteRelationship method.
func (m *MockRelationshipUseCase) WriteRelationship(ctx context.Context, tuple domain.Tuple) error {
	args := m.Called(ctx, tuple)
	return args.Error(0)
}

// AttachParent mocks the AttachParent method.
func (m *MockRelationshipUseCase) AttachParent(ctx context.Context, tuple domain.Tuple) error {
	args := m.Called(ctx, tuple)
	return args.Error(0)
}

// DeleteRelationship mocks the DeleteRelationship method.
func (m *MockRelationshipUseCase) DeleteRelationship(ctx context.Context, tuple domain.Tuple) error {
	args := m.Called(ctx, tuple)
	return args.Error(0)
}

// ReadRelationships mocks the ReadRelationships method.
func (m *MockRelationshipUseCase) ReadRelationships(
	ctx context.Context,
	resourceType domain.ResourceType,
	resourceID, relation string,
) ([]*domain.Tuple, error) {
	args := m.Called(ctx, resourceType, resourceID, relation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tuple), args.Error(1)
}

// LookupResources mocks the LookupResources method.
func (m *MockRelationshipUseCase) LookupResources(
	ctx context.Context,
	subjectID string,
	permission domain.Permission,
	resourceType domain.ResourceType,
) ([]string, error) {
	args := m.Called(ctx, subjectID, permission, resourceType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// DeleteResource mocks the DeleteResource method.
func (m *MockRelationshipUseCase) DeleteResource(ctx context.Context, ref domain.ResourceRef) (int64, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(int64), args.Error(1)
}
