// Package mocks provides mock implementations of the authorization service for testing.
package mocks

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	authDomain "github.com/allisson/planner/internal/auth/domain"
	"github.com/allisson/planner/internal/auth/usecase"
	cacheDomain "github.com/allisson/planner/internal/cache/domain"
	identityDomain "github.com/allisson/planner/internal/identity/domain"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

// MockAuthUseCase is a mock implementation of AuthUseCase.
type MockAuthUseCase struct {
	mock.Mock
}

// Register mocks the Register method.
func (m *MockAuthUseCase) Register(
	ctx context.Context,
	input *authDomain.RegisterInput,
) (*authDomain.Profile, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Profile), args.Error(1)
}

// Login mocks the Login method.
func (m *MockAuthUseCase) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.LoginOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.LoginOutput), args.Error(1)
}

// FindOrCreateExternalUser mocks the FindOrCreateExternalUser method.
func (m *MockAuthUseCase) FindOrCreateExternalUser(
	ctx context.Context,
	external *identityDomain.ExternalUser,
	meta authDomain.RequestMeta,
) (*authDomain.LoginOutput, error) {
	args := m.Called(ctx, external, meta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.LoginOutput), args.Error(1)
}

// Logout mocks the Logout method.
func (m *MockAuthUseCase) Logout(ctx context.Context, sessionID string, meta authDomain.RequestMeta) error {
	return m.Called(ctx, sessionID, meta).Error(0)
}

// ValidateSession mocks the ValidateSession method.
func (m *MockAuthUseCase) ValidateSession(
	ctx context.Context,
	sessionID, token string,
) (*cacheDomain.Session, error) {
	args := m.Called(ctx, sessionID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cacheDomain.Session), args.Error(1)
}

// Authorize mocks the Authorize method.
func (m *MockAuthUseCase) Authorize(
	ctx context.Context,
	subjectID string,
	permission relationshipDomain.Permission,
	resourceType relationshipDomain.ResourceType,
	resourceID string,
) bool {
	return m.Called(ctx, subjectID, permission, resourceType, resourceID).Bool(0)
}

// GetProfile mocks the GetProfile method.
func (m *MockAuthUseCase) GetProfile(ctx context.Context, subjectID string) (*authDomain.Profile, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.Profile), args.Error(1)
}

// RevokeAllSessions mocks the RevokeAllSessions method.
func (m *MockAuthUseCase) RevokeAllSessions(ctx context.Context, subjectID string) (int, error) {
	args := m.Called(ctx, subjectID)
	return args.Int(0), args.Error(1)
}

// DeactivateUser mocks the DeactivateUser method.
func (m *MockAuthUseCase) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// MockSettingUseCase is a mock implementation of SettingUseCase.
type MockSettingUseCase struct {
	mock.Mock
}

// GetSetting mocks the GetSetting method.
func (m *MockSettingUseCase) GetSetting(
	ctx context.Context,
	entityType, entityID, key string,
) (json.RawMessage, error) {
	args := m.Called(ctx, entityType, entityID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

// SetSetting mocks the SetSetting method.
func (m *MockSettingUseCase) SetSetting(
	ctx context.Context,
	entityType, entityID, key string,
	value json.RawMessage,
) error {
	return m.Called(ctx, entityType, entityID, key, value).Error(0)
}

// DeleteSetting mocks the DeleteSetting method.
func (m *MockSettingUseCase) DeleteSetting(ctx context.Context, entityType, entityID, key string) error {
	return m.Called(ctx, entityType, entityID, key).Error(0)
}

// ListSettings mocks the ListSettings method.
func (m *MockSettingUseCase) ListSettings(
	ctx context.Context,
	entityType, entityID string,
) (map[string]json.RawMessage, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]json.RawMessage), args.Error(1)
}

var (
	_ usecase.AuthUseCase    = (*MockAuthUseCase)(nil)
	_ usecase.SettingUseCase = (*MockSettingUseCase)(nil)
)
