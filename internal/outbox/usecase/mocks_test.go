package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/allisson/planner/internal/outbox/domain"
)

type mockOutboxEventRepository struct {
	mock.Mock
}

func (m *mockOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockOutboxEventRepository) GetPendingEvents(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *mockOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockEventProcessor struct {
	mock.Mock
}

func (m *mockEventProcessor) Process(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type mockCacheInvalidator struct {
	mock.Mock
}

func (m *mockCacheInvalidator) DeleteAllSessionsForSubject(ctx context.Context, subjectID string) (int, error) {
	args := m.Called(ctx, subjectID)
	return args.Int(0), args.Error(1)
}

func (m *mockCacheInvalidator) InvalidateSetting(ctx context.Context, entityType, entityID, key string) error {
	args := m.Called(ctx, entityType, entityID, key)
	return args.Error(0)
}
