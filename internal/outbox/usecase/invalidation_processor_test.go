package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/planner/internal/outbox/domain"
)

func TestInvalidationProcessor_Process(t *testing.T) {
	t.Run("Success_RevokeSessions", func(t *testing.T) {
		cache := &mockCacheInvalidator{}
		cache.On("DeleteAllSessionsForSubject", mock.Anything, "u1").Return(2, nil).Once()
		event, err := domain.NewOutboxEvent(domain.EventSessionsRevokeAll, domain.RevokeSessionsPayload{SubjectID: "u1"})
		require.NoError(t, err)

		require.NoError(t, NewInvalidationProcessor(cache, discardLogger()).Process(context.Background(), event))
		cache.AssertExpectations(t)
	})

	t.Run("Success_InvalidateSetting", func(t *testing.T) {
		cache := &mockCacheInvalidator{}
		cache.On("InvalidateSetting", mock.Anything, "user", "u1", "*").Return(nil).Once()
		event, err := domain.NewOutboxEvent(
			domain.EventSettingInvalidate,
			domain.InvalidateSettingPayload{EntityType: "user", EntityID: "u1", Key: "*"},
		)
		require.NoError(t, err)

		require.NoError(t, NewInvalidationProcessor(cache, discardLogger()).Process(context.Background(), event))
		cache.AssertExpectations(t)
	})

	t.Run("Success_UnknownTypeAcknowledged", func(t *testing.T) {
		cache := &mockCacheInvalidator{}
		event := &domain.OutboxEvent{EventType: "board.archived", Payload: "{}"}

		require.NoError(t, NewInvalidationProcessor(cache, discardLogger()).Process(context.Background(), event))
		cache.AssertNotCalled(t, "InvalidateSetting", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_CacheUnavailable", func(t *testing.T) {
		cache := &mockCacheInvalidator{}
		cacheErr := errors.New("redis: connection refused")
		cache.On("DeleteAllSessionsForSubject", mock.Anything, "u1").Return(0, cacheErr).Once()
		event, err := domain.NewOutboxEvent(domain.EventSessionsRevokeAll, domain.RevokeSessionsPayload{SubjectID: "u1"})
		require.NoError(t, err)

		err = NewInvalidationProcessor(cache, discardLogger()).Process(context.Background(), event)
		assert.ErrorIs(t, err, cacheErr)
	})

	t.Run("Error_InvalidPayload", func(t *testing.T) {
		event := &domain.OutboxEvent{EventType: domain.EventSettingInvalidate, Payload: "not json"}

		err := NewInvalidationProcessor(&mockCacheInvalidator{}, discardLogger()).Process(context.Background(), event)
		assert.Error(t, err)
	})
}
