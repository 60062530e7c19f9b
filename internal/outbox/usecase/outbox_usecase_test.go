package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	databaseMocks "github.com/allisson/planner/internal/database/mocks"
	"github.com/allisson/planner/internal/outbox/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pendingEvent(t *testing.T, retries int) *domain.OutboxEvent {
	t.Helper()
	event, err := domain.NewOutboxEvent(domain.EventSessionsRevokeAll, domain.RevokeSessionsPayload{SubjectID: "u1"})
	require.NoError(t, err)
	event.Retries = retries
	return event
}

func TestOutboxUseCase_ProcessEvents(t *testing.T) {
	t.Run("Success_MarksProcessed", func(t *testing.T) {
		txManager := databaseMocks.NewMockTxManager(t)
		repo := &mockOutboxEventRepository{}
		processor := &mockEventProcessor{}
		event := pendingEvent(t, 0)

		txManager.On("WithTx", mock.Anything, mock.Anything).Return(databaseMocks.RunInTx).Once()
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{event}, nil).Once()
		processor.On("Process", mock.Anything, event).Return(nil).Once()
		repo.On("Update", mock.Anything, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.Status == domain.OutboxEventStatusProcessed && e.ProcessedAt != nil
		})).Return(nil).Once()

		uc := NewOutboxUseCase(Config{BatchSize: 10, MaxRetries: 3}, txManager, repo, processor, discardLogger())
		require.NoError(t, uc.ProcessEvents(context.Background()))

		repo.AssertExpectations(t)
		processor.AssertExpectations(t)
	})

	t.Run("Success_FailureKeepsPending", func(t *testing.T) {
		txManager := databaseMocks.NewMockTxManager(t)
		repo := &mockOutboxEventRepository{}
		processor := &mockEventProcessor{}
		event := pendingEvent(t, 0)

		txManager.On("WithTx", mock.Anything, mock.Anything).Return(databaseMocks.RunInTx).Once()
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{event}, nil).Once()
		processor.On("Process", mock.Anything, event).Return(errors.New("cache down")).Once()
		repo.On("Update", mock.Anything, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.Status == domain.OutboxEventStatusPending && e.Retries == 1
		})).Return(nil).Once()

		uc := NewOutboxUseCase(Config{BatchSize: 10, MaxRetries: 3}, txManager, repo, processor, discardLogger())
		require.NoError(t, uc.ProcessEvents(context.Background()))

		repo.AssertExpectations(t)
	})

	t.Run("Success_ExhaustedRetriesMarksFailed", func(t *testing.T) {
		txManager := databaseMocks.NewMockTxManager(t)
		repo := &mockOutboxEventRepository{}
		processor := &mockEventProcessor{}
		event := pendingEvent(t, 2)

		txManager.On("WithTx", mock.Anything, mock.Anything).Return(databaseMocks.RunInTx).Once()
		repo.On("GetPendingEvents", mock.Anything, 10).Return([]*domain.OutboxEvent{event}, nil).Once()
		processor.On("Process", mock.Anything, event).Return(errors.New("cache down")).Once()
		repo.On("Update", mock.Anything, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
			return e.Status == domain.OutboxEventStatusFailed && e.Retries == 3
		})).Return(nil).Once()

		uc := NewOutboxUseCase(Config{BatchSize: 10, MaxRetries: 3}, txManager, repo, processor, discardLogger())
		require.NoError(t, uc.ProcessEvents(context.Background()))

		repo.AssertExpectations(t)
	})

	t.Run("Success_NoEvents", func(t *testing.T) {
		txManager := databaseMocks.NewMockTxManager(t)
		repo := &mockOutboxEventRepository{}
		processor := &mockEventProcessor{}

		txManager.On("WithTx", mock.Anything, mock.Anything).Return(databaseMocks.RunInTx).Once()
		repo.On("GetPendingEvents", mock.Anything, 100).Return([]*domain.OutboxEvent{}, nil).Once()

		uc := NewOutboxUseCase(Config{}, txManager, repo, processor, discardLogger())
		require.NoError(t, uc.ProcessEvents(context.Background()))

		processor.AssertNotCalled(t, "Process", mock.Anything, mock.Anything)
	})

	t.Run("Error_GetPendingEvents", func(t *testing.T) {
		txManager := databaseMocks.NewMockTxManager(t)
		repo := &mockOutboxEventRepository{}
		repoErr := errors.New("db down")

		txManager.On("WithTx", mock.Anything, mock.Anything).Return(databaseMocks.RunInTx).Once()
		repo.On("GetPendingEvents", mock.Anything, 100).Return(nil, repoErr).Once()

		uc := NewOutboxUseCase(Config{}, txManager, repo, &mockEventProcessor{}, discardLogger())
		assert.ErrorIs(t, uc.ProcessEvents(context.Background()), repoErr)
	})

	t.Run("Error_Update", func(t *testing.T) {
		txManager := databaseMocks.NewMockTxManager(t)
		repo := &mockOutboxEventRepository{}
		processor := &mockEventProcessor{}
		event := pendingEvent(t, 0)
		updateErr := errors.New("db down")

		txManager.On("WithTx", mock.Anything, mock.Anything).Return(databaseMocks.RunInTx).Once()
		repo.On("GetPendingEvents", mock.Anything, 100).Return([]*domain.OutboxEvent{event}, nil).Once()
		processor.On("Process", mock.Anything, event).Return(nil).Once()
		repo.On("Update", mock.Anything, event).Return(updateErr).Once()

		uc := NewOutboxUseCase(Config{}, txManager, repo, processor, discardLogger())
		assert.ErrorIs(t, uc.ProcessEvents(context.Background()), updateErr)
	})
}

func TestOutboxUseCase_Start(t *testing.T) {
	txManager := databaseMocks.NewMockTxManager(t)
	repo := &mockOutboxEventRepository{}

	txManager.On("WithTx", mock.Anything, mock.Anything).Return(databaseMocks.RunInTx).Maybe()
	repo.On("GetPendingEvents", mock.Anything, 100).Return([]*domain.OutboxEvent{}, nil).Maybe()

	uc := NewOutboxUseCase(
		Config{Interval: 5 * time.Millisecond},
		txManager,
		repo,
		&mockEventProcessor{},
		discardLogger(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := uc.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
