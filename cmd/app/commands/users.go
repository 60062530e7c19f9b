package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	authUseCase "github.com/allisson/planner/internal/auth/usecase"
)

// RunDeactivateUser disables the account and revokes every session it holds.
func RunDeactivateUser(
	ctx context.Context,
	auth authUseCase.AuthUseCase,
	logger *slog.Logger,
	writer io.Writer,
	userID string,
	format string,
) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	if err := auth.DeactivateUser(ctx, id); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	logger.Info("user deactivated", slog.String("user_id", id.String()))
	return writeResult(
		writer,
		format,
		map[string]any{"user_id": id.String(), "deactivated": true},
		fmt.Sprintf("Deactivated user %s", id),
	)
}

// RunRevokeSessions deletes every session of the subject, forcing it to log in again.
func RunRevokeSessions(
	ctx context.Context,
	auth authUseCase.AuthUseCase,
	logger *slog.Logger,
	writer io.Writer,
	subjectID string,
	format string,
) error {
	if subjectID == "" {
		return fmt.Errorf("subject id is required")
	}

	count, err := auth.RevokeAllSessions(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	logger.Info("sessions revoked", slog.String("subject_id", subjectID), slog.Int("count", count))
	return writeResult(
		writer,
		format,
		map[string]any{"subject_id": subjectID, "count": count},
		fmt.Sprintf("Revoked %d session(s) of %s", count, subjectID),
	)
}
