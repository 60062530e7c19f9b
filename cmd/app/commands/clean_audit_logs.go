package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	identityUseCase "github.com/allisson/planner/internal/identity/usecase"
)

// RunCleanAuditLogs deletes audit logs older than days and reports how many were removed.
func RunCleanAuditLogs(
	ctx context.Context,
	auditLogUseCase identityUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	days int,
	format string,
) error {
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	logger.Info("cleaning audit logs", slog.Int("days", days))

	count, err := auditLogUseCase.DeleteOlderThan(ctx, days)
	if err != nil {
		return fmt.Errorf("failed to delete audit logs: %w", err)
	}

	result := map[string]any{"count": count, "days": days}
	text := fmt.Sprintf("Successfully deleted %d audit log(s) older than %d day(s)", count, days)
	if err := writeResult(writer, format, result, text); err != nil {
		return err
	}

	logger.Info("cleanup completed", slog.Int64("count", count), slog.Int("days", days))
	return nil
}
