package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	identityDomain "github.com/allisson/planner/internal/identity/domain"
	identityUseCase "github.com/allisson/planner/internal/identity/usecase"
)

// RunVerifyAuditLogs checks the signatures of the audit logs created in [start, end)
// and fails when any entry was tampered with.
func RunVerifyAuditLogs(
	ctx context.Context,
	auditLogUseCase identityUseCase.AuditLogUseCase,
	logger *slog.Logger,
	writer io.Writer,
	startDate, endDate string,
	format string,
) error {
	start, err := parseDate(startDate)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	end, err := parseDate(endDate)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}
	if !end.After(start) {
		return fmt.Errorf("end date must be after start date")
	}

	logger.Info("verifying audit logs", slog.Time("start_date", start), slog.Time("end_date", end))

	report, err := auditLogUseCase.VerifyBatch(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to verify audit logs: %w", err)
	}

	result := map[string]any{
		"total_checked":  report.TotalChecked,
		"signed_count":   report.SignedCount,
		"unsigned_count": report.UnsignedCount,
		"valid_count":    report.ValidCount,
		"invalid_count":  report.InvalidCount,
		"invalid_logs":   report.InvalidLogs,
		"passed":         report.InvalidCount == 0,
	}
	if err := writeResult(writer, format, result, verifyText(report, start, end)); err != nil {
		return err
	}

	logger.Info("verification completed",
		slog.Int64("total_checked", report.TotalChecked),
		slog.Int64("valid", report.ValidCount),
		slog.Int64("invalid", report.InvalidCount),
		slog.Int64("unsigned", report.UnsignedCount),
	)

	if report.InvalidCount > 0 {
		return fmt.Errorf("integrity check failed: %d invalid signature(s)", report.InvalidCount)
	}
	return nil
}

// parseDate accepts "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS" in UTC.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateTime, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or YYYY-MM-DD HH:MM:SS, got %q", value)
	}
	return t, nil
}

func verifyText(report *identityDomain.VerificationReport, start, end time.Time) string {
	text := fmt.Sprintf("Audit log verification %s to %s\n", start.Format(time.DateTime), end.Format(time.DateTime))
	text += fmt.Sprintf("Total checked: %d\nSigned: %d\nUnsigned: %d\nValid: %d\nInvalid: %d\n",
		report.TotalChecked, report.SignedCount, report.UnsignedCount, report.ValidCount, report.InvalidCount)

	switch {
	case report.InvalidCount > 0:
		text += "Invalid log ids:\n"
		for _, id := range report.InvalidLogs {
			text += "  - " + id.String() + "\n"
		}
		text += "Status: FAILED"
	case report.TotalChecked == 0:
		text += "Status: no logs in range"
	default:
		text += "Status: PASSED"
	}
	return text
}
