package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/identity/domain"
)

const verifyBatchSize = 500

// auditLogUseCase implements AuditLogUseCase.
type auditLogUseCase struct {
	auditLogRepo AuditLogRepository
	signer       AuditSigner
}

// Create fills in the id and timestamp when absent, signs the entry when a signer is
// configured and persists it.
func (a *auditLogUseCase) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.Must(uuid.NewV7())
	}
	if auditLog.CreatedAt.IsZero() {
		auditLog.CreatedAt = time.Now().UTC()
	}
	// Signed over the stored precision.
	auditLog.CreatedAt = auditLog.CreatedAt.Truncate(time.Microsecond)

	if a.signer != nil {
		signature, err := a.signer.Sign(auditLog)
		if err != nil {
			return apperrors.Wrap(err, "failed to sign audit log")
		}
		auditLog.Signature = signature
		auditLog.IsSigned = true
	}
	return a.auditLogRepo.Create(ctx, auditLog)
}

// List retrieves the audit logs of one resource newest first.
func (a *auditLogUseCase) List(
	ctx context.Context,
	offset, limit int,
	filter domain.AuditLogFilter,
) ([]*domain.AuditLog, error) {
	return a.auditLogRepo.List(ctx, offset, limit, filter)
}

// DeleteOlderThan removes entries older than the given number of days.
func (a *auditLogUseCase) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, domain.ErrInvalidRetention
	}
	before := time.Now().UTC().AddDate(0, 0, -days)
	return a.auditLogRepo.DeleteOlderThan(ctx, before)
}

// VerifyBatch pages through the range and counts valid, invalid and unsigned entries.
func (a *auditLogUseCase) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*domain.VerificationReport, error) {
	if a.signer == nil {
		return nil, domain.ErrAuditSigningDisabled
	}

	report := &domain.VerificationReport{InvalidLogs: make([]uuid.UUID, 0)}
	for offset := 0; ; offset += verifyBatchSize {
		logs, err := a.auditLogRepo.ListBetween(ctx, start, end, offset, verifyBatchSize)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to list audit logs for verification")
		}

		for _, log := range logs {
			report.TotalChecked++
			if !log.HasSignature() {
				report.UnsignedCount++
				continue
			}
			report.SignedCount++
			if err := a.signer.Verify(log); err != nil {
				report.InvalidCount++
				report.InvalidLogs = append(report.InvalidLogs, log.ID)
				continue
			}
			report.ValidCount++
		}

		if len(logs) < verifyBatchSize {
			return report, nil
		}
	}
}

// NewAuditLogUseCase creates a new AuditLogUseCase. A nil signer stores entries unsigned.
func NewAuditLogUseCase(auditLogRepo AuditLogRepository, signer AuditSigner) AuditLogUseCase {
	return &auditLogUseCase{auditLogRepo: auditLogRepo, signer: signer}
}
