package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/planner/internal/identity/domain"
	"github.com/allisson/planner/internal/metrics"
)

func recordOperation(
	ctx context.Context,
	m metrics.BusinessMetrics,
	operation string,
	start time.Time,
	err error,
) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RecordOperation(ctx, "identity", operation, status)
	m.RecordDuration(ctx, "identity", operation, time.Since(start), status)
}

// organizationUseCaseWithMetrics decorates OrganizationUseCase with metrics instrumentation.
type organizationUseCaseWithMetrics struct {
	next    OrganizationUseCase
	metrics metrics.BusinessMetrics
}

// NewOrganizationUseCaseWithMetrics wraps an OrganizationUseCase with metrics recording.
func NewOrganizationUseCaseWithMetrics(useCase OrganizationUseCase, m metrics.BusinessMetrics) OrganizationUseCase {
	return &organizationUseCaseWithMetrics{next: useCase, metrics: m}
}

func (o *organizationUseCaseWithMetrics) CreateOrganization(
	ctx context.Context,
	ownerID uuid.UUID,
	name string,
) (*domain.Organization, error) {
	start := time.Now()
	org, err := o.next.CreateOrganization(ctx, ownerID, name)
	recordOperation(ctx, o.metrics, "organization_create", start, err)
	return org, err
}

func (o *organizationUseCaseWithMetrics) GetOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	start := time.Now()
	org, err := o.next.GetOrganization(ctx, id)
	recordOperation(ctx, o.metrics, "organization_get", start, err)
	return org, err
}

func (o *organizationUseCaseWithMetrics) CreateGroup(
	ctx context.Context,
	organizationID uuid.UUID,
	name string,
) (*domain.Group, error) {
	start := time.Now()
	group, err := o.next.CreateGroup(ctx, organizationID, name)
	recordOperation(ctx, o.metrics, "group_create", start, err)
	return group, err
}

func (o *organizationUseCaseWithMetrics) CreateRole(ctx context.Context, input *CreateRoleInput) (*domain.Role, error) {
	start := time.Now()
	role, err := o.next.CreateRole(ctx, input)
	recordOperation(ctx, o.metrics, "role_create", start, err)
	return role, err
}

func (o *organizationUseCaseWithMetrics) AssignRole(ctx context.Context, input *AssignRoleInput) error {
	start := time.Now()
	err := o.next.AssignRole(ctx, input)
	recordOperation(ctx, o.metrics, "role_assign", start, err)
	return err
}

func (o *organizationUseCaseWithMetrics) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := o.next.DeleteOrganization(ctx, id)
	recordOperation(ctx, o.metrics, "organization_delete", start, err)
	return err
}

func (o *organizationUseCaseWithMetrics) HasRolePermission(
	ctx context.Context,
	userID, organizationID uuid.UUID,
	permission string,
) (*domain.RoleCheck, error) {
	start := time.Now()
	check, err := o.next.HasRolePermission(ctx, userID, organizationID, permission)
	recordOperation(ctx, o.metrics, "role_permission_check", start, err)
	return check, err
}

// auditLogUseCaseWithMetrics decorates AuditLogUseCase with metrics instrumentation.
// Failed writes are additionally counted per action.
type auditLogUseCaseWithMetrics struct {
	next    AuditLogUseCase
	metrics metrics.BusinessMetrics
}

// NewAuditLogUseCaseWithMetrics wraps an AuditLogUseCase with metrics recording.
func NewAuditLogUseCaseWithMetrics(useCase AuditLogUseCase, m metrics.BusinessMetrics) AuditLogUseCase {
	return &auditLogUseCaseWithMetrics{next: useCase, metrics: m}
}

func (a *auditLogUseCaseWithMetrics) Create(ctx context.Context, auditLog *domain.AuditLog) error {
	start := time.Now()
	err := a.next.Create(ctx, auditLog)
	recordOperation(ctx, a.metrics, "audit_log_create", start, err)
	if err != nil {
		a.metrics.RecordAuditFailure(ctx, auditLog.Action)
	}
	return err
}

func (a *auditLogUseCaseWithMetrics) List(
	ctx context.Context,
	offset, limit int,
	filter domain.AuditLogFilter,
) ([]*domain.AuditLog, error) {
	start := time.Now()
	logs, err := a.next.List(ctx, offset, limit, filter)
	recordOperation(ctx, a.metrics, "audit_log_list", start, err)
	return logs, err
}

func (a *auditLogUseCaseWithMetrics) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	start := time.Now()
	n, err := a.next.DeleteOlderThan(ctx, days)
	recordOperation(ctx, a.metrics, "audit_log_delete", start, err)
	return n, err
}

func (a *auditLogUseCaseWithMetrics) VerifyBatch(
	ctx context.Context,
	startTime, endTime time.Time,
) (*domain.VerificationReport, error) {
	start := time.Now()
	report, err := a.next.VerifyBatch(ctx, startTime, endTime)
	recordOperation(ctx, a.metrics, "audit_log_verify", start, err)
	return report, err
}
