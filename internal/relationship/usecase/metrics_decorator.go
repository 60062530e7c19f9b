package usecase

import (
	"context"
	"time"

	"github.com/allisson/planner/internal/metrics"
	"github.com/allisson/planner/internal/relationship/domain"
)

// relationshipUseCaseWithMetrics decorates RelationshipUseCase with metrics instrumentation.
type relationshipUseCaseWithMetrics struct {
	next    RelationshipUseCase
	metrics metrics.BusinessMetrics
}

// NewRelationshipUseCaseWithMetrics wraps a RelationshipUseCase with metrics recording.
func NewRelationshipUseCaseWithMetrics(
	useCase RelationshipUseCase,
	m metrics.BusinessMetrics,
) RelationshipUseCase {
	return &relationshipUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (r *relationshipUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.RecordOperation(ctx, "relationship", operation, status)
	r.metrics.RecordDuration(ctx, "relationship", operation, time.Since(start), status)
}

// CheckPermission records metrics for permission checks.
func (r *relationshipUseCaseWithMetrics) CheckPermission(
	ctx context.Context,
	subjectID string,
	permission domain.Permission,
	resourceType domain.ResourceType,
	resourceID string,
) (bool, error) {
	start := time.Now()
	allowed, err := r.next.CheckPermission(ctx, subjectID, permission, resourceType, resourceID)
	r.record(ctx, "check_permission", start, err)
	return allowed, err
}

// WriteRelationship records metrics for tuple writes.
func (r *relationshipUseCaseWithMetrics) WriteRelationship(ctx context.Context, tuple domain.Tuple) error {
	start := time.Now()
	err := r.next.WriteRelationship(ctx, tuple)
	r.record(ctx, "write_relationship", start, err)
	return err
}

// AttachParent records metrics for first parent links.
func (r *relationshipUseCaseWithMetrics) AttachParent(ctx context.Context, tuple domain.Tuple) error {
	start := time.Now()
	err := r.next.AttachParent(ctx, tuple)
	r.record(ctx, "attach_parent", start, err)
	return err
}

// DeleteRelationship records metrics for tuple deletes.
func (r *relationshipUseCaseWithMetrics) DeleteRelationship(ctx context.Context, tuple domain.Tuple) error {
	start := time.Now()
	err := r.next.DeleteRelationship(ctx, tuple)
	r.record(ctx, "delete_relationship", start, err)
	return err
}

// ReadRelationships records metrics for tuple reads.
func (r *relationshipUseCaseWithMetrics) ReadRelationships(
	ctx context.Context,
	resourceType domain.ResourceType,
	resourceID, relation string,
) ([]*domain.Tuple, error) {
	start := time.Now()
	tuples, err := r.next.ReadRelationships(ctx, resourceType, resourceID, relation)
	r.record(ctx, "read_relationships", start, err)
	return tuples, err
}

// LookupResources records metrics for reverse lookups.
func (r *relationshipUseCaseWithMetrics) LookupResources(
	ctx context.Context,
	subjectID string,
	permission domain.Permission,
	resourceType domain.ResourceType,
) ([]string, error) {
	start := time.Now()
	ids, err := r.next.LookupResources(ctx, subjectID, permission, resourceType)
	r.record(ctx, "lookup_resources", start, err)
	return ids, err
}

// DeleteResource records metrics for resource cleanup.
func (r *relationshipUseCaseWithMetrics) DeleteResource(ctx context.Context, ref domain.ResourceRef) (int64, error) {
	start := time.Now()
	deleted, err := r.next.DeleteResource(ctx, ref)
	r.record(ctx, "delete_resource", start, err)
	return deleted, err
}
