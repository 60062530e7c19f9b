// Package usecase resolves permissions over the relationship graph and manages
// relationship tuples.
package usecase

import (
	"context"

	"github.com/allisson/planner/internal/relationship/domain"
)

// TupleRepository defines the interface for relationship tuple persistence.
type TupleRepository interface {
	Touch(ctx context.Context, tuple *domain.Tuple) error
	Delete(ctx context.Context, tuple *domain.Tuple) error
	DeleteByResource(ctx context.Context, ref domain.ResourceRef) (int64, error)
	List(ctx context.Context, filter domain.Filter) ([]*domain.Tuple, error)
	SubjectRelations(
		ctx context.Context,
		resource domain.ResourceRef,
		subjectType, subjectID string,
	) ([]string, error)
	Parents(ctx context.Context, resource domain.ResourceRef) ([]domain.ResourceRef, error)
	Children(ctx context.Context, parent domain.ResourceRef) ([]domain.ResourceRef, error)
}

// RelationshipUseCase defines the relationship store operations.
//
// Every error caused by the backing store wraps domain.ErrPermissionServiceUnavailable.
// Callers gating access must treat any error from CheckPermission as a denial.
type RelationshipUseCase interface {
	// CheckPermission reports whether the user holds permission on the resource, directly
	// or through the resource's parent chain.
	CheckPermission(
		ctx context.Context,
		subjectID string,
		permission domain.Permission,
		resourceType domain.ResourceType,
		resourceID string,
	) (bool, error)
	// WriteRelationship stores the tuple. Writing an existing tuple is a no-op.
	WriteRelationship(ctx context.Context, tuple domain.Tuple) error
	// AttachParent writes the parent link of a resource that has no tuples yet. It fails
	// with domain.ErrResourceAlreadyLinked once the resource has any tuple.
	AttachParent(ctx context.Context, tuple domain.Tuple) error
	// DeleteRelationship removes the tuple. Removing an absent tuple is not an error.
	DeleteRelationship(ctx context.Context, tuple domain.Tuple) error
	// ReadRelationships lists the tuples on a resource, optionally narrowed to one relation.
	ReadRelationships(
		ctx context.Context,
		resourceType domain.ResourceType,
		resourceID, relation string,
	) ([]*domain.Tuple, error)
	// LookupResources returns the ids of every resource of resourceType on which the user
	// holds permission.
	LookupResources(
		ctx context.Context,
		subjectID string,
		permission domain.Permission,
		resourceType domain.ResourceType,
	) ([]string, error)
	// DeleteResource removes every tuple on the resource or naming it as subject.
	DeleteResource(ctx context.Context, ref domain.ResourceRef) (int64, error)
}
