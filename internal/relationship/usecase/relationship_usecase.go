package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/relationship/domain"
)

// Config bounds relationship store calls.
type Config struct {
	// StoreTimeout bounds every operation, including the whole traversal of a check.
	StoreTimeout time.Duration
	// MaxDepth bounds how many parent links a check or lookup follows.
	MaxDepth int
}

type relationshipUseCase struct {
	tupleRepo TupleRepository
	schema    domain.Schema
	config    Config
	now       func() time.Time
}

type node struct {
	ref   domain.ResourceRef
	depth int
}

// CheckPermission walks from the resource up its parent links breadth first.
func (r *relationshipUseCase) CheckPermission(
	ctx context.Context,
	subjectID string,
	permission domain.Permission,
	resourceType domain.ResourceType,
	resourceID string,
) (bool, error) {
	if err := r.schema.ValidatePermission(resourceType, permission); err != nil {
		return false, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	start := domain.ResourceRef{Type: resourceType, ID: resourceID}
	visited := map[domain.ResourceRef]bool{start: true}
	queue := []node{{ref: start}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		relations, err := r.tupleRepo.SubjectRelations(ctx, current.ref, domain.SubjectUser, subjectID)
		if err != nil {
			return false, unavailable(err)
		}
		for _, relation := range relations {
			if r.schema.Grants(current.ref.Type, relation, permission) {
				return true, nil
			}
		}

		if !r.schema.Inherits(current.ref.Type, permission) {
			continue
		}

		parents, err := r.tupleRepo.Parents(ctx, current.ref)
		if err != nil {
			return false, unavailable(err)
		}
		for _, parent := range parents {
			if visited[parent] {
				continue
			}
			if current.depth+1 > r.config.MaxDepth {
				return false, fmt.Errorf("%w: %s", domain.ErrTraversalDepthExceeded, start)
			}
			visited[parent] = true
			queue = append(queue, node{ref: parent, depth: current.depth + 1})
		}
	}

	return false, nil
}

// WriteRelationship validates the tuple against the schema and rejects parent links
// that would make the resource its own ancestor.
func (r *relationshipUseCase) WriteRelationship(ctx context.Context, tuple domain.Tuple) error {
	if err := r.schema.ValidateTuple(tuple); err != nil {
		return err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if tuple.IsParentLink() {
		if err := r.checkCycle(ctx, tuple); err != nil {
			return err
		}
	}

	if tuple.CreatedAt.IsZero() {
		tuple.CreatedAt = r.now().UTC()
	}
	if err := r.tupleRepo.Touch(ctx, &tuple); err != nil {
		return unavailable(err)
	}
	return nil
}

// checkCycle walks up from the new parent; reaching the child means the link closes a cycle.
func (r *relationshipUseCase) checkCycle(ctx context.Context, tuple domain.Tuple) error {
	child := domain.ResourceRef{Type: tuple.ResourceType, ID: tuple.ResourceID}
	visited := map[domain.ResourceRef]bool{}
	queue := []node{{ref: tuple.Parent()}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.ref == child {
			return fmt.Errorf("%w: %s", domain.ErrRelationshipCycle, tuple)
		}
		if visited[current.ref] {
			continue
		}
		visited[current.ref] = true

		if current.depth >= r.config.MaxDepth {
			return fmt.Errorf("%w: %s", domain.ErrTraversalDepthExceeded, tuple)
		}

		parents, err := r.tupleRepo.Parents(ctx, current.ref)
		if err != nil {
			return unavailable(err)
		}
		for _, parent := range parents {
			queue = append(queue, node{ref: parent, depth: current.depth + 1})
		}
	}
	return nil
}

// AttachParent is the first write for a new resource. Later parent changes go through
// WriteRelationship, which the caller gates on manage_members.
func (r *relationshipUseCase) AttachParent(ctx context.Context, tuple domain.Tuple) error {
	if !tuple.IsParentLink() {
		return fmt.Errorf("%w: %s is not a parent link", domain.ErrInvalidTuple, tuple)
	}
	if err := r.schema.ValidateTuple(tuple); err != nil {
		return err
	}

	listCtx, cancel := r.withTimeout(ctx)
	existing, err := r.tupleRepo.List(listCtx, domain.Filter{
		ResourceType: tuple.ResourceType,
		ResourceID:   tuple.ResourceID,
	})
	cancel()
	if err != nil {
		return unavailable(err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s:%s", domain.ErrResourceAlreadyLinked, tuple.ResourceType, tuple.ResourceID)
	}

	return r.WriteRelationship(ctx, tuple)
}

// DeleteRelationship removes the tuple.
func (r *relationshipUseCase) DeleteRelationship(ctx context.Context, tuple domain.Tuple) error {
	if tuple.ResourceID == "" || tuple.Relation == "" || tuple.SubjectType == "" || tuple.SubjectID == "" {
		return fmt.Errorf("%w: %s", domain.ErrInvalidTuple, tuple)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.tupleRepo.Delete(ctx, &tuple); err != nil {
		return unavailable(err)
	}
	return nil
}

// ReadRelationships lists the tuples on one resource.
func (r *relationshipUseCase) ReadRelationships(
	ctx context.Context,
	resourceType domain.ResourceType,
	resourceID, relation string,
) ([]*domain.Tuple, error) {
	if _, err := r.schema.Definition(resourceType); err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tuples, err := r.tupleRepo.List(ctx, domain.Filter{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Relation:     relation,
	})
	if err != nil {
		return nil, unavailable(err)
	}
	return tuples, nil
}

// LookupResources starts from every tuple the user holds that grants permission and
// descends through child resources that inherit it.
func (r *relationshipUseCase) LookupResources(
	ctx context.Context,
	subjectID string,
	permission domain.Permission,
	resourceType domain.ResourceType,
) ([]string, error) {
	if err := r.schema.ValidatePermission(resourceType, permission); err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	held, err := r.tupleRepo.List(ctx, domain.Filter{SubjectType: domain.SubjectUser, SubjectID: subjectID})
	if err != nil {
		return nil, unavailable(err)
	}

	visited := map[domain.ResourceRef]bool{}
	var queue []node
	for _, tuple := range held {
		ref := domain.ResourceRef{Type: tuple.ResourceType, ID: tuple.ResourceID}
		if visited[ref] || !r.schema.Grants(ref.Type, tuple.Relation, permission) {
			continue
		}
		if ref.Type != resourceType && !r.schema.IsAncestorType(ref.Type, resourceType) {
			continue
		}
		visited[ref] = true
		queue = append(queue, node{ref: ref})
	}

	var ids []string
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.ref.Type == resourceType {
			ids = append(ids, current.ref.ID)
			continue
		}
		if current.depth >= r.config.MaxDepth {
			continue
		}

		children, err := r.tupleRepo.Children(ctx, current.ref)
		if err != nil {
			return nil, unavailable(err)
		}
		for _, child := range children {
			if visited[child] || !r.schema.Inherits(child.Type, permission) {
				continue
			}
			if child.Type != resourceType && !r.schema.IsAncestorType(child.Type, resourceType) {
				continue
			}
			visited[child] = true
			queue = append(queue, node{ref: child, depth: current.depth + 1})
		}
	}

	slices.Sort(ids)
	return ids, nil
}

// DeleteResource removes all tuples referencing the resource.
func (r *relationshipUseCase) DeleteResource(ctx context.Context, ref domain.ResourceRef) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	deleted, err := r.tupleRepo.DeleteByResource(ctx, ref)
	if err != nil {
		return 0, unavailable(err)
	}
	return deleted, nil
}

func (r *relationshipUseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.config.StoreTimeout)
}

func unavailable(err error) error {
	if errors.Is(err, domain.ErrPermissionServiceUnavailable) {
		return err
	}
	return apperrors.Join(domain.ErrPermissionServiceUnavailable, err)
}

// NewRelationshipUseCase creates a new RelationshipUseCase over the given schema.
func NewRelationshipUseCase(tupleRepo TupleRepository, schema domain.Schema, config Config) RelationshipUseCase {
	if config.MaxDepth <= 0 {
		config.MaxDepth = 8
	}
	return &relationshipUseCase{
		tupleRepo: tupleRepo,
		schema:    schema,
		config:    config,
		now:       time.Now,
	}
}
