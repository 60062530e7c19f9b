package domain

import (
	"github.com/allisson/planner/internal/errors"
)

// Relationship errors.
var (
	// ErrPermissionServiceUnavailable indicates the relationship store could not be
	// reached or did not answer in time.
	ErrPermissionServiceUnavailable = errors.Wrap(errors.ErrUnavailable, "permission service unavailable")

	// ErrRelationshipCycle indicates a parent link would make a resource its own ancestor.
	ErrRelationshipCycle = errors.Wrap(errors.ErrInvalidInput, "parent link would create a cycle")

	// ErrResourceAlreadyLinked indicates the resource already has tuples, so it is not new.
	ErrResourceAlreadyLinked = errors.Wrap(errors.ErrConflict, "resource already has relationships")

	// ErrInvalidTuple indicates a malformed tuple or one not allowed by the schema.
	ErrInvalidTuple = errors.Wrap(errors.ErrInvalidInput, "invalid relationship tuple")

	// ErrUnknownResourceType indicates a resource type missing from the schema.
	ErrUnknownResourceType = errors.Wrap(errors.ErrInvalidInput, "unknown resource type")

	// ErrUnknownPermission indicates a permission not defined for the resource type.
	ErrUnknownPermission = errors.Wrap(errors.ErrInvalidInput, "unknown permission")

	// ErrTraversalDepthExceeded indicates the parent chain is deeper than allowed.
	ErrTraversalDepthExceeded = errors.New("relationship traversal depth exceeded")
)
