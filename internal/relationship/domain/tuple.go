// Package domain defines relationship tuples and the permission schema used to
// resolve them.
//
// A tuple states that a subject holds a relation on a resource:
//
//	organization:o1#admin@user:u1
//	board:b1#parent@project:p1
//
// Parent tuples link a resource to the resource it inherits permissions from.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ResourceType identifies a kind of resource in the relationship graph.
type ResourceType string

// Permission is an action checked against the relationship graph.
type Permission string

// Resource types.
const (
	ResourceOrganization     ResourceType = "organization"
	ResourceTeam             ResourceType = "team"
	ResourceProject          ResourceType = "project"
	ResourceBoard            ResourceType = "board"
	ResourceIdentityProvider ResourceType = "identity_provider"
)

// SubjectUser is the subject type of every end-user tuple.
const SubjectUser = "user"

// Relations.
const (
	RelationAdmin     = "admin"
	RelationMember    = "member"
	RelationEditor    = "editor"
	RelationViewer    = "viewer"
	RelationModerator = "moderator"
	RelationParent    = "parent"
)

// Permissions.
const (
	PermissionView          Permission = "view"
	PermissionUpdate        Permission = "update"
	PermissionDelete        Permission = "delete"
	PermissionManageMembers Permission = "manage_members"
	PermissionCreate        Permission = "create"
)

// Tuple is a single relationship fact.
type Tuple struct {
	ResourceType ResourceType
	ResourceID   string
	Relation     string
	SubjectType  string
	SubjectID    string
	CreatedAt    time.Time
}

// String renders the tuple as resource#relation@subject.
func (t Tuple) String() string {
	return fmt.Sprintf("%s:%s#%s@%s:%s", t.ResourceType, t.ResourceID, t.Relation, t.SubjectType, t.SubjectID)
}

// IsParentLink reports whether the tuple links a resource to its parent.
func (t Tuple) IsParentLink() bool {
	return t.Relation == RelationParent
}

// Parent returns the parent resource referenced by a parent link.
func (t Tuple) Parent() ResourceRef {
	return ResourceRef{Type: ResourceType(t.SubjectType), ID: t.SubjectID}
}

// ResourceRef identifies one resource.
type ResourceRef struct {
	Type ResourceType
	ID   string
}

// String renders the reference as type:id.
func (r ResourceRef) String() string {
	return string(r.Type) + ":" + r.ID
}

// ParseTuple parses the resource#relation@subject form produced by Tuple.String.
func ParseTuple(s string) (Tuple, error) {
	resource, rest, ok := strings.Cut(s, "#")
	if !ok {
		return Tuple{}, fmt.Errorf("%w: missing '#' in %q", ErrInvalidTuple, s)
	}
	relation, subject, ok := strings.Cut(rest, "@")
	if !ok {
		return Tuple{}, fmt.Errorf("%w: missing '@' in %q", ErrInvalidTuple, s)
	}
	resourceType, resourceID, ok := strings.Cut(resource, ":")
	if !ok {
		return Tuple{}, fmt.Errorf("%w: missing resource id in %q", ErrInvalidTuple, s)
	}
	subjectType, subjectID, ok := strings.Cut(subject, ":")
	if !ok {
		return Tuple{}, fmt.Errorf("%w: missing subject id in %q", ErrInvalidTuple, s)
	}

	t := Tuple{
		ResourceType: ResourceType(resourceType),
		ResourceID:   resourceID,
		Relation:     relation,
		SubjectType:  subjectType,
		SubjectID:    subjectID,
	}
	if t.ResourceID == "" || t.Relation == "" || t.SubjectType == "" || t.SubjectID == "" {
		return Tuple{}, fmt.Errorf("%w: empty field in %q", ErrInvalidTuple, s)
	}
	return t, nil
}

// Filter selects tuples. Empty fields match anything; ResourceType is required
// by the store.
type Filter struct {
	ResourceType ResourceType
	ResourceID   string
	Relation     string
	SubjectType  string
	SubjectID    string
}
