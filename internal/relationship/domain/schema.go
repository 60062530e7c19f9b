package domain

import (
	"fmt"
	"slices"
)

// Definition describes one resource type: the relations it accepts, the relations
// that grant each permission directly, the permissions inherited from its parent
// and the type its parent must have.
type Definition struct {
	Relations   []string
	Permissions map[Permission][]string
	Inherited   []Permission
	ParentType  ResourceType
}

// Schema maps resource types to their definitions.
type Schema map[ResourceType]Definition

var allPermissions = []Permission{
	PermissionView, PermissionUpdate, PermissionDelete, PermissionManageMembers, PermissionCreate,
}

// DefaultSchema returns the planner hierarchy board -> project -> team -> organization.
// Every permission of a child is also granted by the same permission on its parent.
func DefaultSchema() Schema {
	nested := func(parent ResourceType, memberRelation string) Definition {
		return Definition{
			Relations: []string{RelationAdmin, RelationEditor, memberRelation, RelationParent},
			Permissions: map[Permission][]string{
				PermissionView:          {RelationAdmin, RelationEditor, memberRelation},
				PermissionUpdate:        {RelationAdmin, RelationEditor},
				PermissionDelete:        {RelationAdmin},
				PermissionManageMembers: {RelationAdmin},
				PermissionCreate:        {RelationAdmin, RelationEditor},
			},
			Inherited:  allPermissions,
			ParentType: parent,
		}
	}

	return Schema{
		ResourceOrganization: {
			Relations: []string{RelationAdmin, RelationMember},
			Permissions: map[Permission][]string{
				PermissionView:          {RelationAdmin, RelationMember},
				PermissionUpdate:        {RelationAdmin},
				PermissionDelete:        {RelationAdmin},
				PermissionManageMembers: {RelationAdmin},
				PermissionCreate:        {RelationAdmin, RelationMember},
			},
		},
		ResourceTeam:    nested(ResourceOrganization, RelationMember),
		ResourceProject: nested(ResourceTeam, RelationViewer),
		ResourceBoard:   nested(ResourceProject, RelationViewer),
		ResourceIdentityProvider: {
			Relations: []string{RelationMember, RelationAdmin, RelationModerator},
			Permissions: map[Permission][]string{
				PermissionView: {RelationMember, RelationAdmin, RelationModerator},
			},
		},
	}
}

// Definition returns the definition of resourceType.
func (s Schema) Definition(resourceType ResourceType) (Definition, error) {
	def, ok := s[resourceType]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownResourceType, resourceType)
	}
	return def, nil
}

// GrantingRelations returns the relations granting permission directly on resourceType
// and whether the permission is also inherited from the parent.
func (s Schema) GrantingRelations(resourceType ResourceType, permission Permission) ([]string, bool, error) {
	def, err := s.Definition(resourceType)
	if err != nil {
		return nil, false, err
	}
	relations, ok := def.Permissions[permission]
	inherited := def.ParentType != "" && slices.Contains(def.Inherited, permission)
	if !ok && !inherited {
		return nil, false, fmt.Errorf("%w: %q on %q", ErrUnknownPermission, permission, resourceType)
	}
	return relations, inherited, nil
}

// ValidatePermission checks that permission is defined for resourceType.
func (s Schema) ValidatePermission(resourceType ResourceType, permission Permission) error {
	_, _, err := s.GrantingRelations(resourceType, permission)
	return err
}

// Grants reports whether holding relation on resourceType grants permission directly.
func (s Schema) Grants(resourceType ResourceType, relation string, permission Permission) bool {
	def, ok := s[resourceType]
	if !ok {
		return false
	}
	return slices.Contains(def.Permissions[permission], relation)
}

// Inherits reports whether permission on resourceType flows down from its parent.
func (s Schema) Inherits(resourceType ResourceType, permission Permission) bool {
	def, ok := s[resourceType]
	return ok && def.ParentType != "" && slices.Contains(def.Inherited, permission)
}

// ValidateTuple checks the tuple against the schema: known resource type, accepted
// relation and, for parent links, the parent type.
func (s Schema) ValidateTuple(t Tuple) error {
	if t.ResourceID == "" || t.SubjectType == "" || t.SubjectID == "" {
		return fmt.Errorf("%w: %s", ErrInvalidTuple, t)
	}

	def, err := s.Definition(t.ResourceType)
	if err != nil {
		return err
	}
	if !slices.Contains(def.Relations, t.Relation) {
		return fmt.Errorf("%w: relation %q not defined on %q", ErrInvalidTuple, t.Relation, t.ResourceType)
	}

	if t.IsParentLink() {
		if ResourceType(t.SubjectType) != def.ParentType {
			return fmt.Errorf("%w: %q cannot be the parent of %q", ErrInvalidTuple, t.SubjectType, t.ResourceType)
		}
		if t.SubjectID == t.ResourceID && t.SubjectType == string(t.ResourceType) {
			return ErrRelationshipCycle
		}
		return nil
	}

	if t.SubjectType != SubjectUser {
		return fmt.Errorf("%w: subject type %q not allowed for %q", ErrInvalidTuple, t.SubjectType, t.Relation)
	}
	return nil
}

// ChildTypes returns the resource types whose parent type is resourceType.
func (s Schema) ChildTypes(resourceType ResourceType) []ResourceType {
	var children []ResourceType
	for rt, def := range s {
		if def.ParentType == resourceType {
			children = append(children, rt)
		}
	}
	slices.Sort(children)
	return children
}

// IsAncestorType reports whether following parent types up from descendant reaches ancestor.
func (s Schema) IsAncestorType(ancestor, descendant ResourceType) bool {
	seen := map[ResourceType]bool{}
	for current := s[descendant].ParentType; current != "" && !seen[current]; current = s[current].ParentType {
		if current == ancestor {
			return true
		}
		seen[current] = true
	}
	return false
}
