package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/planner/internal/database"
	"github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/identity/domain"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

// organizationUseCase implements OrganizationUseCase.
type organizationUseCase struct {
	txManager     database.TxManager
	orgRepo       OrganizationRepository
	userRepo      UserRepository
	relationships RelationshipStore
}

func organizationTuple(orgID uuid.UUID, relation string, userID uuid.UUID) relationshipDomain.Tuple {
	return relationshipDomain.Tuple{
		ResourceType: relationshipDomain.ResourceOrganization,
		ResourceID:   orgID.String(),
		Relation:     relation,
		SubjectType:  relationshipDomain.SubjectUser,
		SubjectID:    userID.String(),
	}
}

// CreateOrganization persists the organization and the owner's admin tuple together.
func (o *organizationUseCase) CreateOrganization(
	ctx context.Context,
	ownerID uuid.UUID,
	name string,
) (*domain.Organization, error) {
	org := &domain.Organization{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}

	err := o.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := o.orgRepo.CreateOrganization(ctx, org); err != nil {
			return err
		}
		return o.relationships.WriteRelationship(
			ctx,
			organizationTuple(org.ID, relationshipDomain.RelationAdmin, ownerID),
		)
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

// GetOrganization retrieves an organization by ID.
func (o *organizationUseCase) GetOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	return o.orgRepo.GetOrganization(ctx, id)
}

// CreateGroup adds a group to an organization.
func (o *organizationUseCase) CreateGroup(
	ctx context.Context,
	organizationID uuid.UUID,
	name string,
) (*domain.Group, error) {
	if _, err := o.orgRepo.GetOrganization(ctx, organizationID); err != nil {
		return nil, err
	}

	group := &domain.Group{
		ID:             uuid.Must(uuid.NewV7()),
		OrganizationID: organizationID,
		Name:           strings.TrimSpace(name),
		CreatedAt:      time.Now().UTC(),
	}
	if err := o.orgRepo.CreateGroup(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// groupInOrganization loads a group and hides groups of other organizations.
func (o *organizationUseCase) groupInOrganization(
	ctx context.Context,
	organizationID, groupID uuid.UUID,
) (*domain.Group, error) {
	group, err := o.orgRepo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.OrganizationID != organizationID {
		return nil, domain.ErrGroupNotFound
	}
	return group, nil
}

// CreateRole adds a role to a group of the organization.
func (o *organizationUseCase) CreateRole(ctx context.Context, input *CreateRoleInput) (*domain.Role, error) {
	if _, err := o.groupInOrganization(ctx, input.OrganizationID, input.GroupID); err != nil {
		return nil, err
	}

	permissions := make([]string, 0, len(input.Permissions))
	for _, p := range input.Permissions {
		if p = strings.TrimSpace(p); p != "" {
			permissions = append(permissions, p)
		}
	}

	role := &domain.Role{
		ID:          uuid.Must(uuid.NewV7()),
		GroupID:     input.GroupID,
		Name:        strings.TrimSpace(input.Name),
		Permissions: permissions,
		Priority:    input.Priority,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.orgRepo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// AssignRole places a member of the organization in the group with the role. Users
// without a relation on the organization are rejected, so an organization admin can
// only reassign people already admitted to it.
func (o *organizationUseCase) AssignRole(ctx context.Context, input *AssignRoleInput) error {
	if _, err := o.groupInOrganization(ctx, input.OrganizationID, input.GroupID); err != nil {
		return err
	}

	role, err := o.orgRepo.GetRole(ctx, input.RoleID)
	if err != nil {
		return err
	}
	if role.GroupID != input.GroupID {
		return domain.ErrRoleNotFound
	}

	member, err := o.relationships.CheckPermission(
		ctx,
		input.UserID.String(),
		relationshipDomain.PermissionView,
		relationshipDomain.ResourceOrganization,
		input.OrganizationID.String(),
	)
	if err != nil {
		return err
	}
	if !member {
		return domain.ErrUserNotMember
	}

	return o.txManager.WithTx(ctx, func(ctx context.Context) error {
		err := o.userRepo.AssignRole(ctx, input.UserID, domain.RoleAssignment{
			OrganizationID: &input.OrganizationID,
			GroupID:        &input.GroupID,
			RoleID:         &input.RoleID,
		})
		if err != nil {
			return err
		}
		return o.relationships.WriteRelationship(
			ctx,
			organizationTuple(input.OrganizationID, relationshipDomain.RelationMember, input.UserID),
		)
	})
}

// DeleteOrganization clears user references, then removes roles, groups, the
// organization row and its tuples. Any failure rolls back the whole cascade.
func (o *organizationUseCase) DeleteOrganization(ctx context.Context, id uuid.UUID) error {
	return o.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := o.orgRepo.GetOrganization(ctx, id); err != nil {
			return err
		}
		if _, err := o.userRepo.ClearOrganization(ctx, id); err != nil {
			return err
		}
		if _, err := o.orgRepo.DeleteRolesByOrganization(ctx, id); err != nil {
			return err
		}
		if _, err := o.orgRepo.DeleteGroupsByOrganization(ctx, id); err != nil {
			return err
		}
		if err := o.orgRepo.DeleteOrganization(ctx, id); err != nil {
			return err
		}
		_, err := o.relationships.DeleteResource(ctx, relationshipDomain.ResourceRef{
			Type: relationshipDomain.ResourceOrganization,
			ID:   id.String(),
		})
		return err
	})
}

// HasRolePermission reports whether the user's role grants permission inside
// organizationID. Users without a role, or whose role belongs to another
// organization, are denied.
func (o *organizationUseCase) HasRolePermission(
	ctx context.Context,
	userID, organizationID uuid.UUID,
	permission string,
) (*domain.RoleCheck, error) {
	user, err := o.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.RoleID == nil {
		return &domain.RoleCheck{}, nil
	}

	role, err := o.orgRepo.GetRole(ctx, *user.RoleID)
	if err != nil {
		return nil, err
	}
	if _, err := o.groupInOrganization(ctx, organizationID, role.GroupID); err != nil {
		if errors.Is(err, domain.ErrGroupNotFound) {
			return &domain.RoleCheck{}, nil
		}
		return nil, err
	}

	match, allowed := role.PermissionSet().Match(permission)
	return &domain.RoleCheck{
		Allowed:  allowed,
		Match:    match,
		RoleID:   &role.ID,
		RoleName: role.Name,
		Priority: role.Priority,
	}, nil
}

// NewOrganizationUseCase creates a new OrganizationUseCase with the provided dependencies.
func NewOrganizationUseCase(
	txManager database.TxManager,
	orgRepo OrganizationRepository,
	userRepo UserRepository,
	relationships RelationshipStore,
) OrganizationUseCase {
	return &organizationUseCase{
		txManager:     txManager,
		orgRepo:       orgRepo,
		userRepo:      userRepo,
		relationships: relationships,
	}
}
