package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	databaseMocks "github.com/allisson/planner/internal/database/mocks"
	"github.com/allisson/planner/internal/identity/domain"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

type organizationFixture struct {
	txManager *databaseMocks.MockTxManager
	orgRepo   *mockOrganizationRepository
	userRepo  *mockUserRepository
	relations *mockRelationshipStore
	useCase   OrganizationUseCase
}

func newOrganizationFixture(t *testing.T) *organizationFixture {
	f := &organizationFixture{
		txManager: databaseMocks.NewMockTxManager(t),
		orgRepo:   &mockOrganizationRepository{},
		userRepo:  &mockUserRepository{},
		relations: &mockRelationshipStore{},
	}
	f.useCase = NewOrganizationUseCase(f.txManager, f.orgRepo, f.userRepo, f.relations)
	t.Cleanup(func() {
		f.orgRepo.AssertExpectations(t)
		f.userRepo.AssertExpectations(t)
		f.relations.AssertExpectations(t)
	})
	return f
}

func TestOrganizationUseCase_CreateOrganization(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.Must(uuid.NewV7())

	t.Run("Success_OwnerBecomesAdmin", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.txManager.On("WithTx", ctx, mock.Anything).Return(databaseMocks.RunInTx).Once()
		f.orgRepo.On("CreateOrganization", ctx, mock.MatchedBy(func(o *domain.Organization) bool {
			return o.Name == "Acme" && o.ID != uuid.Nil
		})).Return(nil).Once()
		f.relations.On("WriteRelationship", ctx, mock.MatchedBy(func(tp relationshipDomain.Tuple) bool {
			return tp.ResourceType == relationshipDomain.ResourceOrganization &&
				tp.Relation == relationshipDomain.RelationAdmin &&
				tp.SubjectType == relationshipDomain.SubjectUser &&
				tp.SubjectID == ownerID.String()
		})).Return(nil).Once()

		org, err := f.useCase.CreateOrganization(ctx, ownerID, "  Acme ")
		require.NoError(t, err)
		assert.Equal(t, "Acme", org.Name)
	})

	t.Run("Error_RelationshipStoreUnavailable", func(t *testing.T) {
		f := newOrganizationFixture(t)
		storeErr := errors.New("store down")

		f.txManager.On("WithTx", ctx, mock.Anything).Return(databaseMocks.RunInTx).Once()
		f.orgRepo.On("CreateOrganization", ctx, mock.Anything).Return(nil).Once()
		f.relations.On("WriteRelationship", ctx, mock.Anything).Return(storeErr).Once()

		org, err := f.useCase.CreateOrganization(ctx, ownerID, "Acme")
		assert.ErrorIs(t, err, storeErr)
		assert.Nil(t, org)
	})
}

func TestOrganizationUseCase_CreateGroupAndRole(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.Must(uuid.NewV7())
	groupID := uuid.Must(uuid.NewV7())

	t.Run("Success_CreateGroup", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.orgRepo.On("GetOrganization", ctx, orgID).Return(&domain.Organization{ID: orgID}, nil).Once()
		f.orgRepo.On("CreateGroup", ctx, mock.MatchedBy(func(g *domain.Group) bool {
			return g.OrganizationID == orgID && g.Name == "engineering"
		})).Return(nil).Once()

		group, err := f.useCase.CreateGroup(ctx, orgID, "engineering")
		require.NoError(t, err)
		assert.Equal(t, orgID, group.OrganizationID)
	})

	t.Run("Error_CreateGroupUnknownOrganization", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.orgRepo.On("GetOrganization", ctx, orgID).Return(nil, domain.ErrOrganizationNotFound).Once()

		_, err := f.useCase.CreateGroup(ctx, orgID, "engineering")
		assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)
	})

	t.Run("Success_CreateRoleDropsBlankPermissions", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.orgRepo.On("GetGroup", ctx, groupID).
			Return(&domain.Group{ID: groupID, OrganizationID: orgID}, nil).Once()
		f.orgRepo.On("CreateRole", ctx, mock.MatchedBy(func(r *domain.Role) bool {
			return r.GroupID == groupID && assert.ObjectsAreEqual([]string{"tasks.*", "audit.read"}, r.Permissions)
		})).Return(nil).Once()

		role, err := f.useCase.CreateRole(ctx, &CreateRoleInput{
			OrganizationID: orgID,
			GroupID:        groupID,
			Name:           "lead",
			Permissions:    []string{"tasks.*", " ", "audit.read "},
			Priority:       10,
		})
		require.NoError(t, err)
		assert.Equal(t, 10, role.Priority)
	})

	t.Run("Error_CreateRoleGroupOfAnotherOrganization", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.orgRepo.On("GetGroup", ctx, groupID).
			Return(&domain.Group{ID: groupID, OrganizationID: uuid.New()}, nil).Once()

		_, err := f.useCase.CreateRole(ctx, &CreateRoleInput{OrganizationID: orgID, GroupID: groupID, Name: "lead"})
		assert.ErrorIs(t, err, domain.ErrGroupNotFound)
	})
}

func TestOrganizationUseCase_AssignRole(t *testing.T) {
	ctx := context.Background()
	input := &AssignRoleInput{
		OrganizationID: uuid.Must(uuid.NewV7()),
		UserID:         uuid.Must(uuid.NewV7()),
		GroupID:        uuid.Must(uuid.NewV7()),
		RoleID:         uuid.Must(uuid.NewV7()),
	}

	expectMembership := func(f *organizationFixture, member bool, err error) {
		f.relations.On("CheckPermission", ctx, input.UserID.String(), relationshipDomain.PermissionView,
			relationshipDomain.ResourceOrganization, input.OrganizationID.String()).Return(member, err).Once()
	}

	t.Run("Success", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.orgRepo.On("GetGroup", ctx, input.GroupID).
			Return(&domain.Group{ID: input.GroupID, OrganizationID: input.OrganizationID}, nil).Once()
		f.orgRepo.On("GetRole", ctx, input.RoleID).
			Return(&domain.Role{ID: input.RoleID, GroupID: input.GroupID}, nil).Once()
		expectMembership(f, true, nil)
		f.txManager.On("WithTx", ctx, mock.Anything).Return(databaseMocks.RunInTx).Once()
		f.userRepo.On("AssignRole", ctx, input.UserID, domain.RoleAssignment{
			OrganizationID: &input.OrganizationID,
			GroupID:        &input.GroupID,
			RoleID:         &input.RoleID,
		}).Return(nil).Once()
		f.relations.On("WriteRelationship", ctx, organizationTuple(
			input.OrganizationID, relationshipDomain.RelationMember, input.UserID,
		)).Return(nil).Once()

		assert.NoError(t, f.useCase.AssignRole(ctx, input))
	})

	t.Run("Error_RoleOfAnotherGroup", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.orgRepo.On("GetGroup", ctx, input.GroupID).
			Return(&domain.Group{ID: input.GroupID, OrganizationID: input.OrganizationID}, nil).Once()
		f.orgRepo.On("GetRole", ctx, input.RoleID).
			Return(&domain.Role{ID: input.RoleID, GroupID: uuid.New()}, nil).Once()

		assert.ErrorIs(t, f.useCase.AssignRole(ctx, input), domain.ErrRoleNotFound)
	})

	t.Run("Error_UserOfAnotherOrganization", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.orgRepo.On("GetGroup", ctx, input.GroupID).
			Return(&domain.Group{ID: input.GroupID, OrganizationID: input.OrganizationID}, nil).Once()
		f.orgRepo.On("GetRole", ctx, input.RoleID).
			Return(&domain.Role{ID: input.RoleID, GroupID: input.GroupID}, nil).Once()
		expectMembership(f, false, nil)

		assert.ErrorIs(t, f.useCase.AssignRole(ctx, input), domain.ErrUserNotMember)
		f.userRepo.AssertNotCalled(t, "AssignRole", mock.Anything, mock.Anything, mock.Anything)
		f.txManager.AssertNotCalled(t, "WithTx", mock.Anything, mock.Anything)
	})

	t.Run("Error_MembershipCheckFails", func(t *testing.T) {
		f := newOrganizationFixture(t)
		storeErr := errors.New("store down")

		f.orgRepo.On("GetGroup", ctx, input.GroupID).
			Return(&domain.Group{ID: input.GroupID, OrganizationID: input.OrganizationID}, nil).Once()
		f.orgRepo.On("GetRole", ctx, input.RoleID).
			Return(&domain.Role{ID: input.RoleID, GroupID: input.GroupID}, nil).Once()
		expectMembership(f, false, storeErr)

		assert.ErrorIs(t, f.useCase.AssignRole(ctx, input), storeErr)
	})

	t.Run("Error_UnknownUser", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.orgRepo.On("GetGroup", ctx, input.GroupID).
			Return(&domain.Group{ID: input.GroupID, OrganizationID: input.OrganizationID}, nil).Once()
		f.orgRepo.On("GetRole", ctx, input.RoleID).
			Return(&domain.Role{ID: input.RoleID, GroupID: input.GroupID}, nil).Once()
		expectMembership(f, true, nil)
		f.txManager.On("WithTx", ctx, mock.Anything).Return(databaseMocks.RunInTx).Once()
		f.userRepo.On("AssignRole", ctx, input.UserID, mock.Anything).Return(domain.ErrUserNotFound).Once()

		assert.ErrorIs(t, f.useCase.AssignRole(ctx, input), domain.ErrUserNotFound)
	})
}

func TestOrganizationUseCase_DeleteOrganization(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.Must(uuid.NewV7())
	ref := relationshipDomain.ResourceRef{Type: relationshipDomain.ResourceOrganization, ID: orgID.String()}

	t.Run("Success_CascadesInOrder", func(t *testing.T) {
		f := newOrganizationFixture(t)
		var order []string
		track := func(name string) func(mock.Arguments) {
			return func(mock.Arguments) { order = append(order, name) }
		}

		f.txManager.On("WithTx", ctx, mock.Anything).Return(databaseMocks.RunInTx).Once()
		f.orgRepo.On("GetOrganization", ctx, orgID).Return(&domain.Organization{ID: orgID}, nil).Once()
		f.userRepo.On("ClearOrganization", ctx, orgID).Return(int64(3), nil).Run(track("users")).Once()
		f.orgRepo.On("DeleteRolesByOrganization", ctx, orgID).Return(int64(2), nil).Run(track("roles")).Once()
		f.orgRepo.On("DeleteGroupsByOrganization", ctx, orgID).Return(int64(1), nil).Run(track("groups")).Once()
		f.orgRepo.On("DeleteOrganization", ctx, orgID).Return(nil).Run(track("organization")).Once()
		f.relations.On("DeleteResource", ctx, ref).Return(int64(4), nil).Run(track("tuples")).Once()

		require.NoError(t, f.useCase.DeleteOrganization(ctx, orgID))
		assert.Equal(t, []string{"users", "roles", "groups", "organization", "tuples"}, order)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.txManager.On("WithTx", ctx, mock.Anything).Return(databaseMocks.RunInTx).Once()
		f.orgRepo.On("GetOrganization", ctx, orgID).Return(nil, domain.ErrOrganizationNotFound).Once()

		assert.ErrorIs(t, f.useCase.DeleteOrganization(ctx, orgID), domain.ErrOrganizationNotFound)
	})

	t.Run("Error_TupleCleanupFailsWholeCascade", func(t *testing.T) {
		f := newOrganizationFixture(t)
		storeErr := errors.New("store down")

		f.txManager.On("WithTx", ctx, mock.Anything).Return(databaseMocks.RunInTx).Once()
		f.orgRepo.On("GetOrganization", ctx, orgID).Return(&domain.Organization{ID: orgID}, nil).Once()
		f.userRepo.On("ClearOrganization", ctx, orgID).Return(int64(0), nil).Once()
		f.orgRepo.On("DeleteRolesByOrganization", ctx, orgID).Return(int64(0), nil).Once()
		f.orgRepo.On("DeleteGroupsByOrganization", ctx, orgID).Return(int64(0), nil).Once()
		f.orgRepo.On("DeleteOrganization", ctx, orgID).Return(nil).Once()
		f.relations.On("DeleteResource", ctx, ref).Return(int64(0), storeErr).Once()

		assert.ErrorIs(t, f.useCase.DeleteOrganization(ctx, orgID), storeErr)
	})
}

func TestOrganizationUseCase_HasRolePermission(t *testing.T) {
	ctx := context.Background()
	userID := uuid.Must(uuid.NewV7())
	orgID := uuid.Must(uuid.NewV7())
	groupID := uuid.Must(uuid.NewV7())
	roleID := uuid.Must(uuid.NewV7())
	role := &domain.Role{
		ID:          roleID,
		GroupID:     groupID,
		Name:        "lead",
		Permissions: []string{"tasks.*", "audit.read"},
		Priority:    7,
	}

	tests := []struct {
		name       string
		permission string
		allowed    bool
		match      domain.MatchKind
	}{
		{"Success_Exact", "audit.read", true, domain.MatchExact},
		{"Success_Prefix", "tasks.create", true, domain.MatchPrefix},
		{"Success_Denied", "billing.read", false, domain.MatchNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrganizationFixture(t)

			f.userRepo.On("GetByID", ctx, userID).Return(&domain.User{ID: userID, RoleID: &roleID}, nil).Once()
			f.orgRepo.On("GetRole", ctx, roleID).Return(role, nil).Once()
			f.orgRepo.On("GetGroup", ctx, groupID).
				Return(&domain.Group{ID: groupID, OrganizationID: orgID}, nil).Once()

			check, err := f.useCase.HasRolePermission(ctx, userID, orgID, tt.permission)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, check.Allowed)
			assert.Equal(t, tt.match, check.Match)
			assert.Equal(t, "lead", check.RoleName)
			assert.Equal(t, 7, check.Priority)
		})
	}

	t.Run("Success_NoRoleDenies", func(t *testing.T) {
		f := newOrganizationFixture(t)

		f.userRepo.On("GetByID", ctx, userID).Return(&domain.User{ID: userID}, nil).Once()

		check, err := f.useCase.HasRolePermission(ctx, userID, orgID, "tasks.create")
		require.NoError(t, err)
		assert.False(t, check.Allowed)
		assert.Nil(t, check.RoleID)
	})

	t.Run("Success_RoleOfAnotherOrganizationDenies", func(t *testing.T) {
		f := newOrganizationFixture(t)
		wildcard := &domain.Role{ID: roleID, GroupID: groupID, Name: "owner", Permissions: []string{"*"}}

		f.userRepo.On("GetByID", ctx, userID).Return(&domain.User{ID: userID, RoleID: &roleID}, nil).Once()
		f.orgRepo.On("GetRole", ctx, roleID).Return(wildcard, nil).Once()
		f.orgRepo.On("GetGroup", ctx, groupID).
			Return(&domain.Group{ID: groupID, OrganizationID: uuid.New()}, nil).Once()

		check, err := f.useCase.HasRolePermission(ctx, userID, orgID, "audit.read")
		require.NoError(t, err)
		assert.False(t, check.Allowed)
	})
}
