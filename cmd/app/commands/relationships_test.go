package commands

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
	relationshipMocks "github.com/allisson/planner/internal/relationship/usecase/mocks"
)

func TestRunGrant(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	expected := relationshipDomain.Tuple{
		ResourceType: relationshipDomain.ResourceProject,
		ResourceID:   "p1",
		Relation:     relationshipDomain.RelationEditor,
		SubjectType:  relationshipDomain.SubjectUser,
		SubjectID:    "u1",
	}

	t.Run("Success_Text", func(t *testing.T) {
		relationships := &relationshipMocks.MockRelationshipUseCase{}
		relationships.On("WriteRelationship", ctx, expected).Return(nil)

		var out bytes.Buffer
		err := RunGrant(ctx, relationships, logger, &out, "project:p1#editor@user:u1", "text")

		require.NoError(t, err)
		assert.Equal(t, "Granted project:p1#editor@user:u1\n", out.String())
		relationships.AssertExpectations(t)
	})

	t.Run("Success_JSON", func(t *testing.T) {
		relationships := &relationshipMocks.MockRelationshipUseCase{}
		relationships.On("WriteRelationship", ctx, expected).Return(nil)

		var out bytes.Buffer
		err := RunGrant(ctx, relationships, logger, &out, "project:p1#editor@user:u1", "json")

		require.NoError(t, err)
		assert.Contains(t, out.String(), `"granted": true`)
		assert.Contains(t, out.String(), `"tuple": "project:p1#editor@user:u1"`)
	})

	t.Run("Error_MalformedTuple", func(t *testing.T) {
		relationships := &relationshipMocks.MockRelationshipUseCase{}

		err := RunGrant(ctx, relationships, logger, &bytes.Buffer{}, "project:p1@user:u1", "text")

		require.ErrorIs(t, err, relationshipDomain.ErrInvalidTuple)
		relationships.AssertNotCalled(t, "WriteRelationship", mock.Anything, mock.Anything)
	})

	t.Run("Error_StoreFails", func(t *testing.T) {
		relationships := &relationshipMocks.MockRelationshipUseCase{}
		relationships.On("WriteRelationship", ctx, expected).
			Return(relationshipDomain.ErrPermissionServiceUnavailable)

		err := RunGrant(ctx, relationships, logger, &bytes.Buffer{}, "project:p1#editor@user:u1", "text")

		require.ErrorIs(t, err, relationshipDomain.ErrPermissionServiceUnavailable)
	})
}

func TestRunRevoke(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	expected := relationshipDomain.Tuple{
		ResourceType: relationshipDomain.ResourceOrganization,
		ResourceID:   "o1",
		Relation:     relationshipDomain.RelationMember,
		SubjectType:  relationshipDomain.SubjectUser,
		SubjectID:    "u2",
	}

	t.Run("Success", func(t *testing.T) {
		relationships := &relationshipMocks.MockRelationshipUseCase{}
		relationships.On("DeleteRelationship", ctx, expected).Return(nil)

		var out bytes.Buffer
		err := RunRevoke(ctx, relationships, logger, &out, "organization:o1#member@user:u2", "text")

		require.NoError(t, err)
		assert.Equal(t, "Revoked organization:o1#member@user:u2\n", out.String())
		relationships.AssertExpectations(t)
	})

	t.Run("Error_StoreFails", func(t *testing.T) {
		relationships := &relationshipMocks.MockRelationshipUseCase{}
		relationships.On("DeleteRelationship", ctx, expected).Return(errors.New("boom"))

		err := RunRevoke(ctx, relationships, logger, &bytes.Buffer{}, "organization:o1#member@user:u2", "text")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete relationship")
	})
}
