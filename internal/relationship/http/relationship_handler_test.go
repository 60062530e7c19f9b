package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authHTTP "github.com/allisson/planner/internal/auth/http"
	cacheDomain "github.com/allisson/planner/internal/cache/domain"
	apperrors "github.com/allisson/planner/internal/errors"
	"github.com/allisson/planner/internal/relationship/domain"
	"github.com/allisson/planner/internal/relationship/http/dto"
	"github.com/allisson/planner/internal/relationship/usecase/mocks"
)

func setupTestHandler(t *testing.T) (*RelationshipHandler, *mocks.MockRelationshipUseCase) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	mockUseCase := &mocks.MockRelationshipUseCase{}
	t.Cleanup(func() { mockUseCase.AssertExpectations(t) })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRelationshipHandler(mockUseCase, logger), mockUseCase
}

func createTestContext(method, path string, body any) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(authHTTP.WithSession(req.Context(), &cacheDomain.Session{ID: "s1", SubjectID: "u1"}))
	c.Request = req

	return c, w
}

func TestRelationshipHandler_LookupHandler(t *testing.T) {
	t.Run("Success_DefaultsToView", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("LookupResources", mock.Anything, "u1", domain.PermissionView, domain.ResourceBoard).
			Return([]string{"b1", "b2"}, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/boards", nil)
		handler.LookupHandler(domain.ResourceBoard)(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var response dto.LookupResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, []string{"b1", "b2"}, response.Data)
	})

	t.Run("Success_EmptyListIsNotNull", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("LookupResources", mock.Anything, "u1", domain.PermissionUpdate, domain.ResourceBoard).
			Return(nil, nil).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/boards?permission=update", nil)
		handler.LookupHandler(domain.ResourceBoard)(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"data":[]}`, w.Body.String())
	})

	t.Run("Error_StoreUnavailable", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("LookupResources", mock.Anything, "u1", domain.PermissionView, domain.ResourceBoard).
			Return(nil, apperrors.Join(domain.ErrPermissionServiceUnavailable, assert.AnError)).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/boards", nil)
		handler.LookupHandler(domain.ResourceBoard)(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.NotContains(t, w.Body.String(), "b1")
	})

	t.Run("Error_DepthExceededDenies", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("LookupResources", mock.Anything, "u1", domain.PermissionView, domain.ResourceBoard).
			Return(nil, domain.ErrTraversalDepthExceeded).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/boards", nil)
		handler.LookupHandler(domain.ResourceBoard)(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_UnknownPermission", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("LookupResources", mock.Anything, "u1", domain.Permission("fly"), domain.ResourceBoard).
			Return(nil, domain.ErrUnknownPermission).
			Once()

		c, w := createTestContext(http.MethodGet, "/v1/boards?permission=fly", nil)
		handler.LookupHandler(domain.ResourceBoard)(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestRelationshipHandler_ListHandler(t *testing.T) {
	handler, mockUseCase := setupTestHandler(t)
	tuples := []*domain.Tuple{{
		ResourceType: domain.ResourceBoard, ResourceID: "b1", Relation: domain.RelationViewer,
		SubjectType: domain.SubjectUser, SubjectID: "u2",
	}}
	mockUseCase.On("ReadRelationships", mock.Anything, domain.ResourceBoard, "b1", domain.RelationViewer).
		Return(tuples, nil).
		Once()

	c, w := createTestContext(http.MethodGet, "/v1/boards/b1/relationships?relation=viewer", nil)
	c.Params = gin.Params{{Key: "boardId", Value: "b1"}}
	handler.ListHandler(domain.ResourceBoard)(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.ListTuplesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, "u2", response.Data[0].SubjectID)
}

func TestRelationshipHandler_CreateHandler(t *testing.T) {
	t.Run("Success_MemberTuple", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		expected := domain.Tuple{
			ResourceType: domain.ResourceBoard, ResourceID: "b1", Relation: domain.RelationEditor,
			SubjectType: domain.SubjectUser, SubjectID: "u2",
		}
		mockUseCase.On("WriteRelationship", mock.Anything, expected).Return(nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/boards/b1/relationships", dto.RelationshipRequest{
			Relation: "editor", SubjectType: "user", SubjectID: "u2",
		})
		c.Params = gin.Params{{Key: "boardId", Value: "b1"}}
		handler.CreateHandler(domain.ResourceBoard)(c)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Success_ParentLinkWithCreateOnParent", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("CheckPermission", mock.Anything, "u1", domain.PermissionCreate, domain.ResourceProject, "p1").
			Return(true, nil).
			Once()
		mockUseCase.On("WriteRelationship", mock.Anything, mock.MatchedBy(func(t domain.Tuple) bool {
			return t.IsParentLink() && t.SubjectID == "p1"
		})).Return(nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/boards/b1/relationships", dto.RelationshipRequest{
			Relation: "parent", SubjectType: "project", SubjectID: "p1",
		})
		c.Params = gin.Params{{Key: "boardId", Value: "b1"}}
		handler.CreateHandler(domain.ResourceBoard)(c)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("Error_ParentLinkDeniedWhenCheckFails", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("CheckPermission", mock.Anything, "u1", domain.PermissionCreate, domain.ResourceProject, "p1").
			Return(false, apperrors.Join(domain.ErrPermissionServiceUnavailable, assert.AnError)).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/boards/b1/relationships", dto.RelationshipRequest{
			Relation: "parent", SubjectType: "project", SubjectID: "p1",
		})
		c.Params = gin.Params{{Key: "boardId", Value: "b1"}}
		handler.CreateHandler(domain.ResourceBoard)(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUseCase.AssertNotCalled(t, "WriteRelationship", mock.Anything, mock.Anything)
	})

	t.Run("Error_ValidationFailed", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/boards/b1/relationships", dto.RelationshipRequest{
			Relation: "editor",
		})
		c.Params = gin.Params{{Key: "boardId", Value: "b1"}}
		handler.CreateHandler(domain.ResourceBoard)(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("Error_Cycle", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("CheckPermission", mock.Anything, "u1", domain.PermissionCreate, domain.ResourceProject, "p1").
			Return(true, nil).
			Once()
		mockUseCase.On("WriteRelationship", mock.Anything, mock.Anything).Return(domain.ErrRelationshipCycle).Once()

		c, w := createTestContext(http.MethodPost, "/v1/boards/b1/relationships", dto.RelationshipRequest{
			Relation: "parent", SubjectType: "project", SubjectID: "p1",
		})
		c.Params = gin.Params{{Key: "boardId", Value: "b1"}}
		handler.CreateHandler(domain.ResourceBoard)(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestRelationshipHandler_AttachParentHandler(t *testing.T) {
	t.Run("Success_CreateOnParent", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		expected := domain.Tuple{
			ResourceType: domain.ResourceTeam, ResourceID: "t9", Relation: domain.RelationParent,
			SubjectType: string(domain.ResourceOrganization), SubjectID: "o1",
		}
		mockUseCase.On("CheckPermission", mock.Anything, "u1", domain.PermissionCreate, domain.ResourceOrganization, "o1").
			Return(true, nil).
			Once()
		mockUseCase.On("AttachParent", mock.Anything, expected).Return(nil).Once()

		c, w := createTestContext(http.MethodPost, "/v1/teams/t9/parent", dto.ParentRequest{
			ParentType: "organization", ParentID: "o1",
		})
		c.Params = gin.Params{{Key: "teamId", Value: "t9"}}
		handler.AttachParentHandler(domain.ResourceTeam)(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response dto.TupleResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "parent", response.Relation)
		assert.Equal(t, "o1", response.SubjectID)
	})

	t.Run("Error_NoCreateOnParent", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("CheckPermission", mock.Anything, "u1", domain.PermissionCreate, domain.ResourceOrganization, "o2").
			Return(false, nil).
			Once()

		c, w := createTestContext(http.MethodPost, "/v1/teams/t9/parent", dto.ParentRequest{
			ParentType: "organization", ParentID: "o2",
		})
		c.Params = gin.Params{{Key: "teamId", Value: "t9"}}
		handler.AttachParentHandler(domain.ResourceTeam)(c)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUseCase.AssertNotCalled(t, "AttachParent", mock.Anything, mock.Anything)
	})

	t.Run("Error_ResourceAlreadyLinked", func(t *testing.T) {
		handler, mockUseCase := setupTestHandler(t)
		mockUseCase.On("CheckPermission", mock.Anything, "u1", domain.PermissionCreate, domain.ResourceOrganization, "o1").
			Return(true, nil).
			Once()
		mockUseCase.On("AttachParent", mock.Anything, mock.Anything).Return(domain.ErrResourceAlreadyLinked).Once()

		c, w := createTestContext(http.MethodPost, "/v1/teams/t1/parent", dto.ParentRequest{
			ParentType: "organization", ParentID: "o1",
		})
		c.Params = gin.Params{{Key: "teamId", Value: "t1"}}
		handler.AttachParentHandler(domain.ResourceTeam)(c)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Error_ValidationFailed", func(t *testing.T) {
		handler, _ := setupTestHandler(t)

		c, w := createTestContext(http.MethodPost, "/v1/teams/t9/parent", dto.ParentRequest{ParentType: "organization"})
		c.Params = gin.Params{{Key: "teamId", Value: "t9"}}
		handler.AttachParentHandler(domain.ResourceTeam)(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestRelationshipHandler_DeleteHandler(t *testing.T) {
	handler, mockUseCase := setupTestHandler(t)
	expected := domain.Tuple{
		ResourceType: domain.ResourceTeam, ResourceID: "t1", Relation: domain.RelationMember,
		SubjectType: domain.SubjectUser, SubjectID: "u2",
	}
	mockUseCase.On("DeleteRelationship", mock.Anything, expected).Return(nil).Once()

	c, w := createTestContext(http.MethodDelete, "/v1/teams/t1/relationships", dto.RelationshipRequest{
		Relation: "member", SubjectType: "user", SubjectID: "u2",
	})
	c.Params = gin.Params{{Key: "teamId", Value: "t1"}}
	handler.DeleteHandler(domain.ResourceTeam)(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
