package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/planner/internal/auth/domain"
	authHTTP "github.com/allisson/planner/internal/auth/http"
	authMocks "github.com/allisson/planner/internal/auth/usecase/mocks"
	cacheDomain "github.com/allisson/planner/internal/cache/domain"
	"github.com/allisson/planner/internal/config"
	identityDomain "github.com/allisson/planner/internal/identity/domain"
	identityHTTP "github.com/allisson/planner/internal/identity/http"
	identityMocks "github.com/allisson/planner/internal/identity/usecase/mocks"
	"github.com/allisson/planner/internal/metrics"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
	relationshipHTTP "github.com/allisson/planner/internal/relationship/http"
	relationshipMocks "github.com/allisson/planner/internal/relationship/usecase/mocks"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

type stubRateLimitStore struct{}

func (stubRateLimitStore) CheckRateLimit(
	ctx context.Context,
	identifier, action string,
	max int,
	window time.Duration,
) (*cacheDomain.RateLimitResult, error) {
	return cacheDomain.NewRateLimitResult(1, max, time.Now().Add(window)), nil
}

type routerFixture struct {
	server        *Server
	auth          *authMocks.MockAuthUseCase
	settings      *authMocks.MockSettingUseCase
	relationships *relationshipMocks.MockRelationshipUseCase
	organizations *identityMocks.MockOrganizationUseCase
	auditLogs     *identityMocks.MockAuditLogUseCase
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		server:        NewServer(nil, "localhost", 0, discardLogger()),
		auth:          &authMocks.MockAuthUseCase{},
		settings:      &authMocks.MockSettingUseCase{},
		relationships: &relationshipMocks.MockRelationshipUseCase{},
		organizations: &identityMocks.MockOrganizationUseCase{},
		auditLogs:     &identityMocks.MockAuditLogUseCase{},
	}
	t.Cleanup(func() {
		f.auth.AssertExpectations(t)
		f.relationships.AssertExpectations(t)
		f.organizations.AssertExpectations(t)
	})

	logger := discardLogger()
	cfg := &config.Config{
		AuthRateLimitMax:    10,
		AuthRateLimitWindow: time.Hour,
	}
	f.server.SetupRouter(context.Background(), cfg, Handlers{
		Auth:          authHTTP.NewAuthHandler(f.auth, "provider-secret", logger),
		Settings:      authHTTP.NewSettingHandler(f.settings, logger),
		Relationships: relationshipHTTP.NewRelationshipHandler(f.relationships, logger),
		Organizations: identityHTTP.NewOrganizationHandler(f.organizations, logger),
		AuditLogs:     identityHTTP.NewAuditLogHandler(f.auditLogs, logger),
	}, Guards{
		Auth:       f.auth,
		RateLimits: stubRateLimitStore{},
		Roles:      f.organizations,
	}, nil)
	return f
}

func (f *routerFixture) authenticated(subjectID string) {
	f.auth.On("ValidateSession", mock.Anything, "session-1", "token-1").
		Return(&cacheDomain.Session{ID: "session-1", SubjectID: subjectID}, nil)
}

func (f *routerFixture) do(method, path string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authHTTP.SessionIDHeader, "session-1")
	req.Header.Set(authHTTP.AuthorizationHeader, "Bearer token-1")
	w := httptest.NewRecorder()
	f.server.GetHandler().ServeHTTP(w, req)
	return w
}

func TestHealthHandler(t *testing.T) {
	server := NewServer(nil, "localhost", 8080, discardLogger())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	readiness := func(server *Server) (int, map[string]any) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
		server.readinessHandler(c)

		var response map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return w.Code, response
	}

	t.Run("Error_NilDB", func(t *testing.T) {
		code, response := readiness(NewServer(nil, "localhost", 8080, discardLogger()))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", response["status"])
		components, ok := response["components"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "error", components["database"])
	})

	t.Run("Success_CacheDownStillReady", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectPing()

		server := NewServer(db, "localhost", 8080, discardLogger()).
			WithCache(stubPinger{err: errors.New("connection refused")})
		code, response := readiness(server)

		assert.Equal(t, http.StatusOK, code)
		components := response["components"].(map[string]any)
		assert.Equal(t, "ok", components["database"])
		assert.Equal(t, "error", components["cache"])
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestCustomLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/v1/boards/:boardId", func(c *gin.Context) {
		c.Request = c.Request.WithContext(authHTTP.WithSession(c.Request.Context(), &cacheDomain.Session{
			SubjectID: "user-1",
			TokenHash: "secret-hash",
		}))
		c.Status(http.StatusForbidden)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/boards/b1", nil)
	req.Header.Set(authHTTP.AuthorizationHeader, "Bearer plain-token")
	router.ServeHTTP(w, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/v1/boards/:boardId", entry["route"])
	assert.Equal(t, "user-1", entry["subject_id"])
	assert.Equal(t, float64(http.StatusForbidden), entry["status"])
	assert.NotEmpty(t, entry["request_id"])
	assert.NotContains(t, buf.String(), "plain-token")
	assert.NotContains(t, buf.String(), "secret-hash")
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRouter_RequestID(t *testing.T) {
	f := newRouterFixture(t)

	w := httptest.NewRecorder()
	f.server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	parsed, err := uuid.Parse(w.Header().Get("X-Request-Id"))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestRouter_Authentication(t *testing.T) {
	t.Run("Error_InvalidSessionIs401", func(t *testing.T) {
		f := newRouterFixture(t)
		f.auth.On("ValidateSession", mock.Anything, "session-1", "token-1").
			Return(nil, authDomain.ErrInvalidSession).Once()

		w := f.do(http.MethodGet, "/v1/auth/me", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Success_Me", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authenticated("0190f2c4-7a8e-7c2b-9d5e-1f2a3b4c5d6e")
		f.auth.On("GetProfile", mock.Anything, "0190f2c4-7a8e-7c2b-9d5e-1f2a3b4c5d6e").
			Return(&authDomain.Profile{
				ID:    uuid.MustParse("0190f2c4-7a8e-7c2b-9d5e-1f2a3b4c5d6e"),
				Email: "ada@example.com",
			}, nil).Once()

		w := f.do(http.MethodGet, "/v1/auth/me", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "ada@example.com")
	})
}

func TestRouter_ResourcePermissions(t *testing.T) {
	subjectID := "0190f2c4-7a8e-7c2b-9d5e-1f2a3b4c5d6e"

	t.Run("Error_DeniedIs403", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authenticated(subjectID)
		f.auth.On("Authorize", mock.Anything, subjectID, relationshipDomain.PermissionManageMembers,
			relationshipDomain.ResourceBoard, "b1").Return(false).Once()

		w := f.do(http.MethodGet, "/v1/boards/b1/relationships", "")

		assert.Equal(t, http.StatusForbidden, w.Code)
		f.relationships.AssertNotCalled(t, "ReadRelationships", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success_AllowedReachesHandler", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authenticated(subjectID)
		f.auth.On("Authorize", mock.Anything, subjectID, relationshipDomain.PermissionManageMembers,
			relationshipDomain.ResourceProject, "p1").Return(true).Once()
		f.relationships.On("ReadRelationships", mock.Anything, relationshipDomain.ResourceProject, "p1", "").
			Return([]*relationshipDomain.Tuple{}, nil).Once()

		w := f.do(http.MethodGet, "/v1/projects/p1/relationships", "")

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Success_LookupNeedsOnlyAuthentication", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authenticated(subjectID)
		f.relationships.On("LookupResources", mock.Anything, subjectID, relationshipDomain.PermissionView,
			relationshipDomain.ResourceBoard).Return([]string{"b1", "b2"}, nil).Once()

		w := f.do(http.MethodGet, "/v1/boards", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "b2")
	})

	t.Run("Error_DeleteOrganizationNeedsDelete", func(t *testing.T) {
		f := newRouterFixture(t)
		orgID := uuid.Must(uuid.NewV7()).String()
		f.authenticated(subjectID)
		f.auth.On("Authorize", mock.Anything, subjectID, relationshipDomain.PermissionDelete,
			relationshipDomain.ResourceOrganization, orgID).Return(false).Once()

		w := f.do(http.MethodDelete, "/v1/organizations/"+orgID, "")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestRouter_AttachParent(t *testing.T) {
	subjectID := "0190f2c4-7a8e-7c2b-9d5e-1f2a3b4c5d6e"

	t.Run("Success_CreateOnParentIsEnough", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authenticated(subjectID)
		f.relationships.On("CheckPermission", mock.Anything, subjectID, relationshipDomain.PermissionCreate,
			relationshipDomain.ResourceOrganization, "o1").Return(true, nil).Once()
		f.relationships.On("AttachParent", mock.Anything, relationshipDomain.Tuple{
			ResourceType: relationshipDomain.ResourceTeam, ResourceID: "t9",
			Relation:    relationshipDomain.RelationParent,
			SubjectType: string(relationshipDomain.ResourceOrganization), SubjectID: "o1",
		}).Return(nil).Once()

		w := f.do(http.MethodPost, "/v1/teams/t9/parent", `{"parent_type":"organization","parent_id":"o1"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		f.auth.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Error_NoCreateOnParent", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authenticated(subjectID)
		f.relationships.On("CheckPermission", mock.Anything, subjectID, relationshipDomain.PermissionCreate,
			relationshipDomain.ResourceTeam, "t1").Return(false, nil).Once()

		w := f.do(http.MethodPost, "/v1/projects/p9/parent", `{"parent_type":"team","parent_id":"t1"}`)

		assert.Equal(t, http.StatusForbidden, w.Code)
		f.relationships.AssertNotCalled(t, "AttachParent", mock.Anything, mock.Anything)
	})

	t.Run("Error_OrganizationsHaveNoParentRoute", func(t *testing.T) {
		f := newRouterFixture(t)
		orgID := uuid.Must(uuid.NewV7()).String()

		w := f.do(http.MethodPost, "/v1/organizations/"+orgID+"/parent", `{"parent_type":"team","parent_id":"t1"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouter_OrganizationAuditLogs(t *testing.T) {
	subjectID := "0190f2c4-7a8e-7c2b-9d5e-1f2a3b4c5d6e"
	orgID := uuid.Must(uuid.NewV7())
	path := "/v1/organizations/" + orgID.String() + "/audit-logs"

	t.Run("Error_RoleWithoutAuditRead", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authenticated(subjectID)
		f.auth.On("Authorize", mock.Anything, subjectID, relationshipDomain.PermissionView,
			relationshipDomain.ResourceOrganization, orgID.String()).Return(true).Once()
		f.organizations.On("HasRolePermission", mock.Anything, uuid.MustParse(subjectID), orgID, "audit.read").
			Return(&identityDomain.RoleCheck{Allowed: false}, nil).Once()

		w := f.do(http.MethodGet, path, "")

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Error_NotInOrganization", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authenticated(subjectID)
		f.auth.On("Authorize", mock.Anything, subjectID, relationshipDomain.PermissionView,
			relationshipDomain.ResourceOrganization, orgID.String()).Return(false).Once()

		w := f.do(http.MethodGet, path, "")

		assert.Equal(t, http.StatusForbidden, w.Code)
		f.organizations.AssertNotCalled(t, "HasRolePermission",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Success_ListsOnlyThatOrganization", func(t *testing.T) {
		f := newRouterFixture(t)
		f.authenticated(subjectID)
		f.auth.On("Authorize", mock.Anything, subjectID, relationshipDomain.PermissionView,
			relationshipDomain.ResourceOrganization, orgID.String()).Return(true).Once()
		f.organizations.On("HasRolePermission", mock.Anything, uuid.MustParse(subjectID), orgID, "audit.read").
			Return(&identityDomain.RoleCheck{Allowed: true}, nil).Once()
		f.auditLogs.On("List", mock.Anything, 0, 50, identityDomain.AuditLogFilter{
			ResourceType: string(relationshipDomain.ResourceOrganization),
			ResourceID:   orgID.String(),
		}).Return([]*identityDomain.AuditLog{}, nil).Once()

		w := f.do(http.MethodGet, path, "")

		assert.Equal(t, http.StatusOK, w.Code)
		f.auditLogs.AssertExpectations(t)
	})

	t.Run("Error_GlobalListingRemoved", func(t *testing.T) {
		f := newRouterFixture(t)

		w := f.do(http.MethodGet, "/v1/audit-logs", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRouter_NoMetricsEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	w := httptest.NewRecorder()
	f.server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StartWithoutRouter(t *testing.T) {
	server := NewServer(nil, "localhost", 0, discardLogger())
	assert.Error(t, server.Start(context.Background()))
}

func TestServer_ShutdownGracefully(t *testing.T) {
	f := newRouterFixture(t)

	errChan := make(chan error, 1)
	go func() {
		errChan <- f.server.Start(context.Background())
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.server.Shutdown(shutdownCtx))
	assert.NoError(t, <-errChan)
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("planner_test")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)
	require.NotNil(t, metricsServer)

	t.Run("Success_Metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
		assert.Contains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("Success_Health", func(t *testing.T) {
		w := httptest.NewRecorder()
		metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Success_NoProvider", func(t *testing.T) {
		bare := NewMetricsServer("localhost", 8081, discardLogger(), nil)

		w := httptest.NewRecorder()
		bare.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
