package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/planner/internal/errors"
)

type limitedError struct {
	resetAt time.Time
}

func (e limitedError) Error() string      { return "rate limited" }
func (e limitedError) Unwrap() error      { return apperrors.ErrTooManyRequests }
func (e limitedError) ResetAt() time.Time { return e.resetAt }

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleErrorGin(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		expectedErr  string
	}{
		{"not found", apperrors.Wrap(apperrors.ErrNotFound, "user not found"), http.StatusNotFound, "not_found"},
		{"conflict", apperrors.Wrap(apperrors.ErrConflict, "duplicate"), http.StatusConflict, "conflict"},
		{"invalid input", apperrors.Wrap(apperrors.ErrInvalidInput, "bad email"), http.StatusUnprocessableEntity, "invalid_input"},
		{"unauthorized", apperrors.Wrap(apperrors.ErrUnauthorized, "invalid token"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", apperrors.Wrap(apperrors.ErrForbidden, "denied"), http.StatusForbidden, "forbidden"},
		{"rate limited", apperrors.Wrap(apperrors.ErrTooManyRequests, "login"), http.StatusTooManyRequests, "rate_limited"},
		{"unavailable", apperrors.Wrap(apperrors.ErrUnavailable, "cache down"), http.StatusServiceUnavailable, "service_unavailable"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			HandleErrorGin(c, tt.err, createTestLogger())

			assert.Equal(t, tt.expectedCode, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedErr, resp.Error)
			assert.Nil(t, resp.ResetAt)
		})
	}

	t.Run("unauthorized message is generic", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		HandleErrorGin(c, apperrors.Wrap(apperrors.ErrUnauthorized, "token mismatch"), nil)

		assert.NotContains(t, w.Body.String(), "token mismatch")
	})

	t.Run("rate limited carries resetAt", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		resetAt := time.Now().Add(2 * time.Minute)

		HandleErrorGin(c, limitedError{resetAt: resetAt}, nil)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.ResetAt)
		assert.WithinDuration(t, resetAt, *resp.ResetAt, time.Second)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		HandleErrorGin(c, nil, nil)

		assert.Equal(t, 0, w.Body.Len())
	})
}

func TestHandleBadRequestGin(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleBadRequestGin(c, errors.New("missing boardId"), createTestLogger())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bad_request")
}

func TestHandleValidationErrorGin(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	HandleValidationErrorGin(c, errors.New("email: must be a valid email address"), createTestLogger())

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
}

func TestAbortHelpers(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	AbortUnauthorized(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	AbortForbidden(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.True(t, c.IsAborted())
}
