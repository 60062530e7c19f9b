package domain

import (
	"fmt"
	"time"

	cacheDomain "github.com/allisson/planner/internal/cache/domain"
	"github.com/allisson/planner/internal/errors"
	relationshipDomain "github.com/allisson/planner/internal/relationship/domain"
)

// Authentication and authorization errors. Messages stay generic so callers cannot
// tell which validation step failed.
var (
	// ErrInvalidCredentials is returned for unknown accounts, deactivated accounts and
	// wrong passwords alike.
	ErrInvalidCredentials = errors.Wrap(errors.ErrUnauthorized, "invalid credentials")

	// ErrDuplicateAccount indicates an account with the same email already exists.
	ErrDuplicateAccount = errors.Wrap(errors.ErrConflict, "account already exists")

	// ErrRateLimited indicates too many attempts inside the current window.
	ErrRateLimited = errors.Wrap(errors.ErrTooManyRequests, "too many attempts")

	// ErrSessionNotFound indicates the session is absent or expired.
	ErrSessionNotFound = cacheDomain.ErrSessionNotFound

	// ErrInvalidSession indicates the presented session id does not resolve to a session.
	ErrInvalidSession = errors.Wrap(errors.ErrUnauthorized, "invalid session")

	// ErrInvalidToken indicates the bearer token does not belong to the session.
	ErrInvalidToken = errors.Wrap(errors.ErrUnauthorized, "invalid token")

	// ErrUserInactive indicates the account was deactivated after the session was opened.
	ErrUserInactive = errors.Wrap(errors.ErrUnauthorized, "user inactive")

	// ErrPermissionServiceUnavailable indicates the relationship store could not answer.
	ErrPermissionServiceUnavailable = relationshipDomain.ErrPermissionServiceUnavailable

	// ErrPermissionDenied is the single answer callers get for a failed check.
	ErrPermissionDenied = errors.Wrap(errors.ErrForbidden, "permission denied")

	// ErrResourceNotFound indicates the target resource does not exist.
	ErrResourceNotFound = errors.Wrap(errors.ErrNotFound, "resource not found")

	// ErrMissingCredentials indicates the request carried no session id or token.
	ErrMissingCredentials = errors.Wrap(errors.ErrUnauthorized, "missing credentials")
)

// RateLimitedError carries the moment the current window closes.
type RateLimitedError struct {
	Reset time.Time
}

// NewRateLimitedError creates a RateLimitedError for a window ending at reset.
func NewRateLimitedError(reset time.Time) *RateLimitedError {
	return &RateLimitedError{Reset: reset}
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%s, retry after %ds", ErrRateLimited.Error(), e.RetryAfterSeconds(time.Now()))
}

// Unwrap makes the error match ErrRateLimited and errors.ErrTooManyRequests.
func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// ResetAt returns when the window reopens.
func (e *RateLimitedError) ResetAt() time.Time {
	return e.Reset
}

// RetryAfterSeconds rounds the remaining wait up to whole seconds, at least 1.
func (e *RateLimitedError) RetryAfterSeconds(now time.Time) int {
	wait := e.Reset.Sub(now)
	seconds := int((wait + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}
