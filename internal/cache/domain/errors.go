package domain

import (
	"github.com/allisson/planner/internal/errors"
)

// Session cache errors.
var (
	// ErrSessionNotFound indicates the session is absent or expired.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")

	// ErrCacheUnavailable indicates the cache backend could not be reached.
	ErrCacheUnavailable = errors.Wrap(errors.ErrUnavailable, "session cache unavailable")
)
