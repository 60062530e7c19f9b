package httputil

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"
)

// Pagination bounds for list endpoints.
const (
	DefaultLimit = 50
	MaxLimit     = 100
)

var (
	errInvalidOffset = errors.New("invalid offset parameter: must be a non-negative integer")
	errInvalidLimit  = fmt.Errorf("invalid limit parameter: must be between 1 and %d", MaxLimit)
)

// ParsePagination reads ?offset= and ?limit=. Offset defaults to 0 and limit to
// DefaultLimit; limit must be between 1 and MaxLimit. Min skips zero values, so
// Required rejects an explicit limit=0.
func ParsePagination(c *gin.Context) (offset, limit int, err error) {
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || validation.Validate(offset, validation.Min(0)) != nil {
		return 0, 0, errInvalidOffset
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))
	if err != nil || validation.Validate(limit, validation.Required, validation.Min(1), validation.Max(MaxLimit)) != nil {
		return 0, 0, errInvalidLimit
	}

	return offset, limit, nil
}

// ParseTimeRange reads two optional RFC3339 query parameters as an inclusive UTC range.
// An absent bound is nil; from after to is an error.
func ParseTimeRange(c *gin.Context, fromKey, toKey string) (from, to *time.Time, err error) {
	from, err = parseTimeQuery(c, fromKey)
	if err != nil {
		return nil, nil, err
	}
	to, err = parseTimeQuery(c, toKey)
	if err != nil {
		return nil, nil, err
	}

	if from != nil && to != nil && from.After(*to) {
		return nil, nil, fmt.Errorf("%s must be before or equal to %s", fromKey, toKey)
	}
	return from, to, nil
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s format: must be RFC3339 (e.g., 2026-02-01T00:00:00Z)", name)
	}
	utc := parsed.UTC()
	return &utc, nil
}
