// Package domain defines the ephemeral records held by the session cache: sessions,
// cached settings and rate limit counters.
package domain

import (
	"time"
)

// Session is an authenticated session. Only the SHA-256 hash of the bearer token
// is stored; the plain token is returned to the client once at login.
type Session struct {
	ID             string    `json:"id"`
	SubjectID      string    `json:"subject_id"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email,omitempty"`
	AvatarURL      string    `json:"avatar_url,omitempty"`
	TokenHash      string    `json:"token_hash"`
	ClientIP       string    `json:"client_ip,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	// TTLSeconds is the original lifetime; every read restores it.
	TTLSeconds int64 `json:"ttl_seconds"`
}

// TTL returns the original session lifetime.
func (s *Session) TTL() time.Duration {
	return time.Duration(s.TTLSeconds) * time.Second
}

// SessionUpdate carries the fields UpdateSession may change. Nil fields are left untouched.
type SessionUpdate struct {
	DisplayName    *string
	Email          *string
	AvatarURL      *string
	LastAccessedAt *time.Time
}

// Apply merges the non-nil fields of u into s.
func (s *Session) Apply(u SessionUpdate) {
	if u.DisplayName != nil {
		s.DisplayName = *u.DisplayName
	}
	if u.Email != nil {
		s.Email = *u.Email
	}
	if u.AvatarURL != nil {
		s.AvatarURL = *u.AvatarURL
	}
	if u.LastAccessedAt != nil {
		s.LastAccessedAt = *u.LastAccessedAt
	}
}

// SlidingTTL returns the lifetime a session gets on access at now. The result is the
// original TTL, shortened so the session never outlives CreatedAt+maxLifetime when
// maxLifetime is positive. A non-positive result means the session has expired.
func (s *Session) SlidingTTL(now time.Time, maxLifetime time.Duration) time.Duration {
	ttl := s.TTL()
	if maxLifetime <= 0 {
		return ttl
	}
	remaining := s.CreatedAt.Add(maxLifetime).Sub(now)
	if remaining < ttl {
		return remaining
	}
	return ttl
}

// RateLimitResult is the outcome of a fixed-window counter check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// NewRateLimitResult derives the decision for the count-th attempt in a window of max.
func NewRateLimitResult(count int64, max int, resetAt time.Time) *RateLimitResult {
	remaining := int64(max) - count
	if remaining < 0 {
		remaining = 0
	}
	return &RateLimitResult{
		Allowed:   count <= int64(max),
		Limit:     max,
		Remaining: int(remaining),
		ResetAt:   resetAt,
	}
}

// AllSettings is the key passed to InvalidateSetting to drop every cached setting of an entity.
const AllSettings = "*"
