// Package http provides the access middleware and HTTP handlers for authentication,
// sessions and settings.
package http

import (
	"context"

	cacheDomain "github.com/allisson/planner/internal/cache/domain"
)

// sessionKey is a context key type for storing the validated session.
type sessionKey struct{}

// permissionKey is a context key type for storing the permission granted on the route.
type permissionKey struct{}

// GrantedPermission records which permission RequirePermission granted on which resource.
type GrantedPermission struct {
	ResourceType string
	ResourceID   string
	Permission   string
}

// WithSession stores a validated session in the context.
// This is called by RequireAuth after the session and token have been checked.
func WithSession(ctx context.Context, session *cacheDomain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// GetSession retrieves the validated session from the context.
// Returns (session, true) if RequireAuth ran for this request, or (nil, false) otherwise.
func GetSession(ctx context.Context) (*cacheDomain.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(*cacheDomain.Session)
	return session, ok
}

// WithGrantedPermission stores the permission RequirePermission granted.
func WithGrantedPermission(ctx context.Context, granted GrantedPermission) context.Context {
	return context.WithValue(ctx, permissionKey{}, granted)
}

// GetGrantedPermission retrieves the permission granted on the route, if any.
func GetGrantedPermission(ctx context.Context) (GrantedPermission, bool) {
	granted, ok := ctx.Value(permissionKey{}).(GrantedPermission)
	return granted, ok
}
