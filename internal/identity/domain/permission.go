package domain

import "strings"

// MatchKind describes how a permission string matched a permission set.
type MatchKind string

// Match kinds, from most to least specific.
const (
	MatchNone      MatchKind = ""
	MatchExact     MatchKind = "exact"
	MatchPrefix    MatchKind = "prefix"
	MatchUniversal MatchKind = "universal"
)

// UniversalPermission grants every permission.
const UniversalPermission = "*"

// PermissionSet matches dotted permission strings against exact entries such as
// "tasks.create", prefix wildcards such as "tasks.*" and the universal "*".
type PermissionSet struct {
	exact     map[string]struct{}
	prefixes  []string
	universal bool
}

// NewPermissionSet builds a matcher from a role's permission list.
func NewPermissionSet(permissions []string) PermissionSet {
	set := PermissionSet{exact: make(map[string]struct{}, len(permissions))}
	for _, p := range permissions {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case p == UniversalPermission:
			set.universal = true
		case strings.HasSuffix(p, ".*"):
			set.prefixes = append(set.prefixes, strings.TrimSuffix(p, "*"))
		default:
			set.exact[p] = struct{}{}
		}
	}
	return set
}

// Match reports whether permission is granted and the most specific rule that granted it.
// "tasks.*" grants "tasks.create" and "tasks.board.move" but not "tasks" itself.
func (s PermissionSet) Match(permission string) (MatchKind, bool) {
	if _, ok := s.exact[permission]; ok {
		return MatchExact, true
	}
	for _, prefix := range s.prefixes {
		if strings.HasPrefix(permission, prefix) && len(permission) > len(prefix) {
			return MatchPrefix, true
		}
	}
	if s.universal {
		return MatchUniversal, true
	}
	return MatchNone, false
}

// Has reports whether permission is granted.
func (s PermissionSet) Has(permission string) bool {
	_, ok := s.Match(permission)
	return ok
}
