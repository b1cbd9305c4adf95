package rbac

import (
	"fmt"
	"regexp"
	"strings"
)

// WildcardToken is the universal permission, granting everything.
const WildcardToken = "*"

var permissionPattern = regexp.MustCompile(`^[a-zA-Z_]+:[a-zA-Z_*]+$`)

// PermissionKind tags the three shapes a permission string can take.
type PermissionKind int

const (
	// KindExact matches a single resource:action pair.
	KindExact PermissionKind = iota
	// KindResourceWildcard matches every action on one resource.
	KindResourceWildcard
	// KindWildcard matches everything.
	KindWildcard
)

// Permission is a parsed permission token. Roles store raw strings; the
// resolver parses them once at load time so matching is a tag comparison
// rather than repeated string splitting.
type Permission struct {
	Kind     PermissionKind
	Resource string
	Action   string
}

// ParsePermission converts a raw token into a typed Permission.
func ParsePermission(raw string) (Permission, error) {
	raw = strings.TrimSpace(raw)
	if raw == WildcardToken {
		return Permission{Kind: KindWildcard}, nil
	}

	if !permissionPattern.MatchString(raw) {
		return Permission{}, fmt.Errorf("rbac: invalid permission %q", raw)
	}

	resource, action, _ := strings.Cut(raw, ":")
	if action == WildcardToken {
		return Permission{Kind: KindResourceWildcard, Resource: resource}, nil
	}

	return Permission{Kind: KindExact, Resource: resource, Action: action}, nil
}

// MustParsePermission is a test and seed-data helper.
func MustParsePermission(raw string) Permission {
	perm, err := ParsePermission(raw)
	if err != nil {
		panic(err)
	}
	return perm
}

// ValidatePermission reports whether a raw token is well formed. It is
// advisory: callers validate before persisting, stored data is trusted.
func ValidatePermission(raw string) error {
	_, err := ParsePermission(raw)
	return err
}

// String renders the permission back to its wire form.
func (p Permission) String() string {
	switch p.Kind {
	case KindWildcard:
		return WildcardToken
	case KindResourceWildcard:
		return p.Resource + ":" + WildcardToken
	default:
		return p.Resource + ":" + p.Action
	}
}
