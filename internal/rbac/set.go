package rbac

import "sort"

// EffectivePermissions is the outcome of resolving a user's roles: either the
// universal grant or a finite set of parsed permissions. The universal case is
// a distinct variant, not a sentinel entry inside the set.
type EffectivePermissions struct {
	all   bool
	perms map[Permission]struct{}
}

// AllPermissions returns the universal grant.
func AllPermissions() EffectivePermissions {
	return EffectivePermissions{all: true}
}

// NewPermissionSet builds a finite permission set.
func NewPermissionSet(perms ...Permission) EffectivePermissions {
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return EffectivePermissions{perms: set}
}

// All reports whether this is the universal grant.
func (e EffectivePermissions) All() bool {
	return e.all
}

// Len returns the number of discrete permissions; zero for the universal grant.
func (e EffectivePermissions) Len() int {
	return len(e.perms)
}

// Allows reports whether the required permission is granted. Precedence:
// universal grant, exact membership, then resource wildcard.
func (e EffectivePermissions) Allows(required Permission) bool {
	if e.all {
		return true
	}

	if _, ok := e.perms[required]; ok {
		return true
	}

	if required.Kind == KindExact {
		wildcard := Permission{Kind: KindResourceWildcard, Resource: required.Resource}
		if _, ok := e.perms[wildcard]; ok {
			return true
		}
	}

	return false
}

// Strings renders the grant as sorted wire-form tokens for API responses.
// The universal grant renders as ["*"].
func (e EffectivePermissions) Strings() []string {
	if e.all {
		return []string{WildcardToken}
	}

	out := make([]string, 0, len(e.perms))
	for perm := range e.perms {
		out = append(out, perm.String())
	}
	sort.Strings(out)
	return out
}
