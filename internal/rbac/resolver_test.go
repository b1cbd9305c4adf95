package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveUnionsRolePermissions(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "acme-build")
	user := createUser(t, db, tenant.ID, "pm@acme.test")

	estimator := createRole(t, db, tenant.ID, "Estimator", "projects:read", "documents:read")
	scheduler := createRole(t, db, tenant.ID, "Scheduler", "tasks:read", "tasks:write")
	assignRole(t, db, user.ID, estimator.ID, nil)
	assignRole(t, db, user.ID, scheduler.ID, nil)

	resolver, err := NewResolver(db)
	require.NoError(t, err)

	resolved, err := resolver.Resolve(context.Background(), user.ID, tenant.ID)
	require.NoError(t, err)
	require.False(t, resolved.Effective.All())
	require.Len(t, resolved.Roles, 2)
	require.Equal(t,
		[]string{"documents:read", "projects:read", "tasks:read", "tasks:write"},
		resolved.Effective.Strings(),
	)
}

func TestResolveWildcardCollapsesEffectiveSet(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "acme-build")
	user := createUser(t, db, tenant.ID, "owner@acme.test")

	owner := createRole(t, db, tenant.ID, "Owner", "*")
	worker := createRole(t, db, tenant.ID, "Worker", "tasks:read")
	assignRole(t, db, user.ID, owner.ID, nil)
	assignRole(t, db, user.ID, worker.ID, nil)

	resolver, err := NewResolver(db)
	require.NoError(t, err)

	resolved, err := resolver.Resolve(context.Background(), user.ID, tenant.ID)
	require.NoError(t, err)
	require.True(t, resolved.Effective.All())
	require.Equal(t, []string{"*"}, resolved.Effective.Strings())
	require.Zero(t, resolved.Effective.Len())
}

func TestResolveExcludesExpiredAssignments(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "acme-build")
	user := createUser(t, db, tenant.ID, "temp@acme.test")

	expired := createRole(t, db, tenant.ID, "Former Role", "projects:read")
	current := createRole(t, db, tenant.ID, "Current Role", "tasks:read")
	openEnded := createRole(t, db, tenant.ID, "Open Role", "documents:read")

	assignRole(t, db, user.ID, expired.ID, timePtr(time.Now().Add(-time.Hour)))
	assignRole(t, db, user.ID, current.ID, timePtr(time.Now().Add(time.Hour)))
	assignRole(t, db, user.ID, openEnded.ID, nil)

	resolver, err := NewResolver(db)
	require.NoError(t, err)

	resolved, err := resolver.Resolve(context.Background(), user.ID, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"documents:read", "tasks:read"}, resolved.Effective.Strings())
}

func TestResolveIsTenantIsolated(t *testing.T) {
	db := setupRBACTestDB(t)
	tenantA := createTenant(t, db, "tenant-a")
	tenantB := createTenant(t, db, "tenant-b")
	user := createUser(t, db, tenantA.ID, "cross@acme.test")

	// Colliding role names across tenants; the user is only assigned the
	// tenant-A role, but the assignment row names the role id directly, so
	// only the tenant-qualified join keeps tenant B clean.
	roleA := createRole(t, db, tenantA.ID, "Manager", "projects:*")
	createRole(t, db, tenantB.ID, "Manager", "documents:*")
	assignRole(t, db, user.ID, roleA.ID, nil)

	resolver, err := NewResolver(db)
	require.NoError(t, err)

	inA, err := resolver.Resolve(context.Background(), user.ID, tenantA.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"projects:*"}, inA.Effective.Strings())

	inB, err := resolver.Resolve(context.Background(), user.ID, tenantB.ID)
	require.NoError(t, err)
	require.Empty(t, inB.Roles)
	require.Zero(t, inB.Effective.Len())
	require.False(t, inB.Effective.Allows(MustParsePermission("projects:read")))
}

func TestResolveSuperAdminShortCircuit(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "acme-build")

	admin := createUser(t, db, tenant.ID, "root@buildhive.test")
	require.NoError(t, db.Model(admin).Update("is_super_admin", true).Error)

	resolver, err := NewResolver(db)
	require.NoError(t, err)

	resolved, err := resolver.Resolve(context.Background(), admin.ID, tenant.ID)
	require.NoError(t, err)
	require.True(t, resolved.Effective.All())
}

func TestResolveUnknownUserGrantsNothing(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "acme-build")

	resolver, err := NewResolver(db)
	require.NoError(t, err)

	resolved, err := resolver.Resolve(context.Background(), "missing-user", tenant.ID)
	require.NoError(t, err)
	require.Zero(t, resolved.Effective.Len())
	require.False(t, resolved.Effective.All())
}

func TestResolveSkipsMalformedStoredPermissions(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "acme-build")
	user := createUser(t, db, tenant.ID, "odd@acme.test")

	role := createRole(t, db, tenant.ID, "Odd Role", "projects:read", "not a permission")
	assignRole(t, db, user.ID, role.ID, nil)

	resolver, err := NewResolver(db)
	require.NoError(t, err)

	resolved, err := resolver.Resolve(context.Background(), user.ID, tenant.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"projects:read"}, resolved.Effective.Strings())
}
