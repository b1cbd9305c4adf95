package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/buildhive/buildhive/internal/models"
)

func newTestEngine(t *testing.T, db *gorm.DB) *Engine {
	t.Helper()

	resolver, err := NewResolver(db)
	require.NoError(t, err)
	cache, err := NewCache(resolver, CacheConfig{})
	require.NoError(t, err)
	engine, err := NewEngine(db, cache)
	require.NoError(t, err)
	return engine
}

func TestHasPermissionManagerScenario(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "t-one")
	user := createUser(t, db, tenant.ID, "u1@acme.test")

	manager := createRole(t, db, tenant.ID, "Manager", "projects:read", "projects:write")
	assignRole(t, db, user.ID, manager.ID, nil)

	engine := newTestEngine(t, db)
	ctx := context.Background()

	ok, err := engine.HasPermission(ctx, user.ID, tenant.ID, "projects:read", nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = engine.HasPermission(ctx, user.ID, tenant.ID, "projects:delete", nil)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = engine.HasPermission(ctx, user.ID, tenant.ID, "tasks:read", nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasPermissionUniversalGrant(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "t-one")
	user := createUser(t, db, tenant.ID, "u2@acme.test")

	owner := createRole(t, db, tenant.ID, "Owner", "*")
	assignRole(t, db, user.ID, owner.ID, nil)

	engine := newTestEngine(t, db)

	ok, err := engine.HasPermission(context.Background(), user.ID, tenant.ID, "anything:whatever", nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHasPermissionResourceWildcard(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "t-one")
	user := createUser(t, db, tenant.ID, "wild@acme.test")

	role := createRole(t, db, tenant.ID, "Project Lead", "projects:*")
	assignRole(t, db, user.ID, role.ID, nil)

	engine := newTestEngine(t, db)
	ctx := context.Background()

	for _, perm := range []string{"projects:read", "projects:delete"} {
		ok, err := engine.HasPermission(ctx, user.ID, tenant.ID, perm, nil)
		require.NoError(t, err)
		require.True(t, ok, "expected %s to be allowed", perm)
	}

	ok, err := engine.HasPermission(ctx, user.ID, tenant.ID, "tasks:read", nil)
	require.NoError(t, err)
	require.False(t, ok, "resource wildcard must not leak across resources")
}

func TestHasPermissionOwnershipRule(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "t-one")
	user := createUser(t, db, tenant.ID, "owner-rule@acme.test")

	engine := newTestEngine(t, db)
	ctx := context.Background()

	// No role grants documents:delete; ownership is an independent grant path.
	ok, err := engine.HasPermission(ctx, user.ID, tenant.ID, "documents:delete", &Context{OwnerID: user.ID})
	require.NoError(t, err)
	require.True(t, ok)

	// Ownership never grants non-CRUD actions.
	ok, err = engine.HasPermission(ctx, user.ID, tenant.ID, "documents:manage", &Context{OwnerID: user.ID})
	require.NoError(t, err)
	require.False(t, ok)

	// Someone else's resource stays denied.
	ok, err = engine.HasPermission(ctx, user.ID, tenant.ID, "documents:delete", &Context{OwnerID: "someone-else"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasPermissionProjectManagerRule(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "t-one")
	manager := createUser(t, db, tenant.ID, "pm@acme.test")

	project := &models.Project{TenantID: tenant.ID, Name: "Riverside Tower", ManagerID: manager.ID}
	require.NoError(t, db.Create(project).Error)

	engine := newTestEngine(t, db)
	ctx := context.Background()

	// Managers act on their project regardless of role grants, delete included.
	ok, err := engine.HasPermission(ctx, manager.ID, tenant.ID, "projects:delete", &Context{ProjectID: project.ID})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestHasPermissionProjectMemberRule(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "t-one")
	manager := createUser(t, db, tenant.ID, "pm@acme.test")
	member := createUser(t, db, tenant.ID, "crew@acme.test")

	project := &models.Project{TenantID: tenant.ID, Name: "Riverside Tower", ManagerID: manager.ID}
	require.NoError(t, db.Create(project).Error)
	require.NoError(t, db.Model(project).Association("Members").Append(member))

	engine := newTestEngine(t, db)
	ctx := context.Background()

	for _, perm := range []string{"projects:read", "projects:write"} {
		ok, err := engine.HasPermission(ctx, member.ID, tenant.ID, perm, &Context{ProjectID: project.ID})
		require.NoError(t, err)
		require.True(t, ok, "membership should grant %s", perm)
	}

	// Membership never grants destructive actions.
	ok, err := engine.HasPermission(ctx, member.ID, tenant.ID, "projects:delete", &Context{ProjectID: project.ID})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestProjectRuleIsTenantQualified(t *testing.T) {
	db := setupRBACTestDB(t)
	tenantA := createTenant(t, db, "t-a")
	tenantB := createTenant(t, db, "t-b")
	manager := createUser(t, db, tenantA.ID, "pm@acme.test")

	project := &models.Project{TenantID: tenantA.ID, Name: "Depot", ManagerID: manager.ID}
	require.NoError(t, db.Create(project).Error)

	engine := newTestEngine(t, db)

	// The same project id under a different tenant resolves to nothing.
	ok, err := engine.HasPermission(context.Background(), manager.ID, tenantB.ID, "projects:read", &Context{ProjectID: project.ID})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasPermissionRejectsMalformedRequirement(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "t-one")
	user := createUser(t, db, tenant.ID, "u@acme.test")

	engine := newTestEngine(t, db)

	_, err := engine.HasPermission(context.Background(), user.ID, tenant.ID, "not a permission", nil)
	require.Error(t, err)
}

func TestHasPermissionDenyIsSilent(t *testing.T) {
	db := setupRBACTestDB(t)
	tenant := createTenant(t, db, "t-one")
	user := createUser(t, db, tenant.ID, "nobody@acme.test")

	engine := newTestEngine(t, db)

	ok, err := engine.HasPermission(context.Background(), user.ID, tenant.ID, "projects:read", &Context{})
	require.NoError(t, err, "a deny is a value, not an error")
	require.False(t, ok)
}
