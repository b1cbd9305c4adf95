package rbac

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/buildhive/buildhive/internal/models"
)

func setupRBACTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Role{},
		&models.UserRoleAssignment{},
		&models.Project{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func createTenant(t *testing.T, db *gorm.DB, slug string) *models.Tenant {
	t.Helper()

	tenant := &models.Tenant{Name: slug, Slug: slug}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func createUser(t *testing.T, db *gorm.DB, tenantID, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:    email,
		Password: "hashed",
		TenantID: tenantID,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createRole(t *testing.T, db *gorm.DB, tenantID, name string, perms ...string) *models.Role {
	t.Helper()

	role := &models.Role{
		TenantID:    tenantID,
		Name:        name,
		Permissions: datatypes.NewJSONSlice(perms),
	}
	require.NoError(t, db.Create(role).Error)
	return role
}

func assignRole(t *testing.T, db *gorm.DB, userID, roleID string, expiresAt *time.Time) {
	t.Helper()

	assignment := &models.UserRoleAssignment{
		UserID:     userID,
		RoleID:     roleID,
		AssignedAt: time.Now(),
		ExpiresAt:  expiresAt,
	}
	require.NoError(t, db.Create(assignment).Error)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
