package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/buildhive/buildhive/internal/models"
	"github.com/buildhive/buildhive/internal/rbac"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Role{},
		&models.UserRoleAssignment{},
		&models.Project{},
		&models.AuditLog{},
	)
}

// SeedData ensures a default tenant with its system roles exists so a fresh
// install is usable before any tenant has been provisioned via the API.
func SeedData(db *gorm.DB) error {
	defaults := models.Tenant{
		BaseModel: models.BaseModel{ID: "default"},
		Name:      "Default",
		Slug:      "default",
		Status:    models.TenantStatusActive,
	}
	// Seed roles under whichever row actually holds the slug, not the
	// literal default id, in case the tenant pre-exists with its own id.
	var tenant models.Tenant
	if err := db.Where(models.Tenant{Slug: defaults.Slug}).Attrs(defaults).FirstOrCreate(&tenant).Error; err != nil {
		return err
	}

	return SeedSystemRoles(db, tenant.ID)
}

// SeedSystemRoles creates the per-tenant system roles when missing.
func SeedSystemRoles(db *gorm.DB, tenantID string) error {
	for _, tpl := range rbac.SystemRoles() {
		role := models.Role{
			TenantID:     tenantID,
			Name:         tpl.Name,
			Description:  tpl.Description,
			Permissions:  datatypes.NewJSONSlice(tpl.Permissions),
			IsSystemRole: true,
		}
		err := db.Where(models.Role{TenantID: tenantID, Name: tpl.Name}).
			Attrs(role).
			FirstOrCreate(&models.Role{}).Error
		if err != nil {
			return err
		}
	}
	return nil
}
