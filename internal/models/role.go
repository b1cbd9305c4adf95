package models

import "gorm.io/datatypes"

// Role is a tenant-scoped bundle of permission strings. Names are unique
// within a tenant, not globally. Permissions are stored as a JSON array of
// "resource:action" tokens (or the universal wildcard "*").
type Role struct {
	BaseModel

	TenantID    string                      `gorm:"type:uuid;not null;uniqueIndex:idx_roles_tenant_name,priority:1" json:"tenant_id"`
	Name        string                      `gorm:"not null;uniqueIndex:idx_roles_tenant_name,priority:2" json:"name"`
	Description string                      `json:"description"`
	Permissions datatypes.JSONSlice[string] `json:"permissions"`

	// IsSystemRole marks roles seeded at tenant creation. Deletion policy for
	// system roles is left to callers.
	IsSystemRole bool `gorm:"default:false" json:"is_system_role"`

	Tenant *Tenant `json:"tenant,omitempty"`
}
