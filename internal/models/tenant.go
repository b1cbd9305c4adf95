package models

// Tenant is an isolated customer namespace. Roles, projects, and most other
// records belong to exactly one tenant.
type Tenant struct {
	BaseModel

	Name   string `gorm:"not null" json:"name"`
	Slug   string `gorm:"uniqueIndex;not null" json:"slug"`
	Status string `gorm:"default:'active'" json:"status"`

	Users    []User    `gorm:"foreignKey:TenantID" json:"users,omitempty"`
	Roles    []Role    `gorm:"foreignKey:TenantID" json:"roles,omitempty"`
	Projects []Project `gorm:"foreignKey:TenantID" json:"projects,omitempty"`
}

// Tenant status values.
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
)
