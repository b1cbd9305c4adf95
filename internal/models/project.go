package models

// Project is a tenant-scoped construction project. The manager and member
// relationships feed contextual access rules: managers act on the project
// regardless of role grants, members get read/write only.
type Project struct {
	BaseModel

	TenantID    string `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Status      string `gorm:"default:'planning'" json:"status"`

	ManagerID string `gorm:"type:uuid;index" json:"manager_id"`

	Members []User  `gorm:"many2many:project_members;" json:"members,omitempty"`
	Tenant  *Tenant `json:"tenant,omitempty"`
}

// Project status values.
const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusCompleted = "completed"
)
