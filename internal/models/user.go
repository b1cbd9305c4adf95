package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User describes platform users. TenantID points at the user's home tenant;
// cross-tenant access is selected per request via the tenant header.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	TenantID string  `gorm:"type:uuid;index" json:"tenant_id"`
	Tenant   *Tenant `json:"tenant,omitempty"`

	// IsSuperAdmin bypasses all permission checks across every tenant.
	IsSuperAdmin bool `gorm:"default:false" json:"is_super_admin"`
	IsActive     bool `gorm:"default:true" json:"is_active"`

	Assignments []UserRoleAssignment `gorm:"foreignKey:UserID" json:"-"`

	LastLoginAt *time.Time `json:"last_login_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
