package models

import "time"

// UserRoleAssignment grants a role to a user. At most one assignment exists
// per (user, role) pair; re-assigning upserts onto the existing row. Expiry
// is enforced at read time, expired rows are treated as absent.
type UserRoleAssignment struct {
	BaseModel

	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_user_role,priority:1" json:"user_id"`
	RoleID string `gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_user_role,priority:2" json:"role_id"`

	AssignedBy string     `gorm:"type:uuid" json:"assigned_by"`
	AssignedAt time.Time  `gorm:"not null" json:"assigned_at"`
	ExpiresAt  *time.Time `json:"expires_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// TableName keeps the conventional join-table name.
func (UserRoleAssignment) TableName() string {
	return "user_roles"
}
