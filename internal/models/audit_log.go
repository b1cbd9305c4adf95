package models

// AuditLog records role and assignment mutations for later review.
type AuditLog struct {
	BaseModel

	UserID   *string `gorm:"type:uuid;index" json:"user_id"`
	TenantID string  `gorm:"type:uuid;index" json:"tenant_id"`
	Action   string  `gorm:"not null;index" json:"action"`
	Resource string  `gorm:"index" json:"resource"`
	Result   string  `gorm:"not null" json:"result"`
	Metadata string  `gorm:"type:text" json:"metadata"`
}
