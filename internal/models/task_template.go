package models

import "time"

// TaskTemplate is a static, role-scoped checklist item definition. Templates
// are authored out-of-band and read-only at runtime; the generator snapshots
// them into per-user tasks.
type TaskTemplate struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Role        Role      `gorm:"type:varchar(30);not null;index" json:"role"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Required    bool      `gorm:"not null;default:false" json:"required"`
	SortOrder   int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
