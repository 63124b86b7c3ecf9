package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusBlocked    TaskStatus = "BLOCKED"
)

// Valid reports whether the status is one of the known states.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone, TaskStatusBlocked:
		return true
	}
	return false
}

// Task is a user-owned checklist item. Title and description are snapshotted
// from the template at generation time, so later template edits do not change
// existing tasks. TemplateID is nullable for tasks created without a backing
// template; the unique index on (user_id, template_id) is the safety net
// against a double-submit generating the same template twice.
type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	UserID      uint64         `gorm:"not null;uniqueIndex:idx_tasks_user_template" json:"user_id"`
	TemplateID  *uint64        `gorm:"uniqueIndex:idx_tasks_user_template" json:"template_id"`
	Title       string         `gorm:"type:varchar(255);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Status      TaskStatus     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Required    bool           `gorm:"not null;default:false" json:"required"`
	SortOrder   int            `gorm:"not null;default:0" json:"sort_order"`
	DueDate     *time.Time     `json:"due_date"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	User     User          `gorm:"foreignKey:UserID" json:"-"`
	Template *TaskTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}
