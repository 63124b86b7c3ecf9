package models

import "time"

// RoleAssignment is a ledger entry recording that a user onboarded into a
// role. A user may hold several roles, but at most one row exists per
// (user, role) pair.
type RoleAssignment struct {
	ID                     uint64     `gorm:"primarykey" json:"id"`
	UserID                 uint64     `gorm:"not null;uniqueIndex:idx_role_assignments_user_role" json:"user_id"`
	Role                   Role       `gorm:"type:varchar(30);not null;uniqueIndex:idx_role_assignments_user_role" json:"role"`
	QuestionnaireCompleted bool       `gorm:"not null;default:false" json:"questionnaire_completed"`
	AddedAt                time.Time  `json:"added_at"`
	CompletedAt            *time.Time `json:"completed_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
