package models

import (
	"time"

	"gorm.io/datatypes"
)

// Answer stores one questionnaire answer. The natural key is
// (user, role, question_key); saving is an upsert on that key, so a
// re-submitted form overwrites prior answers instead of duplicating them.
type Answer struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	UserID      uint64         `gorm:"not null;uniqueIndex:idx_answers_user_role_key" json:"user_id"`
	Role        Role           `gorm:"type:varchar(30);not null;uniqueIndex:idx_answers_user_role_key" json:"role"`
	QuestionKey string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_answers_user_role_key" json:"question_key"`
	// The column type is pinned to text. Left to the dialect, sqlite gives a
	// JSON column NUMERIC affinity and bare scalar values stop scanning back.
	Value       datatypes.JSON `gorm:"type:text;not null" json:"value"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
