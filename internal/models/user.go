package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID                uint64         `gorm:"primarykey" json:"id"`
	Email             string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash      string         `gorm:"type:varchar(255);not null" json:"-"`
	DisplayName       string         `gorm:"type:varchar(255)" json:"display_name"`
	EmailVerified     bool           `gorm:"not null;default:false" json:"email_verified"`
	VerificationToken *string        `gorm:"type:varchar(50);index" json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Roles []RoleAssignment `gorm:"foreignKey:UserID" json:"-"`
	Tasks []Task           `gorm:"foreignKey:UserID" json:"-"`
}
