package models

import "time"

// Profile holds the single mutable profile record per user. It is created
// lazily on the first role save and never deleted by this service.
type Profile struct {
	ID           uint64    `gorm:"primarykey" json:"id"`
	UserID       uint64    `gorm:"uniqueIndex;not null" json:"user_id"`
	DisplayName  string    `gorm:"type:varchar(255)" json:"display_name"`
	Organization string    `gorm:"type:varchar(255)" json:"organization"`
	PrimaryRole  *Role     `gorm:"type:varchar(30)" json:"primary_role"`
	Completed    bool      `gorm:"not null;default:false" json:"completed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}
