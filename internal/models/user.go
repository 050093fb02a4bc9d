package models

import (
	"time"
)

// User represents a registered user keyed by their external chat identity.
// Balance mutations never go through Save; services issue atomic updates.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ExternalID  int64     `gorm:"uniqueIndex;not null" json:"external_id"`
	DisplayName string    `gorm:"size:255" json:"display_name"`
	Balance     int64     `gorm:"not null;default:0" json:"balance"`
	Blocked     bool      `gorm:"not null;default:false;index" json:"blocked"`
	InvitedByID *uint     `gorm:"index" json:"invited_by_id,omitempty"`
	InvitedBy   *User     `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
