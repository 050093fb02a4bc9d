package models

import (
	"time"
)

// RedemptionCode credits points to the first MaxUses distinct users who
// redeem it before ExpiresAt
type RedemptionCode struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Code        string     `gorm:"uniqueIndex;not null;size:64" json:"code"`
	Points      int64      `gorm:"not null" json:"points"`
	MaxUses     int        `gorm:"not null;default:1" json:"max_uses"`
	CurrentUses int        `gorm:"not null;default:0" json:"current_uses"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedByID uint       `gorm:"not null" json:"created_by_id"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName specifies the table name for RedemptionCode model
func (RedemptionCode) TableName() string {
	return "redemption_codes"
}

// Expired reports whether the code is past its expiry at the given time.
func (c *RedemptionCode) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// RedemptionRecord marks that a user redeemed a code. The composite unique
// index is what enforces one use per user per code.
type RedemptionRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CodeID    uint      `gorm:"not null;uniqueIndex:idx_redemption_code_user" json:"code_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_redemption_code_user" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for RedemptionRecord model
func (RedemptionRecord) TableName() string {
	return "redemption_records"
}
