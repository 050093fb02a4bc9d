package models

import (
	"time"
)

// CheckInDayFormat is the calendar-date key for daily check-ins.
const CheckInDayFormat = "2006-01-02"

// CheckIn records one daily check-in. The unique (user_id, day) index blocks
// a second check-in on the same calendar date.
type CheckIn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_checkin_user_day" json:"user_id"`
	Day       string    `gorm:"size:10;not null;uniqueIndex:idx_checkin_user_day" json:"day"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for CheckIn model
func (CheckIn) TableName() string {
	return "check_ins"
}
