package models

import (
	"time"
)

// ServiceType identifies which third-party verification program an attempt
// targets.
type ServiceType string

const (
	ServiceGeminiOnePro   ServiceType = "gemini_one_pro"
	ServiceChatGPTK12     ServiceType = "chatgpt_teacher_k12"
	ServiceSpotifyStudent ServiceType = "spotify_student"
	ServiceBoltTeacher    ServiceType = "bolt_teacher"
	ServiceYouTubeStudent ServiceType = "youtube_student"
)

// AllServiceTypes lists every supported verification program.
var AllServiceTypes = []ServiceType{
	ServiceGeminiOnePro,
	ServiceChatGPTK12,
	ServiceSpotifyStudent,
	ServiceBoltTeacher,
	ServiceYouTubeStudent,
}

// ParseServiceType returns the ServiceType for s, or false if unknown.
func ParseServiceType(s string) (ServiceType, bool) {
	for _, st := range AllServiceTypes {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// AttemptStatus is the lifecycle state of a verification attempt.
type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptSuccess AttemptStatus = "success"
	AttemptFailed  AttemptStatus = "failed"
)

// VerificationAttempt is one user-initiated verification, tracked from
// submission to terminal resolution. Rows are never deleted; Refunded flips
// to true at most once.
type VerificationAttempt struct {
	ID           string        `gorm:"primaryKey;size:36" json:"id"`
	UserID       uint          `gorm:"not null;index" json:"user_id"`
	User         *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ServiceType  ServiceType   `gorm:"size:40;not null;index" json:"service_type"`
	SourceURL    string        `gorm:"size:1000" json:"source_url"`
	ExternalID   string        `gorm:"size:64;index" json:"external_id"`
	Status       AttemptStatus `gorm:"size:16;not null;index" json:"status"`
	RawResult    string        `gorm:"type:text" json:"raw_result"`
	CostReserved int64         `gorm:"not null" json:"cost_reserved"`
	Refunded     bool          `gorm:"not null;default:false" json:"refunded"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// TableName specifies the table name for VerificationAttempt model
func (VerificationAttempt) TableName() string {
	return "verification_attempts"
}
