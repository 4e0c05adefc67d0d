package models

import (
	"time"
)

// WaitlistEntry represents a single registrant on the launch waitlist.
// Entries are never deleted; the only mutation after insert is the
// referral_count increment performed when another signup cites this
// entry's referral code.
type WaitlistEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FullName      string    `gorm:"not null" json:"full_name"`
	Email         string    `gorm:"uniqueIndex;not null" json:"email"`
	ReferralCode  string    `gorm:"uniqueIndex;not null;size:12" json:"referral_code"`
	ReferredBy    string    `gorm:"index" json:"referred_by,omitempty"`
	ReferralCount int       `gorm:"not null;default:0" json:"referral_count"`
	UserType      string    `gorm:"not null;default:'user'" json:"user_type"`
	Metadata      string    `gorm:"type:jsonb" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// User types accepted at signup.
const (
	UserTypeUser      = "user"
	UserTypeDeveloper = "developer"
)

// ValidUserTypes maps the accepted user_type values.
var ValidUserTypes = map[string]bool{
	UserTypeUser:      true,
	UserTypeDeveloper: true,
}
