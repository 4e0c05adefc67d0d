package models

import (
	"time"
)

// DailyStat holds per-calendar-date signup, referral and page-view counters.
// One row per date; counters are bumped with atomic in-place increments.
// Date is stored as text in YYYY-MM-DD form so it round-trips unchanged on
// every driver; range filters compare lexicographically, which matches
// chronological order for this format.
type DailyStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"size:10;uniqueIndex;not null" json:"date"`
	Signups   int64     `gorm:"not null;default:0" json:"signups"`
	Referrals int64     `gorm:"not null;default:0" json:"referrals"`
	Views     int64     `gorm:"not null;default:0" json:"views"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// GeographicStat holds per-country user counts and conversion rates
// for the regional breakdown on the analytics dashboard.
type GeographicStat struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Country        string    `gorm:"uniqueIndex;not null" json:"country"`
	UserCount      int64     `gorm:"not null;default:0" json:"user_count"`
	ConversionRate float64   `gorm:"not null;default:0" json:"conversion_rate"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// ReferralChannelStat holds per-channel user counts and conversion rates
// (e.g. twitter, discord, newsletter).
type ReferralChannelStat struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Channel        string    `gorm:"uniqueIndex;not null" json:"channel"`
	UserCount      int64     `gorm:"not null;default:0" json:"user_count"`
	ConversionRate float64   `gorm:"not null;default:0" json:"conversion_rate"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}
