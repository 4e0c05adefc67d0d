package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/peochain/peochain-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalyticsService computes read-only projections over the waitlist tables.
// Every call recomputes from current storage state; at waitlist write
// volumes a cache would buy nothing.
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// TopReferrer is one row of the referral leaderboard
type TopReferrer struct {
	ID            uint   `json:"id"`
	FullName      string `json:"full_name"`
	ReferralCode  string `json:"referral_code"`
	ReferralCount int    `json:"referral_count"`
}

// Overview is the aggregate summary for the analytics dashboard
type Overview struct {
	TotalSignups        int64         `json:"total_signups"`
	TotalReferrals      int64         `json:"total_referrals"`
	AvgReferralsPerUser float64       `json:"avg_referrals_per_user"`
	TopReferrers        []TopReferrer `json:"top_referrers"`
}

// GetOverview computes the dashboard summary. Total referrals is defined as
// SUM(referral_count) across all entries; ties on the leaderboard break by
// id ascending so order is stable.
func (s *AnalyticsService) GetOverview(ctx context.Context, topN int) (*Overview, error) {
	if topN < 1 || topN > 100 {
		topN = 10
	}

	overview := &Overview{TopReferrers: []TopReferrer{}}

	if err := s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Count(&overview.TotalSignups).Error; err != nil {
		return nil, fmt.Errorf("failed to count signups: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Select("COALESCE(SUM(referral_count), 0)").
		Scan(&overview.TotalReferrals).Error; err != nil {
		return nil, fmt.Errorf("failed to sum referrals: %w", err)
	}

	if overview.TotalSignups > 0 {
		overview.AvgReferralsPerUser = float64(overview.TotalReferrals) / float64(overview.TotalSignups)
	}

	if err := s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Select("id, full_name, referral_code, referral_count").
		Where("referral_count > 0").
		Order("referral_count DESC, id ASC").
		Limit(topN).
		Scan(&overview.TopReferrers).Error; err != nil {
		return nil, fmt.Errorf("failed to load top referrers: %w", err)
	}

	return overview, nil
}

// GetDailyStats returns the per-day series ordered by date ascending.
// from/to are inclusive YYYY-MM-DD bounds; either may be empty.
func (s *AnalyticsService) GetDailyStats(ctx context.Context, from, to string) ([]models.DailyStat, error) {
	query := s.db.WithContext(ctx).Model(&models.DailyStat{})
	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}

	var stats []models.DailyStat
	if err := query.Order("date ASC").Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to load daily stats: %w", err)
	}
	return stats, nil
}

// GetRegionalBreakdown returns per-country stats ordered by user count descending
func (s *AnalyticsService) GetRegionalBreakdown(ctx context.Context) ([]models.GeographicStat, error) {
	var stats []models.GeographicStat
	if err := s.db.WithContext(ctx).
		Order("user_count DESC").
		Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to load regional breakdown: %w", err)
	}
	return stats, nil
}

// GetChannelBreakdown returns per-channel stats ordered by user count descending
func (s *AnalyticsService) GetChannelBreakdown(ctx context.Context) ([]models.ReferralChannelStat, error) {
	var stats []models.ReferralChannelStat
	if err := s.db.WithContext(ctx).
		Order("user_count DESC").
		Find(&stats).Error; err != nil {
		return nil, fmt.Errorf("failed to load channel breakdown: %w", err)
	}
	return stats, nil
}

// GetEntries returns a page of waitlist entries, newest first, for the
// dashboard table and exports.
func (s *AnalyticsService) GetEntries(ctx context.Context, page, limit int) ([]models.WaitlistEntry, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count entries: %w", err)
	}

	var entries []models.WaitlistEntry
	if err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list entries: %w", err)
	}

	return entries, total, nil
}

// GetAllEntries returns every entry oldest first, used by the export endpoints.
func (s *AnalyticsService) GetAllEntries(ctx context.Context) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	return entries, nil
}

// RecordView bumps today's landing-page view counter.
func (s *AnalyticsService) RecordView(ctx context.Context) error {
	stat := models.DailyStat{Date: time.Now().Format("2006-01-02"), Views: 1}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"views":      gorm.Expr("daily_stats.views + 1"),
			"updated_at": time.Now(),
		}),
	}).Create(&stat).Error
}

// UpsertRegion sets the marketing-side conversion rate for a country,
// creating the row if the country has not been seen yet.
func (s *AnalyticsService) UpsertRegion(ctx context.Context, country string, conversionRate float64) error {
	country = strings.TrimSpace(country)
	if country == "" {
		return NewFieldError("country", "Country is required")
	}
	if conversionRate < 0 || conversionRate > 100 {
		return NewFieldError("conversion_rate", "Conversion rate must be between 0 and 100")
	}
	stat := models.GeographicStat{Country: country, ConversionRate: conversionRate}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "country"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"conversion_rate": conversionRate,
			"updated_at":      time.Now(),
		}),
	}).Create(&stat).Error
}

// UpsertChannel sets the conversion rate for a referral channel.
func (s *AnalyticsService) UpsertChannel(ctx context.Context, channel string, conversionRate float64) error {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return NewFieldError("channel", "Channel is required")
	}
	if conversionRate < 0 || conversionRate > 100 {
		return NewFieldError("conversion_rate", "Conversion rate must be between 0 and 100")
	}
	stat := models.ReferralChannelStat{Channel: channel, ConversionRate: conversionRate}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "channel"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"conversion_rate": conversionRate,
			"updated_at":      time.Now(),
		}),
	}).Create(&stat).Error
}
