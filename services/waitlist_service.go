package services

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/peochain/peochain-api/models"
	"github.com/peochain/peochain-api/realtime"
	"github.com/peochain/peochain-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// referralCodeAlphabet is uppercase letters plus digits; 36^6 gives roughly
// 2.1 billion possible 6-character codes.
const referralCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	// ReferralCodeLength is the length of issued referral codes
	ReferralCodeLength = 6
	// maxCodeAttempts bounds regeneration when a generated code collides
	// with one already issued
	maxCodeAttempts = 5
)

// WaitlistService owns the signup flow: validation, referral code issuance,
// referral-count increments and the aggregate counters fed by each signup.
type WaitlistService struct {
	db          *gorm.DB
	broadcaster realtime.Broadcaster
}

// NewWaitlistService creates a new WaitlistService
func NewWaitlistService(db *gorm.DB, broadcaster realtime.Broadcaster) *WaitlistService {
	return &WaitlistService{db: db, broadcaster: broadcaster}
}

// SignupRequest carries the validated-at-the-edge signup input.
type SignupRequest struct {
	FullName   string
	Email      string
	ReferredBy string
	UserType   string
	Metadata   map[string]interface{}
}

// SignupResult is returned to the client after a successful signup.
type SignupResult struct {
	ID            uint   `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	ReferralCode  string `json:"referral_code"`
	ReferralCount int    `json:"referral_count"`
	Position      int64  `json:"position"`
	// ReferrerCount is the referrer's running total when a referral
	// applied, for client display; omitted otherwise
	ReferrerCount int `json:"referrer_count,omitempty"`
}

// GenerateReferralCode produces a random code from the uppercase
// alphanumeric alphabet using crypto/rand. Uniqueness is not checked here;
// the storage unique index is the source of truth and the signup path
// regenerates on collision.
func GenerateReferralCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralCodeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random index: %w", err)
		}
		code[i] = referralCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// JoinWaitlist validates and persists a new signup. The entry insert, the
// referrer's counter increment and the daily/regional/channel counter bumps
// commit in one transaction. A duplicate email fails with
// ErrDuplicateEmail; a referral-code collision is retried with a fresh code
// up to maxCodeAttempts times; any other storage failure is retried once
// and then surfaced wrapped.
func (s *WaitlistService) JoinWaitlist(ctx context.Context, req SignupRequest) (*SignupResult, error) {
	if valid, msg := utils.ValidateFullName(req.FullName); !valid {
		return nil, NewFieldError("full_name", msg)
	}
	if valid, msg := utils.ValidateEmail(req.Email); !valid {
		return nil, NewFieldError("email", msg)
	}
	userType := req.UserType
	if userType == "" {
		userType = models.UserTypeUser
	}
	if !models.ValidUserTypes[userType] {
		return nil, NewFieldError("user_type", "User type must be either 'user' or 'developer'")
	}

	email := utils.NormalizeEmail(req.Email)
	fullName := utils.SanitizeString(req.FullName)

	// A malformed or unknown referral code never blocks a signup; the
	// field is cosmetic and simply fails to increment anyone
	referredBy := strings.ToUpper(strings.TrimSpace(req.ReferredBy))
	if referredBy != "" {
		if valid, _ := utils.ValidateReferralCodeFormat(referredBy); !valid {
			utils.LogDebug("Ignoring malformed referral code %q for %s", req.ReferredBy, email)
			referredBy = ""
		}
	}

	metadataJSON := "{}"
	if len(req.Metadata) > 0 {
		raw, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, NewFieldError("metadata", "Metadata must be a JSON object")
		}
		metadataJSON = string(raw)
	}

	persistenceRetried := false
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateReferralCode(ReferralCodeLength)
		if err != nil {
			return nil, err
		}

		entry := &models.WaitlistEntry{
			FullName:     fullName,
			Email:        email,
			ReferralCode: code,
			ReferredBy:   referredBy,
			UserType:     userType,
			Metadata:     metadataJSON,
		}

		applied, referrerCount, err := s.createEntry(ctx, entry, referredBy, req.Metadata)
		if err == nil {
			return s.finishSignup(ctx, entry, applied, referrerCount)
		}

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing int64
			if countErr := s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
				Where("email = ?", email).Count(&existing).Error; countErr != nil {
				return nil, fmt.Errorf("failed to check existing email: %w", countErr)
			}
			if existing > 0 {
				return nil, ErrDuplicateEmail
			}
			utils.LogDebug("Referral code %s already issued, regenerating (%d/%d)", code, attempt+1, maxCodeAttempts)
			continue
		}

		// Transient storage failure: retried once transparently, then
		// surfaced without leaking storage details to the caller
		if !persistenceRetried {
			persistenceRetried = true
			utils.LogError("Waitlist insert failed, retrying once: %v", err)
			attempt--
			continue
		}
		return nil, fmt.Errorf("waitlist signup failed: %w", err)
	}

	return nil, ErrCodeGenerationExhausted
}

// createEntry runs the insert and its companion counter updates in a single
// transaction so a failed insert never leaves an orphan increment.
func (s *WaitlistService) createEntry(ctx context.Context, entry *models.WaitlistEntry, referredBy string, metadata map[string]interface{}) (applied bool, referrerCount int, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		if referredBy != "" {
			// Atomic in-place increment: two concurrent signups citing
			// the same referrer must both land, so no read-modify-write
			res := tx.Model(&models.WaitlistEntry{}).
				Where("referral_code = ?", referredBy).
				UpdateColumn("referral_count", gorm.Expr("referral_count + ?", 1))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				applied = true
				var referrer models.WaitlistEntry
				if err := tx.Select("referral_count").
					Where("referral_code = ?", referredBy).
					First(&referrer).Error; err != nil {
					return err
				}
				referrerCount = referrer.ReferralCount
			}
		}

		if err := bumpDailyStat(tx, time.Now().Format("2006-01-02"), applied); err != nil {
			return err
		}
		if err := bumpStatsFromMetadata(tx, metadata); err != nil {
			return err
		}
		return nil
	})
	return applied, referrerCount, err
}

// finishSignup computes the client-facing result and emits the realtime
// events. Events fire after commit; a dropped event is acceptable, a
// phantom event for a rolled-back signup is not.
func (s *WaitlistService) finishSignup(ctx context.Context, entry *models.WaitlistEntry, applied bool, referrerCount int) (*SignupResult, error) {
	totalSignups, totalReferrals, err := s.totals(ctx)
	if err != nil {
		// The signup committed; totals are only for the event payloads
		utils.LogError("Failed to compute waitlist totals: %v", err)
		totalSignups = 0
		totalReferrals = 0
	}

	result := &SignupResult{
		ID:            entry.ID,
		Email:         entry.Email,
		FullName:      entry.FullName,
		ReferralCode:  entry.ReferralCode,
		ReferralCount: entry.ReferralCount,
		Position:      totalSignups,
	}
	if applied {
		result.ReferrerCount = referrerCount
	}

	if s.broadcaster != nil {
		s.broadcaster.Publish(realtime.NewSignupEvent(entry.Email, result.Position, entry.ReferralCode))
		if applied {
			s.broadcaster.Publish(realtime.NewReferralEvent(entry.ReferredBy, referrerCount))
		}
		s.broadcaster.Publish(realtime.AnalyticsUpdateEvent(totalSignups, totalReferrals))
	}

	go func(email, name, code string) {
		if err := utils.SendWaitlistWelcome(email, name, code); err != nil {
			utils.LogError("Failed to send welcome email to %s: %v", email, err)
		}
	}(entry.Email, entry.FullName, entry.ReferralCode)

	utils.LogInfo("Waitlist signup: %s (position %d, code %s)", entry.Email, result.Position, entry.ReferralCode)
	return result, nil
}

func (s *WaitlistService) totals(ctx context.Context) (signups, referrals int64, err error) {
	if err = s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&signups).Error; err != nil {
		return 0, 0, err
	}
	err = s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).
		Select("COALESCE(SUM(referral_count), 0)").Scan(&referrals).Error
	return signups, referrals, err
}

// Count returns the running signup total for the public landing-page counter.
func (s *WaitlistService) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.WaitlistEntry{}).Count(&count).Error
	return count, err
}

// GetByReferralCode resolves a referral code to its owner for the referral
// landing page.
func (s *WaitlistService) GetByReferralCode(ctx context.Context, code string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	err := s.db.WithContext(ctx).
		Where("referral_code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}
	return &entry, nil
}

// bumpDailyStat upserts today's counters with in-place increments.
func bumpDailyStat(tx *gorm.DB, date string, referred bool) error {
	stat := models.DailyStat{Date: date, Signups: 1}
	assignments := map[string]interface{}{
		"signups":    gorm.Expr("daily_stats.signups + 1"),
		"updated_at": time.Now(),
	}
	if referred {
		stat.Referrals = 1
		assignments["referrals"] = gorm.Expr("daily_stats.referrals + 1")
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&stat).Error
}

// bumpStatsFromMetadata feeds the regional and channel breakdowns when the
// front end supplies country/channel hints alongside the signup.
func bumpStatsFromMetadata(tx *gorm.DB, metadata map[string]interface{}) error {
	if country, ok := metadata["country"].(string); ok && strings.TrimSpace(country) != "" {
		geo := models.GeographicStat{Country: strings.TrimSpace(country), UserCount: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "country"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"user_count": gorm.Expr("geographic_stats.user_count + 1"),
				"updated_at": time.Now(),
			}),
		}).Create(&geo).Error; err != nil {
			return err
		}
	}
	if channel, ok := metadata["channel"].(string); ok && strings.TrimSpace(channel) != "" {
		ch := models.ReferralChannelStat{Channel: strings.TrimSpace(channel), UserCount: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "channel"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"user_count": gorm.Expr("referral_channel_stats.user_count + 1"),
				"updated_at": time.Now(),
			}),
		}).Create(&ch).Error; err != nil {
			return err
		}
	}
	return nil
}
