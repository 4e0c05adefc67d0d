package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peochain/peochain-api/models"
	"github.com/peochain/peochain-api/realtime"
)

func TestJoinWaitlistIssuesCodeAndPosition(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	result, err := service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", result.Email)
	assert.Equal(t, "Ada Lovelace", result.FullName)
	assert.Len(t, result.ReferralCode, ReferralCodeLength)
	assert.Regexp(t, "^[A-Z0-9]{6}$", result.ReferralCode)
	assert.Equal(t, int64(1), result.Position)
	assert.Equal(t, 0, result.ReferralCount)
	assert.Zero(t, result.ReferrerCount)

	second, err := service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Grace Hopper",
		Email:    "grace@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Position)
	assert.NotEqual(t, result.ReferralCode, second.ReferralCode)
}

func TestJoinWaitlistDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	_, err := service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
	})
	require.NoError(t, err)

	_, err = service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Ada Again",
		Email:    "ada@example.com",
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	// Email uniqueness is case-insensitive
	_, err = service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Ada Shouting",
		Email:    "ADA@Example.COM",
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	count, err := service.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestJoinWaitlistConcurrentDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	// Two racing submissions of the same address: the unique index must
	// let exactly one through no matter how they interleave
	const workers = 10
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.JoinWaitlist(context.Background(), SignupRequest{
				FullName: "Ada Lovelace",
				Email:    "ada@example.com",
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, duplicates int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrDuplicateEmail):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, duplicates)

	count, err := service.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestJoinWaitlistAppliesReferral(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	referrer, err := service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
	})
	require.NoError(t, err)

	referred, err := service.JoinWaitlist(context.Background(), SignupRequest{
		FullName:   "Grace Hopper",
		Email:      "grace@example.com",
		ReferredBy: referrer.ReferralCode,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, referred.ReferrerCount)

	entry, err := service.GetByReferralCode(context.Background(), referrer.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, 1, entry.ReferralCount)
}

func TestJoinWaitlistIgnoresBadReferralCodes(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	cases := []struct {
		name       string
		referredBy string
	}{
		{"unknown code", "ZZZZZZ"},
		{"malformed code", "not-a-code"},
		{"lowercase accepted as uppercase but unknown", "abc123"},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := service.JoinWaitlist(context.Background(), SignupRequest{
				FullName:   "Visitor Person",
				Email:      fmt.Sprintf("visitor%d@example.com", i),
				ReferredBy: tc.referredBy,
			})
			require.NoError(t, err)
			assert.Zero(t, result.ReferrerCount)
		})
	}
}

func TestJoinWaitlistValidation(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	cases := []struct {
		name  string
		req   SignupRequest
		field string
	}{
		{"missing name", SignupRequest{Email: "a@example.com"}, "full_name"},
		{"short name", SignupRequest{FullName: "A", Email: "a@example.com"}, "full_name"},
		{"missing email", SignupRequest{FullName: "Ada Lovelace"}, "email"},
		{"bad email", SignupRequest{FullName: "Ada Lovelace", Email: "not-an-email"}, "email"},
		{"bad user type", SignupRequest{FullName: "Ada Lovelace", Email: "a@example.com", UserType: "admin"}, "user_type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.JoinWaitlist(context.Background(), tc.req)
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tc.field, fieldErr.Field)
		})
	}

	count, err := service.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestJoinWaitlistDeveloperUserType(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	result, err := service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Dev Person",
		Email:    "dev@example.com",
		UserType: models.UserTypeDeveloper,
	})
	require.NoError(t, err)

	entry, err := service.GetByReferralCode(context.Background(), result.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, models.UserTypeDeveloper, entry.UserType)
}

func TestJoinWaitlistPublishesEvents(t *testing.T) {
	db := setupTestDB(t)
	broadcaster := &captureBroadcaster{}
	service := NewWaitlistService(db, broadcaster)

	referrer, err := service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
	})
	require.NoError(t, err)

	_, err = service.JoinWaitlist(context.Background(), SignupRequest{
		FullName:   "Grace Hopper",
		Email:      "grace@example.com",
		ReferredBy: referrer.ReferralCode,
	})
	require.NoError(t, err)

	signups := broadcaster.EventsOfType(realtime.EventNewSignup)
	require.Len(t, signups, 2)
	payload := signups[1].Payload.(map[string]interface{})
	assert.Equal(t, "grace@example.com", payload["email"])
	assert.Equal(t, int64(2), payload["position"])

	referrals := broadcaster.EventsOfType(realtime.EventNewReferral)
	require.Len(t, referrals, 1)
	refPayload := referrals[0].Payload.(map[string]interface{})
	assert.Equal(t, referrer.ReferralCode, refPayload["referral_code"])
	assert.Equal(t, 1, refPayload["count"])

	updates := broadcaster.EventsOfType(realtime.EventAnalyticsUpdate)
	require.Len(t, updates, 2)
	last := updates[1].Payload.(map[string]interface{})
	assert.Equal(t, int64(2), last["total_signups"])
	assert.Equal(t, int64(1), last["total_referrals"])
}

func TestJoinWaitlistBumpsDailyStat(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	referrer, err := service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
	})
	require.NoError(t, err)

	_, err = service.JoinWaitlist(context.Background(), SignupRequest{
		FullName:   "Grace Hopper",
		Email:      "grace@example.com",
		ReferredBy: referrer.ReferralCode,
	})
	require.NoError(t, err)

	var stat models.DailyStat
	today := time.Now().Format("2006-01-02")
	require.NoError(t, db.Where("date = ?", today).First(&stat).Error)
	assert.Equal(t, int64(2), stat.Signups)
	assert.Equal(t, int64(1), stat.Referrals)
}

func TestJoinWaitlistFeedsBreakdownsFromMetadata(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	for i := 0; i < 3; i++ {
		_, err := service.JoinWaitlist(context.Background(), SignupRequest{
			FullName: "Visitor Person",
			Email:    fmt.Sprintf("visitor%d@example.com", i),
			Metadata: map[string]interface{}{"country": "Kenya", "channel": "twitter"},
		})
		require.NoError(t, err)
	}

	var geo models.GeographicStat
	require.NoError(t, db.Where("country = ?", "Kenya").First(&geo).Error)
	assert.Equal(t, int64(3), geo.UserCount)

	var ch models.ReferralChannelStat
	require.NoError(t, db.Where("channel = ?", "twitter").First(&ch).Error)
	assert.Equal(t, int64(3), ch.UserCount)
}

func TestJoinWaitlistConcurrentReferrals(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	referrer, err := service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
	})
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := service.JoinWaitlist(context.Background(), SignupRequest{
				FullName:   "Concurrent Signup",
				Email:      fmt.Sprintf("user%d@example.com", i),
				ReferredBy: referrer.ReferralCode,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entry, err := service.GetByReferralCode(context.Background(), referrer.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, workers, entry.ReferralCount)

	count, err := service.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(workers+1), count)
}

func TestGetByReferralCodeNotFound(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	_, err := service.GetByReferralCode(context.Background(), "AAAAAA")
	assert.True(t, errors.Is(err, ErrEntryNotFound))
}

func TestGetByReferralCodeNormalizesInput(t *testing.T) {
	db := setupTestDB(t)
	service := NewWaitlistService(db, nil)

	result, err := service.JoinWaitlist(context.Background(), SignupRequest{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
	})
	require.NoError(t, err)

	entry, err := service.GetByReferralCode(context.Background(), "  "+result.ReferralCode+"  ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", entry.Email)
}

func TestGenerateReferralCodeUniqueness(t *testing.T) {
	samples := 10000
	if testing.Short() {
		samples = 1000
	}

	seen := make(map[string]bool, samples)
	for i := 0; i < samples; i++ {
		code, err := GenerateReferralCode(ReferralCodeLength)
		require.NoError(t, err)
		require.Len(t, code, ReferralCodeLength)
		require.Regexp(t, "^[A-Z0-9]+$", code)
		require.False(t, seen[code], "duplicate code %s after %d samples", code, i)
		seen[code] = true
	}
}
