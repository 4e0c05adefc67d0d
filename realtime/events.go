package realtime

// Event kinds pushed to subscribed dashboard and landing-page clients.
const (
	EventNewSignup       = "NEW_SIGNUP"
	EventNewReferral     = "NEW_REFERRAL"
	EventAnalyticsUpdate = "ANALYTICS_UPDATE"
)

// Event is a single broadcast frame. Delivery is best-effort and
// at-most-once: disconnected clients miss events permanently and are
// expected to re-fetch state over HTTP on reconnect.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Broadcaster publishes events to all subscribed clients. The transport is
// swappable: an in-process hub for a single instance, or a Redis-backed
// fan-out when running more than one.
type Broadcaster interface {
	Publish(event Event)
}

// NewSignupEvent announces a fresh waitlist entry.
func NewSignupEvent(email string, position int64, referralCode string) Event {
	return Event{
		Type: EventNewSignup,
		Payload: map[string]interface{}{
			"email":         email,
			"position":      position,
			"referral_code": referralCode,
		},
	}
}

// NewReferralEvent announces a referral-count increment for a referrer.
func NewReferralEvent(referralCode string, count int) Event {
	return Event{
		Type: EventNewReferral,
		Payload: map[string]interface{}{
			"referral_code": referralCode,
			"count":         count,
		},
	}
}

// AnalyticsUpdateEvent pushes fresh aggregate totals after a signup.
func AnalyticsUpdateEvent(totalSignups, totalReferrals int64) Event {
	return Event{
		Type: EventAnalyticsUpdate,
		Payload: map[string]interface{}{
			"total_signups":   totalSignups,
			"total_referrals": totalReferrals,
		},
	}
}
