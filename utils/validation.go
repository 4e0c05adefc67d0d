package utils

import (
	"html"
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	// Referral codes are 6 uppercase alphanumerics issued at signup
	referralCodeRegex = regexp.MustCompile(`^[A-Z0-9]{6}$`)
	htmlTagRegex      = regexp.MustCompile(`<[^>]*>`)
)

// SanitizeString escapes HTML special characters and strips any tags
func SanitizeString(input string) string {
	sanitized := html.EscapeString(strings.TrimSpace(input))
	return htmlTagRegex.ReplaceAllString(sanitized, "")
}

// NormalizeEmail lower-cases and trims an email address. Uniqueness is
// case-insensitive, so every email is normalized before storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks if the email has a valid shape
func ValidateEmail(email string) (bool, string) {
	if strings.TrimSpace(email) == "" {
		return false, "Email is required"
	}
	if !emailRegex.MatchString(NormalizeEmail(email)) {
		return false, "Invalid email format. Please enter a valid email address"
	}
	return true, ""
}

// ValidateFullName checks the registrant name
func ValidateFullName(name string) (bool, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false, "Full name is required"
	}
	if len(trimmed) < 2 {
		return false, "Full name must be at least 2 characters long"
	}
	if len(trimmed) > 100 {
		return false, "Full name must not exceed 100 characters"
	}
	return true, ""
}

// ValidateReferralCodeFormat checks the shape of a referral code without
// hitting storage. Unknown codes are tolerated downstream; malformed ones
// are rejected early.
func ValidateReferralCodeFormat(code string) (bool, string) {
	if !referralCodeRegex.MatchString(code) {
		return false, "Referral code must be 6 uppercase letters or digits"
	}
	return true, ""
}
