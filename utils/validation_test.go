package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"ada@example.com", "a.b+c@sub.example.co", "USER@EXAMPLE.COM"}
	for _, email := range valid {
		ok, _ := ValidateEmail(email)
		assert.True(t, ok, "expected %q to be valid", email)
	}

	invalid := []string{"", "   ", "no-at-sign", "missing@tld", "@example.com", "a b@example.com"}
	for _, email := range invalid {
		ok, msg := ValidateEmail(email)
		assert.False(t, ok, "expected %q to be invalid", email)
		assert.NotEmpty(t, msg)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  ADA@Example.COM  "))
}

func TestValidateFullName(t *testing.T) {
	ok, _ := ValidateFullName("Ada Lovelace")
	assert.True(t, ok)

	for _, name := range []string{"", " ", "A"} {
		ok, _ := ValidateFullName(name)
		assert.False(t, ok, "expected %q to be invalid", name)
	}

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	ok, _ = ValidateFullName(string(long))
	assert.False(t, ok)
}

func TestValidateReferralCodeFormat(t *testing.T) {
	ok, _ := ValidateReferralCodeFormat("ABC123")
	assert.True(t, ok)

	for _, code := range []string{"", "abc123", "ABC12", "ABC1234", "ABC-12"} {
		ok, _ := ValidateReferralCodeFormat(code)
		assert.False(t, ok, "expected %q to be invalid", code)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", SanitizeString("  Ada Lovelace  "))
	sanitized := SanitizeString(`<script>alert("x")</script>Ada`)
	assert.NotContains(t, sanitized, "<script>")
	assert.Contains(t, sanitized, "Ada")
}
