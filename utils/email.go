package utils

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func emailConfigFromEnv() EmailConfig {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil || port == 0 {
		port = 587
	}
	return EmailConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

// SendWaitlistWelcome sends the welcome email with the registrant's referral
// link. Sending is best-effort: when SMTP is not configured the email is
// skipped without error so signups never depend on the mail server.
func SendWaitlistWelcome(to, fullName, referralCode string) error {
	config := emailConfigFromEnv()
	if config.Host == "" {
		LogDebug("SMTP not configured, skipping welcome email for %s", to)
		return nil
	}

	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "https://peochain.xyz"
	}
	referralLink := fmt.Sprintf("%s/?ref=%s", siteURL, referralCode)

	m := gomail.NewMessage()
	m.SetHeader("From", config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "You're on the PeoChain waitlist!")

	body := fmt.Sprintf(`
		<h2>Welcome to PeoChain, %s!</h2>
		<p>You're officially on the waitlist. We'll let you know as soon as early access opens.</p>
		<p>Want to move up the list? Share your personal referral link:</p>
		<p><a href="%s">%s</a></p>
		<p>Your referral code: <strong>%s</strong></p>
	`, fullName, referralLink, referralLink, referralCode)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %v", err)
	}

	return nil
}
