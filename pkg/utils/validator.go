package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+(\.[a-zA-Z]{2,})?$`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateEmail validates an email address. Single-label domains such as
// "a@a" are accepted because the fixture accounts use them.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidateAmount rejects negative amounts; absent amounts are fine
func ValidateAmount(amount *float64) error {
	if amount != nil && *amount < 0 {
		return fmt.Errorf("amount must not be negative: %.2f", *amount)
	}
	return nil
}

// SanitizeString removes control characters and surrounding blanks
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}
