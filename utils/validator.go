// utils/validator.go - Input validation
package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex    = regexp.MustCompile(`^\+?[0-9][0-9 -]{6,18}[0-9]$`)
	unsafeNameRun = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)
)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePhone accepts digits with optional leading +, spaces and dashes.
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(phone)
}

// ValidatePassword checks password strength
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	return true, ""
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// SafeFileName strips directories and collapses characters that are awkward
// in a Content-Disposition header.
func SafeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(SanitizeInput(name), "\\", "/"))
	ext := filepath.Ext(name)
	stem := strings.Trim(unsafeNameRun.ReplaceAllString(strings.TrimSuffix(name, ext), "_"), "._")
	if stem == "" {
		stem = "document"
	}
	return stem + strings.ToLower(unsafeNameRun.ReplaceAllString(ext, ""))
}
