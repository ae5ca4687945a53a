package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength bounds the text of one inbound message, in characters
const MaxMessageLength = 2000

var (
	userIDRegex  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._@:-]{0,63}$`)
	controlRegex = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	spaceRegex   = regexp.MustCompile(`[ \t]+`)
)

// ValidateUserID checks the shape of a requester identifier
func ValidateUserID(userID string) error {
	if !userIDRegex.MatchString(userID) {
		return fmt.Errorf("invalid user id: %q", userID)
	}
	return nil
}

// ValidateMessageText rejects empty and oversized messages
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("message text is empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxMessageLength {
		return fmt.Errorf("message text exceeds %d characters: %d", MaxMessageLength, n)
	}
	return nil
}

// SanitizeString removes control characters and collapses runs of spaces
func SanitizeString(s string) string {
	sanitized := controlRegex.ReplaceAllString(s, "")
	sanitized = spaceRegex.ReplaceAllString(sanitized, " ")
	return strings.TrimSpace(sanitized)
}
