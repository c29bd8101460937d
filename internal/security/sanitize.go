package security

import (
	"errors"
	"html"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var ErrInvalidEmail = errors.New("invalid email address")

var (
	strictPolicy  = bluemonday.StrictPolicy()
	angleBrackets = strings.NewReplacer("<", "", ">", "")
)

// SanitizeText trims free text and removes markup. It is a minimal sanitizer for
// plain-text fields, not an HTML sanitizer for rich content.
func SanitizeText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.TrimSpace(angleBrackets.Replace(s))
}

// NormalizeEmail validates a bare address and lower-cases it.
func NormalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || addr.Name != "" {
		return "", ErrInvalidEmail
	}

	at := strings.LastIndex(addr.Address, "@")
	if at <= 0 || !strings.Contains(addr.Address[at:], ".") {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
