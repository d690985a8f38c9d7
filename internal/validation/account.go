package validation

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

var (
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooLong      = errors.New("name is too long (max 100 characters)")
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailTooLong     = errors.New("email is too long (max 254 characters)")
	ErrInvalidEmail     = errors.New("email must be a plain address like you@example.com")
	ErrPasswordTooShort = errors.New("password is too short (min 12 characters)")
	ErrPasswordTooLong  = errors.New("password is too long (max 72 bytes)")
	ErrPasswordCommon   = errors.New("password is too common, please choose a stronger one")
)

// commonPasswordParts are rejected anywhere in a password, case-insensitively.
var commonPasswordParts = []string{
	"password", "123456", "qwerty", "letmein", "welcome",
	"monkey", "dragon", "sunshine", "habitmate",
}

// ValidateName checks the display name shown on the profile and in emails.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(trimmed) > 100 {
		return ErrNameTooLong
	}
	return nil
}

// NormalizeEmail trims and lowercases email and accepts only a bare address,
// so "Ada <ada@example.com>" is rejected rather than stored with its display name.
func NormalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrEmailRequired
	}
	if len(normalized) > 254 {
		return "", ErrEmailTooLong
	}
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// ValidatePassword enforces a 12 character minimum. The 72 byte cap is bcrypt's,
// which silently ignores anything longer.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 12 {
		return ErrPasswordTooShort
	}
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	lower := strings.ToLower(password)
	for _, part := range commonPasswordParts {
		if strings.Contains(lower, part) {
			return ErrPasswordCommon
		}
	}
	return nil
}
