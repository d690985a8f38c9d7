package validation

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/habitmate/habitmate/internal/model"
)

var (
	ErrBioTooLong         = errors.New("bio is too long (max 500 characters)")
	ErrPhoneTooLong       = errors.New("phone number is too long (max 30 characters)")
	ErrLocationTooLong    = errors.New("location is too long (max 100 characters)")
	ErrInvalidDateOfBirth = errors.New("date of birth must be YYYY-MM-DD")
)

func ValidateBio(bio string) error {
	if utf8.RuneCountInString(bio) > 500 {
		return ErrBioTooLong
	}
	return nil
}

func ValidatePhoneNumber(phone string) error {
	if len(strings.TrimSpace(phone)) > 30 {
		return ErrPhoneTooLong
	}
	return nil
}

func ValidateLocation(location string) error {
	if utf8.RuneCountInString(strings.TrimSpace(location)) > 100 {
		return ErrLocationTooLong
	}
	return nil
}

// ValidateDateOfBirth accepts an empty string or a past YYYY-MM-DD date.
func ValidateDateOfBirth(date string, now time.Time) error {
	if date == "" {
		return nil
	}
	t, err := time.Parse(model.DayLayout, date)
	if err != nil {
		return ErrInvalidDateOfBirth
	}
	if t.After(now) {
		return ErrInvalidDateOfBirth
	}
	return nil
}
