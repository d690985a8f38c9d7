package validation

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/habitmate/habitmate/internal/model"
)

var (
	ErrHabitNameRequired  = errors.New("habit name is required")
	ErrHabitNameTooLong   = errors.New("habit name is too long (max 100 characters)")
	ErrCategoryRequired   = errors.New("category is required")
	ErrCategoryTooLong    = errors.New("category is too long (max 50 characters)")
	ErrDescriptionTooLong = errors.New("description is too long (max 500 characters)")
	ErrInvalidFrequency   = errors.New("frequency must be daily, weekly or monthly")
)

func ValidateHabitName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrHabitNameRequired
	}
	if utf8.RuneCountInString(trimmed) > 100 {
		return ErrHabitNameTooLong
	}
	return nil
}

func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > 500 {
		return ErrDescriptionTooLong
	}
	return nil
}

// NormalizeCategory trims and title-cases category, so "health " and "Health" group together.
func NormalizeCategory(category string) (string, error) {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return "", ErrCategoryRequired
	}
	if utf8.RuneCountInString(trimmed) > 50 {
		return "", ErrCategoryTooLong
	}
	return cases.Title(language.English).String(trimmed), nil
}

// NormalizeFrequency accepts daily/weekly/monthly in any case. Empty means daily.
func NormalizeFrequency(frequency string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(frequency)) {
	case "", model.FrequencyDaily:
		return model.FrequencyDaily, nil
	case model.FrequencyWeekly:
		return model.FrequencyWeekly, nil
	case model.FrequencyMonthly:
		return model.FrequencyMonthly, nil
	default:
		return "", ErrInvalidFrequency
	}
}
