package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/assettrack/apiserver/types"
)

const maxShortText = 255

var (
	namePattern  = regexp.MustCompile(`^[\p{L}\s]+$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// requiredText trims value and checks it is non-empty and at most max runes.
func requiredText(field, label, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid(field, label+" is required")
	}
	if utf8.RuneCountInString(value) > max {
		return "", invalid(field, fmt.Sprintf("%s must be at most %d characters", label, max))
	}
	return value, nil
}

// optionalText trims a nullable value. max <= 0 means unbounded.
func optionalText(field, label string, value *string, max int) (*string, error) {
	if value == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*value)
	if max > 0 && utf8.RuneCountInString(trimmed) > max {
		return nil, invalid(field, fmt.Sprintf("%s must be at most %d characters", label, max))
	}
	return &trimmed, nil
}

// optionalDate parses a nullable date. A present value must be a valid
// date; an empty string is not treated as absent.
func optionalDate(field, label string, value *string) (*types.Date, error) {
	if value == nil {
		return nil, nil
	}
	date, err := types.ParseDate(*value)
	if err != nil {
		return nil, invalid(field, label+" is invalid")
	}
	return &date, nil
}

// patchDate is optionalDate for a tri-state patch field.
func patchDate(field, label string, value types.Optional[string]) (types.Optional[types.Date], error) {
	if !value.Set || value.Null {
		return types.Optional[types.Date]{Set: value.Set, Null: value.Null}, nil
	}
	date, err := optionalDate(field, label, &value.Value)
	if err != nil {
		return types.Optional[types.Date]{}, err
	}
	return types.Some(*date), nil
}

func validatePersonName(name string) error {
	if utf8.RuneCountInString(name) < 4 || !namePattern.MatchString(name) {
		return invalid("name", "name must have at least 4 letters and contain only letters and spaces")
	}
	return nil
}

func validateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return invalid("email", "email is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if utf8.RuneCountInString(password) < 8 || !upper || !lower || !digit {
		return invalid("password", "password must have at least 8 characters with upper case, lower case and a digit")
	}
	return nil
}
