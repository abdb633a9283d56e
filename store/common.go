package store

import (
	"time"

	"github.com/pkg/errors"
)

// DateLayout is the canonical date format for user-facing dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// ValidateTimezone checks that name is a loadable IANA timezone.
func ValidateTimezone(name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return errors.Wrapf(err, "invalid timezone %q", name)
	}
	return nil
}
