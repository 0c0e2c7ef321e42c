package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the wire and storage format of calendar dates.
	DateLayout = "2006-01-02"
	// TimeLayout is the wire and storage format of times of day.
	TimeLayout = "15:04"
)

// ParseDate validates a YYYY-MM-DD date and returns it in canonical form.
func ParseDate(value string) (string, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t.Format(DateLayout), nil
}

// ParseClock accepts HH:MM or HH:MM:00 and returns HH:MM. Schedules and
// appointments have minute precision, so non-zero seconds are rejected.
func ParseClock(value string) (string, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(TimeLayout, value); err == nil {
		return t.Format(TimeLayout), nil
	}
	t, err := time.Parse("15:04:05", value)
	if err != nil {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	if t.Second() != 0 {
		return "", fmt.Errorf("invalid time %q, seconds must be 00", value)
	}
	return t.Format(TimeLayout), nil
}
