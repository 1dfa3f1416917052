package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKey returns the canonical "YYYY-MM-DD" key for a timestamp using its
// local calendar fields. Every store lookup and every callback payload uses
// this key; deriving the key from a UTC split would fragment the store for
// users east or west of UTC.
func DateKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// ParseDateKey parses a "YYYY-MM-DD" key back into its calendar components.
func ParseDateKey(key string) (year int, month time.Month, day int, err error) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("invalid date key: %s", key)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in date key %s: %w", key, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid month in date key %s: %w", key, err)
	}
	d, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid day in date key %s: %w", key, err)
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return 0, 0, 0, fmt.Errorf("date key out of range: %s", key)
	}
	return y, time.Month(m), d, nil
}

// HourStart reconstructs the local timestamp for the start of an hour block.
func HourStart(dateKey string, hour int) (time.Time, error) {
	if hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("invalid hour: %d", hour)
	}
	y, m, d, err := ParseDateKey(dateKey)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(y, m, d, hour, 0, 0, 0, time.Local), nil
}

// SlotTime reconstructs the local timestamp for a booked "HH:MM:SS" label on
// a given date key.
func SlotTime(dateKey, label string) (time.Time, error) {
	y, m, d, err := ParseDateKey(dateKey)
	if err != nil {
		return time.Time{}, err
	}
	parts := strings.Split(label, ":")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid slot label: %s", label)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in slot label %s: %w", label, err)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in slot label %s: %w", label, err)
	}
	ss, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid second in slot label %s: %w", label, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 || ss < 0 || ss > 59 {
		return time.Time{}, fmt.Errorf("slot label out of range: %s", label)
	}
	return time.Date(y, m, d, hh, mm, ss, 0, time.Local), nil
}
