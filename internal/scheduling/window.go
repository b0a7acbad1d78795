// Package scheduling holds the store-free rules that decide whether a table
// can be booked: opening-hours containment, party size banding and hourly
// table occupancy.
//
// All clock arithmetic uses UTC fields of the reservation's calendar day.
// A restaurant's "18:00" is 18:00 on the UTC day of the reservation date,
// regardless of the server's local zone.
package scheduling

import (
	"errors"
	"fmt"
	"time"
)

const (
	ClockLayout = "15:04"
	DateLayout  = "2006-01-02"

	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour
)

var (
	ErrInvalidClock    = errors.New("time must be in HH:MM format")
	ErrInvalidDate     = errors.New("date must be in YYYY-MM-DD format")
	ErrPastDate        = errors.New("date cannot be in the past")
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
	ErrInvalidHours    = errors.New("opening time must precede closing time")
)

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(clock string) (int, error) {
	if len(clock) != len(ClockLayout) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, clock)
	}
	return t.Hour()*MinutesPerHour + t.Minute(), nil
}

// FormatClock renders minutes after midnight as "HH:MM". Values past the end
// of the day are rendered as-is, so 1440 becomes "24:00".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/MinutesPerHour, minutes%MinutesPerHour)
}

// ParseDate parses a date-only string as midnight UTC.
func ParseDate(date string) (time.Time, error) {
	if len(date) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	d, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return d, nil
}

// ReservationStart anchors a start clock onto its calendar date.
func ReservationStart(date, clock string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	minutes, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(minutes) * time.Minute), nil
}

// EndClock returns the clock at which a reservation starting at startClock
// for durationMin minutes ends.
func EndClock(startClock string, durationMin int) (string, error) {
	if durationMin <= 0 {
		return "", ErrInvalidDuration
	}
	start, err := ParseClock(startClock)
	if err != nil {
		return "", err
	}
	return FormatClock(start + durationMin), nil
}

// ValidateHours checks a restaurant's opening window.
func ValidateHours(openTime, closeTime string) error {
	open, err := ParseClock(openTime)
	if err != nil {
		return err
	}
	closing, err := ParseClock(closeTime)
	if err != nil {
		return err
	}
	if open >= closing {
		return ErrInvalidHours
	}
	return nil
}

// IsWithinHours reports whether [start, start+duration] lies inside the
// restaurant's [open, close] window on start's UTC calendar day. Touching
// either boundary is allowed. Unparseable hours never contain anything.
func IsWithinHours(start time.Time, durationMin int, openTime, closeTime string) bool {
	if durationMin <= 0 {
		return false
	}
	open, err := ParseClock(openTime)
	if err != nil {
		return false
	}
	closing, err := ParseClock(closeTime)
	if err != nil {
		return false
	}

	start = start.UTC()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	openAt := day.Add(time.Duration(open) * time.Minute)
	closeAt := day.Add(time.Duration(closing) * time.Minute)
	end := start.Add(time.Duration(durationMin) * time.Minute)

	return !start.Before(openAt) && !end.After(closeAt)
}

// ValidateNotPast rejects dates strictly before now's UTC calendar day.
func ValidateNotPast(date time.Time, now time.Time) error {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.UTC().Before(today) {
		return ErrPastDate
	}
	return nil
}
