package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tartampluch/friendly-reminder/internal/config"
)

// LeapDayPolicy decides where a Feb 29 birthday falls in a non-leap year.
type LeapDayPolicy int

const (
	// LeapDayMarch1 follows time.Date normalization: Feb 29 becomes Mar 1.
	LeapDayMarch1 LeapDayPolicy = iota
	// LeapDayFeb28 clamps Feb 29 to Feb 28.
	LeapDayFeb28
)

// ParseLeapDayPolicy maps a settings value to a policy (default LeapDayMarch1).
func ParseLeapDayPolicy(s string) LeapDayPolicy {
	if s == config.LeapDayFeb28 {
		return LeapDayFeb28
	}
	return LeapDayMarch1
}

// ParseBirthday extracts month and day from a YYYY-MM-DD birthday.
// The year is a placeholder: it must be four digits but is otherwise ignored,
// so "1990-02-29" is accepted.
func ParseBirthday(value string) (time.Month, int, error) {
	if len(value) != len(config.DateFormatFullDash) || value[4] != '-' {
		return 0, 0, fmt.Errorf("%s: %q", config.ErrBirthdayFormat, value)
	}
	for _, r := range value[:4] {
		if r < '0' || r > '9' {
			return 0, 0, fmt.Errorf("%s: %q", config.ErrBirthdayFormat, value)
		}
	}
	// Re-anchor on a leap year so that Feb 29 validates.
	t, err := time.Parse(config.DateFormatFullDash, strconv.Itoa(config.DefaultLeapYear)+value[4:])
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", config.ErrBirthdayFormat, err)
	}
	return t.Month(), t.Day(), nil
}

// ProjectBirthday returns c's birthday in the given year.
// It reports false when birthday reminders are disabled or the birthday is
// absent or malformed.
func ProjectBirthday(c Contact, year int, policy LeapDayPolicy) (time.Time, bool) {
	if !c.BirthdayReminder || c.Birthday == "" {
		return time.Time{}, false
	}
	month, day, err := ParseBirthday(c.Birthday)
	if err != nil {
		return time.Time{}, false
	}
	return birthdayIn(year, month, day, policy), true
}

// NextBirthday returns the first occurrence of c's birthday on or after the
// date of now.
func NextBirthday(c Contact, now time.Time, policy LeapDayPolicy) (time.Time, bool) {
	today := DateOf(now)
	candidate, ok := ProjectBirthday(c, today.Year(), policy)
	if !ok {
		return time.Time{}, false
	}
	if candidate.Before(today) {
		candidate, _ = ProjectBirthday(c, today.Year()+1, policy)
	}
	return candidate, true
}

func birthdayIn(year int, month time.Month, day int, policy LeapDayPolicy) time.Time {
	if month == time.February && day == 29 && !isLeap(year) && policy == LeapDayFeb28 {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
