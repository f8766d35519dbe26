package engine

import (
	"errors"
	"time"

	"github.com/tartampluch/friendly-reminder/internal/config"
)

// Calendar dates are represented as time.Time values at 00:00 UTC. Only the
// year, month and day carry meaning; comparisons are therefore exact and
// day arithmetic is free of DST shifts.

// DateKey is the ISO date-only grouping key (YYYY-MM-DD).
type DateKey string

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// Index returns the zero-based month index (0 = January).
func (k MonthKey) Index() int {
	return int(k.Month) - 1
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// KeyOf returns the grouping key for a date or timestamp.
func KeyOf(t time.Time) DateKey {
	return DateKey(DateOf(t).Format(config.DateFormatFullDash))
}

// MonthOf returns the month bucket of a date.
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseInstant parses a stored ISO-8601 value.
// Zoned timestamps keep their offset; naive timestamps and date-only values
// are interpreted in loc.
func ParseInstant(value string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(config.DateFormatRFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{config.DateFormatLocalT, config.DateFormatFullDash} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New(config.ErrDateParse)
}

// ParseDate parses a stored ISO-8601 value and returns its calendar date in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := ParseInstant(value, loc)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t.In(loc)), nil
}

// daysBetween counts whole days from a to b. Both must be calendar dates.
// Unix seconds keep the count exact where time.Duration would saturate.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// Window is an inclusive range of calendar dates.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow builds a window from two dates or timestamps (each taken in its
// own location). Reversed bounds are swapped.
func NewWindow(start, end time.Time) Window {
	s, e := DateOf(start), DateOf(end)
	if e.Before(s) {
		s, e = e, s
	}
	return Window{Start: s, End: e}
}

// MonthWindow covers one calendar month.
func MonthWindow(year int, month time.Month) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.AddDate(0, 1, -1)}
}

// YearWindow covers January 1st to December 31st of year.
func YearWindow(year int) Window {
	return Window{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// LookaheadWindow covers today through the same day `years` years later.
func LookaheadWindow(now time.Time, years int) Window {
	today := DateOf(now)
	return Window{Start: today, End: today.AddDate(years, 0, 0)}
}

// Contains reports whether the calendar date d lies inside the window.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns the number of dates in the window.
func (w Window) Days() int {
	return daysBetween(w.Start, w.End) + 1
}
