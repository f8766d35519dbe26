package engine

import (
	"log/slog"
	"time"

	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/teambition/rrule-go"
)

// Iteration caps bound the work of a single projection.
// They are safety valves against corrupt intervals or anchors, not business rules.
const (
	MonthIterationCap = 50
	YearIterationCap  = 1000
)

// DefaultIterationCap picks the cap for a window: month-sized windows use
// MonthIterationCap, anything longer uses YearIterationCap.
func DefaultIterationCap(w Window) int {
	if w.Days() <= 31 {
		return MonthIterationCap
	}
	return YearIterationCap
}

// ProjectReminders returns the reach-out dates of c inside w (both bounds
// inclusive), in increasing order and spaced by exactly c.ReminderDays.
//
// The anchor is next_reminder when it parses, otherwise last_conversation
// plus the interval, otherwise today (the date of now) plus the interval.
// At most maxIterations dates are returned. The cap counts dates emitted
// inside w: anchors before w.Start are first moved forward by whole intervals
// in constant time, so a stale anchor never consumes the cap. An invalid
// interval or cap yields no dates.
func ProjectReminders(c Contact, w Window, now time.Time, maxIterations int) []time.Time {
	if c.ReminderDays <= 0 || maxIterations <= 0 {
		return nil
	}

	anchor, ok := reminderAnchor(c, now)
	if !ok {
		return nil
	}

	first, ok := fastForward(anchor, w, c.ReminderDays)
	if !ok {
		return nil
	}

	// Only one occurrence fits when the interval spans the whole window.
	if c.ReminderDays >= w.Days() {
		return []time.Time{first}
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: c.ReminderDays,
		Dtstart:  first,
		Until:    w.End,
	})
	if err != nil {
		slog.Debug(config.ErrDateParse,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyContactID, c.ID,
			config.LogKeyError, err)
		return nil
	}

	next := rule.Iterator()
	var dates []time.Time
	for len(dates) < maxIterations {
		d, ok := next()
		if !ok || d.After(w.End) {
			return dates
		}
		if !w.Contains(d) {
			continue
		}
		dates = append(dates, d)
	}

	if d, ok := next(); ok && !d.After(w.End) {
		slog.Debug(config.MsgIterationCap,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyContactID, c.ID,
			config.LogKeyCap, maxIterations)
	}
	return dates
}

// reminderAnchor resolves the first candidate date of c's reminder series.
func reminderAnchor(c Contact, now time.Time) (time.Time, bool) {
	loc := now.Location()

	if c.NextReminder != "" {
		if d, err := ParseDate(c.NextReminder, loc); err == nil {
			return d, true
		}
		slog.Debug(config.MsgSkippedAnchor,
			config.LogKeyComponent, config.CompEngine,
			config.LogKeyContactID, c.ID,
			config.LogKeyValue, c.NextReminder)
	}

	if c.LastConversation != "" {
		d, err := ParseDate(c.LastConversation, loc)
		if err != nil {
			slog.Debug(config.MsgSkippedHistory,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyContactID, c.ID,
				config.LogKeyValue, c.LastConversation)
			return time.Time{}, false
		}
		return d.AddDate(0, 0, c.ReminderDays), true
	}

	return DateOf(now).AddDate(0, 0, c.ReminderDays), true
}

// fastForward moves anchor by whole intervals to the first occurrence inside
// w. It reports false when the series has no date in w.
func fastForward(anchor time.Time, w Window, interval int) (time.Time, bool) {
	if !anchor.Before(w.Start) {
		return anchor, w.Contains(anchor)
	}
	// offset is in [0, interval), so no product of the interval is formed.
	offset := 0
	if r := daysBetween(anchor, w.Start) % interval; r != 0 {
		offset = interval - r
	}
	if offset >= w.Days() {
		return time.Time{}, false
	}
	return w.Start.AddDate(0, 0, offset), true
}

// NextReminderAt returns the stored next_reminder of c as an instant.
// Date-only values are midnight in loc.
func NextReminderAt(c Contact, loc *time.Location) (time.Time, bool) {
	if c.NextReminder == "" {
		return time.Time{}, false
	}
	t, err := ParseInstant(c.NextReminder, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// RecordConversation returns a copy of c whose last conversation is the date
// of at and whose next reminder is that date plus the interval.
func RecordConversation(c Contact, at time.Time) (Contact, error) {
	if c.ReminderDays < 1 {
		return c, errInvalid(config.ErrReminderDays)
	}
	d := DateOf(at)
	c.LastConversation = d.Format(config.DateFormatFullDash)
	c.NextReminder = d.AddDate(0, 0, c.ReminderDays).Format(config.DateFormatFullDash)
	return c, nil
}

// Snooze returns a copy of c whose next reminder is moved to today plus days.
func Snooze(c Contact, days int, now time.Time) (Contact, error) {
	if days < 1 || days > config.MaxSnoozeDays {
		return c, errInvalid(config.ErrSnoozeDays)
	}
	c.NextReminder = DateOf(now).AddDate(0, 0, days).Format(config.DateFormatFullDash)
	return c, nil
}
