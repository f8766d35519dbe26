package engine

import (
	"log/slog"
	"sort"
	"time"

	"github.com/tartampluch/friendly-reminder/internal/config"
)

// Options tunes BuildCalendar.
type Options struct {
	// MaxIterations caps reminder projection per contact.
	// Zero selects DefaultIterationCap for the window.
	MaxIterations int

	// LeapDay places Feb 29 birthdays in non-leap years.
	LeapDay LeapDayPolicy
}

// MonthSummary holds the per-month counts shown on a yearly tile.
type MonthSummary struct {
	Month     time.Month `json:"month"`
	Reminders int        `json:"reminders"`
	Birthdays int        `json:"birthdays"`
}

// Calendar is the result of projecting a contact list over a window.
type Calendar struct {
	Window Window

	// Events holds every event by ascending date. Events on the same date
	// keep the order in which their contacts were supplied.
	Events []Event

	// ByDate groups events by calendar day.
	ByDate map[DateKey][]Event

	// ByMonth groups events by calendar month.
	ByMonth map[MonthKey][]Event
}

// BuildCalendar merges the reminder and birthday events of contacts inside w.
//
// A malformed birthday is logged and skipped for that contact only; nothing
// here fails the whole calendar. The input slice is not modified.
func BuildCalendar(contacts []Contact, w Window, now time.Time, opts Options) *Calendar {
	limit := opts.MaxIterations
	if limit <= 0 {
		limit = DefaultIterationCap(w)
	}

	cal := &Calendar{
		Window:  w,
		ByDate:  make(map[DateKey][]Event),
		ByMonth: make(map[MonthKey][]Event),
	}

	for _, c := range contacts {
		for _, d := range ProjectReminders(c, w, now, limit) {
			cal.Events = append(cal.Events, Event{Contact: c, Type: EventReminder, Date: d})
		}
		cal.Events = append(cal.Events, birthdayEvents(c, w, opts.LeapDay)...)
	}

	sort.SliceStable(cal.Events, func(i, j int) bool {
		return cal.Events[i].Date.Before(cal.Events[j].Date)
	})

	for _, e := range cal.Events {
		key := KeyOf(e.Date)
		cal.ByDate[key] = append(cal.ByDate[key], e)
		month := MonthOf(e.Date)
		cal.ByMonth[month] = append(cal.ByMonth[month], e)
	}

	slog.Debug(config.MsgCalendarBuilt,
		config.LogKeyComponent, config.CompCalendar,
		config.LogKeyStart, KeyOf(w.Start),
		config.LogKeyEnd, KeyOf(w.End),
		config.LogKeyContacts, len(contacts),
		config.LogKeyEvents, len(cal.Events))

	return cal
}

// birthdayEvents projects c's birthday onto every year touched by w.
func birthdayEvents(c Contact, w Window, policy LeapDayPolicy) []Event {
	if !c.BirthdayReminder || c.Birthday == "" {
		return nil
	}
	month, day, err := ParseBirthday(c.Birthday)
	if err != nil {
		slog.Warn(config.MsgSkippedBirthday,
			config.LogKeyComponent, config.CompCalendar,
			config.LogKeyContactID, c.ID,
			config.LogKeyValue, c.Birthday,
			config.LogKeyError, err)
		return nil
	}

	var events []Event
	for y := w.Start.Year(); y <= w.End.Year(); y++ {
		d := birthdayIn(y, month, day, policy)
		if w.Contains(d) {
			events = append(events, Event{Contact: c, Type: EventBirthday, Date: d})
		}
	}
	return events
}

// On returns the events of a single day.
func (cal *Calendar) On(date time.Time) []Event {
	return cal.ByDate[KeyOf(date)]
}

// InMonth returns the events of a single month.
func (cal *Calendar) InMonth(year int, month time.Month) []Event {
	return cal.ByMonth[MonthKey{Year: year, Month: month}]
}

// MonthSummaries counts reminders and birthdays per month of year,
// indexed 0 (January) to 11 (December).
func (cal *Calendar) MonthSummaries(year int) [12]MonthSummary {
	var out [12]MonthSummary
	for i := range out {
		out[i].Month = time.Month(i + 1)
	}
	for key, events := range cal.ByMonth {
		if key.Year != year {
			continue
		}
		for _, e := range events {
			switch e.Type {
			case EventReminder:
				out[key.Index()].Reminders++
			case EventBirthday:
				out[key.Index()].Birthdays++
			}
		}
	}
	return out
}
