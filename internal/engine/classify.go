package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tartampluch/friendly-reminder/internal/config"
)

// DashboardHorizon is the "upcoming" window of the dashboard widget.
const DashboardHorizon = 7 * 24 * time.Hour

// Status classifies a contact's next reminder relative to now.
type Status int

const (
	StatusNone Status = iota
	StatusOverdue
	StatusUpcoming
	StatusFuture
)

var statusNames = [...]string{"none", "overdue", "upcoming", "future"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return statusNames[StatusNone]
	}
	return statusNames[s]
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("%s %q", config.ErrUnknownStatus, text)
}

// IsOverdue reports whether c's next reminder is strictly before now.
// A contact without a (parseable) next_reminder is never overdue.
func IsOverdue(c Contact, now time.Time) bool {
	t, ok := NextReminderAt(c, now.Location())
	return ok && t.Before(now)
}

// IsUpcoming reports whether c's next reminder lies in [now, now+horizon].
func IsUpcoming(c Contact, now time.Time, horizon time.Duration) bool {
	t, ok := NextReminderAt(c, now.Location())
	return ok && !t.Before(now) && !t.After(now.Add(horizon))
}

// Classify returns the status of c's next reminder.
func Classify(c Contact, now time.Time, horizon time.Duration) Status {
	switch {
	case IsOverdue(c, now):
		return StatusOverdue
	case IsUpcoming(c, now, horizon):
		return StatusUpcoming
	default:
		if _, ok := NextReminderAt(c, now.Location()); ok {
			return StatusFuture
		}
		return StatusNone
	}
}

// DueContact pairs a contact with its next reminder instant.
type DueContact struct {
	Contact Contact   `json:"contact"`
	Due     time.Time `json:"due"`
	Status  Status    `json:"status"`
}

// BirthdayItem pairs a contact with its next birthday date.
type BirthdayItem struct {
	Contact Contact   `json:"contact"`
	Date    time.Time `json:"date"`
}

// Dashboard is the at-a-glance view of who needs attention.
type Dashboard struct {
	Overdue   []DueContact   `json:"overdue"`
	Upcoming  []DueContact   `json:"upcoming"`
	Birthdays []BirthdayItem `json:"birthdays"`
}

// Partition sorts contacts into overdue (oldest first), upcoming within
// horizon (soonest first) and birthdays within horizon. Ties are broken by
// name so that the result is deterministic.
func Partition(contacts []Contact, now time.Time, horizon time.Duration, policy LeapDayPolicy) Dashboard {
	var d Dashboard
	limit := DateOf(now).Add(horizon)

	for _, c := range contacts {
		if due, ok := NextReminderAt(c, now.Location()); ok {
			switch Classify(c, now, horizon) {
			case StatusOverdue:
				d.Overdue = append(d.Overdue, DueContact{Contact: c, Due: due, Status: StatusOverdue})
			case StatusUpcoming:
				d.Upcoming = append(d.Upcoming, DueContact{Contact: c, Due: due, Status: StatusUpcoming})
			}
		}
		if b, ok := NextBirthday(c, now, policy); ok && !b.After(limit) {
			d.Birthdays = append(d.Birthdays, BirthdayItem{Contact: c, Date: b})
		}
	}

	sortDue(d.Overdue)
	sortDue(d.Upcoming)
	sort.SliceStable(d.Birthdays, func(i, j int) bool {
		a, b := d.Birthdays[i], d.Birthdays[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return strings.ToLower(a.Contact.Name) < strings.ToLower(b.Contact.Name)
	})
	return d
}

func sortDue(items []DueContact) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.Due.Equal(b.Due) {
			return a.Due.Before(b.Due)
		}
		return strings.ToLower(a.Contact.Name) < strings.ToLower(b.Contact.Name)
	})
}
