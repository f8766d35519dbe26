package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tartampluch/friendly-reminder/internal/config"
)

// ErrInvalidContact is wrapped by every validation failure returned by Validate.
var ErrInvalidContact = errors.New("invalid contact")

// Contact is a person the user wants to keep in touch with.
// Optional string fields use the empty string for "absent".
type Contact struct {
	// ID is an opaque unique identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// ReminderDays is the interval between reach-out reminders. Valid iff >= 1.
	ReminderDays int `json:"reminder_days"`

	// LastConversation is an ISO-8601 date or date-time.
	LastConversation string `json:"last_conversation,omitempty"`

	// NextReminder is a previously computed anchor, preferred over LastConversation.
	NextReminder string `json:"next_reminder,omitempty"`

	// Birthday uses the YYYY-MM-DD form; the year is a placeholder.
	Birthday string `json:"birthday,omitempty"`

	// BirthdayReminder enables birthday events for this contact.
	BirthdayReminder bool `json:"birthday_reminder"`

	Email string `json:"email,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// EventType tags a calendar event.
type EventType string

const (
	EventReminder EventType = "reminder"
	EventBirthday EventType = "birthday"
)

// Event is a synthesized, non-persisted calendar entry.
type Event struct {
	// Contact is a read-only copy of the originating contact.
	Contact Contact `json:"contact"`

	Type EventType `json:"type"`

	// Date is a calendar date (midnight UTC, see DateOf).
	Date time.Time `json:"date"`
}

// Key returns the day-level grouping key of the event.
func (e Event) Key() DateKey {
	return KeyOf(e.Date)
}

// Validate checks the fields a user can edit.
// Every returned error wraps ErrInvalidContact.
func Validate(c Contact) error {
	if strings.TrimSpace(c.Name) == "" {
		return errInvalid(config.ErrNameRequired)
	}
	if c.ReminderDays < 1 {
		return errInvalid(config.ErrReminderDays)
	}
	if c.ReminderDays > config.MaxReminderDays {
		return errInvalid(config.ErrReminderDaysMax)
	}
	if c.Birthday != "" {
		if _, _, err := ParseBirthday(c.Birthday); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidContact, err)
		}
	}
	for _, v := range []string{c.LastConversation, c.NextReminder} {
		if v == "" {
			continue
		}
		if _, err := ParseInstant(v, time.UTC); err != nil {
			return fmt.Errorf("%w: %s %q", ErrInvalidContact, config.ErrDateParse, v)
		}
	}
	return nil
}

func errInvalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidContact, msg)
}
