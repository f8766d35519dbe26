package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-vcard"
	"github.com/tartampluch/friendly-reminder/internal/config"
)

// DecodeVCards reads a vCard stream and converts every card into a Contact.
// Cards that fail to decode are logged and skipped. Imported contacts get
// defaultDays as reminder interval and have birthday reminders enabled when
// a birthday is present.
func DecodeVCards(ctx context.Context, r io.Reader, defaultDays int) ([]Contact, error) {
	decoder := vcard.NewDecoder(r)
	var contacts []Contact

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		card, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Log error but continue to next card to maximize data recovery
			slog.Warn(config.MsgSkippedCard,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyError, err)
			continue
		}

		contacts = append(contacts, ContactFromCard(card, defaultDays))
	}
	return contacts, nil
}

// ContactFromCard maps a single vCard onto a Contact.
// Name strategy: FN (Formatted) > N (Structured) > Fallback.
func ContactFromCard(card vcard.Card, defaultDays int) Contact {
	c := Contact{
		Name:         config.FallbackName,
		ReminderDays: defaultDays,
	}

	if fn := card.Get(config.VCardFN); fn != nil && strings.TrimSpace(fn.Value) != "" {
		c.Name = strings.TrimSpace(fn.Value)
	} else if n := card.Name(); n != nil {
		if full := strings.TrimSpace(n.GivenName + " " + n.FamilyName); full != "" {
			c.Name = full
		}
	}

	if email := card.Get(config.VCardEmail); email != nil {
		c.Email = email.Value
	}
	if note := card.Get(config.VCardNote); note != nil {
		c.Notes = note.Value
	}

	if bday := card.Get(config.VCardBDAY); bday != nil && bday.Value != "" {
		birth, _, err := parseCardDate(bday.Value)
		if err != nil {
			slog.Debug(config.MsgSkippedDate,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyName, c.Name,
				config.LogKeyValue, bday.Value)
		} else {
			c.Birthday = birth.Format(config.DateFormatFullDash)
			c.BirthdayReminder = true
		}
	}
	return c
}

// parseCardDate handles the vCard BDAY formats.
// Year-less dates are placed in DefaultLeapYear so that --02-29 survives.
func parseCardDate(value string) (time.Time, bool, error) {
	formatsWithYear := []string{
		config.DateFormatFullDash,
		config.DateFormatFullBasic,
		config.DateFormatRFC3339,
		config.DateFormatFullT,
	}
	for _, f := range formatsWithYear {
		if t, err := time.Parse(f, value); err == nil {
			return t, true, nil
		}
	}

	for _, f := range []string{config.DateFormatNoYearD, config.DateFormatNoYearB} {
		if t, err := time.Parse(f, value); err == nil {
			safeDate := time.Date(config.DefaultLeapYear, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return safeDate, false, nil
		}
	}

	return time.Time{}, false, errors.New(config.ErrDateParse)
}
