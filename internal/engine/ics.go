package engine

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/emersion/go-ical"
	"github.com/tartampluch/friendly-reminder/internal/config"
)

// ICSOptions controls feed encoding.
type ICSOptions struct {
	// AlarmTrigger is an ISO8601 duration (e.g. "-PT0M"). Empty disables alarms.
	AlarmTrigger string

	// FormatSummary allows the caller to inject localized event titles.
	FormatSummary func(e Event) string
}

// EncodeICS renders the calendar as an iCalendar feed of all-day events.
// An empty calendar encodes to a minimal valid VCALENDAR.
func EncodeICS(cal *Calendar, now time.Time, opts ICSOptions) ([]byte, error) {
	if cal == nil || len(cal.Events) == 0 {
		return []byte(config.StubVCalendar), nil
	}

	ic := ical.NewCalendar()
	ic.Props.SetText(config.PropVersion, config.ICalVersion)
	ic.Props.SetText(config.PropProdid, config.ICalProdid)
	ic.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	ic.Props.SetText(config.PropCalScale, config.ICalScale)
	ic.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986 refresh hint for subscribing clients.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	ic.Props.Set(refreshProp)

	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	for _, e := range cal.Events {
		summary := DefaultSummary(e)
		if opts.FormatSummary != nil {
			summary = opts.FormatSummary(e)
		}

		event := ical.NewEvent()
		event.Props.SetText(config.PropUID, EventUID(e))
		event.Props.SetText(config.PropSummary, summary)
		event.Props.SetText(config.PropCategories, string(e.Type))
		event.Props.Set(dtStampProp)

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(e.Date)
		event.Props.Set(dtStartProp)

		if opts.AlarmTrigger != "" {
			addAlarm(event, opts.AlarmTrigger, summary)
		}
		ic.Children = append(ic.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(ic); err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}
	return buf.Bytes(), nil
}

// EventUID derives a UID that is stable across feed refreshes.
func EventUID(e Event) string {
	input := fmt.Sprintf(config.FormatHashInput, config.UIDSalt+e.Contact.ID, e.Type, KeyOf(e.Date))
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf(config.FormatUID, fmt.Sprintf("%x", hash[:config.UIDHashLength]), KeyOf(e.Date), config.ICalDomain)
}

// DefaultSummary is the English event title used when no formatter is injected.
func DefaultSummary(e Event) string {
	if e.Type == EventBirthday {
		return fmt.Sprintf(config.FallbackBirthdaySummary, e.Contact.Name)
	}
	return fmt.Sprintf(config.FallbackReminderSummary, e.Contact.Name)
}

// addAlarm appends a DISPLAY alarm (notification) to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set trigger manually to avoid "VALUE=TEXT" param
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}
