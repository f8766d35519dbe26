package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"
	"github.com/tartampluch/friendly-reminder/internal/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// Message is a rendered notification.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Renderer turns a Digest into a localized Message.
type Renderer struct {
	T         *i18n.Translator
	OwnerName string

	tmpl *template.Template
}

type line struct {
	Name   string
	Detail string
}

type section struct {
	Title string
	Lines []line
}

type page struct {
	Lang     string
	Subject  string
	Intro    string
	Sections []section
	Footer   string
}

// NewRenderer parses the embedded HTML template.
func NewRenderer(t *i18n.Translator, ownerName string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/digest.html")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrDigestRender, err)
	}
	return &Renderer{T: t, OwnerName: ownerName, tmpl: tmpl}, nil
}

// Render builds the subject, plain-text and HTML bodies of d.
func (r *Renderer) Render(d Digest) (Message, error) {
	now := d.GeneratedAt
	p := page{
		Lang:    r.T.Lang(),
		Subject: r.T.Plural(config.TKeyDigestSubject, d.Count(), nil),
		Footer:  r.T.Msg(config.TKeyDigestFooter, nil),
	}
	if r.OwnerName != "" {
		p.Intro = r.T.Msg(config.TKeyDigestIntro, map[string]any{"Name": r.OwnerName})
	}

	if len(d.Overdue) > 0 {
		s := section{Title: r.T.Msg(config.TKeyDigestOverdue, nil)}
		for _, item := range d.Overdue {
			s.Lines = append(s.Lines, line{
				Name:   item.Contact.Name,
				Detail: r.T.Plural(config.TKeyDigestDaysLate, daysLate(item.Due, now), nil),
			})
		}
		p.Sections = append(p.Sections, s)
	}

	if len(d.Upcoming) > 0 {
		s := section{Title: r.T.Msg(config.TKeyDigestUpcoming, nil)}
		for _, item := range d.Upcoming {
			s.Lines = append(s.Lines, line{
				Name:   item.Contact.Name,
				Detail: r.T.Msg(config.TKeyDigestDueOn, map[string]any{"Date": r.formatDate(item.Due.In(now.Location()))}),
			})
		}
		p.Sections = append(p.Sections, s)
	}

	if len(d.Birthdays) > 0 {
		s := section{Title: r.T.Msg(config.TKeyDigestBirthdays, nil)}
		for _, item := range d.Birthdays {
			s.Lines = append(s.Lines, line{
				Name:   item.Contact.Name,
				Detail: r.T.Msg(config.TKeyDigestBirthdayOn, map[string]any{"Date": r.formatDate(item.Date)}),
			})
		}
		p.Sections = append(p.Sections, s)
	}

	var html bytes.Buffer
	if err := r.tmpl.Execute(&html, p); err != nil {
		return Message{}, fmt.Errorf("%s: %w", config.ErrDigestRender, err)
	}

	return Message{
		Subject: p.Subject,
		Text:    r.plainText(p, d.Count()),
		HTML:    html.String(),
	}, nil
}

func (r *Renderer) plainText(p page, count int) string {
	var b strings.Builder
	b.WriteString(r.T.Plural(config.TKeyDigestPlainTitle, count, nil))
	b.WriteString("\n")
	if p.Intro != "" {
		b.WriteString("\n" + p.Intro + "\n")
	}
	for _, s := range p.Sections {
		b.WriteString("\n" + s.Title + "\n")
		for _, l := range s.Lines {
			b.WriteString(r.T.Msg(config.TKeyDigestPlainLine, map[string]any{"Name": l.Name, "Date": l.Detail}))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n" + p.Footer + "\n")
	return b.String()
}

func (r *Renderer) formatDate(t time.Time) string {
	layout := r.T.Msg(config.TKeyFormatDate, nil)
	if layout == config.TKeyFormatDate {
		layout = config.DateFormatFullDash
	}
	return t.Format(layout)
}

// daysLate counts calendar days between the due date and now, at least 1.
func daysLate(due, now time.Time) int {
	days := int(engine.DateOf(now).Sub(engine.DateOf(due.In(now.Location()))).Hours() / 24)
	return max(days, 1)
}
