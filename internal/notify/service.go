package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/tartampluch/friendly-reminder/internal/config"
	"github.com/tartampluch/friendly-reminder/internal/engine"
)

// ContactLister provides the contacts to summarize.
type ContactLister interface {
	List(ctx context.Context) ([]engine.Contact, error)
}

// Service builds, renders and delivers digests.
type Service struct {
	Contacts ContactLister
	Clock    engine.Clock
	Horizon  time.Duration
	LeapDay  engine.LeapDayPolicy
	Renderer *Renderer
	Notifier Notifier
}

// Run sends one digest. Empty digests are skipped and reported with sent=false.
func (s *Service) Run(ctx context.Context) (Digest, bool, error) {
	contacts, err := s.Contacts.List(ctx)
	if err != nil {
		return Digest{}, false, err
	}

	horizon := s.Horizon
	if horizon <= 0 {
		horizon = engine.DashboardHorizon
	}
	d := BuildDigest(contacts, s.Clock.Now(), horizon, s.LeapDay)

	if d.Empty() {
		slog.Info(config.MsgDigestEmpty,
			config.LogKeyComponent, config.CompNotify,
			config.LogKeyContacts, len(contacts))
		return d, false, nil
	}

	msg, err := s.Renderer.Render(d)
	if err != nil {
		return d, false, err
	}
	if err := s.Notifier.Notify(ctx, msg); err != nil {
		return d, false, err
	}

	slog.Info(config.MsgDigestSent,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyOverdue, len(d.Overdue),
		config.LogKeyUpcoming, len(d.Upcoming),
		config.LogKeyBirthdays, len(d.Birthdays))
	return d, true, nil
}

// Job adapts Run to the scheduler job signature.
func (s *Service) Job(ctx context.Context) error {
	_, _, err := s.Run(ctx)
	return err
}
