package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tartampluch/friendly-reminder/internal/config"
)

// Notifier delivers a rendered digest.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes the digest to the structured log instead of sending it.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, msg Message) error {
	slog.Info(msg.Subject,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyNotifier, config.NotifierLog,
		config.LogKeyValue, msg.Text,
	)
	return nil
}

// New builds the notifier selected in settings.
// Secrets must already be resolved (see config.Settings.ResolveSecrets).
func New(ctx context.Context, s *config.Settings) (Notifier, error) {
	switch s.Notifier {
	case "", config.NotifierLog:
		return LogNotifier{}, nil
	case config.NotifierSMTP:
		return NewSMTPNotifier(s.SMTP)
	case config.NotifierSNS:
		return NewSNSNotifier(ctx, s.SNS)
	case config.NotifierTelegram:
		return NewTelegramNotifier(s.Telegram)
	default:
		return nil, fmt.Errorf("%s: %q", config.ErrNotifierUnknown, s.Notifier)
	}
}
