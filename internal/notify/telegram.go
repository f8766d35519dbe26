package notify

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tartampluch/friendly-reminder/internal/config"
)

// TelegramSender is the subset of tgbotapi.BotAPI used here.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends the plain-text digest to one chat.
type TelegramNotifier struct {
	Bot    TelegramSender
	ChatID int64
}

// NewTelegramNotifier authenticates the bot token against the Telegram API.
func NewTelegramNotifier(s config.TelegramSettings) (*TelegramNotifier, error) {
	if s.Token == "" || s.ChatID == 0 {
		return nil, errors.New(config.ErrTelegramConfig)
	}
	api, err := tgbotapi.NewBotAPI(s.Token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTelegramConfig, err)
	}
	return &TelegramNotifier{Bot: api, ChatID: s.ChatID}, nil
}

// Notify implements Notifier.
func (n *TelegramNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tm := tgbotapi.NewMessage(n.ChatID, msg.Text)
	tm.DisableWebPagePreview = true
	if _, err := n.Bot.Send(tm); err != nil {
		return fmt.Errorf("%s: %w", config.ErrNotifySend, err)
	}
	return nil
}
