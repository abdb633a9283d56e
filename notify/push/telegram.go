package push

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// TelegramPusher delivers reminders through the Telegram Bot API. The
// device token is the chat ID as a decimal string.
type TelegramPusher struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramPusher creates a TelegramPusher.
func NewTelegramPusher(botToken string) (*TelegramPusher, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}
	return &TelegramPusher{bot: bot}, nil
}

func (t *TelegramPusher) Push(ctx context.Context, deviceToken string, _ string, payload *Payload) error {
	chatID, err := strconv.ParseInt(deviceToken, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid telegram chat id %q", deviceToken)
	}

	text := fmt.Sprintf("*%s*\n%s", payload.Title, payload.Body)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"

	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "failed to send telegram message")
		}
		return nil
	}
}
