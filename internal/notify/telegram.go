package notify

import (
	"context"
	"log/slog"

	hishoErrors "github.com/harunnryd/hisho/internal/errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, hishoErrors.Wrap(err, "failed to init telegram bot")
	}
	slog.Info("Telegram notifier ready", "user", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Announce(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return hishoErrors.Wrap(err, "failed to send telegram message")
	}
	slog.Debug("Telegram announcement sent", "chat_id", t.chatID)
	return nil
}
