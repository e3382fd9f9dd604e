package notify

import (
	"context"
	"log/slog"
	"os"

	hishoErrors "github.com/harunnryd/hisho/internal/errors"

	"github.com/slack-go/slack"
)

type Slack struct {
	client  *slack.Client
	channel string
}

func NewSlack(botToken, channel string) *Slack {
	if botToken == "" {
		botToken = os.Getenv("SLACK_BOT_TOKEN")
	}
	return &Slack{
		client:  slack.New(botToken),
		channel: channel,
	}
}

func (s *Slack) Name() string {
	return "slack"
}

func (s *Slack) Announce(ctx context.Context, text string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return hishoErrors.Wrap(err, "failed to send Slack message")
	}
	slog.Debug("Slack announcement sent", "channel", s.channel)
	return nil
}
