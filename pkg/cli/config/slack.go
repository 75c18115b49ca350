package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/service/slack"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken      string
	signingSecret string
	notifyChannel string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token (user lookup and notifications)",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("KOTTOS_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-signing-secret",
			Usage:       "Slack Signing Secret (for webhook verification)",
			Category:    "Slack",
			Destination: &x.signingSecret,
			Sources:     cli.EnvVars("KOTTOS_SLACK_SIGNING_SECRET"),
		},
		&cli.StringFlag{
			Name:        "slack-notify-channel",
			Usage:       "Slack channel ID that receives task notifications",
			Category:    "Slack",
			Destination: &x.notifyChannel,
			Sources:     cli.EnvVars("KOTTOS_SLACK_NOTIFY_CHANNEL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.Int("signing-secret.len", len(x.signingSecret)),
		slog.String("notify-channel", x.notifyChannel),
	)
}

// Configure creates the Slack Web API service. It returns nil when no bot
// token is set.
func (x *Slack) Configure() (slack.Service, error) {
	if x.botToken == "" {
		return nil, nil
	}
	svc, err := slack.New(x.botToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack service")
	}
	return svc, nil
}

// Notifier returns a channel notifier, or nil when notifications are off
func (x *Slack) Notifier(svc slack.Service) *slack.Notifier {
	if svc == nil || x.notifyChannel == "" {
		return nil
	}
	return slack.NewNotifier(svc, x.notifyChannel)
}

// AddressBook loads the e-mail to user ID mapping of the workspace. A lookup
// failure is logged and yields an empty book so that e-mail intake keeps
// working with raw addresses.
func (x *Slack) AddressBook(ctx context.Context, svc slack.Service) slack.AddressBook {
	if svc == nil {
		return slack.AddressBook{}
	}
	book, err := slack.LoadAddressBook(ctx, svc)
	if err != nil {
		logging.From(ctx).Warn("failed to load slack address book", "error", err)
		return slack.AddressBook{}
	}
	return book
}

// IsWebhookConfigured checks if Slack webhook is configured
func (x *Slack) IsWebhookConfigured() bool {
	return x.signingSecret != ""
}

// SigningSecret returns the Slack signing secret
func (x *Slack) SigningSecret() string {
	return x.signingSecret
}
