package config

import (
	"github.com/urfave/cli/v3"
)

// Email holds the inbound e-mail webhook settings
type Email struct {
	webhookToken string
}

func (x *Email) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "email-webhook-token",
			Usage:       "Shared bearer token of the inbound e-mail webhook (enables /hooks/email)",
			Category:    "Email",
			Sources:     cli.EnvVars("KOTTOS_EMAIL_WEBHOOK_TOKEN"),
			Destination: &x.webhookToken,
		},
	}
}

func (x *Email) IsWebhookConfigured() bool {
	return x.webhookToken != ""
}

func (x *Email) WebhookToken() string {
	return x.webhookToken
}
