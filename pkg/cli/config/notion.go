package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/notion"
	"github.com/urfave/cli/v3"
)

// Notion holds configuration for the Notion task database integration
type Notion struct {
	token      string
	databaseID string
}

func (n *Notion) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "notion-api-token",
			Usage:       "Notion API token",
			Category:    "Notion",
			Sources:     cli.EnvVars("KOTTOS_NOTION_API_TOKEN"),
			Destination: &n.token,
		},
		&cli.StringFlag{
			Name:        "notion-database-id",
			Usage:       "Notion task database ID to reconcile",
			Category:    "Notion",
			Sources:     cli.EnvVars("KOTTOS_NOTION_DATABASE_ID"),
			Destination: &n.databaseID,
		},
	}
}

func (n *Notion) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("token.len", len(n.token)),
		slog.String("database_id", n.databaseID),
	}
}

func (n *Notion) IsConfigured() bool {
	return n.token != "" && n.databaseID != ""
}

// Configure creates a Notion tracker client, or nil when not configured
func (n *Notion) Configure(users map[string]types.UserID) (*notion.Client, error) {
	if !n.IsConfigured() {
		return nil, nil
	}

	client, err := notion.New(n.token, n.databaseID, notion.WithUserMapping(users))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Notion tracker client")
	}
	return client, nil
}
