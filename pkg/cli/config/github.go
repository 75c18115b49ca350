package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds configuration for the GitHub App integration
type GitHub struct {
	appID          int
	installationID int
	privateKey     string
	scope          string
}

// Flags returns CLI flags for GitHub App configuration
func (g *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Category:    "GitHub",
			Sources:     cli.EnvVars("KOTTOS_GITHUB_APP_ID"),
			Destination: &g.appID,
		},
		&cli.IntFlag{
			Name:        "github-app-installation-id",
			Usage:       "GitHub App Installation ID",
			Category:    "GitHub",
			Sources:     cli.EnvVars("KOTTOS_GITHUB_APP_INSTALLATION_ID"),
			Destination: &g.installationID,
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App Private Key (PEM string or file path)",
			Category:    "GitHub",
			Sources:     cli.EnvVars("KOTTOS_GITHUB_APP_PRIVATE_KEY"),
			Destination: &g.privateKey,
		},
		&cli.StringFlag{
			Name:        "github-scope",
			Usage:       "Search qualifier limiting reconciled issues (e.g. org:acme or repo:acme/api)",
			Category:    "GitHub",
			Sources:     cli.EnvVars("KOTTOS_GITHUB_SCOPE"),
			Destination: &g.scope,
		},
	}
}

// LogAttrs returns log attributes for the GitHub configuration (secrets hidden)
func (g *GitHub) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Int("app_id", g.appID),
		slog.Int("installation_id", g.installationID),
		slog.String("scope", g.scope),
	}
}

// IsConfigured returns true if all required GitHub App flags are set
func (g *GitHub) IsConfigured() bool {
	return g.appID != 0 && g.installationID != 0 && g.privateKey != ""
}

// Configure creates a GitHub tracker client. It returns nil when the App
// flags are incomplete (GitHub reconciliation is then disabled).
func (g *GitHub) Configure(users map[string]types.UserID) (*github.Client, error) {
	if !g.IsConfigured() {
		return nil, nil
	}

	client, err := github.New(int64(g.appID), int64(g.installationID), g.privateKey, g.scope,
		github.WithUserMapping(users))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub tracker client")
	}

	return client, nil
}
