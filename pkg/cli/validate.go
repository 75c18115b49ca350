package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/cli/config"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var orgCfg config.Org
	var engineCfg config.Engine

	var flags []cli.Flag
	flags = append(flags, orgCfg.Flags()...)
	flags = append(flags, engineCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the organization file and engine settings",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if orgCfg.Path() == "" {
				return goerr.Wrap(config.ErrInvalidConfig, "--org-config is required")
			}

			org, err := orgCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "organization validation failed")
			}
			if _, err := engineCfg.Configure(); err != nil {
				return goerr.Wrap(err, "engine validation failed")
			}

			h := org.Hierarchy()
			logger.Info("Configuration validation passed",
				"org_config", orgCfg.Path(),
				"ceo", h.CEOID,
				"admins", len(h.AdminIDs),
				"managers", len(h.ManagerToReports),
				"users", len(h.AllUserIDs()),
				"github_users", len(org.GitHubUsers()),
				"notion_users", len(org.NotionUsers()),
				"engine", engineCfg,
			)
			return nil
		},
	}
}
