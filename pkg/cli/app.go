package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/cli/config"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/slack"
	"github.com/secmon-lab/kottos/pkg/usecase"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
	"github.com/secmon-lab/kottos/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// appConfig groups the flags shared by commands that run the engine
// against a repository
type appConfig struct {
	repo   config.Repository
	org    config.Org
	engine config.Engine
	slack  config.Slack
	github config.GitHub
	notion config.Notion
	report config.Report
}

func (x *appConfig) Flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, x.repo.Flags()...)
	flags = append(flags, x.org.Flags()...)
	flags = append(flags, x.engine.Flags()...)
	flags = append(flags, x.slack.Flags()...)
	flags = append(flags, x.github.Flags()...)
	flags = append(flags, x.notion.Flags()...)
	flags = append(flags, x.report.Flags()...)
	return flags
}

// app is the wired engine of one process
type app struct {
	repo     interfaces.Repository
	org      *config.OrgFile
	slackSvc slack.Service
	uc       *usecase.UseCases
	closers  []func()
}

// build wires the repository, integrations and use cases. Call Close on
// the returned app.
func (x *appConfig) build(ctx context.Context, opts ...usecase.Option) (*app, error) {
	logger := logging.From(ctx)

	org, err := x.org.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load organization")
	}
	engine, err := x.engine.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure engine")
	}

	repo, err := x.repo.Configure(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize repository")
	}
	a := &app{repo: repo, org: org}
	a.closers = append(a.closers, func() { safe.Close(ctx, repo) })

	a.slackSvc, err = x.slack.Configure()
	if err != nil {
		a.Close()
		return nil, err
	}

	var notifier interfaces.Notifier
	if n := x.slack.Notifier(a.slackSvc); n != nil {
		notifier = n
		logger.Info("Slack notifications enabled")
	}

	var sink interfaces.ReportSink
	storage, err := x.report.Configure(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	if storage != nil {
		sink = storage
		a.closers = append(a.closers, func() { safe.Close(ctx, storage) })
	}

	reconciles, err := x.reconciles(repo, org, notifier, sink)
	if err != nil {
		a.Close()
		return nil, err
	}

	ucOpts := []usecase.Option{
		usecase.WithEngineConfig(engine),
		usecase.WithOrg(org.Hierarchy()),
		usecase.WithDefaultRoutes(org.DefaultRoutes()),
		usecase.WithReconciles(reconciles...),
	}
	if notifier != nil {
		ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
	}
	a.uc = usecase.New(repo, append(ucOpts, opts...)...)

	logger.Info("engine configured",
		"engine", x.engine,
		"org_config", x.org.Path(),
		"reconcile_sources", len(reconciles),
	)
	return a, nil
}

func (x *appConfig) reconciles(repo interfaces.Repository, org *config.OrgFile, notifier interfaces.Notifier, sink interfaces.ReportSink) ([]*usecase.ReconcileUseCase, error) {
	common := func() []usecase.ReconcileOption {
		var opts []usecase.ReconcileOption
		if notifier != nil {
			opts = append(opts, usecase.WithReconcileNotifier(notifier))
		}
		if sink != nil {
			opts = append(opts, usecase.WithReportSink(sink))
		}
		return opts
	}

	var reconciles []*usecase.ReconcileUseCase

	gh, err := x.github.Configure(org.GitHubUsers())
	if err != nil {
		return nil, err
	}
	if gh != nil {
		opts := append(common(),
			usecase.WithReconcileRoute(types.RouteDeveloper),
			usecase.WithAssignees(org.GitHubLogins()...),
		)
		reconciles = append(reconciles, usecase.NewReconcileUseCase(repo, gh, opts...))
	}

	nt, err := x.notion.Configure(org.NotionUsers())
	if err != nil {
		return nil, err
	}
	if nt != nil {
		opts := append(common(), usecase.WithReconcileRoute(types.RouteDeveloper))
		reconciles = append(reconciles, usecase.NewReconcileUseCase(repo, nt, opts...))
	}

	return reconciles, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
