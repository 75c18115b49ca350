package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/cli/config"
	httpctrl "github.com/secmon-lab/kottos/pkg/controller/http"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/worker"
	"github.com/secmon-lab/kottos/pkg/usecase"
	"github.com/secmon-lab/kottos/pkg/utils/async"
	"github.com/secmon-lab/kottos/pkg/utils/errutil"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func cmdServe() *cli.Command {
	var addr string
	var queueSize int
	var appCfg appConfig
	var authCfg config.Auth
	var emailCfg config.Email

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("KOTTOS_ADDR"),
			Destination: &addr,
		},
		&cli.IntFlag{
			Name:        "ingest-queue-size",
			Usage:       "Buffered messages per intake source",
			Value:       usecase.DefaultIngestQueueSize,
			Sources:     cli.EnvVars("KOTTOS_INGEST_QUEUE_SIZE"),
			Destination: &queueSize,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, emailCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server with webhook intake and periodic tracker reconciliation",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			authUC, err := authCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}
			if authCfg.IsNoAuthMode() {
				logger.Warn("Running in no-auth mode (development only)")
			} else if authUC == nil {
				logger.Info("API authentication not configured, /api is disabled")
			}

			var ucOpts []usecase.Option
			if authUC != nil {
				ucOpts = append(ucOpts, usecase.WithAuth(authUC))
			}
			a, err := appCfg.build(ctx, ucOpts...)
			if err != nil {
				return err
			}
			defer a.Close()

			// Intake queues run until closed during shutdown
			runCtx, cancelRun := context.WithCancel(ctx)
			defer cancelRun()

			chatQueue := usecase.NewIngestQueue(a.uc.Routing, types.SourceChat, queueSize)
			emailQueue := usecase.NewIngestQueue(a.uc.Routing, types.SourceEmail, queueSize)
			queues := []*usecase.IngestQueue{chatQueue, emailQueue}

			var eg errgroup.Group
			for _, q := range queues {
				eg.Go(func() error {
					if err := q.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
						return errutil.Handle(runCtx, goerr.Wrap(err, "ingest queue stopped",
							goerr.V("source", q.Source())), "ingest queue stopped")
					}
					return nil
				})
			}

			var httpOpts []httpctrl.Options
			if authUC != nil {
				httpOpts = append(httpOpts, httpctrl.WithAuth(authUC))
			}
			if appCfg.slack.IsWebhookConfigured() {
				httpOpts = append(httpOpts, httpctrl.WithSlackWebhook(
					httpctrl.NewSlackWebhookHandler(chatQueue), appCfg.slack.SigningSecret()))
				logger.Info("Slack webhook handler enabled")
			}
			if emailCfg.IsWebhookConfigured() {
				book := appCfg.slack.AddressBook(ctx, a.slackSvc)
				httpOpts = append(httpOpts, httpctrl.WithEmailWebhook(
					httpctrl.NewEmailWebhookHandler(emailQueue, book), emailCfg.WebhookToken()))
				logger.Info("E-mail webhook handler enabled", "known_addresses", len(book))
			}

			workers := make([]*worker.ReconcileWorker, 0, len(a.uc.Reconciles))
			for _, rc := range a.uc.Reconciles {
				w := worker.NewReconcileWorker(rc.Source().String(), rc, appCfg.engine.ReconcileInterval())
				w.Start(runCtx)
				workers = append(workers, w)
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(a.uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			var serveErr error
			select {
			case serveErr = <-errCh:
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down")
			}

			for _, w := range workers {
				w.Stop()
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil && serveErr == nil {
				serveErr = goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			// Webhooks are stopped; drain what was already accepted
			for _, q := range queues {
				q.Close()
			}
			if err := eg.Wait(); err != nil && serveErr == nil {
				serveErr = err
			}

			if err := async.Wait(shutdownCtx); err != nil {
				logger.Warn("pending notifications dropped", "error", err.Error())
			}

			logger.Info("Server shutdown completed")
			return serveErr
		},
	}
}
