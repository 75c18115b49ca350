package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/usecase"
	"github.com/secmon-lab/kottos/pkg/utils/async"
	"github.com/secmon-lab/kottos/pkg/utils/errutil"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdReconcile() *cli.Command {
	var appCfg appConfig

	return &cli.Command{
		Name:    "reconcile",
		Aliases: []string{"r"},
		Usage:   "Reconcile every configured issue tracker once and exit",
		Flags:   appCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			a, err := appCfg.build(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(a.uc.Reconciles) == 0 {
				return goerr.New("no issue tracker is configured; set GitHub App or Notion flags")
			}

			results := usecase.ReconcileAll(ctx, a.uc.Reconciles)
			printReconcileResults(writerOf(c), results)

			waitCtx, cancel := context.WithTimeout(ctx, async.DefaultTimeout)
			defer cancel()
			if err := async.Wait(waitCtx); err != nil {
				logging.From(ctx).Warn("pending notifications dropped", "error", err.Error())
			}

			var failed int
			for _, r := range results {
				if r.Err != nil {
					_ = errutil.Handle(ctx, r.Err, "reconcile failed")
					failed++
				}
			}
			if failed > 0 {
				return goerr.New("reconcile failed", goerr.V("failed_sources", failed))
			}
			return nil
		},
	}
}

func printReconcileResults(w io.Writer, results []usecase.ReconcileResult) {
	ok := color.New(color.FgGreen).SprintFunc()
	ng := color.New(color.FgRed).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	for _, r := range results {
		if r.Err != nil && r.Stats == nil {
			_, _ = fmt.Fprintf(w, "%s %s: %v\n", ng("FAIL"), r.Source, r.Err)
			continue
		}

		s := r.Stats
		label := ok("OK  ")
		switch {
		case r.Err != nil:
			label = ng("FAIL")
		case s.Cancelled:
			label = warn("STOP")
		case s.ErrorCount() > 0:
			label = warn("WARN")
		}

		_, _ = fmt.Fprintf(w, "%s %s: fetched=%d created=%d updated=%d unchanged=%d errors=%d (%s)\n",
			label, r.Source, s.Fetched, s.Created, s.Updated, s.Unchanged, s.ErrorCount(),
			s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
		for _, e := range s.Errors {
			_, _ = fmt.Fprintf(w, "     %s %s\n", warn(e.ExternalID), e.Reason)
		}
	}
}

// writerOf returns the output writer of the command tree
func writerOf(c *cli.Command) io.Writer {
	if w := c.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
