package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/service/report"
	"github.com/urfave/cli/v3"
)

// Report holds the Cloud Storage destination of reconcile reports
type Report struct {
	bucket string
	prefix string
}

func (x *Report) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "report-bucket",
			Usage:       "Cloud Storage bucket receiving reconcile reports",
			Category:    "Report",
			Sources:     cli.EnvVars("KOTTOS_REPORT_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "report-prefix",
			Usage:       "Object name prefix of reconcile reports",
			Category:    "Report",
			Value:       "reconcile",
			Sources:     cli.EnvVars("KOTTOS_REPORT_PREFIX"),
			Destination: &x.prefix,
		},
	}
}

// Configure returns the report storage, or nil when no bucket is set. The
// caller closes it.
func (x *Report) Configure(ctx context.Context) (*report.Storage, error) {
	if x.bucket == "" {
		return nil, nil
	}
	storage, err := report.New(ctx, x.bucket, report.WithPrefix(x.prefix))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize report storage", goerr.V("bucket", x.bucket))
	}
	return storage, nil
}
