package report_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/report"
)

func TestObjectName(t *testing.T) {
	stats := &model.SyncStats{
		Source:    types.ExternalSourceGitHub,
		StartedAt: time.Date(2026, 4, 5, 6, 7, 8, 900, time.UTC),
	}

	gt.Value(t, report.ObjectName("", stats)).
		Equal("reconcile/github/2026/04/05/2026-04-05T06:07:08.0000009Z.json")
	gt.Value(t, report.ObjectName("/kottos/reports/", stats)).
		Equal("kottos/reports/reconcile/github/2026/04/05/2026-04-05T06:07:08.0000009Z.json")
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := report.New(context.Background(), "")
	gt.Error(t, err)
}

func TestPutSyncStats(t *testing.T) {
	bucket := os.Getenv("TEST_REPORT_BUCKET")
	if bucket == "" {
		t.Skip("TEST_REPORT_BUCKET not set")
	}

	ctx := context.Background()
	s, err := report.New(ctx, bucket, report.WithPrefix("test"))
	gt.NoError(t, err).Required()
	t.Cleanup(func() { gt.NoError(t, s.Close()) })

	gt.NoError(t, s.PutSyncStats(ctx, &model.SyncStats{
		Source:     types.ExternalSourceNotion,
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		Fetched:    1,
		Created:    1,
	}))
}
