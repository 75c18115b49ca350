package cli_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/cli"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/usecase"
)

func TestPrintReconcileResults(t *testing.T) {
	color.NoColor = true

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	results := []usecase.ReconcileResult{
		{
			Source: types.ExternalSourceGitHub,
			Stats: &model.SyncStats{
				Source:     types.ExternalSourceGitHub,
				StartedAt:  start,
				FinishedAt: start.Add(1500 * time.Millisecond),
				Fetched:    3,
				Created:    1,
				Updated:    1,
				Unchanged:  0,
				Errors:     []model.IssueError{{ExternalID: "org/repo#7", Reason: "unknown status"}},
			},
		},
		{
			Source: types.ExternalSourceNotion,
			Err:    errors.New("notion is down"),
		},
	}

	var buf bytes.Buffer
	cli.PrintReconcileResults(&buf, results)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

	gt.Array(t, lines).Length(3)
	gt.String(t, lines[0]).Contains("WARN github: fetched=3 created=1 updated=1 unchanged=0 errors=1 (1.5s)")
	gt.String(t, lines[1]).Contains("org/repo#7 unknown status")
	gt.String(t, lines[2]).Contains("FAIL notion: notion is down")
}

func TestRun_ReconcileCommand_NoTracker(t *testing.T) {
	err := cli.Run(t.Context(), []string{"kottos", "reconcile", "--repository-backend", "memory"}, "test")
	gt.Error(t, err)
}
