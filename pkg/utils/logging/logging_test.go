package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
)

func TestFromFallsBackToDefault(t *testing.T) {
	gt.Value(t, logging.From(context.Background())).Equal(logging.Default())
}

func TestWithBindsLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)
	ctx := logging.With(context.Background(), logger)

	logging.From(ctx).Info("hello", "task_id", "t-1")
	gt.String(t, buf.String()).Contains("hello")
	gt.String(t, buf.String()).Contains("t-1")
}

func TestNewRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, slog.LevelInfo, logging.FormatJSON)

	logger.Info("token", "bot", "xoxb-123-456")
	gt.Bool(t, strings.Contains(buf.String(), "xoxb-123-456")).False()
}
