// Package report persists reconcile run summaries to Cloud Storage.
package report

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
)

// Storage writes one JSON object per reconcile run
type Storage struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.ReportSink = &Storage{}

type Option func(*Storage)

// WithPrefix sets the object name prefix
func WithPrefix(prefix string) Option {
	return func(s *Storage) {
		s.prefix = prefix
	}
}

func New(ctx context.Context, bucket string, opts ...Option) (*Storage, error) {
	if bucket == "" {
		return nil, goerr.New("report bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create cloud storage client", goerr.V("bucket", bucket))
	}

	s := &Storage{client: client, bucket: bucket}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Storage) PutSyncStats(ctx context.Context, stats *model.SyncStats) error {
	name := ObjectName(s.prefix, stats)

	// Cancelling the writer's context discards a partially written object
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if err := json.NewEncoder(w).Encode(stats); err != nil {
		cancel()
		_ = w.Close()
		return goerr.Wrap(err, "failed to encode sync stats", goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to write sync stats", goerr.V("bucket", s.bucket), goerr.V("object", name))
	}
	return nil
}

func (s *Storage) Close() error {
	return s.client.Close()
}

// ObjectName returns "<prefix>/reconcile/<source>/<yyyy>/<mm>/<dd>/<started_at>.json"
func ObjectName(prefix string, stats *model.SyncStats) string {
	started := stats.StartedAt.UTC()
	return path.Join(
		strings.Trim(prefix, "/"),
		"reconcile",
		string(stats.Source),
		started.Format("2006/01/02"),
		started.Format(time.RFC3339Nano)+".json",
	)
}
