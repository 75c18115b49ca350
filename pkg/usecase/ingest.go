package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// DefaultIngestQueueSize is the buffer of one source's queue
const DefaultIngestQueueSize = 256

// IngestQueue feeds messages of one source to RoutingUseCase.Ingest. Webhook
// handlers Submit and return; a single consumer processes in arrival order.
type IngestQueue struct {
	source  types.Source
	routing *RoutingUseCase
	ch      chan *model.InboundMessage

	mu     sync.RWMutex
	closed bool
}

// NewIngestQueue creates a queue for source. size <= 0 selects the default.
func NewIngestQueue(routing *RoutingUseCase, source types.Source, size int) *IngestQueue {
	if size <= 0 {
		size = DefaultIngestQueueSize
	}
	return &IngestQueue{
		source:  source,
		routing: routing,
		ch:      make(chan *model.InboundMessage, size),
	}
}

// Source returns the source this queue consumes
func (q *IngestQueue) Source() types.Source {
	return q.source
}

// Submit enqueues msg. It blocks while the queue is full until ctx is done.
func (q *IngestQueue) Submit(ctx context.Context, msg *model.InboundMessage) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return goerr.New("ingest queue is closed", goerr.V(SourceKey, q.source))
	}

	select {
	case q.ch <- msg:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "failed to enqueue message", goerr.V(SourceKey, q.source))
	}
}

// Run consumes the queue until it is closed and drained, or ctx is cancelled
func (q *IngestQueue) Run(ctx context.Context) error {
	return q.routing.Ingest(ctx, q.ch)
}

// Close stops accepting messages. Run returns after the backlog is processed.
func (q *IngestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}
