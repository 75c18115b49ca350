package async

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/utils/errutil"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
)

// DefaultTimeout bounds one dispatched handler, e.g. a notification call
const DefaultTimeout = 30 * time.Second

var inFlight sync.WaitGroup

// Dispatch runs handler in a new goroutine, detached from the caller's
// cancellation. The logger of ctx is carried over. Errors and panics are
// logged and reported.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := context.WithoutCancel(ctx)
	if logger := logging.From(ctx); logger != nil {
		bgCtx = logging.With(bgCtx, logger)
	}

	inFlight.Add(1)
	go func() {
		defer inFlight.Done()

		ctx, cancel := context.WithTimeout(bgCtx, DefaultTimeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				_ = errutil.Handle(ctx, goerr.New("panic in async handler", goerr.V("panic", r)), "async handler panicked")
			}
		}()

		if err := handler(ctx); err != nil {
			_ = errutil.Handle(ctx, err, "async handler failed")
		}
	}()
}

// Wait blocks until every dispatched handler has returned or ctx is done
func Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		inFlight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "async handlers still running")
	}
}
