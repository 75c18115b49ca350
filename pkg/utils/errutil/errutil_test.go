package errutil_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/utils/errutil"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	gt.NoError(t, errutil.Handle(ctx, nil, "nothing"))

	base := errors.New("boom")
	err := errutil.Handle(ctx, goerr.Wrap(base, "failed", goerr.V("task_id", "t1")), "handling failed")
	gt.Bool(t, errors.Is(err, base)).True()
	gt.String(t, buf.String()).Contains("handling failed")
	gt.String(t, buf.String()).Contains("t1")
}

func TestHandleHTTP(t *testing.T) {
	ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))

	t.Run("client errors expose the message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(ctx, w, goerr.New("invalid status"), http.StatusBadRequest)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		gt.String(t, w.Body.String()).Contains("invalid status")
	})

	t.Run("server errors hide the message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(ctx, w, goerr.New("firestore credentials expired"), http.StatusInternalServerError)
		gt.Value(t, w.Code).Equal(http.StatusInternalServerError)
		gt.Bool(t, strings.Contains(w.Body.String(), "credentials")).False()
	})
}

func TestHandleReportsGoerrValues(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	gt.NoError(t, err).Required()

	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := logging.With(context.Background(), slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)))
	ctx = sentry.SetHubOnContext(ctx, hub)

	_ = errutil.Handle(ctx, goerr.New("reconcile failed", goerr.V("source", "github")), "reconcile failed")

	gt.Array(t, events).Length(1).Required()
	gt.Value(t, events[0].Contexts["goerr"]["source"]).Equal(any("github"))
}
