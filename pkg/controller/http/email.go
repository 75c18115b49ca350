package http

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/service/normalizer"
	"github.com/secmon-lab/kottos/pkg/utils/errutil"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
)

// maxEmailBodySize bounds the inbound e-mail payload
const maxEmailBodySize = 1 << 20

// EmailWebhookTokenMiddleware rejects requests without the shared webhook
// token in the Authorization header ("Bearer <token>")
func EmailWebhookTokenMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				errutil.HandleHTTP(r.Context(), w, goerr.New("invalid webhook token"), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EmailWebhookHandler accepts inbound e-mail as JSON
type EmailWebhookHandler struct {
	queue Enqueuer
	book  normalizer.AddressBook
}

// NewEmailWebhookHandler creates a handler. book may be nil.
func NewEmailWebhookHandler(queue Enqueuer, book normalizer.AddressBook) *EmailWebhookHandler {
	return &EmailWebhookHandler{
		queue: queue,
		book:  book,
	}
}

// ServeHTTP handles e-mail webhook requests
func (h *EmailWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var email normalizer.Email
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEmailBodySize)).Decode(&email); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to decode email payload"), http.StatusBadRequest)
		return
	}

	msg, err := normalizer.FromEmail(&email, h.book)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "invalid email payload", goerr.V("message_id", email.MessageID)), http.StatusBadRequest)
		return
	}

	if err := h.queue.Submit(ctx, msg); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to enqueue email", goerr.V("message_id", email.MessageID)), http.StatusServiceUnavailable)
		return
	}

	logging.From(ctx).Debug("email accepted", "message_id", email.MessageID, "mailbox", email.Mailbox)
	w.WriteHeader(http.StatusAccepted)
}
