package normalizer

import (
	"net/mail"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// Email is the JSON payload of the inbound e-mail webhook
type Email struct {
	MessageID string    `json:"message_id"`
	Mailbox   string    `json:"mailbox"`
	From      string    `json:"from"`
	To        []string  `json:"to"`
	Cc        []string  `json:"cc"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Date      time.Time `json:"date"`
}

// AddressBook resolves e-mail addresses to user IDs
type AddressBook interface {
	LookupEmail(address string) (types.UserID, bool)
}

// FromEmail converts an inbound e-mail. The subject becomes the first line
// of the message text and direct (To) recipients other than the sender
// become mentions. Addresses the book cannot resolve are used as user IDs.
func FromEmail(e *Email, book AddressBook) (*model.InboundMessage, error) {
	if e == nil {
		return nil, goerr.New("email is nil")
	}

	from, err := mail.ParseAddress(e.From)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid sender address", goerr.V("from", e.From))
	}
	sender := resolveAddress(from.Address, book)

	var mentions []types.UserID
	for _, raw := range e.To {
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid recipient address", goerr.V("to", raw))
		}
		id := resolveAddress(addr.Address, book)
		if id == sender || strings.EqualFold(addr.Address, e.Mailbox) {
			continue
		}
		mentions = append(mentions, id)
	}

	mailbox := e.Mailbox
	if mailbox == "" {
		mailbox = from.Address
	}

	text := strings.TrimSpace(e.Subject)
	if body := strings.TrimSpace(e.Body); body != "" {
		if text != "" {
			text += "\n"
		}
		text += body
	}

	ts := e.Date
	if ts.IsZero() {
		ts = time.Now()
	}

	return model.NewInboundMessage(model.InboundMessageParams{
		Source:      types.SourceEmail,
		SenderID:    sender,
		ChannelID:   strings.ToLower(mailbox),
		Text:        text,
		Timestamp:   ts,
		Mentions:    mentions,
		ExternalRef: e.MessageID,
	}), nil
}

func resolveAddress(address string, book AddressBook) types.UserID {
	address = strings.ToLower(address)
	if book != nil {
		if id, ok := book.LookupEmail(address); ok {
			return id
		}
	}
	return types.UserID(address)
}
