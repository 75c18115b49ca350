package slack

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/types"
)

// AddressBook maps lower-cased e-mail addresses to Slack user IDs so that
// e-mail senders and recipients share identities with chat users
type AddressBook map[string]types.UserID

// LoadAddressBook builds an AddressBook from the workspace's users
func LoadAddressBook(ctx context.Context, svc Service) (AddressBook, error) {
	users, err := svc.ListUsers(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load slack users for address book")
	}

	book := make(AddressBook, len(users))
	for _, u := range users {
		if u.Email == "" {
			continue
		}
		book[strings.ToLower(u.Email)] = types.UserID(u.ID)
	}
	return book, nil
}

func (b AddressBook) LookupEmail(address string) (types.UserID, bool) {
	id, ok := b[strings.ToLower(address)]
	return id, ok
}
