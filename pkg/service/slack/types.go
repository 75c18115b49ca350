package slack

import (
	"context"

	"github.com/slack-go/slack"
)

// Service is the part of the Slack Web API the engine uses: the member
// directory for e-mail intake and channel posts for task notifications
type Service interface {
	// ListUsers retrieves all non-deleted, non-bot users in the workspace
	ListUsers(ctx context.Context) ([]*User, error)

	// PostMessage posts a Block Kit message to a channel and returns the message timestamp.
	// The text parameter is used as a fallback for notifications.
	PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) (string, error)
}

// User is a workspace member
type User struct {
	ID    string
	Name  string
	Email string
}
