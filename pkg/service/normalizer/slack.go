// Package normalizer converts source payloads into InboundMessage values and
// tracker issues into tasks.
package normalizer

import (
	"strconv"
	"strings"
	"time"

	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/slack-go/slack/slackevents"
)

// FromSlackEvent converts a Slack callback event. It returns nil for events
// that do not carry a human-authored message: non-callback events, bot
// posts, edits, deletions and other subtypes.
func FromSlackEvent(ev *slackevents.EventsAPIEvent) *model.InboundMessage {
	if ev == nil || ev.Type != slackevents.CallbackEvent {
		return nil
	}

	switch evt := ev.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		if evt.BotID != "" || evt.User == "" {
			return nil
		}
		return newSlackMessage(evt.Channel, evt.User, evt.Text, evt.TimeStamp)

	case *slackevents.MessageEvent:
		if evt.BotID != "" || evt.SubType != "" || evt.User == "" {
			return nil
		}
		return newSlackMessage(evt.Channel, evt.User, evt.Text, evt.TimeStamp)

	default:
		return nil
	}
}

func newSlackMessage(channelID, userID, text, ts string) *model.InboundMessage {
	return model.NewInboundMessage(model.InboundMessageParams{
		Source:      types.SourceChat,
		SenderID:    types.UserID(userID),
		ChannelID:   channelID,
		Text:        text,
		Timestamp:   ParseSlackTS(ts),
		ExternalRef: channelID + "/" + ts,
	})
}

// ParseSlackTS parses a Slack timestamp ("1700000000.000100"). An
// unparsable value yields the zero time.
func ParseSlackTS(ts string) time.Time {
	secStr, fracStr, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil {
		return time.Time{}
	}

	var nsec int64
	if fracStr != "" {
		if len(fracStr) > 9 {
			fracStr = fracStr[:9]
		}
		fracStr += strings.Repeat("0", 9-len(fracStr))
		if n, err := strconv.ParseInt(fracStr, 10, 64); err == nil {
			nsec = n
		}
	}
	return time.Unix(sec, nsec).UTC()
}
