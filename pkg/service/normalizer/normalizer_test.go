package normalizer_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/normalizer"
	"github.com/secmon-lab/kottos/pkg/service/tracker"
	"github.com/slack-go/slack/slackevents"
)

func callback(data any) *slackevents.EventsAPIEvent {
	return &slackevents.EventsAPIEvent{
		Type:       slackevents.CallbackEvent,
		TeamID:     "T001",
		InnerEvent: slackevents.EventsAPIInnerEvent{Data: data},
	}
}

func TestFromSlackEvent(t *testing.T) {
	t.Run("message event", func(t *testing.T) {
		msg := normalizer.FromSlackEvent(callback(&slackevents.MessageEvent{
			Channel:   "C100",
			User:      "U123",
			Text:      "<@U456> can you fix the payment API?",
			TimeStamp: "1700000000.000200",
		}))
		gt.Value(t, msg).NotNil()
		gt.Value(t, msg.Source()).Equal(types.SourceChat)
		gt.Value(t, msg.SenderID()).Equal(types.UserID("U123"))
		gt.Value(t, msg.ChannelID()).Equal("C100")
		gt.Value(t, msg.ExternalRef()).Equal("C100/1700000000.000200")
		gt.Bool(t, msg.Timestamp().Equal(time.Unix(1700000000, 200000))).True()
	})

	t.Run("app mention event", func(t *testing.T) {
		msg := normalizer.FromSlackEvent(callback(&slackevents.AppMentionEvent{
			Channel:   "C100",
			User:      "U123",
			Text:      "<@UBOT> please review",
			TimeStamp: "1700000000.000300",
		}))
		gt.Value(t, msg).NotNil()
		gt.Value(t, msg.Text()).Equal("<@UBOT> please review")
	})

	t.Run("skipped events", func(t *testing.T) {
		gt.Value(t, normalizer.FromSlackEvent(callback(&slackevents.MessageEvent{
			Channel: "C1", User: "U1", Text: "edited", SubType: "message_changed",
		}))).Nil()
		gt.Value(t, normalizer.FromSlackEvent(callback(&slackevents.MessageEvent{
			Channel: "C1", BotID: "B1", Text: "bot says hi",
		}))).Nil()
		gt.Value(t, normalizer.FromSlackEvent(callback(&slackevents.MemberJoinedChannelEvent{Channel: "C1"}))).Nil()
		gt.Value(t, normalizer.FromSlackEvent(&slackevents.EventsAPIEvent{Type: slackevents.URLVerification})).Nil()
	})
}

func TestParseSlackTS(t *testing.T) {
	gt.Bool(t, normalizer.ParseSlackTS("1700000000.5").Equal(time.Unix(1700000000, 500000000))).True()
	gt.Bool(t, normalizer.ParseSlackTS("1700000000").Equal(time.Unix(1700000000, 0))).True()
	gt.Bool(t, normalizer.ParseSlackTS("garbage").IsZero()).True()
}

type addressBook map[string]types.UserID

func (b addressBook) LookupEmail(address string) (types.UserID, bool) {
	id, ok := b[address]
	return id, ok
}

func TestFromEmail(t *testing.T) {
	book := addressBook{
		"alice@example.com": "user_alice",
		"bob@example.com":   "user_bob",
	}
	date := time.Date(2026, 3, 1, 9, 30, 12, 0, time.UTC)

	t.Run("recipients become mentions", func(t *testing.T) {
		msg, err := normalizer.FromEmail(&normalizer.Email{
			MessageID: "<abc@example.com>",
			Mailbox:   "tasks@example.com",
			From:      "Alice <Alice@Example.com>",
			To:        []string{"bob@example.com", "tasks@example.com", "carol@partner.io"},
			Subject:   "Please send the proposal",
			Body:      "Bob, can you send the proposal to the client today?",
			Date:      date,
		}, book)
		gt.NoError(t, err).Required()
		gt.Value(t, msg.Source()).Equal(types.SourceEmail)
		gt.Value(t, msg.SenderID()).Equal(types.UserID("user_alice"))
		gt.Value(t, msg.ChannelID()).Equal("tasks@example.com")
		gt.Value(t, msg.Mentions()).Equal([]types.UserID{"user_bob", "carol@partner.io"})
		gt.Value(t, msg.Text()).Equal("Please send the proposal\nBob, can you send the proposal to the client today?")
		gt.Value(t, msg.ContentHash()).Equal(model.ContentHash(types.SourceEmail, "tasks@example.com", "user_alice", date))
	})

	t.Run("invalid sender", func(t *testing.T) {
		_, err := normalizer.FromEmail(&normalizer.Email{From: "not an address"}, book)
		gt.Error(t, err)
	})
}

func TestFromIssue(t *testing.T) {
	issue := &tracker.Issue{
		Source:      types.ExternalSourceGitHub,
		ID:          "I_kwDOabc",
		Key:         "secmon-lab/kottos#42",
		Title:       "Fix crash on login",
		Body:        "Stack trace attached",
		URL:         "https://github.com/secmon-lab/kottos/issues/42",
		Status:      "In Review",
		Priority:    "P1",
		Labels:      []string{"bug", "backend"},
		Sprint:      "Sprint 7",
		StoryPoints: 5,
		AssigneeID:  "octocat",
		ReporterID:  "hubot",
	}

	got := normalizer.FromIssue(issue, types.RouteDeveloper)
	gt.Bool(t, got.StatusKnown).True()
	task := got.Task
	gt.Value(t, task.Status).Equal(types.TaskStatusInProgress)
	gt.Value(t, task.Priority).Equal(types.PriorityHigh)
	gt.Value(t, task.WorkType).Equal(types.WorkTypeCoding)
	gt.Value(t, task.ExternalSource).Equal(types.ExternalSourceGitHub)
	gt.Value(t, task.ExternalID).Equal("I_kwDOabc")
	gt.Value(t, task.AssigneeID).Equal(types.UserID("octocat"))
	gt.Value(t, task.Tags).Equal([]string{"bug", "backend"})

	detail, ok := task.Detail.(model.TrackerDetail)
	gt.Bool(t, ok).True()
	gt.Value(t, detail.Sprint).Equal("Sprint 7")
	gt.Value(t, detail.StoryPoints).Equal(float64(5))

	key, ok := task.IdentityKey()
	gt.Bool(t, ok).True()
	gt.Value(t, key).Equal(model.ExternalIdentityKey(types.ExternalSourceGitHub, "I_kwDOabc"))

	issue.Status = "Blocked"
	issue.Priority = ""
	unknown := normalizer.FromIssue(issue, types.RouteDeveloper)
	gt.Bool(t, unknown.StatusKnown).False()
	gt.Value(t, unknown.Task.Status).Equal(types.TaskStatusTodo)
	gt.Value(t, unknown.Task.Priority).Equal(types.Priority(""))
}
