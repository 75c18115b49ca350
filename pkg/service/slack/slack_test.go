package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	slacksvc "github.com/secmon-lab/kottos/pkg/service/slack"
	"github.com/slack-go/slack"
)

type mockService struct {
	users    []*slacksvc.User
	posted   []string
	blocks   [][]slack.Block
	failPost bool
}

func (m *mockService) ListUsers(ctx context.Context) ([]*slacksvc.User, error) {
	return m.users, nil
}

func (m *mockService) PostMessage(ctx context.Context, channelID string, blocks []slack.Block, text string) (string, error) {
	if m.failPost {
		return "", goerr.New("channel_not_found")
	}
	m.posted = append(m.posted, channelID+":"+text)
	m.blocks = append(m.blocks, blocks)
	return "1700000000.000100", nil
}

func newTask() *model.Task {
	return &model.Task{
		ID:         "task-1",
		Title:      "Fix the payment API",
		Priority:   types.PriorityUrgent,
		Status:     types.TaskStatusTodo,
		AssignorID: "U123",
		AssigneeID: "U456",
		WorkType:   types.WorkTypeCoding,
		RouteTo:    types.RouteDeveloper,
	}
}

func TestNotifier(t *testing.T) {
	t.Run("posts created event", func(t *testing.T) {
		svc := &mockService{}
		n := slacksvc.NewNotifier(svc, "C_NOTIFY")

		err := n.Notify(context.Background(), &model.TaskEvent{Kind: model.TaskEventCreated, Task: newTask()})
		gt.NoError(t, err).Required()
		gt.Array(t, svc.posted).Length(1)
		gt.Value(t, svc.posted[0]).Equal("C_NOTIFY:New task: Fix the payment API")
	})

	t.Run("post failure is returned", func(t *testing.T) {
		n := slacksvc.NewNotifier(&mockService{failPost: true}, "C_NOTIFY")
		err := n.Notify(context.Background(), &model.TaskEvent{Kind: model.TaskEventCreated, Task: newTask()})
		gt.Error(t, err)
	})

	t.Run("empty event is rejected", func(t *testing.T) {
		n := slacksvc.NewNotifier(&mockService{}, "C_NOTIFY")
		gt.Error(t, n.Notify(context.Background(), &model.TaskEvent{}))
	})
}

func TestBuildTaskEventBlocks(t *testing.T) {
	t.Run("status change headline", func(t *testing.T) {
		task := newTask()
		task.Status = types.TaskStatusCompleted
		_, text := slacksvc.BuildTaskEventBlocks(&model.TaskEvent{
			Kind:           model.TaskEventUpdated,
			Task:           task,
			PreviousStatus: types.TaskStatusInProgress,
		})
		gt.Value(t, text).Equal("Task Fix the payment API: in_progress → completed")
	})

	t.Run("tracker link is added as context", func(t *testing.T) {
		task := newTask()
		task.ExternalKey = "secmon-lab/kottos#42"
		task.Detail = model.TrackerDetail{URL: "https://github.com/secmon-lab/kottos/issues/42"}
		blocks, _ := slacksvc.BuildTaskEventBlocks(&model.TaskEvent{Kind: model.TaskEventCreated, Task: task})
		gt.Array(t, blocks).Length(3)
		gt.Value(t, blocks[2].BlockType()).Equal(slack.MBTContext)
	})

	t.Run("blocks marshal as valid JSON", func(t *testing.T) {
		blocks, _ := slacksvc.BuildTaskEventBlocks(&model.TaskEvent{Kind: model.TaskEventCreated, Task: newTask()})
		raw, err := json.Marshal(slack.Blocks{BlockSet: blocks})
		gt.NoError(t, err).Required()
		gt.Bool(t, json.Valid(raw)).True()
		// encoding/json escapes '<' and '>' in strings
		gt.String(t, string(raw)).Contains(`\u003c@U456\u003e`)
	})
}

func TestLoadAddressBook(t *testing.T) {
	svc := &mockService{users: []*slacksvc.User{
		{ID: "U1", Email: "Alice@Example.com"},
		{ID: "U2"},
	}}

	book, err := slacksvc.LoadAddressBook(context.Background(), svc)
	gt.NoError(t, err).Required()

	id, ok := book.LookupEmail("alice@example.com")
	gt.Bool(t, ok).True()
	gt.Value(t, id).Equal(types.UserID("U1"))

	_, ok = book.LookupEmail("nobody@example.com")
	gt.Bool(t, ok).False()
}

func TestListUsersSkipsBotsAndDeleted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"members":[
			{"id":"U1","name":"alice","profile":{"email":"alice@example.com"}},
			{"id":"U2","name":"bot","is_bot":true,"profile":{}},
			{"id":"U3","name":"gone","deleted":true,"profile":{}}
		],"response_metadata":{"next_cursor":""}}`))
	}))
	defer srv.Close()

	svc, err := slacksvc.New("xoxb-test", slacksvc.WithAPIURL(srv.URL+"/"))
	gt.NoError(t, err).Required()

	users, err := svc.ListUsers(context.Background())
	gt.NoError(t, err).Required()
	gt.Array(t, users).Length(1)
	gt.Value(t, users[0].ID).Equal("U1")
	gt.Value(t, users[0].Email).Equal("alice@example.com")
	gt.Number(t, hits.Load()).Greater(0)
}

func TestNewRequiresToken(t *testing.T) {
	_, err := slacksvc.New("")
	gt.Error(t, err)
}
