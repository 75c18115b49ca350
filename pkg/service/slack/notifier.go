package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/slack-go/slack"
)

// Notifier posts task events to a Slack channel
type Notifier struct {
	svc       Service
	channelID string
}

var _ interfaces.Notifier = &Notifier{}

func NewNotifier(svc Service, channelID string) *Notifier {
	return &Notifier{svc: svc, channelID: channelID}
}

func (n *Notifier) Notify(ctx context.Context, event *model.TaskEvent) error {
	if event == nil || event.Task == nil {
		return goerr.New("task event is empty")
	}

	blocks, text := BuildTaskEventBlocks(event)
	if _, err := n.svc.PostMessage(ctx, n.channelID, blocks, text); err != nil {
		return goerr.Wrap(err, "failed to notify task event",
			goerr.V("kind", event.Kind), goerr.V("task_id", event.Task.ID))
	}
	return nil
}

// BuildTaskEventBlocks renders an event as Block Kit blocks and a fallback text
func BuildTaskEventBlocks(event *model.TaskEvent) ([]slack.Block, string) {
	task := event.Task

	var headline string
	switch event.Kind {
	case model.TaskEventCreated:
		headline = fmt.Sprintf("New task: %s", task.Title)
	default:
		if event.PreviousStatus != "" && event.PreviousStatus != task.Status {
			headline = fmt.Sprintf("Task %s: %s → %s", task.Title, event.PreviousStatus, task.Status)
		} else {
			headline = fmt.Sprintf("Task updated: %s", task.Title)
		}
	}

	views := make([]string, 0, 2)
	for _, v := range (model.RoutingDecision{RouteTo: task.RouteTo, DualRoute: task.DualRoute}).Views() {
		views = append(views, string(v))
	}

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, "*Priority*\n"+string(task.Priority), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Status*\n"+string(task.Status), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Type*\n"+string(task.WorkType), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, "*Views*\n"+strings.Join(views, ", "), false, false),
	}
	if task.AssigneeID != "" {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, "*Assignee*\n"+mention(string(task.AssigneeID)), false, false))
	}
	if task.AssignorID != "" {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, "*Requested by*\n"+mention(string(task.AssignorID)), false, false))
	}

	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "*"+escape(headline)+"*", false, false), nil, nil),
		slack.NewSectionBlock(nil, fields, nil),
	}

	if d, ok := task.Detail.(model.TrackerDetail); ok && d.URL != "" {
		label := task.ExternalKey
		if label == "" {
			label = d.URL
		}
		blocks = append(blocks, slack.NewContextBlock("",
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("<%s|%s>", d.URL, escape(label)), false, false)))
	}

	return blocks, headline
}

// mention renders Slack user IDs as mentions and leaves other IDs as text
func mention(id string) string {
	if strings.HasPrefix(id, "U") || strings.HasPrefix(id, "W") {
		return "<@" + id + ">"
	}
	return escape(id)
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}
