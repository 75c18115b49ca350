package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/repository/memory"
	"github.com/secmon-lab/kottos/pkg/usecase"
)

// recordingNotifier collects events delivered by async dispatch
type recordingNotifier struct {
	mu     sync.Mutex
	events []*model.TaskEvent
	ch     chan *model.TaskEvent
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{ch: make(chan *model.TaskEvent, 64)}
}

func (n *recordingNotifier) Notify(ctx context.Context, event *model.TaskEvent) error {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
	n.ch <- event
	return nil
}

func (n *recordingNotifier) wait(t *testing.T) *model.TaskEvent {
	t.Helper()
	select {
	case ev := <-n.ch:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("notification was not delivered")
		return nil
	}
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func chatMessage(sender types.UserID, text string, ts time.Time, resolved ...types.UserID) *model.InboundMessage {
	return model.NewInboundMessage(model.InboundMessageParams{
		Source:      types.SourceChat,
		SenderID:    sender,
		ChannelID:   "C001",
		Text:        text,
		Timestamp:   ts,
		Mentions:    resolved,
		ExternalRef: "C001/1700000000.000100",
	})
}

func TestRoutingUseCase_ScenarioA(t *testing.T) {
	repo := memory.New()
	notifier := newRecordingNotifier()
	uc := usecase.NewRoutingUseCase(repo, usecase.DefaultEngineConfig(), nil, notifier)
	ctx := context.Background()

	msg := chatMessage("U123", "@john can you fix the payment API? It's urgent!", time.Now(), "U456")
	result, err := uc.Process(ctx, msg, types.RouteDeveloper)
	gt.NoError(t, err).Required()

	gt.Value(t, result.Analysis.Confidence).Equal(0.9)
	gt.Value(t, result.Analysis.Urgency).Equal(types.UrgencyUrgent)
	gt.Value(t, result.Analysis.WorkType).Equal(types.WorkTypeCoding)
	gt.Value(t, result.Assignment.AssignorID).Equal(types.UserID("U123"))
	gt.Value(t, result.Assignment.AssigneeID).Equal(types.UserID("U456"))
	gt.Bool(t, result.ShouldCreate).True()
	gt.Bool(t, result.Created).True()

	task := result.Task
	gt.Value(t, task).NotNil()
	gt.Value(t, task.Priority).Equal(types.PriorityUrgent)
	gt.Value(t, task.Title).Equal("Fix the payment API")
	gt.Value(t, task.Status).Equal(types.TaskStatusTodo)
	gt.Value(t, task.ExternalSource).Equal(types.ExternalSourceSlack)
	gt.Value(t, task.ContentHash).Equal(msg.ContentHash())

	ev := notifier.wait(t)
	gt.Value(t, ev.Kind).Equal(model.TaskEventCreated)
	gt.Value(t, ev.Task.ID).Equal(task.ID)
}

func TestRoutingUseCase_ScenarioB(t *testing.T) {
	repo := memory.New()
	uc := usecase.NewRoutingUseCase(repo, usecase.DefaultEngineConfig(), nil, nil)
	ctx := context.Background()

	msg := chatMessage("U1", "schedule a sync with sarah and mike", time.Now(), "U2", "U3")
	result, err := uc.Process(ctx, msg, types.RouteSales)
	gt.NoError(t, err).Required()

	gt.Value(t, result.Analysis.WorkType).Equal(types.WorkTypeCalendar)
	gt.Bool(t, result.Decision.DualRoute).True()
	gt.Bool(t, result.Created).True()

	detail, ok := result.Task.Detail.(model.CalendarDetail)
	gt.Bool(t, ok).True()
	gt.Array(t, detail.Attendees).Length(2)

	tasks := usecase.NewTaskUseCase(repo, usecase.NewAccessUseCase(nil), nil)
	for _, route := range []types.Route{types.RouteSales, types.RouteDeveloper} {
		view, err := tasks.ListView(ctx, route)
		gt.NoError(t, err).Required()
		gt.Array(t, view).Length(1)
		gt.Value(t, view[0].ID).Equal(result.Task.ID)
	}
}

func TestRoutingUseCase_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("empty text is skipped", func(t *testing.T) {
		uc := usecase.NewRoutingUseCase(memory.New(), usecase.DefaultEngineConfig(), nil, nil)
		_, err := uc.Process(ctx, chatMessage("U1", "   ", time.Now()), types.RouteDeveloper)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrClassificationSkip)).True()
	})

	t.Run("small talk creates nothing", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.NewRoutingUseCase(repo, usecase.DefaultEngineConfig(), nil, nil)
		result, err := uc.Process(ctx, chatMessage("U1", "good morning everyone", time.Now(), "U2"), types.RouteDeveloper)
		gt.NoError(t, err).Required()
		gt.Bool(t, result.ShouldCreate).False()
		gt.Value(t, result.Task).Nil()

		tasks, err := repo.Task().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, tasks).Length(0)
	})

	t.Run("redelivery within the same minute merges into one task", func(t *testing.T) {
		repo := memory.New()
		notifier := newRecordingNotifier()
		uc := usecase.NewRoutingUseCase(repo, usecase.DefaultEngineConfig(), nil, notifier)

		ts := time.Date(2024, 3, 1, 10, 15, 5, 0, time.UTC)
		first, err := uc.Process(ctx, chatMessage("U1", "<@U2> please review the deployment plan", ts), types.RouteDeveloper)
		gt.NoError(t, err).Required()
		gt.Bool(t, first.Created).True()

		second, err := uc.Process(ctx, chatMessage("U1", "<@U2> <@U3> please review the deployment plan", ts.Add(20*time.Second)), types.RouteDeveloper)
		gt.NoError(t, err).Required()
		gt.Bool(t, second.Created).False()
		gt.Value(t, second.Task.ID).Equal(first.Task.ID)
		gt.Array(t, second.Task.MentionedUserIDs).Length(2)

		notifier.wait(t)
		tasks, err := repo.Task().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, tasks).Length(1)
		gt.Number(t, notifier.count()).Equal(1)
	})

	t.Run("higher creation threshold suppresses weak requests", func(t *testing.T) {
		cfg := usecase.DefaultEngineConfig()
		cfg.CreationThreshold = 0.8
		uc := usecase.NewRoutingUseCase(memory.New(), cfg, nil, nil)

		result, err := uc.Process(ctx, chatMessage("U1", "schedule a sync with sarah and mike", time.Now(), "U2"), types.RouteSales)
		gt.NoError(t, err).Required()
		gt.Bool(t, result.ShouldCreate).False()
	})

	t.Run("default routes resolve by sender", func(t *testing.T) {
		routes := &usecase.DefaultRoutes{
			Fallback: types.RouteDeveloper,
			ByUser:   map[types.UserID]types.Route{"U_SALES": types.RouteSales},
		}
		uc := usecase.NewRoutingUseCase(memory.New(), usecase.DefaultEngineConfig(), routes, nil)

		result, err := uc.HandleMessage(ctx, chatMessage("U_SALES", "<@U2> can you prepare the pricing analysis", time.Now()))
		gt.NoError(t, err).Required()
		gt.Value(t, result.Task.RouteTo).Equal(types.RouteSales)

		result, err = uc.HandleMessage(ctx, chatMessage("U_OTHER", "<@U2> can you prepare the pricing analysis", time.Now().Add(time.Hour)))
		gt.NoError(t, err).Required()
		gt.Value(t, result.Task.RouteTo).Equal(types.RouteDeveloper)
	})
}

// conflictOnceRepository fails the first upsert with a conflict
type conflictOnceRepository struct {
	*memory.Memory
	task *conflictOnceTaskRepository
}

type conflictOnceTaskRepository struct {
	interfaces.TaskRepository
	mu       sync.Mutex
	failed   bool
	attempts int
}

func (r *conflictOnceRepository) Task() interfaces.TaskRepository {
	return r.task
}

func (r *conflictOnceTaskRepository) Upsert(ctx context.Context, task *model.Task, policy model.UpsertPolicy) (bool, *model.Task, error) {
	r.mu.Lock()
	r.attempts++
	fail := !r.failed
	r.failed = true
	r.mu.Unlock()

	if fail {
		return false, nil, goerr.Wrap(interfaces.ErrUpsertConflict, "identity upsert kept conflicting")
	}
	return r.TaskRepository.Upsert(ctx, task, policy)
}

func TestRoutingUseCase_UpsertConflictIsRetried(t *testing.T) {
	mem := memory.New()
	repo := &conflictOnceRepository{
		Memory: mem,
		task:   &conflictOnceTaskRepository{TaskRepository: mem.Task()},
	}
	uc := usecase.NewRoutingUseCase(repo, usecase.DefaultEngineConfig(), nil, nil)

	result, err := uc.Process(context.Background(), chatMessage("U1", "<@U2> please fix the login bug", time.Now()), types.RouteDeveloper)
	gt.NoError(t, err).Required()
	gt.Bool(t, result.Created).True()
	gt.Number(t, repo.task.attempts).Equal(2)
}

func TestRoutingUseCase_Ingest(t *testing.T) {
	repo := memory.New()
	uc := usecase.NewRoutingUseCase(repo, usecase.DefaultEngineConfig(), nil, nil)
	queue := usecase.NewIngestQueue(uc, types.SourceChat, 4)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- queue.Run(ctx)
	}()

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	texts := []string{
		"<@U2> please fix the flaky test",
		"",
		"thanks all",
		"<@U3> can you review the design mockup",
	}
	for i, text := range texts {
		gt.NoError(t, queue.Submit(ctx, chatMessage("U1", text, base.Add(time.Duration(i)*time.Hour)))).Required()
	}
	queue.Close()

	select {
	case err := <-done:
		gt.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("ingest did not finish after close")
	}

	tasks, err := repo.Task().List(ctx)
	gt.NoError(t, err).Required()
	gt.Array(t, tasks).Length(2)

	gt.Error(t, queue.Submit(ctx, chatMessage("U1", "late", base)))
}

func TestRoutingUseCase_IngestStopsOnCancel(t *testing.T) {
	uc := usecase.NewRoutingUseCase(memory.New(), usecase.DefaultEngineConfig(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	msgs := make(chan *model.InboundMessage)

	done := make(chan error, 1)
	go func() {
		done <- uc.Ingest(ctx, msgs)
	}()
	cancel()

	select {
	case err := <-done:
		gt.Bool(t, errors.Is(err, context.Canceled)).True()
	case <-time.After(3 * time.Second):
		t.Fatal("ingest did not stop on cancel")
	}
}
