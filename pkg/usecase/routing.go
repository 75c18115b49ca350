package usecase

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/detector"
	"github.com/secmon-lab/kottos/pkg/service/extractor"
	"github.com/secmon-lab/kottos/pkg/service/rules"
	"github.com/secmon-lab/kottos/pkg/utils/async"
	"github.com/secmon-lab/kottos/pkg/utils/errutil"
	"github.com/secmon-lab/kottos/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultRoutes resolves the view a requester's generic tasks land in
type DefaultRoutes struct {
	Fallback types.Route
	ByUser   map[types.UserID]types.Route
}

// For returns the configured route of the user, else the fallback
func (d *DefaultRoutes) For(id types.UserID) types.Route {
	if d == nil {
		return types.RouteDeveloper
	}
	if r, ok := d.ByUser[id]; ok {
		return r
	}
	if d.Fallback == "" {
		return types.RouteDeveloper
	}
	return d.Fallback
}

// ProcessResult is the outcome of running one message through the pipeline
type ProcessResult struct {
	Analysis     model.WorkRequestAnalysis
	Assignment   model.AssignmentInfo
	ShouldCreate bool
	Decision     model.RoutingDecision
	// Task is the stored task, nil when no task was created or merged
	Task    *model.Task
	Created bool
}

// RoutingUseCase turns inbound messages into routed tasks
type RoutingUseCase struct {
	repo     interfaces.Repository
	detector *detector.Detector
	engine   EngineConfig
	routes   *DefaultRoutes
	notifier interfaces.Notifier
}

// NewRoutingUseCase creates a RoutingUseCase. notifier may be nil.
func NewRoutingUseCase(repo interfaces.Repository, engine EngineConfig, routes *DefaultRoutes, notifier interfaces.Notifier) *RoutingUseCase {
	return &RoutingUseCase{
		repo:     repo,
		detector: detector.New(detector.WithThreshold(engine.DetectionThreshold)),
		engine:   engine,
		routes:   routes,
		notifier: notifier,
	}
}

// Classify runs detection, extraction and routing without touching the
// store. It returns ErrClassificationSkip for an empty message.
func (uc *RoutingUseCase) Classify(ctx context.Context, msg *model.InboundMessage, defaultRoute types.Route) (*ProcessResult, error) {
	ms := rules.Evaluate(msg.Text())
	if ms.Empty() {
		return nil, goerr.Wrap(ErrClassificationSkip, "message has no text",
			goerr.V(SourceKey, msg.Source()),
			goerr.V("channel_id", msg.ChannelID()),
			goerr.V(UserIDKey, msg.SenderID()))
	}

	result := &ProcessResult{}

	// Both consume the same MatchSet and write disjoint fields
	var eg errgroup.Group
	eg.Go(func() error {
		result.Analysis = uc.detector.AnalyzeMatches(ms, msg.Context())
		return nil
	})
	eg.Go(func() error {
		result.Assignment = extractor.ExtractMatches(ms, msg.SenderID(), msg.Mentions())
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, goerr.Wrap(err, "classification cancelled")
	}

	result.ShouldCreate, result.Decision = uc.engine.Route(result.Analysis, result.Assignment, defaultRoute)
	result.Decision.Title = extractor.Title(msg.Text())

	return result, nil
}

// Process classifies msg and, when it is an assigned work request, upserts
// the task and notifies on creation.
func (uc *RoutingUseCase) Process(ctx context.Context, msg *model.InboundMessage, defaultRoute types.Route) (*ProcessResult, error) {
	result, err := uc.Classify(ctx, msg, defaultRoute)
	if err != nil {
		return nil, err
	}

	logger := logging.From(ctx)
	if !result.ShouldCreate {
		logger.Debug("message is not an assigned work request",
			"source", msg.Source(),
			"confidence", result.Analysis.Confidence,
			"is_assignment", result.Assignment.IsAssignment,
		)
		return result, nil
	}

	task := buildTask(msg, result)
	created, stored, err := uc.upsert(ctx, task)
	if err != nil {
		return nil, err
	}
	result.Task = stored
	result.Created = created

	if created {
		logger.Info("task created",
			"task_id", stored.ID,
			"route", stored.RouteTo,
			"dual_route", stored.DualRoute,
			"work_type", stored.WorkType,
		)
		uc.notify(ctx, &model.TaskEvent{Kind: model.TaskEventCreated, Task: stored})
	}

	return result, nil
}

// HandleMessage processes msg with the sender's default route
func (uc *RoutingUseCase) HandleMessage(ctx context.Context, msg *model.InboundMessage) (*ProcessResult, error) {
	return uc.Process(ctx, msg, uc.routes.For(msg.SenderID()))
}

// Ingest processes messages from one source until msgs is closed or ctx is
// cancelled. Per-message failures are logged and do not stop the loop.
func (uc *RoutingUseCase) Ingest(ctx context.Context, msgs <-chan *model.InboundMessage) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if _, err := uc.HandleMessage(ctx, msg); err != nil {
				if errors.Is(err, ErrClassificationSkip) {
					logging.From(ctx).Debug("message skipped", "source", msg.Source(), "channel_id", msg.ChannelID())
					continue
				}
				_ = errutil.Handle(ctx, err, "failed to process inbound message")
			}
		}
	}
}

// upsert retries once when a concurrent writer won the identity claim. The
// retry observes the winner's record and merges into it.
func (uc *RoutingUseCase) upsert(ctx context.Context, task *model.Task) (bool, *model.Task, error) {
	created, stored, err := uc.repo.Task().Upsert(ctx, task, model.PolicyLocal)
	if err == nil {
		return created, stored, nil
	}
	if !errors.Is(err, ErrUpsertConflict) {
		return false, nil, goerr.Wrap(err, "failed to upsert task", goerr.V("content_hash", task.ContentHash))
	}

	created, stored, err = uc.repo.Task().Upsert(ctx, task, model.PolicyLocal)
	if err != nil {
		return false, nil, goerr.Wrap(err, "failed to upsert task after conflict", goerr.V("content_hash", task.ContentHash))
	}
	return created, stored, nil
}

func (uc *RoutingUseCase) notify(ctx context.Context, event *model.TaskEvent) {
	if uc.notifier == nil {
		return
	}
	notifier := uc.notifier
	async.Dispatch(ctx, func(ctx context.Context) error {
		return notifier.Notify(ctx, event)
	})
}

func buildTask(msg *model.InboundMessage, result *ProcessResult) *model.Task {
	task := &model.Task{
		Title:            result.Decision.Title,
		Description:      msg.Text(),
		Priority:         result.Decision.Priority,
		Status:           types.TaskStatusTodo,
		AssignorID:       result.Assignment.AssignorID,
		AssigneeID:       result.Assignment.AssigneeID,
		MentionedUserIDs: result.Assignment.MentionedUserIDs,
		WorkType:         result.Analysis.WorkType,
		RouteTo:          result.Decision.RouteTo,
		DualRoute:        result.Decision.DualRoute,
		Detail:           result.Decision.Detail,
	}

	switch msg.Source() {
	case types.SourceChat:
		task.ExternalSource = types.ExternalSourceSlack
		task.ExternalKey = msg.ExternalRef()
		task.ContentHash = msg.ContentHash()
	case types.SourceEmail:
		task.ExternalSource = types.ExternalSourceEmail
		task.ExternalKey = msg.ExternalRef()
		task.ContentHash = msg.ContentHash()
	}

	return task
}
