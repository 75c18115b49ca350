package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/utils/keylock"
)

type taskRepository struct {
	mu         sync.RWMutex
	tasks      map[model.TaskID]*model.Task
	byIdentity map[string]model.TaskID

	// keys serializes every write for one identity key
	keys *keylock.KeyLock
	now  func() time.Time
}

var _ interfaces.TaskRepository = &taskRepository{}

func newTaskRepository() *taskRepository {
	return &taskRepository{
		tasks:      make(map[model.TaskID]*model.Task),
		byIdentity: make(map[string]model.TaskID),
		keys:       keylock.New(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (r *taskRepository) Upsert(ctx context.Context, task *model.Task, policy model.UpsertPolicy) (bool, *model.Task, error) {
	if task == nil {
		return false, nil, goerr.New("task is nil")
	}

	key, hasIdentity := task.IdentityKey()
	if !hasIdentity {
		created := r.insert(task, "")
		return true, created, nil
	}

	unlock := r.keys.Lock(key)
	defer unlock()

	r.mu.RLock()
	existingID, exists := r.byIdentity[key]
	r.mu.RUnlock()

	if !exists {
		created := r.insert(task, key)
		return true, created, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.tasks[existingID]
	if !ok {
		return false, nil, goerr.New("identity index points to missing task",
			goerr.V("identity", key), goerr.V("task_id", existingID))
	}

	merged := existing.Clone()
	merged.Merge(task, policy, r.now())
	r.tasks[merged.ID] = merged

	return false, merged.Clone(), nil
}

func (r *taskRepository) insert(task *model.Task, identity string) *model.Task {
	now := r.now()

	created := task.Clone()
	if created.ID == "" {
		created.ID = model.NewTaskID()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now
	if created.Status == types.TaskStatusCompleted && created.CompletedAt == nil {
		created.CompletedAt = &now
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[created.ID] = created
	if identity != "" {
		r.byIdentity[identity] = created.ID
	}
	return created.Clone()
}

func (r *taskRepository) Get(ctx context.Context, id model.TaskID) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, exists := r.tasks[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
	}
	return task.Clone(), nil
}

func (r *taskRepository) FindByExternalID(ctx context.Context, source types.ExternalSource, externalID string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byIdentity[model.ExternalIdentityKey(source, externalID)]
	if !exists {
		return nil, nil
	}
	return r.tasks[id].Clone(), nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id model.TaskID, next types.TaskStatus, check func(current *model.Task) error) (*model.Task, error) {
	r.mu.RLock()
	task, exists := r.tasks[id]
	var key string
	var hasIdentity bool
	if exists {
		key, hasIdentity = task.IdentityKey()
	}
	r.mu.RUnlock()

	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
	}
	if hasIdentity {
		unlock := r.keys.Lock(key)
		defer unlock()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.tasks[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
	}
	if check != nil {
		if err := check(current.Clone()); err != nil {
			return nil, err
		}
	}
	if current.Status == next {
		return current.Clone(), nil
	}

	now := r.now()
	updated := current.Clone()
	updated.SetStatus(next, now)
	updated.UpdatedAt = now
	r.tasks[id] = updated

	return updated.Clone(), nil
}

func (r *taskRepository) List(ctx context.Context, opts ...interfaces.ListTaskOption) ([]*model.Task, error) {
	o := interfaces.BuildListTaskOptions(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := make([]*model.Task, 0)
	for _, task := range r.tasks {
		if o.Matches(task) {
			tasks = append(tasks, task.Clone())
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID > tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	if o.Limit > 0 && len(tasks) > o.Limit {
		tasks = tasks[:o.Limit]
	}
	return tasks, nil
}
