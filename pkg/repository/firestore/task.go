package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/domain/interfaces"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/utils/keylock"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxUpsertAttempts bounds retries when another writer claims the same
// identity between our read and our commit
const maxUpsertAttempts = 3

type taskRepository struct {
	client           *firestore.Client
	collectionPrefix string
	keys             *keylock.KeyLock
}

var _ interfaces.TaskRepository = &taskRepository{}

func newTaskRepository(client *firestore.Client) *taskRepository {
	return &taskRepository{
		client:           client,
		collectionPrefix: "",
		keys:             keylock.New(),
	}
}

// TasksCollection returns the name of the task collection for prefix
func TasksCollection(prefix string) string {
	if prefix != "" {
		return prefix + "_tasks"
	}
	return "tasks"
}

func (r *taskRepository) tasksCollection() string {
	return TasksCollection(r.collectionPrefix)
}

func (r *taskRepository) identitiesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_task_identities"
	}
	return "task_identities"
}

// identityDocID maps an identity key to a valid document ID. External IDs
// may contain '/', which Firestore does not allow in IDs.
func identityDocID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

func (r *taskRepository) Upsert(ctx context.Context, task *model.Task, policy model.UpsertPolicy) (bool, *model.Task, error) {
	if task == nil {
		return false, nil, goerr.New("task is nil")
	}

	key, hasIdentity := task.IdentityKey()
	if !hasIdentity {
		created := newTaskRecord(task, time.Now().UTC())
		if _, err := r.client.Collection(r.tasksCollection()).Doc(string(created.ID)).Create(ctx, toTaskDoc(created)); err != nil {
			return false, nil, goerr.Wrap(err, "failed to create task", goerr.V("id", created.ID))
		}
		return true, created, nil
	}

	unlock := r.keys.Lock(key)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < maxUpsertAttempts; attempt++ {
		created, stored, err := r.upsertTx(ctx, key, task, policy)
		if err == nil {
			return created, stored, nil
		}
		// AlreadyExists means another process claimed the identity after our
		// read; the next attempt observes the claim and merges instead.
		if status.Code(err) != codes.AlreadyExists && status.Code(err) != codes.Aborted {
			return false, nil, goerr.Wrap(err, "failed to upsert task", goerr.V("identity", key))
		}
		lastErr = err
	}

	return false, nil, goerr.Wrap(interfaces.ErrUpsertConflict, "identity upsert kept conflicting",
		goerr.V("identity", key), goerr.V("attempts", maxUpsertAttempts), goerr.V("last_error", lastErr.Error()))
}

func (r *taskRepository) upsertTx(ctx context.Context, key string, task *model.Task, policy model.UpsertPolicy) (bool, *model.Task, error) {
	identityRef := r.client.Collection(r.identitiesCollection()).Doc(identityDocID(key))

	var created bool
	var stored *model.Task

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created, stored = false, nil
		now := time.Now().UTC()

		identitySnap, err := tx.Get(identityRef)
		if err != nil && status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to get task identity")
		}

		if err != nil {
			record := newTaskRecord(task, now)
			taskRef := r.client.Collection(r.tasksCollection()).Doc(string(record.ID))
			if err := tx.Create(identityRef, &identityDoc{Key: key, TaskID: string(record.ID), CreatedAt: now}); err != nil {
				return err
			}
			if err := tx.Create(taskRef, toTaskDoc(record)); err != nil {
				return err
			}
			created, stored = true, record
			return nil
		}

		var identity identityDoc
		if err := identitySnap.DataTo(&identity); err != nil {
			return goerr.Wrap(err, "failed to decode task identity")
		}

		taskRef := r.client.Collection(r.tasksCollection()).Doc(identity.TaskID)
		taskSnap, err := tx.Get(taskRef)
		if err != nil {
			return goerr.Wrap(err, "identity points to unreadable task", goerr.V("task_id", identity.TaskID))
		}

		var doc taskDoc
		if err := taskSnap.DataTo(&doc); err != nil {
			return goerr.Wrap(err, "failed to decode task", goerr.V("task_id", identity.TaskID))
		}

		merged := fromTaskDoc(&doc)
		if merged.Merge(task, policy, now) {
			if err := tx.Set(taskRef, toTaskDoc(merged)); err != nil {
				return err
			}
		}
		stored = merged
		return nil
	})
	if err != nil {
		return false, nil, err
	}

	return created, stored, nil
}

func newTaskRecord(task *model.Task, now time.Time) *model.Task {
	record := task.Clone()
	if record.ID == "" {
		record.ID = model.NewTaskID()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	if record.Status == types.TaskStatusCompleted && record.CompletedAt == nil {
		record.CompletedAt = &now
	}
	return record
}

func (r *taskRepository) Get(ctx context.Context, id model.TaskID) (*model.Task, error) {
	snap, err := r.client.Collection(r.tasksCollection()).Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get task", goerr.V("id", id))
	}

	var doc taskDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode task", goerr.V("id", id))
	}
	return fromTaskDoc(&doc), nil
}

func (r *taskRepository) FindByExternalID(ctx context.Context, source types.ExternalSource, externalID string) (*model.Task, error) {
	key := model.ExternalIdentityKey(source, externalID)
	snap, err := r.client.Collection(r.identitiesCollection()).Doc(identityDocID(key)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get task identity", goerr.V("identity", key))
	}

	var identity identityDoc
	if err := snap.DataTo(&identity); err != nil {
		return nil, goerr.Wrap(err, "failed to decode task identity", goerr.V("identity", key))
	}

	return r.Get(ctx, model.TaskID(identity.TaskID))
}

// UpdateStatus writes status, completed_at and updated_at in one
// transaction. A concurrent Upsert on the same task document aborts and
// retries the transaction, so check always sees the latest stored status.
func (r *taskRepository) UpdateStatus(ctx context.Context, id model.TaskID, next types.TaskStatus, check func(current *model.Task) error) (*model.Task, error) {
	taskRef := r.client.Collection(r.tasksCollection()).Doc(string(id))
	var updated *model.Task

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		updated = nil
		snap, err := tx.Get(taskRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "task not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get task", goerr.V("id", id))
		}

		var doc taskDoc
		if err := snap.DataTo(&doc); err != nil {
			return goerr.Wrap(err, "failed to decode task", goerr.V("id", id))
		}

		current := fromTaskDoc(&doc)
		if check != nil {
			if err := check(current.Clone()); err != nil {
				return err
			}
		}
		if current.Status == next {
			updated = current
			return nil
		}

		now := time.Now().UTC()
		current.SetStatus(next, now)
		current.UpdatedAt = now

		var completedAt any
		if current.CompletedAt != nil {
			completedAt = *current.CompletedAt
		}
		updated = current
		return tx.Update(taskRef, []firestore.Update{
			{Path: "status", Value: string(current.Status)},
			{Path: "completed_at", Value: completedAt},
			{Path: "updated_at", Value: now},
		})
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update task status", goerr.V("id", id))
	}

	return updated, nil
}

func (r *taskRepository) List(ctx context.Context, opts ...interfaces.ListTaskOption) ([]*model.Task, error) {
	o := interfaces.BuildListTaskOptions(opts...)

	// Route and status narrow the query server side. Route visibility
	// includes dual-routed tasks, and the user filter spans two fields, so
	// both are re-checked with Matches.
	query := r.client.Collection(r.tasksCollection()).Query
	if o.Status != nil {
		query = query.Where("status", "==", string(*o.Status))
	}
	if o.Route != nil {
		query = query.WhereEntity(firestore.OrFilter{
			Filters: []firestore.EntityFilter{
				firestore.PropertyFilter{Path: "route_to", Operator: "==", Value: string(*o.Route)},
				firestore.PropertyFilter{Path: "dual_route", Operator: "==", Value: true},
			},
		})
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var tasks []*model.Task
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tasks")
		}

		var doc taskDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode task", goerr.V("doc_id", snap.Ref.ID))
		}

		task := fromTaskDoc(&doc)
		if o.Matches(task) {
			tasks = append(tasks, task)
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
