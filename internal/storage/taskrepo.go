package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valter-silva-au/todo/pkg/models"
	"go.uber.org/zap"
)

// TasksKey is the fixed key under which the task collection is stored.
const TasksKey = "todos"

// ErrPersistenceWrite marks a failed TaskRepository.Save.
var ErrPersistenceWrite = errors.New("persisting tasks")

// TaskRepository reads and writes the whole task collection as one JSON
// array under TasksKey.
type TaskRepository interface {
	// Load returns ok=false when nothing was ever saved. Unreadable or
	// corrupt data is logged and yields an empty collection with ok=true.
	Load(ctx context.Context) (tasks []models.Task, ok bool)
	Save(ctx context.Context, tasks []models.Task) error
	Clear(ctx context.Context) error
}

type kvTaskRepository struct {
	kv     KeyValueStore
	logger *zap.Logger
}

// NewTaskRepository creates a TaskRepository on top of kv. logger may be nil.
func NewTaskRepository(kv KeyValueStore, logger *zap.Logger) TaskRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &kvTaskRepository{kv: kv, logger: logger.Named("repository")}
}

func (r *kvTaskRepository) Load(ctx context.Context) ([]models.Task, bool) {
	data, err := r.kv.Get(ctx, TasksKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		r.logger.Error("reading stored tasks, starting with an empty list", zap.Error(err))
		return []models.Task{}, true
	}
	if len(data) == 0 {
		return nil, false
	}

	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		r.logger.Error("decoding stored tasks, starting with an empty list",
			zap.Error(err),
			zap.Int("bytes", len(data)),
		)
		return []models.Task{}, true
	}
	if tasks == nil {
		tasks = []models.Task{}
	}

	for _, t := range tasks {
		if !t.Status.Valid() {
			r.logger.Warn("stored task has unknown status",
				zap.String("task_id", t.ID),
				zap.String("status", string(t.Status)),
			)
		}
	}
	return tasks, true
}

func (r *kvTaskRepository) Save(ctx context.Context, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("%w: encoding: %w", ErrPersistenceWrite, err)
	}
	if err := r.kv.Set(ctx, TasksKey, data); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistenceWrite, err)
	}
	r.logger.Debug("saved tasks", zap.Int("count", len(tasks)))
	return nil
}

func (r *kvTaskRepository) Clear(ctx context.Context) error {
	if err := r.kv.Delete(ctx, TasksKey); err != nil {
		return fmt.Errorf("clearing tasks: %w", err)
	}
	r.logger.Warn("cleared stored tasks")
	return nil
}
