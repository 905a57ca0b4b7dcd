package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/todo/pkg/models"
	"go.uber.org/zap"
)

// TaskRepository is the subset of storage.TaskRepository the store needs.
// Defining it here keeps core independent of the storage package.
type TaskRepository interface {
	Load(ctx context.Context) ([]models.Task, bool)
	Save(ctx context.Context, tasks []models.Task) error
	Clear(ctx context.Context) error
}

// LoadState tracks where the store is in its startup lifecycle.
type LoadState int

const (
	// StateLoading is the state before Initialize completes.
	StateLoading LoadState = iota
	// StateNeverInitialized means storage held no task collection at all.
	StateNeverInitialized
	// StateLoaded means a collection (possibly empty) is held in memory.
	StateLoaded
)

func (s LoadState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateNeverInitialized:
		return "never_initialized"
	case StateLoaded:
		return "loaded"
	default:
		return fmt.Sprintf("LoadState(%d)", int(s))
	}
}

// Notices shown to the user by the store.
const (
	MsgTaskAdded  = "Task added successfully"
	MsgSaveFailed = "Error occurred saving tasks list"
)

// TaskStore owns the authoritative in-memory task collection and is the
// only component allowed to change it.
//
// Mutations update memory first and then write the whole collection. A
// failed write is logged and reported through the Notifier but neither rolls
// back the change nor fails the operation: for the rest of the session the
// in-memory collection is the source of truth.
type TaskStore interface {
	Initialize(ctx context.Context) error
	State() LoadState
	AddTask(ctx context.Context, in NewTaskInput) (models.Task, error)
	TransitionStatus(ctx context.Context, taskID string, to models.TaskStatus) (models.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	Reset(ctx context.Context) error
	Tasks() []models.Task
	GetTask(taskID string) (models.Task, error)
	Sorted(spec models.SortSpec) []models.Task
}

type taskStore struct {
	mu sync.Mutex

	repo     TaskRepository
	clock    Clock
	ids      TaskIDGenerator
	notifier Notifier
	events   EventLogger
	logger   *zap.Logger

	state LoadState
	tasks []models.Task
}

// NewTaskStore creates a TaskStore in StateLoading. clock, ids, notifier,
// events and logger may be nil; sensible defaults are used.
func NewTaskStore(repo TaskRepository, clock Clock, ids TaskIDGenerator, notifier Notifier, events EventLogger, logger *zap.Logger) TaskStore {
	if clock == nil {
		clock = SystemClock()
	}
	if ids == nil {
		ids = NewTaskIDGenerator()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &taskStore{
		repo:     repo,
		clock:    clock,
		ids:      ids,
		notifier: notifier,
		events:   events,
		logger:   logger.Named("store"),
		state:    StateLoading,
	}
}

// Initialize loads the collection from the repository. It moves the store
// to StateNeverInitialized when nothing was ever saved and to StateLoaded
// otherwise.
func (s *taskStore) Initialize(ctx context.Context) error {
	tasks, ok := s.repo.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !ok {
		s.tasks = nil
		s.state = StateNeverInitialized
		s.logger.Info("no stored tasks found")
		return nil
	}
	s.tasks = tasks
	s.state = StateLoaded
	s.logger.Info("loaded tasks", zap.Int("count", len(tasks)))
	return nil
}

func (s *taskStore) State() LoadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddTask validates in, appends a new Created task and persists.
func (s *taskStore) AddTask(ctx context.Context, in NewTaskInput) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoading {
		return models.Task{}, ErrStoreNotReady
	}

	now := s.clock.Now().UTC().Truncate(time.Millisecond)
	if err := ValidateNewTask(in, now); err != nil {
		return models.Task{}, err
	}

	id, err := s.ids.GenerateTaskID()
	if err != nil {
		return models.Task{}, fmt.Errorf("adding task: %w", err)
	}
	if id == "" {
		return models.Task{}, fmt.Errorf("adding task: generated id is empty")
	}
	if s.indexOf(id) >= 0 {
		return models.Task{}, fmt.Errorf("adding task: generated id %s already exists", id)
	}

	task := models.Task{
		ID:                id,
		Title:             strings.TrimSpace(in.Title),
		Description:       strings.TrimSpace(in.Description),
		Location:          strings.TrimSpace(in.Location),
		CreatedAt:         now,
		ExecutionDateTime: in.ExecutionDateTime.UTC(),
		Status:            models.StatusCreated,
	}

	next := make([]models.Task, len(s.tasks), len(s.tasks)+1)
	copy(next, s.tasks)
	s.tasks = append(next, task)
	s.state = StateLoaded

	s.persist(ctx, "add")
	s.logEvent("task.created", map[string]any{
		"task_id": task.ID,
		"title":   task.Title,
		"status":  string(task.Status),
	})
	s.notifier.Notify(MsgTaskAdded, NotifySuccess)
	return task, nil
}

// TransitionStatus moves a task to a new status if the transition table
// allows it. Rejected transitions leave memory and storage untouched.
func (s *taskStore) TransitionStatus(ctx context.Context, taskID string, to models.TaskStatus) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoading {
		return models.Task{}, ErrStoreNotReady
	}

	idx := s.indexOf(taskID)
	if idx < 0 {
		s.logger.Warn("status change for unknown task", zap.String("task_id", taskID), zap.String("to", string(to)))
		return models.Task{}, fmt.Errorf("changing status of %s: %w", taskID, ErrTaskNotFound)
	}

	current := s.tasks[idx]
	if !models.CanTransition(current.Status, to) {
		return models.Task{}, &IllegalTransitionError{TaskID: taskID, From: current.Status, To: to}
	}

	updated := current.WithStatus(to)
	next := make([]models.Task, len(s.tasks))
	copy(next, s.tasks)
	next[idx] = updated
	s.tasks = next

	s.persist(ctx, "transition")

	data := map[string]any{
		"task_id":    taskID,
		"old_status": string(current.Status),
		"new_status": string(to),
	}
	s.logEvent("task.status_changed", data)
	switch to {
	case models.StatusCompleted:
		s.logEvent("task.completed", map[string]any{"task_id": taskID})
	case models.StatusCancelled:
		s.logEvent("task.cancelled", map[string]any{"task_id": taskID})
	}
	return updated, nil
}

// DeleteTask removes a task. Deleting an unknown id is reported as
// ErrTaskNotFound and changes nothing.
func (s *taskStore) DeleteTask(ctx context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateLoading {
		return ErrStoreNotReady
	}

	idx := s.indexOf(taskID)
	if idx < 0 {
		s.logger.Warn("task not found", zap.String("task_id", taskID))
		return fmt.Errorf("deleting %s: %w", taskID, ErrTaskNotFound)
	}

	removed := s.tasks[idx]
	next := make([]models.Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:idx]...)
	next = append(next, s.tasks[idx+1:]...)
	s.tasks = next

	s.persist(ctx, "delete")
	s.logEvent("task.deleted", map[string]any{
		"task_id": taskID,
		"status":  string(removed.Status),
	})
	return nil
}

// Reset deletes the stored collection and returns the store to
// StateNeverInitialized.
func (s *taskStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		return fmt.Errorf("resetting tasks: %w", err)
	}
	s.tasks = nil
	s.state = StateNeverInitialized
	s.logEvent("tasks.reset", nil)
	return nil
}

// Tasks returns a copy of the collection in persisted (insertion) order.
func (s *taskStore) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *taskStore) GetTask(taskID string) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(taskID)
	if idx < 0 {
		return models.Task{}, fmt.Errorf("getting %s: %w", taskID, ErrTaskNotFound)
	}
	return s.tasks[idx], nil
}

// Sorted returns the collection projected through spec.
func (s *taskStore) Sorted(spec models.SortSpec) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Project(s.tasks, spec)
}

func (s *taskStore) indexOf(taskID string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}

// persist writes the current collection. Must be called with mu held.
func (s *taskStore) persist(ctx context.Context, op string) {
	if err := s.repo.Save(ctx, s.tasks); err != nil {
		s.logger.Error("saving tasks failed, keeping in-memory state",
			zap.String("op", op),
			zap.Int("count", len(s.tasks)),
			zap.Error(err),
		)
		s.logEvent("tasks.persist_failed", map[string]any{
			"op":    op,
			"error": err.Error(),
		})
		s.notifier.Notify(MsgSaveFailed, NotifyError)
	}
}

func (s *taskStore) logEvent(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.LogEvent(eventType, data); err != nil {
		s.logger.Debug("writing event failed", zap.String("type", eventType), zap.Error(err))
	}
}
