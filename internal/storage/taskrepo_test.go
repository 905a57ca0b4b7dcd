package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/todo/pkg/models"
	"pgregory.net/rapid"
)

// failingKV fails every write and optionally every read.
type failingKV struct {
	KeyValueStore
	failGet bool
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.failGet {
		return nil, errors.New("disk unreadable")
	}
	return f.KeyValueStore.Get(ctx, key)
}

func (f *failingKV) Set(_ context.Context, _ string, _ []byte) error {
	return errors.New("disk full")
}

func newTestRepository(t *testing.T) (TaskRepository, KeyValueStore) {
	t.Helper()
	kv := NewFileKeyValueStore(t.TempDir())
	return NewTaskRepository(kv, nil), kv
}

func sampleTask(id string, status models.TaskStatus) models.Task {
	return models.Task{
		ID:                id,
		Title:             "Task " + id,
		Description:       "desc",
		CreatedAt:         time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		ExecutionDateTime: time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
		Location:          "home",
		Status:            status,
	}
}

func TestTaskRepository_LoadNeverSaved(t *testing.T) {
	repo, _ := newTestRepository(t)

	tasks, ok := repo.Load(context.Background())
	if ok {
		t.Fatal("expected ok=false for a store that was never saved")
	}
	if tasks != nil {
		t.Fatalf("expected nil tasks, got %v", tasks)
	}
}

func TestTaskRepository_LoadAfterSavingEmpty(t *testing.T) {
	repo, kv := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Save(ctx, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := kv.Get(ctx, TasksKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != "[]" {
		t.Errorf("stored blob = %q, want []", raw)
	}

	tasks, ok := repo.Load(ctx)
	if !ok {
		t.Fatal("expected ok=true after save")
	}
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v", tasks)
	}
}

func TestTaskRepository_CorruptDataLoadsEmpty(t *testing.T) {
	repo, kv := newTestRepository(t)
	ctx := context.Background()

	if err := kv.Set(ctx, TasksKey, []byte(`[{"id": "broken"`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks, ok := repo.Load(ctx)
	if !ok {
		t.Fatal("corrupt data should count as loaded")
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty collection, got %v", tasks)
	}
}

func TestTaskRepository_SavesAfterCorruptStoreFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "store.yaml"), []byte("entries: [unclosed"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo := NewTaskRepository(NewFileKeyValueStore(dir), nil)
	ctx := context.Background()

	tasks, ok := repo.Load(ctx)
	if !ok || len(tasks) != 0 {
		t.Fatalf("expected empty loaded collection, got %v ok=%v", tasks, ok)
	}

	if err := repo.Save(ctx, []models.Task{sampleTask("a", models.StatusCreated)}); err != nil {
		t.Fatalf("Save after corrupt load: %v", err)
	}
	tasks, ok = repo.Load(ctx)
	if !ok || len(tasks) != 1 || tasks[0].ID != "a" {
		t.Fatalf("expected saved task to load back, got %v ok=%v", tasks, ok)
	}

	if err := os.WriteFile(filepath.Join(dir, "store.yaml"), []byte("entries: [unclosed"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear after corruption: %v", err)
	}
	if _, ok := repo.Load(ctx); ok {
		t.Fatal("expected absent after Clear")
	}
}

func TestTaskRepository_ReadErrorLoadsEmpty(t *testing.T) {
	kv := &failingKV{KeyValueStore: NewFileKeyValueStore(t.TempDir()), failGet: true}
	repo := NewTaskRepository(kv, nil)

	tasks, ok := repo.Load(context.Background())
	if !ok || tasks == nil || len(tasks) != 0 {
		t.Fatalf("expected empty loaded collection, got %v ok=%v", tasks, ok)
	}
}

func TestTaskRepository_SaveFailureWrapsSentinel(t *testing.T) {
	kv := &failingKV{KeyValueStore: NewFileKeyValueStore(t.TempDir())}
	repo := NewTaskRepository(kv, nil)

	err := repo.Save(context.Background(), []models.Task{sampleTask("a", models.StatusCreated)})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrPersistenceWrite) {
		t.Errorf("expected ErrPersistenceWrite, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected cause in message, got %v", err)
	}
}

func TestTaskRepository_StatusStringsStoredVerbatim(t *testing.T) {
	repo, kv := newTestRepository(t)
	ctx := context.Background()

	tasks := []models.Task{
		sampleTask("a", models.StatusCreated),
		sampleTask("b", models.StatusInProgress),
		sampleTask("c", models.StatusCompleted),
		sampleTask("d", models.StatusCancelled),
	}
	if err := repo.Save(ctx, tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, _ := kv.Get(ctx, TasksKey)
	for _, want := range []string{`"status":"Created"`, `"status":"In Progress"`, `"status":"Completed"`, `"status":"Cancelled"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("stored blob missing %s: %s", want, raw)
		}
	}
}

func TestTaskRepository_ReadsLegacyBlob(t *testing.T) {
	repo, kv := newTestRepository(t)
	ctx := context.Background()

	legacy := `[{"id":"0b6c","title":"Buy milk","description":"","createdAt":"2025-04-01T08:00:00.000Z","executionDateTime":"2025-04-02T09:30:00.000Z","location":"","status":"In Progress"}]`
	if err := kv.Set(ctx, TasksKey, []byte(legacy)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks, ok := repo.Load(ctx)
	if !ok || len(tasks) != 1 {
		t.Fatalf("expected one task, got %v ok=%v", tasks, ok)
	}
	if tasks[0].Status != models.StatusInProgress || tasks[0].Title != "Buy milk" {
		t.Errorf("unexpected task %+v", tasks[0])
	}
}

func TestTaskRepository_LegacyTimestampsResaveWithoutMillis(t *testing.T) {
	repo, kv := newTestRepository(t)
	ctx := context.Background()

	legacy := `[{"id":"0b6c","title":"Buy milk","description":"","createdAt":"2025-04-01T08:00:00.000Z","executionDateTime":"2025-04-02T09:30:00.000Z","location":"","status":"Created"}]`
	if err := kv.Set(ctx, TasksKey, []byte(legacy)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tasks, _ := repo.Load(ctx)
	if err := repo.Save(ctx, tasks); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := kv.Get(ctx, TasksKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(raw), `"executionDateTime":"2025-04-02T09:30:00Z"`) {
		t.Errorf("unexpected stored blob %s", raw)
	}
	reloaded, _ := repo.Load(ctx)
	if len(reloaded) != 1 || !reloaded[0].ExecutionDateTime.Equal(tasks[0].ExecutionDateTime) {
		t.Errorf("instant changed across re-save: %v vs %v", reloaded, tasks)
	}
}

func TestTaskRepository_UnparsableTimestampLoadsEmpty(t *testing.T) {
	repo, kv := newTestRepository(t)
	ctx := context.Background()

	legacy := `[{"id":"0b6c","title":"Buy milk","createdAt":"","executionDateTime":"2025-04-02T09:30:00.000Z","status":"Created"}]`
	if err := kv.Set(ctx, TasksKey, []byte(legacy)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tasks, ok := repo.Load(ctx)
	if !ok || len(tasks) != 0 {
		t.Fatalf("expected empty loaded collection, got %v ok=%v", tasks, ok)
	}
}

func TestTaskRepository_Clear(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	if err := repo.Save(ctx, []models.Task{sampleTask("a", models.StatusCreated)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.Load(ctx); ok {
		t.Fatal("expected absent after Clear")
	}
}

func genStatus(t *rapid.T) models.TaskStatus {
	return rapid.SampledFrom(models.AllStatuses).Draw(t, "status")
}

func genTime(t *rapid.T, label string) time.Time {
	ms := rapid.Int64Range(0, 4_102_444_800_000).Draw(t, label)
	return time.UnixMilli(ms).UTC()
}

func genTask(t *rapid.T) models.Task {
	return models.Task{
		ID:                fmt.Sprintf("%08x", rapid.Uint32().Draw(t, "id")),
		Title:             rapid.StringMatching(`[A-Za-z0-9 ]{1,30}`).Draw(t, "title"),
		Description:       rapid.String().Draw(t, "description"),
		CreatedAt:         genTime(t, "createdAt"),
		ExecutionDateTime: genTime(t, "executionDateTime"),
		Location:          rapid.String().Draw(t, "location"),
		Status:            genStatus(t),
	}
}

// Feature: todo, Property 1: Task Collection Serialization Round-Trip
func TestProperty1_TaskCollectionRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tasks := rapid.SliceOfN(rapid.Custom(genTask), 0, 20).Draw(rt, "tasks")

		repo := NewTaskRepository(NewFileKeyValueStore(t.TempDir()), nil)
		ctx := context.Background()

		if err := repo.Save(ctx, tasks); err != nil {
			rt.Fatalf("saving: %v", err)
		}
		got, ok := repo.Load(ctx)
		if !ok {
			rt.Fatal("expected ok=true after save")
		}
		if len(got) != len(tasks) {
			rt.Fatalf("loaded %d tasks, want %d", len(got), len(tasks))
		}
		for i := range tasks {
			want := tasks[i]
			g := got[i]
			if g.ID != want.ID || g.Title != want.Title || g.Description != want.Description ||
				g.Location != want.Location || g.Status != want.Status {
				rt.Fatalf("task %d mismatch:\n got  %+v\n want %+v", i, g, want)
			}
			if !g.CreatedAt.Equal(want.CreatedAt) || !g.ExecutionDateTime.Equal(want.ExecutionDateTime) {
				rt.Fatalf("task %d timestamps mismatch:\n got  %v %v\n want %v %v", i,
					g.CreatedAt, g.ExecutionDateTime, want.CreatedAt, want.ExecutionDateTime)
			}
		}
	})
}
