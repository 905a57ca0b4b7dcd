package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/internal/storage"
	"github.com/valter-silva-au/todo/pkg/models"
)

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

// useTestStore installs a fresh, initialized store backed by a temp
// directory as the package TaskStore.
func useTestStore(t *testing.T) core.TaskStore {
	t.Helper()
	store := installTestStore(t)
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("initializing store: %v", err)
	}
	return store
}

// installTestStore installs a store that has not loaded yet and restores the
// previous globals when the test ends.
func installTestStore(t *testing.T) core.TaskStore {
	t.Helper()

	kv := storage.NewFileKeyValueStore(t.TempDir())
	notices := &observability.RecordingNotifier{}
	store := core.NewTaskStore(
		storage.NewTaskRepository(kv, nil),
		core.ClockFunc(func() time.Time { return testNow }),
		nil, notices, nil, nil,
	)

	origStore, origNotices, origSpec, origNow := TaskStore, Notices, SortSpec, now
	TaskStore, Notices, SortSpec = store, notices, models.DefaultSortSpec()
	now = func() time.Time { return testNow }
	t.Cleanup(func() {
		TaskStore, Notices, SortSpec, now = origStore, origNotices, origSpec, origNow
		_ = kv.Close()
	})
	return store
}

// runCmd runs cmd's RunE with args and returns what it printed.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	defer cmd.SetOut(nil)
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func mustAdd(t *testing.T, store core.TaskStore, title string, when time.Time) models.Task {
	t.Helper()
	task, err := store.AddTask(context.Background(), core.NewTaskInput{Title: title, ExecutionDateTime: when})
	if err != nil {
		t.Fatalf("adding %q: %v", title, err)
	}
	return task
}
