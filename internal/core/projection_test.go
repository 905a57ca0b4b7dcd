package core

import (
	"testing"
	"time"

	"github.com/valter-silva-au/todo/pkg/models"
)

func task(id string, created time.Time, status models.TaskStatus) models.Task {
	return models.Task{ID: id, Title: id, CreatedAt: created, Status: status}
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestProject(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t2.Add(time.Hour)

	collection := []models.Task{
		task("a", t2, models.StatusCompleted),
		task("b", t1, models.StatusCreated),
		task("c", t3, models.StatusCancelled),
		task("d", t2, models.StatusInProgress),
	}

	tests := []struct {
		name string
		spec models.SortSpec
		want []string
	}{
		{"date asc", models.SortSpec{Key: models.SortByDateCreated, Direction: models.Ascending}, []string{"b", "a", "d", "c"}},
		{"date desc", models.SortSpec{Key: models.SortByDateCreated, Direction: models.Descending}, []string{"c", "a", "d", "b"}},
		{"status asc", models.SortSpec{Key: models.SortByStatus, Direction: models.Ascending}, []string{"c", "b", "d", "a"}},
		{"status desc", models.SortSpec{Key: models.SortByStatus, Direction: models.Descending}, []string{"a", "d", "b", "c"}},
		{"unknown key", models.SortSpec{Key: "priority", Direction: models.Descending}, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Project(collection, tt.spec))
			if !equalIDs(got, tt.want) {
				t.Errorf("Project() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProject_TiesKeepCollectionOrderBothDirections(t *testing.T) {
	created := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	collection := []models.Task{
		task("x", created, models.StatusCreated),
		task("y", created, models.StatusCreated),
		task("z", created, models.StatusCreated),
	}

	for _, key := range []models.SortKey{models.SortByDateCreated, models.SortByStatus} {
		for _, dir := range []models.SortDirection{models.Ascending, models.Descending} {
			got := ids(Project(collection, models.SortSpec{Key: key, Direction: dir}))
			if !equalIDs(got, []string{"x", "y", "z"}) {
				t.Errorf("%s/%s: got %v, want [x y z]", key, dir, got)
			}
		}
	}
}

func TestProject_DoesNotReorderInput(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	collection := []models.Task{
		task("old", t1, models.StatusCreated),
		task("new", t1.Add(time.Hour), models.StatusCreated),
	}

	_ = Project(collection, models.DefaultSortSpec())
	if collection[0].ID != "old" {
		t.Error("Project reordered its input")
	}
}

func TestProject_Empty(t *testing.T) {
	if got := Project(nil, models.DefaultSortSpec()); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
