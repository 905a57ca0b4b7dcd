package core

import (
	"sort"

	"github.com/valter-silva-au/todo/pkg/models"
)

// Project returns a display-ordered copy of tasks. The input slice is never
// reordered. Sorting is stable, so tasks with equal keys keep their
// collection order in both directions. An unknown key yields the collection
// order unchanged.
func Project(tasks []models.Task, spec models.SortSpec) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)

	dir := int(spec.Direction)
	if dir != int(models.Ascending) && dir != int(models.Descending) {
		dir = int(models.Ascending)
	}

	var cmp func(a, b models.Task) int
	switch spec.Key {
	case models.SortByDateCreated:
		cmp = func(a, b models.Task) int { return a.CreatedAt.Compare(b.CreatedAt) }
	case models.SortByStatus:
		cmp = func(a, b models.Task) int { return models.StatusRank(a.Status) - models.StatusRank(b.Status) }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return dir*cmp(out[i], out[j]) < 0
	})
	return out
}
