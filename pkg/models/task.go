package models

import (
	"fmt"
	"strings"
	"time"
)

// TaskStatus represents the current lifecycle state of a task. The string
// values are part of the persisted format and must not change.
type TaskStatus string

const (
	StatusCreated    TaskStatus = "Created"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
	StatusCancelled  TaskStatus = "Cancelled"
)

// AllStatuses lists every status in rank order.
var AllStatuses = []TaskStatus{
	StatusCancelled,
	StatusCreated,
	StatusInProgress,
	StatusCompleted,
}

// statusRank is the display grouping order used when sorting by status.
// Cancelled sorts first even though it is terminal.
var statusRank = map[TaskStatus]int{
	StatusCancelled:  0,
	StatusCreated:    1,
	StatusInProgress: 2,
	StatusCompleted:  3,
}

// transitions maps each status to the statuses it may move to.
var transitions = map[TaskStatus][]TaskStatus{
	StatusCreated:    {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  nil,
	StatusCancelled:  nil,
}

// StatusRank returns the sort rank of a status. Unknown statuses rank after
// every known one.
func StatusRank(s TaskStatus) int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return len(statusRank)
}

// Valid reports whether s is one of the four lifecycle states.
func (s TaskStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a task in status from may move to status to.
func CanTransition(from, to TaskStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable from s in one step.
// The returned slice is a copy.
func AllowedTransitions(s TaskStatus) []TaskStatus {
	next := transitions[s]
	out := make([]TaskStatus, len(next))
	copy(out, next)
	return out
}

// ParseTaskStatus accepts the persisted spelling of a status as well as the
// forms that are convenient to type on a command line ("in_progress",
// "in-progress", "inprogress"). Matching is case-insensitive.
func ParseTaskStatus(s string) (TaskStatus, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "", " ", "").Replace(key)
	switch key {
	case "created":
		return StatusCreated, nil
	case "inprogress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	}
	return "", fmt.Errorf("unknown task status %q: must be one of Created, In Progress, Completed, Cancelled", s)
}

// Task is a single to-do item. Field names in the JSON tags are the stored
// format shared with earlier versions of the app.
type Task struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	CreatedAt         time.Time  `json:"createdAt"`
	ExecutionDateTime time.Time  `json:"executionDateTime"`
	Location          string     `json:"location"`
	Status            TaskStatus `json:"status"`
}

// WithStatus returns a copy of t carrying the new status.
func (t Task) WithStatus(s TaskStatus) Task {
	t.Status = s
	return t
}
