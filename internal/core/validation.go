package core

import (
	"strings"
	"time"
)

// NewTaskInput carries the user-supplied fields of a task to be created.
type NewTaskInput struct {
	Title             string
	Description       string
	Location          string
	ExecutionDateTime time.Time
}

// ValidateNewTask checks the rules a new task must satisfy at time now: a
// non-blank title and an execution time that is not in the past.
func ValidateNewTask(in NewTaskInput, now time.Time) error {
	if strings.TrimSpace(in.Title) == "" {
		return &ValidationError{Field: "title", Message: "Title can't be empty."}
	}
	if in.ExecutionDateTime.IsZero() || in.ExecutionDateTime.Before(now) {
		return &ValidationError{
			Field:   "executionDateTime",
			Message: "The selected date and time can't be in the past.",
		}
	}
	return nil
}
