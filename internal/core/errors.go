package core

import (
	"errors"
	"fmt"

	"github.com/valter-silva-au/todo/pkg/models"
)

var (
	// ErrTaskNotFound is returned when an operation names an id that is not
	// in the collection.
	ErrTaskNotFound = errors.New("task not found")

	// ErrIllegalTransition is matched by every *IllegalTransitionError.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid task")

	// ErrStoreNotReady is returned by mutations issued before Initialize
	// has finished.
	ErrStoreNotReady = errors.New("task store is still loading")
)

// ValidationError describes a rejected NewTaskInput field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IllegalTransitionError reports a status change the transition table does
// not allow.
type IllegalTransitionError struct {
	TaskID string
	From   models.TaskStatus
	To     models.TaskStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("task %s cannot move from %q to %q", e.TaskID, e.From, e.To)
}

func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
