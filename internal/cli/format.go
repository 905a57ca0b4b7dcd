package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/pkg/models"
)

// now is the clock used to interpret relative and past execution times.
var now = time.Now

const (
	msgWelcome      = "Welcome to TODO tasks app!"
	msgEmptyList    = "Tasks list is empty"
	msgAddFirstTask = "Please add your first task"
	msgLoading      = "Loading..."
)

var (
	createdStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	inProgressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	completedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cancelledStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
)

func statusStyle(s models.TaskStatus) lipgloss.Style {
	switch s {
	case models.StatusInProgress:
		return inProgressStyle
	case models.StatusCompleted:
		return completedStyle
	case models.StatusCancelled:
		return cancelledStyle
	default:
		return createdStyle
	}
}

// emptyStateMessage returns the placeholder shown instead of a task list, or
// "" when there are tasks to show.
func emptyStateMessage(state core.LoadState, count int) string {
	switch {
	case state == core.StateLoading:
		return msgLoading
	case state == core.StateNeverInitialized:
		return msgWelcome + "\n" + msgAddFirstTask
	case count == 0:
		return msgEmptyList + "\n" + msgAddFirstTask
	default:
		return ""
	}
}

func displayTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return core.FormatDateTime(t.Local())
}

func printTaskTable(w io.Writer, tasks []models.Task) {
	fmt.Fprintf(w, "%-36s  %-11s  %-18s  %s\n", "ID", "STATUS", "WHEN", "TITLE")
	fmt.Fprintf(w, "%-36s  %-11s  %-18s  %s\n", "--", "------", "----", "-----")
	for _, t := range tasks {
		status := statusStyle(t.Status).Render(fmt.Sprintf("%-11s", t.Status))
		fmt.Fprintf(w, "%-36s  %s  %-18s  %s\n", t.ID, status, displayTime(t.ExecutionDateTime), t.Title)
	}
}

func printTask(w io.Writer, t models.Task) {
	fmt.Fprintf(w, "Task:        %s\n", t.ID)
	fmt.Fprintf(w, "Title:       %s\n", t.Title)
	fmt.Fprintf(w, "Status:      %s\n", statusStyle(t.Status).Render(string(t.Status)))
	fmt.Fprintf(w, "When:        %s\n", displayTime(t.ExecutionDateTime))
	fmt.Fprintf(w, "Created:     %s\n", displayTime(t.CreatedAt))
	if t.Location != "" {
		fmt.Fprintf(w, "Location:    %s\n", t.Location)
	}
	if t.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", t.Description)
	}
	if next := models.AllowedTransitions(t.Status); len(next) > 0 {
		names := make([]string, len(next))
		for i, s := range next {
			names[i] = string(s)
		}
		fmt.Fprintf(w, "Next:        %s\n", strings.Join(names, ", "))
	}
}

// userError turns store errors into the message shown to the user.
// Validation errors carry their own wording.
func userError(err error) error {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return errors.New(ve.Message)
	}
	return err
}
