package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/pkg/models"
)

// newTransitionCmd builds a shortcut command that moves a task to status.
func newTransitionCmd(use, short string, status models.TaskStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return transitionTask(cmd, args[0], status)
		},
	}
}

var (
	startCmd    = newTransitionCmd("start", "Move a Created task to In Progress", models.StatusInProgress)
	completeCmd = newTransitionCmd("complete", "Mark a task Completed", models.StatusCompleted)
	cancelCmd   = newTransitionCmd("cancel", "Cancel a task that has not been completed", models.StatusCancelled)
)

func transitionTask(cmd *cobra.Command, arg string, status models.TaskStatus) error {
	if err := loadStore(commandContext(cmd)); err != nil {
		return err
	}
	id, err := resolveTaskID(arg)
	if err != nil {
		return err
	}

	before, err := TaskStore.GetTask(id)
	if err != nil {
		return err
	}
	task, err := TaskStore.TransitionStatus(commandContext(cmd), id, status)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Task %s: %s -> %s\n", task.ID, before.Status, statusStyle(task.Status).Render(string(task.Status)))
	return nil
}

func init() {
	rootCmd.AddCommand(startCmd, completeCmd, cancelCmd)
}
