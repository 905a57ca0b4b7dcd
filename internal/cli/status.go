package cli

import (
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/pkg/models"
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Change a task's status",
	Long: `Change a task's status.

Allowed moves:
  Created     -> In Progress, Completed, Cancelled
  In Progress -> Completed, Cancelled

Completed and Cancelled are final. Status names are case-insensitive and
"in_progress" or "in-progress" are accepted.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := models.ParseTaskStatus(args[1])
		if err != nil {
			return err
		}
		return transitionTask(cmd, args[0], status)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
