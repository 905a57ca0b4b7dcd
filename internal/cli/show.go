package cli

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show a task's details",
	Long:  "Show every field of a task. A unique prefix of the id is enough.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadStore(commandContext(cmd)); err != nil {
			return err
		}
		id, err := resolveTaskID(args[0])
		if err != nil {
			return err
		}
		task, err := TaskStore.GetTask(id)
		if err != nil {
			return err
		}
		printTask(cmd.OutOrStdout(), task)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
