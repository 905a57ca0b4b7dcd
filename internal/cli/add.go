package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/core"
)

var (
	addDescription string
	addLocation    string
	addAt          string
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a new task",
	Long: `Add a new task in the Created state.

The execution time is required and must not be in the past. It accepts
"YYYY-MM-DD HH:MM" in local time, RFC 3339, or an offset from now such as +2h.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadStore(commandContext(cmd)); err != nil {
			return err
		}

		when, err := core.ParseExecutionTime(addAt, now())
		if err != nil {
			return err
		}

		task, err := TaskStore.AddTask(commandContext(cmd), core.NewTaskInput{
			Title:             args[0],
			Description:       addDescription,
			Location:          addLocation,
			ExecutionDateTime: when,
		})
		if err != nil {
			return userError(err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added task %s: %s\n", task.ID, task.Title)
		fmt.Fprintf(out, "  When: %s\n", displayTime(task.ExecutionDateTime))
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Task description")
	addCmd.Flags().StringVarP(&addLocation, "location", "l", "", "Where the task takes place")
	addCmd.Flags().StringVarP(&addAt, "at", "t", "", "When the task should be carried out")
	_ = addCmd.MarkFlagRequired("at")
	rootCmd.AddCommand(addCmd)
}
