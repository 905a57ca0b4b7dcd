package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored task list",
	Long: `Remove the stored task list entirely. The next run starts as if the app
had never been used. Requires --yes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadStore(commandContext(cmd)); err != nil {
			return err
		}
		if !resetYes {
			return fmt.Errorf("refusing to delete %d task(s) without --yes", len(TaskStore.Tasks()))
		}
		if err := TaskStore.Reset(commandContext(cmd)); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Task list cleared.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm deleting every task")
	rootCmd.AddCommand(resetCmd)
}
