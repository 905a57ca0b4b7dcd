package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/pkg/models"
)

var (
	listSort   string
	listDir    string
	listStatus string
	listJSON   bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks in the configured order (newest first by default).

--sort picks the ordering field (date_created or status) and --dir the
direction (asc or desc). Ties keep the order tasks were added in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := loadStore(commandContext(cmd)); err != nil {
			return err
		}

		spec, err := listSortSpec()
		if err != nil {
			return err
		}

		var filter models.TaskStatus
		if listStatus != "" {
			if filter, err = models.ParseTaskStatus(listStatus); err != nil {
				return err
			}
		}

		tasks := TaskStore.Sorted(spec)
		if filter != "" {
			kept := tasks[:0]
			for _, t := range tasks {
				if t.Status == filter {
					kept = append(kept, t)
				}
			}
			tasks = kept
		}

		out := cmd.OutOrStdout()
		if listJSON {
			if tasks == nil {
				tasks = []models.Task{}
			}
			data, err := json.MarshalIndent(tasks, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling tasks: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		if msg := emptyStateMessage(TaskStore.State(), len(TaskStore.Tasks())); msg != "" {
			fmt.Fprintln(out, msg)
			return nil
		}
		if len(tasks) == 0 {
			fmt.Fprintf(out, "No tasks with status %s.\n", filter)
			return nil
		}

		printTaskTable(out, tasks)
		fmt.Fprintf(out, "\n%d task(s), sorted by %s %s\n", len(tasks), spec.Key, spec.Direction)
		return nil
	},
}

// listSortSpec applies the --sort and --dir flags over the configured order.
func listSortSpec() (models.SortSpec, error) {
	spec := SortSpec
	if listSort != "" {
		key, err := models.ParseSortKey(listSort)
		if err != nil {
			return spec, err
		}
		spec.Key = key
	}
	if listDir != "" {
		dir, err := models.ParseSortDirection(listDir)
		if err != nil {
			return spec, err
		}
		spec.Direction = dir
	}
	return spec, nil
}

func init() {
	listCmd.Flags().StringVar(&listSort, "sort", "", "Sort key: date_created or status")
	listCmd.Flags().StringVar(&listDir, "dir", "", "Sort direction: asc or desc")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only show tasks with this status")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(listCmd)
}
