package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo/internal/core"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "todo",
	Short: "todo - a small personal task list",
	Long: `todo keeps a personal list of tasks, each with a title, an optional
description and location, and a time it should be carried out.

Tasks move from Created to In Progress to Completed, or to Cancelled at any
point before completion. The list is saved after every change.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "todo %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadStore makes sure TaskStore exists and has read the saved task list.
func loadStore(ctx context.Context) error {
	if TaskStore == nil {
		return fmt.Errorf("task store not initialized")
	}
	if TaskStore.State() != core.StateLoading {
		return nil
	}
	if err := TaskStore.Initialize(ctx); err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	return nil
}

// commandContext returns cmd's context, or a background context when the
// command is run without Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
