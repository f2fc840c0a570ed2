package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	nm "admission-stories/internal/workers/communication/notify-moderation"
	ms "admission-stories/internal/workers/moderation/moderate-story"
	is "admission-stories/internal/workers/search/index-story"
	sss "admission-stories/internal/workers/search/search-similar-stories"
	"admission-stories/pkg/registry"
)

// knownTaskTypes are the job types the story service registers.
var knownTaskTypes = []string{sss.TaskType, ms.TaskType, is.TaskType, nm.TaskType}

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the worker activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the registry against its schema and the service's task types",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("path")
		_, raw, err := registry.LoadRegistry(path)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}

		problems, err := registry.Validate(raw, knownTaskTypes)
		if err != nil {
			return err
		}
		for _, p := range problems {
			fmt.Fprintln(cmd.ErrOrStderr(), p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("registry validation failed with %d problems", len(problems))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Registry validation passed.")
		return nil
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("path")
		reg, _, err := registry.LoadRegistry(path)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TASK TYPE\tCATEGORY\tSTATUS\tTIMEOUT\tRETRIES")
		for _, a := range reg.Activities {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", a.TaskType, a.Category, a.Status, a.Timeout, a.Retries)
		}
		return w.Flush()
	},
}

func init() {
	registryCmd.PersistentFlags().String("path", "configs/activity-registry.json", "path to the registry file")
	registryCmd.AddCommand(registryValidateCmd, registryListCmd)
	rootCmd.AddCommand(registryCmd)
}
