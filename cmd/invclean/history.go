package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"invclean/internal/codec"
	"invclean/internal/config"
)

var (
	historyLimit int
	initForce    bool
)

// historyCmd groups the run history subcommands
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.svc.History(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tFORMAT\tROWS\tANOMALIES\tINPUT")
		for _, run := range runs {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
				run.ID,
				run.StartedAt.Local().Format(time.DateTime),
				run.Status,
				run.InputFormat,
				run.Rows,
				run.Anomalies,
				run.InputPath)
		}
		return tw.Flush()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its anomaly report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		run, report, err := a.svc.RunDetails(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Run %s: %s\n", run.ID, run.Status)
		fmt.Fprintf(out, "  input:     %s (%s)\n", run.InputPath, run.InputFormat)
		if run.OverridePath != "" {
			fmt.Fprintf(out, "  overrides: %s\n", run.OverridePath)
		}
		fmt.Fprintf(out, "  started:   %s (took %s)\n", run.StartedAt.Local().Format(time.DateTime), run.Duration())
		if run.Error != "" {
			fmt.Fprintf(out, "  error:     %s\n", run.Error)
			return nil
		}
		fmt.Fprintf(out, "  rows: %d, with issues: %d, anomalies: %d, overrides applied: %d\n",
			run.Rows, run.RowsFlagged, run.Anomalies, run.Overrides)
		if len(report) == 0 {
			return nil
		}
		fmt.Fprintln(out)
		return codec.NewYAMLCodec().ExportReport(report, out)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.svc.DeleteRun(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
		return nil
	},
}

// configCmd groups the config subcommands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the config file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if path == "" {
			fmt.Fprintln(out, "No config file found, using defaults")
		} else {
			fmt.Fprintf(out, "Config: %s\n", path)
		}
		fmt.Fprintln(out, cfg.Summary())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with the default settings",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ConfigFileName
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.DefaultConfig().Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 = all)")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)

	configInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
