package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"invclean/internal/adapter"
	"invclean/internal/domain"
	"invclean/internal/service"
	"invclean/internal/watcher"
)

// outputFlags are shared by every command that produces a cleaned table
type outputFlags struct {
	overrides string
	output    string
	report    string
	inventory string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.overrides, "overrides", "", "Override mapping keyed by source row id (YAML or JSON)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "cleaned.csv", "Cleaned table path (.json writes JSON, anything else CSV)")
	cmd.Flags().StringVarP(&f.report, "report", "r", "anomalies.json", "Anomaly report path (.yaml/.yml writes YAML, anything else JSON)")
	cmd.Flags().StringVar(&f.inventory, "inventory", "", "Also write an Ansible inventory grouped by device type")
}

func (f *outputFlags) request(input string) service.RunRequest {
	return service.RunRequest{
		InputPath:     input,
		OverridePath:  f.overrides,
		OutputPath:    f.output,
		ReportPath:    f.report,
		InventoryPath: f.inventory,
	}
}

var (
	runFlags   outputFlags
	watchFlags outputFlags
	scanFlags  outputFlags

	scanPorts   string
	scanOS      bool
	scanNoPing  bool
	scanFast    bool
	scanTimeout time.Duration
)

// runCmd cleans one input file
var runCmd = &cobra.Command{
	Use:   "run <input>",
	Short: "Clean an inventory file once",
	Long: `Clean an inventory file and write the cleaned table and anomaly report.

The input format follows the extension: .csv/.tsv tables, .xml nmap output,
.yml/.yaml Ansible inventories, .json row arrays.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(!noHistory)
		if err != nil {
			return err
		}
		defer a.Close()

		outcome, err := a.svc.Run(cmd.Context(), runFlags.request(args[0]))
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), outcome)
		return nil
	},
}

// scanCmd scans the network with nmap and cleans the result
var scanCmd = &cobra.Command{
	Use:   "scan <target>...",
	Short: "Scan targets with nmap and clean the discovered hosts",
	Long: `Scan addresses, host names or CIDR ranges with nmap and run the discovered
hosts through the cleaning pipeline. Requires nmap in PATH; --os needs root.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(!noHistory)
		if err != nil {
			return err
		}
		defer a.Close()

		opts := []adapter.NmapOption{
			adapter.WithOSDetection(scanOS),
			adapter.WithSkipHostDiscovery(scanNoPing),
			adapter.WithTimeout(scanTimeout),
			adapter.WithLogger(logger),
		}
		if scanFast {
			opts = append(opts, adapter.WithFastScan())
		}
		if scanPorts != "" {
			opts = append(opts, adapter.WithPortRange(scanPorts))
		}
		scanner := adapter.NewNmapAdapter(args, opts...)

		outcome, err := a.svc.RunSource(cmd.Context(), scanner, scanFlags.request(scanner.Source()))
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), outcome)
		return nil
	},
}

// watchCmd reruns the cleaning whenever the input or override file changes
var watchCmd = &cobra.Command{
	Use:   "watch <input>",
	Short: "Clean an inventory file and rerun on every change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(!noHistory)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		req := watchFlags.request(args[0])
		out := cmd.OutOrStdout()

		events := make(chan service.Event, 16)
		a.eventBus.Subscribe(events)
		go logEvents(ctx, events)

		rerun := func(path string) {
			outcome, err := a.svc.Run(ctx, req)
			if err != nil {
				// Keep watching; the next save may fix it
				fmt.Fprintf(out, "run failed: %v\n", err)
				return
			}
			printOutcome(out, outcome)
		}
		rerun(req.InputPath)

		w := watcher.New(rerun, req.InputPath, req.OverridePath).
			WithDebounce(a.cfg.DebounceDuration()).
			WithLogger(logger)
		if err := w.Watch(ctx); err != nil && err != context.Canceled {
			return err
		}
		logger.Info("watch stopped")
		return nil
	},
}

func init() {
	runFlags.register(runCmd)
	watchFlags.register(watchCmd)
	scanFlags.register(scanCmd)

	scanCmd.Flags().StringVar(&scanPorts, "ports", "", "Ports to scan, e.g. 22,80-443 (default: "+adapter.DefaultPortRange+")")
	scanCmd.Flags().BoolVar(&scanOS, "os", false, "Enable OS detection (requires root)")
	scanCmd.Flags().BoolVar(&scanNoPing, "no-ping", false, "Treat all hosts as online (-Pn)")
	scanCmd.Flags().BoolVar(&scanFast, "fast", false, "Scan a few common ports without service detection")
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 10*time.Minute, "Timeout for the whole scan")
}

// logEvents reports run lifecycle events until ctx is done
func logEvents(ctx context.Context, events <-chan service.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			payload, _ := event.Payload.(service.RunEventPayload)
			logger.Debug("run event",
				zap.String("type", string(event.Type)),
				zap.String("run_id", payload.RunID),
				zap.String("input", payload.InputPath))
		}
	}
}

// printOutcome writes a short human summary of a finished run
func printOutcome(w io.Writer, outcome *service.RunOutcome) {
	summary := outcome.Result.Summary
	fmt.Fprintf(w, "Run %s (%s)\n", outcome.Run.ID, outcome.Run.InputFormat)
	fmt.Fprintf(w, "  rows: %d, with issues: %d, anomalies: %d, overrides applied: %d\n",
		summary.Rows, summary.RowsWithIssues, summary.Anomalies, summary.OverridesApplied)
	for _, kind := range sortedKinds(summary.ByKind) {
		fmt.Fprintf(w, "  %-26s %d\n", kind, summary.ByKind[kind])
	}
	if len(summary.UnknownOverrideRows) > 0 {
		fmt.Fprintf(w, "  overrides for unknown rows: %s\n", strings.Join(summary.UnknownOverrideRows, ", "))
	}
}

// sortedKinds returns the issue kinds of a tally in name order
func sortedKinds(counts map[domain.IssueKind]int) []domain.IssueKind {
	kinds := make([]domain.IssueKind, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

var _ service.RowSource = (*adapter.NmapAdapter)(nil)
