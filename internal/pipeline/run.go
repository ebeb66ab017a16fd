package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"invclean/internal/domain"
)

// Result is the outcome of a full run
type Result struct {
	Records []domain.FinalizedRecord
	Report  domain.Report
	Summary Summary
}

// Summary tallies a run
type Summary struct {
	Rows             int                      `json:"rows"`
	RowsWithIssues   int                      `json:"rows_with_issues"`
	Anomalies        int                      `json:"anomalies"`
	ByKind           map[domain.IssueKind]int `json:"by_kind"`
	OverridesApplied int                      `json:"overrides_applied"`
	// UnknownOverrideRows lists override ids that match no input row
	UnknownOverrideRows []string `json:"unknown_override_rows,omitempty"`
}

// Runner fans rows out over a bounded worker pool and audits the results once
// every row is done
type Runner struct {
	processor       *Processor
	workers         int
	duplicateFields []string
	logger          *zap.Logger
}

// NewRunner creates a runner; workers <= 0 means one per CPU
func NewRunner(p *Processor, workers int, duplicateFields []string, logger *zap.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if len(duplicateFields) == 0 {
		duplicateFields = DefaultDuplicateFields
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		processor:       p,
		workers:         workers,
		duplicateFields: duplicateFields,
		logger:          logger,
	}
}

// Run processes every row and assembles the report. Records come back in input
// order. A structural problem with the row identifiers fails the run before any
// row is processed; cancellation of ctx stops the pass.
func (r *Runner) Run(ctx context.Context, rows []domain.RawRecord) (*Result, error) {
	if err := domain.CheckRowIDs(rows); err != nil {
		return nil, err
	}

	results := make([]RowResult, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range rows {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.processor.ProcessRow(rows[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("row pass: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("row pass: %w", err)
	}

	records := make([]domain.FinalizedRecord, len(results))
	for i := range results {
		records[i] = results[i].Record
	}

	duplicates := Audit(records, r.duplicateFields)
	report := Assemble(results, duplicates)

	summary := r.summarize(rows, results, report)
	r.logger.Info("run finished",
		zap.Int("rows", summary.Rows),
		zap.Int("anomalies", summary.Anomalies),
		zap.Int("rows_with_issues", summary.RowsWithIssues),
		zap.Int("overrides_applied", summary.OverridesApplied))
	if len(summary.UnknownOverrideRows) > 0 {
		r.logger.Warn("override entries match no input row",
			zap.Strings("rows", summary.UnknownOverrideRows))
	}

	return &Result{Records: records, Report: report, Summary: summary}, nil
}

func (r *Runner) summarize(rows []domain.RawRecord, results []RowResult, report domain.Report) Summary {
	s := Summary{
		Rows:           len(rows),
		RowsWithIssues: len(report),
		Anomalies:      report.Count(),
		ByKind:         report.CountByKind(),
	}
	for _, res := range results {
		s.OverridesApplied += res.Overrides
	}

	known := make(map[string]bool, len(rows))
	for _, row := range rows {
		known[row.SourceRowID] = true
	}
	s.UnknownOverrideRows = r.processor.Resolver().Set().UnknownRows(known)
	sort.Strings(s.UnknownOverrideRows)
	return s
}
