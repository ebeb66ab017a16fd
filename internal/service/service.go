package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"invclean/internal/codec"
	"invclean/internal/config"
	"invclean/internal/domain"
	"invclean/internal/enrich"
	"invclean/internal/override"
	"invclean/internal/pipeline"
	"invclean/internal/repository"
)

// RunRequest names the files of one cleaning run
type RunRequest struct {
	InputPath    string // Raw inventory: CSV/TSV, nmap XML, Ansible YAML or JSON
	OverridePath string // Optional override mapping (YAML or JSON)
	OutputPath   string // Cleaned table; .json writes a JSON array, anything else CSV
	ReportPath   string // Anomaly report; .yaml/.yml writes YAML, anything else JSON
	// InventoryPath optionally receives an Ansible inventory grouped by device type
	InventoryPath string
}

// Validate checks that the required paths are set
func (r RunRequest) Validate() error {
	if r.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if r.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if r.ReportPath == "" {
		return fmt.Errorf("report path is required")
	}
	return nil
}

// RunOutcome is what a finished run hands back to the caller
type RunOutcome struct {
	Run    domain.Run
	Result *pipeline.Result
}

// CleaningService runs the pipeline over files and records the outcome
type CleaningService struct {
	cfg        *config.Config
	classifier *enrich.Classifier
	repo       repository.Repository
	eventBus   *EventBus
	logger     *zap.Logger
	now        func() time.Time
}

// NewCleaningService creates a cleaning service. repo may be nil when run
// history is disabled.
func NewCleaningService(cfg *config.Config, repo repository.Repository, eventBus *EventBus, logger *zap.Logger) (*CleaningService, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if eventBus == nil {
		eventBus = NewEventBus()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	classifier, err := classifierFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("classification rules: %w", err)
	}

	return &CleaningService{
		cfg:        cfg,
		classifier: classifier,
		repo:       repo,
		eventBus:   eventBus,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// classifierFromConfig builds the keyword classifier; no configured rules
// means the built-in table
func classifierFromConfig(cfg *config.Config) (*enrich.Classifier, error) {
	if len(cfg.Classification.Rules) == 0 {
		return enrich.NewClassifier(enrich.DefaultRules)
	}
	rules := make([]enrich.Rule, len(cfg.Classification.Rules))
	for i, r := range cfg.Classification.Rules {
		rules[i] = enrich.Rule{
			Category: domain.DeviceType(strings.ToLower(strings.TrimSpace(r.Category))),
			Keywords: r.Keywords,
		}
	}
	return enrich.NewClassifier(rules)
}

// RowSource produces raw rows from somewhere other than a file, such as a
// live network scan
type RowSource interface {
	Name() string
	Scan(ctx context.Context) ([]domain.RawRecord, error)
}

// Run executes one cleaning run: read input and overrides, process every row,
// write the outputs, then record the run. Any structural or I/O failure fails
// the whole run and is recorded as a failed run.
func (s *CleaningService) Run(ctx context.Context, req RunRequest) (*RunOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.run(ctx, req, func(run *domain.Run) ([]domain.RawRecord, error) {
		importer := codec.ImporterFor(req.InputPath, s.cfg.DelimiterRune(), s.cfg.Input.RequiredColumns)
		run.InputFormat = importer.Format()
		return readInput(req.InputPath, importer)
	})
}

// RunSource is Run with rows taken from source instead of req.InputPath;
// req.InputPath only labels the run.
func (s *CleaningService) RunSource(ctx context.Context, source RowSource, req RunRequest) (*RunOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.run(ctx, req, func(run *domain.Run) ([]domain.RawRecord, error) {
		run.InputFormat = source.Name()
		rows, err := source.Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source.Name(), err)
		}
		return rows, nil
	})
}

type loadFunc func(run *domain.Run) ([]domain.RawRecord, error)

func (s *CleaningService) run(ctx context.Context, req RunRequest, load loadFunc) (*RunOutcome, error) {
	run := domain.Run{
		ID:           uuid.NewString(),
		StartedAt:    s.now(),
		InputPath:    req.InputPath,
		OverridePath: req.OverridePath,
	}
	logger := s.logger.With(zap.String("run_id", run.ID))

	s.eventBus.Publish(Event{
		Type:    EventRunStarted,
		Payload: RunEventPayload{RunID: run.ID, InputPath: req.InputPath},
	})
	logger.Info("run started", zap.String("input", req.InputPath))

	result, err := s.execute(ctx, req, load, &run, logger)
	run.FinishedAt = s.now()
	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
		s.record(ctx, &run, nil, nil, logger)

		s.eventBus.Publish(Event{
			Type:    EventRunFailed,
			Payload: RunEventPayload{RunID: run.ID, InputPath: req.InputPath, Error: err.Error()},
		})
		logger.Error("run failed", zap.Error(err))
		return nil, err
	}

	run.Status = domain.RunStatusCompleted
	run.Rows = result.Summary.Rows
	run.RowsFlagged = result.Summary.RowsWithIssues
	run.Anomalies = result.Summary.Anomalies
	run.Overrides = result.Summary.OverridesApplied
	run.ByKind = result.Summary.ByKind
	s.record(ctx, &run, result.Records, result.Report, logger)

	s.eventBus.Publish(Event{
		Type: EventRunCompleted,
		Payload: RunEventPayload{
			RunID:     run.ID,
			InputPath: req.InputPath,
			Rows:      run.Rows,
			Anomalies: run.Anomalies,
		},
	})
	logger.Info("run completed",
		zap.Int("rows", run.Rows),
		zap.Int("anomalies", run.Anomalies),
		zap.Duration("took", run.Duration()))

	return &RunOutcome{Run: run, Result: result}, nil
}

func (s *CleaningService) execute(ctx context.Context, req RunRequest, load loadFunc, run *domain.Run, logger *zap.Logger) (*pipeline.Result, error) {
	rows, err := load(run)
	if err != nil {
		return nil, err
	}
	logger.Debug("input read", zap.Int("rows", len(rows)), zap.String("format", run.InputFormat))

	overrides, err := override.LoadFile(req.OverridePath)
	if err != nil {
		return nil, fmt.Errorf("load overrides: %w", err)
	}
	if len(overrides) > 0 {
		logger.Debug("overrides loaded", zap.Int("rows", len(overrides)))
	}

	ipEnricher := enrich.NewIPEnricher(s.cfg.Validation.IPv4Prefix, s.cfg.Validation.IPv6Prefix)
	processor := pipeline.NewProcessor(pipeline.Options{
		Classifier:     s.classifier,
		IPEnricher:     &ipEnricher,
		Resolver:       override.NewResolver(overrides),
		CriticalFields: s.cfg.Validation.CriticalFields,
		Logger:         logger,
	})
	runner := pipeline.NewRunner(processor, s.cfg.EffectiveWorkers(), s.cfg.Validation.DuplicateFields, logger)

	result, err := runner.Run(ctx, rows)
	if err != nil {
		return nil, err
	}

	if err := s.writeOutputs(req, result); err != nil {
		return nil, err
	}
	return result, nil
}

func readInput(path string, importer codec.Importer) ([]domain.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	rows, err := importer.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s input %s: %w", importer.Format(), path, err)
	}
	return rows, nil
}

// writeOutputs stages every artifact in a temporary file and renames them
// into place only once all of them were written. A failure leaves the
// previous outputs untouched.
func (s *CleaningService) writeOutputs(req RunRequest, result *pipeline.Result) (err error) {
	format := "csv"
	if strings.EqualFold(filepath.Ext(req.OutputPath), ".json") {
		format = "json"
	}
	records, err := codec.RecordExporterFor(format, s.cfg.DelimiterRune())
	if err != nil {
		return err
	}

	var staged []stagedFile
	defer func() {
		if err != nil {
			for _, f := range staged {
				os.Remove(f.tmp)
			}
		}
	}()

	stage := func(path, what string, write func(io.Writer) error) error {
		f, err := stageFile(path, write)
		if err != nil {
			return fmt.Errorf("write %s: %w", what, err)
		}
		staged = append(staged, f)
		return nil
	}

	if err := stage(req.OutputPath, "cleaned table", func(w io.Writer) error {
		return records.Export(result.Records, w)
	}); err != nil {
		return err
	}

	report := codec.ReportExporterFor(req.ReportPath)
	if err := stage(req.ReportPath, "anomaly report", func(w io.Writer) error {
		return report.ExportReport(result.Report, w)
	}); err != nil {
		return err
	}

	if req.InventoryPath != "" {
		inventory := codec.NewAnsibleCodec()
		if err := stage(req.InventoryPath, "inventory", func(w io.Writer) error {
			return inventory.Export(result.Records, w)
		}); err != nil {
			return err
		}
	}

	for i, f := range staged {
		if err := os.Rename(f.tmp, f.path); err != nil {
			// Already renamed files stay; only the remaining temps are dropped
			staged = staged[i:]
			return fmt.Errorf("publish %s: %w", f.path, err)
		}
	}
	return nil
}

// stagedFile is a fully written temporary file waiting to replace path
type stagedFile struct {
	path string
	tmp  string
}

// outputMode is the permission of published artifacts
const outputMode = 0644

// stageFile writes an artifact to a temporary file in the target directory,
// so the final rename stays on one filesystem
func stageFile(path string, write func(io.Writer) error) (stagedFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return stagedFile{}, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return stagedFile{}, err
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return stagedFile{}, err
	}
	// CreateTemp uses 0600
	if err := tmp.Chmod(outputMode); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return stagedFile{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return stagedFile{}, err
	}
	return stagedFile{path: path, tmp: tmp.Name()}, nil
}

// record stores the run in history. Storage problems are logged, not
// returned: the outputs are already written.
func (s *CleaningService) record(ctx context.Context, run *domain.Run, records []domain.FinalizedRecord, report domain.Report, logger *zap.Logger) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveRun(context.WithoutCancel(ctx), run, records, report); err != nil {
		logger.Warn("failed to record run history", zap.Error(err))
	}
}

// History returns the most recent runs
func (s *CleaningService) History(ctx context.Context, limit int) ([]domain.Run, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("run history is disabled")
	}
	return s.repo.ListRuns(ctx, limit)
}

// RunDetails returns a stored run and its anomaly report
func (s *CleaningService) RunDetails(ctx context.Context, id string) (*domain.Run, domain.Report, error) {
	if s.repo == nil {
		return nil, nil, fmt.Errorf("run history is disabled")
	}
	run, err := s.repo.GetRun(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if run == nil {
		return nil, nil, fmt.Errorf("run %s not found", id)
	}
	report, err := s.repo.GetReport(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return run, report, nil
}

// DeleteRun removes a stored run
func (s *CleaningService) DeleteRun(ctx context.Context, id string) error {
	if s.repo == nil {
		return fmt.Errorf("run history is disabled")
	}
	return s.repo.DeleteRun(ctx, id)
}
