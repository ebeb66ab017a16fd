package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"invclean/internal/config"
	"invclean/internal/domain"
	"invclean/internal/repository/sqlite"
)

const inventoryCSV = `source_row_id,ip,mac,hostname,fqdn,owner,site,device_type,notes
1,10.1.2.3,aa-bb-cc-dd-ee-ff,core-sw01,core-sw01.corp.example.com,jane@example.com (Network Ops),HQ Main,Cisco Catalyst,
2,10.1.2.4,AA:BB:CC:DD:EE:FF,edge-fw,edge-fw.corp.example.com,sec@example.com (Security),HQ Main,firewall,
10,192.168.1.-1,,neg,,,,,
`

const overridesYAML = `
"10":
  device_type: camera
  owner_team: Facilities
"99":
  device_type: printer
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestService(t *testing.T) (*CleaningService, *sqlite.Repository, *EventBus) {
	t.Helper()
	repo, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	bus := NewEventBus()
	svc, err := NewCleaningService(config.DefaultConfig(), repo, bus, zaptest.NewLogger(t))
	require.NoError(t, err)
	return svc, repo, bus
}

func TestCleaningServiceRun(t *testing.T) {
	dir := t.TempDir()
	svc, repo, bus := newTestService(t)

	events := make(chan Event, 10)
	bus.Subscribe(events)

	req := RunRequest{
		InputPath:     writeTestFile(t, dir, "inventory.csv", inventoryCSV),
		OverridePath:  writeTestFile(t, dir, "overrides.yaml", overridesYAML),
		OutputPath:    filepath.Join(dir, "out", "cleaned.csv"),
		ReportPath:    filepath.Join(dir, "out", "report.json"),
		InventoryPath: filepath.Join(dir, "out", "inventory.yml"),
	}

	outcome, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domain.RunStatusCompleted, outcome.Run.Status)
	assert.Equal(t, "csv", outcome.Run.InputFormat)
	assert.Equal(t, 3, outcome.Run.Rows)
	assert.Equal(t, []string{"99"}, outcome.Result.Summary.UnknownOverrideRows)

	// Cleaned table: header plus one line per input row
	cleaned, err := os.ReadFile(req.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(cleaned)), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "source_row_id,ip,ip_version,"))
	assert.Contains(t, lines[3], ",camera,1,")

	// Report: duplicate MAC on rows 1 and 2, invalid IP on row 10
	data, err := os.ReadFile(req.ReportPath)
	require.NoError(t, err)
	var report domain.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Contains(t, report["1"], domain.ReportEntry{
		Field: "mac", IssueKind: domain.IssueDuplicateValue, OriginalValue: "AA:BB:CC:DD:EE:FF",
	})
	assert.Equal(t, domain.ReportEntry{
		Field: "ip", IssueKind: domain.IssueInvalidFormat, OriginalValue: "192.168.1.-1",
	}, report["10"][0])
	for _, e := range report["10"] {
		assert.NotEqual(t, domain.IssueUnclassifiedDeviceType, e.IssueKind, "override classifies row 10")
	}

	_, err = os.Stat(req.InventoryPath)
	assert.NoError(t, err)

	// History
	stored, err := repo.GetRun(context.Background(), outcome.Run.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, outcome.Run.Anomalies, stored.Anomalies)

	records, err := repo.GetRecords(context.Background(), outcome.Run.ID)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	// Events
	require.Len(t, events, 2)
	assert.Equal(t, EventRunStarted, (<-events).Type)
	completed := <-events
	assert.Equal(t, EventRunCompleted, completed.Type)
	assert.Equal(t, outcome.Run.ID, completed.Payload.(RunEventPayload).RunID)
}

func TestCleaningServiceYAMLReportAndJSONTable(t *testing.T) {
	dir := t.TempDir()
	svc, _, _ := newTestService(t)

	req := RunRequest{
		InputPath:  writeTestFile(t, dir, "inventory.csv", inventoryCSV),
		OutputPath: filepath.Join(dir, "cleaned.json"),
		ReportPath: filepath.Join(dir, "report.yaml"),
	}
	_, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	data, err := os.ReadFile(req.OutputPath)
	require.NoError(t, err)
	var records []domain.FinalizedRecord
	require.NoError(t, json.Unmarshal(data, &records))
	assert.Len(t, records, 3)

	report, err := os.ReadFile(req.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), `"10":`)
}

func TestCleaningServiceStructuralFailure(t *testing.T) {
	dir := t.TempDir()
	svc, repo, bus := newTestService(t)

	events := make(chan Event, 10)
	bus.Subscribe(events)

	req := RunRequest{
		InputPath:  writeTestFile(t, dir, "dup.csv", inventoryCSV+"1,10.0.0.9,,,,,,,\n"),
		OutputPath: filepath.Join(dir, "cleaned.csv"),
		ReportPath: filepath.Join(dir, "report.json"),
	}
	_, err := svc.Run(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateRowID))

	_, statErr := os.Stat(req.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "no output on a failed run")

	runs, err := repo.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.RunStatusFailed, runs[0].Status)

	<-events
	assert.Equal(t, EventRunFailed, (<-events).Type)
}

func TestCleaningServiceMissingColumn(t *testing.T) {
	dir := t.TempDir()
	svc, _, _ := newTestService(t)

	_, err := svc.Run(context.Background(), RunRequest{
		InputPath:  writeTestFile(t, dir, "short.csv", "source_row_id,ip\n1,10.0.0.1\n"),
		OutputPath: filepath.Join(dir, "cleaned.csv"),
		ReportPath: filepath.Join(dir, "report.json"),
	})
	assert.True(t, errors.Is(err, domain.ErrMissingColumn))
}

func TestCleaningServiceWithoutHistory(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewCleaningService(nil, nil, nil, nil)
	require.NoError(t, err)

	_, err = svc.Run(context.Background(), RunRequest{
		InputPath:  writeTestFile(t, dir, "inventory.csv", inventoryCSV),
		OutputPath: filepath.Join(dir, "cleaned.csv"),
		ReportPath: filepath.Join(dir, "report.json"),
	})
	require.NoError(t, err)

	_, err = svc.History(context.Background(), 10)
	assert.Error(t, err)
}

func TestCleaningServiceCustomRules(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Classification.Rules = []config.RuleConfig{
		{Category: "Badge_Reader", Keywords: []string{"badge"}},
	}
	svc, err := NewCleaningService(cfg, nil, nil, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	input := "source_row_id,ip,mac,hostname,fqdn,owner,site,device_type,notes\n1,,,,,,,,badge door\n"
	outcome, err := svc.Run(context.Background(), RunRequest{
		InputPath:  writeTestFile(t, dir, "in.csv", input),
		OutputPath: filepath.Join(dir, "cleaned.csv"),
		ReportPath: filepath.Join(dir, "report.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DeviceType("badge_reader"), outcome.Result.Records[0].DeviceType)
}

func TestRunRequestValidate(t *testing.T) {
	assert.Error(t, RunRequest{}.Validate())
	assert.Error(t, RunRequest{InputPath: "in.csv"}.Validate())
	assert.Error(t, RunRequest{InputPath: "in.csv", OutputPath: "out.csv"}.Validate())
	assert.NoError(t, RunRequest{InputPath: "in.csv", OutputPath: "out.csv", ReportPath: "r.json"}.Validate())
}

func TestHistoryAndDetails(t *testing.T) {
	dir := t.TempDir()
	svc, _, _ := newTestService(t)

	outcome, err := svc.Run(context.Background(), RunRequest{
		InputPath:  writeTestFile(t, dir, "inventory.csv", inventoryCSV),
		OutputPath: filepath.Join(dir, "cleaned.csv"),
		ReportPath: filepath.Join(dir, "report.json"),
	})
	require.NoError(t, err)

	runs, err := svc.History(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	run, report, err := svc.RunDetails(context.Background(), outcome.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, outcome.Run.ID, run.ID)
	assert.Equal(t, outcome.Result.Report, report)

	require.NoError(t, svc.DeleteRun(context.Background(), outcome.Run.ID))
	_, _, err = svc.RunDetails(context.Background(), outcome.Run.ID)
	assert.Error(t, err)
}

type staticSource struct {
	rows []domain.RawRecord
	err  error
}

func (s staticSource) Name() string { return "static" }

func (s staticSource) Scan(ctx context.Context) ([]domain.RawRecord, error) {
	return s.rows, s.err
}

func TestCleaningServiceRunSource(t *testing.T) {
	dir := t.TempDir()
	svc, _, _ := newTestService(t)

	source := staticSource{rows: []domain.RawRecord{
		domain.NewRawRecord("10.0.0.5", map[string]string{
			domain.ColumnIP:    "10.0.0.5",
			domain.ColumnNotes: "os Linux; services ssh",
		}),
	}}
	outcome, err := svc.RunSource(context.Background(), source, RunRequest{
		InputPath:  "static:test",
		OutputPath: filepath.Join(dir, "cleaned.csv"),
		ReportPath: filepath.Join(dir, "report.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, "static", outcome.Run.InputFormat)
	assert.Equal(t, "static:test", outcome.Run.InputPath)
	assert.Equal(t, 1, outcome.Run.Rows)

	_, err = svc.RunSource(context.Background(), staticSource{err: errors.New("nmap missing")}, RunRequest{
		InputPath:  "static:test",
		OutputPath: filepath.Join(dir, "cleaned.csv"),
		ReportPath: filepath.Join(dir, "report.json"),
	})
	assert.ErrorContains(t, err, "nmap missing")
}

func TestCleaningServiceFailedWriteKeepsPreviousOutputs(t *testing.T) {
	dir := t.TempDir()
	svc, _, _ := newTestService(t)

	output := writeTestFile(t, dir, "cleaned.csv", "PREVIOUS\n")
	blocker := writeTestFile(t, dir, "blocker", "not a directory")

	_, err := svc.Run(context.Background(), RunRequest{
		InputPath:  writeTestFile(t, dir, "inventory.csv", inventoryCSV),
		OutputPath: output,
		ReportPath: filepath.Join(blocker, "report.json"),
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "write anomaly report")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "PREVIOUS\n", string(data))

	// No staged temporaries left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "."), "leftover temp file %s", e.Name())
	}
}

func TestCleaningServiceOutputMode(t *testing.T) {
	dir := t.TempDir()
	svc, _, _ := newTestService(t)

	req := RunRequest{
		InputPath:  writeTestFile(t, dir, "inventory.csv", inventoryCSV),
		OutputPath: filepath.Join(dir, "cleaned.csv"),
		ReportPath: filepath.Join(dir, "report.json"),
	}
	_, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	for _, path := range []string{req.OutputPath, req.ReportPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm(), path)
	}
}
