// Package codec reads raw inventory rows from the supported input formats and
// writes finalized records and anomaly reports.
//
// Inputs: delimited tables (CSV/TSV), nmap XML scan output, Ansible YAML
// inventories, JSON row arrays. Outputs: the cleaned table (CSV), an Ansible
// inventory grouped by device type, and the anomaly report as JSON or YAML.
package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"invclean/internal/domain"
)

// Importer reads raw inventory rows
type Importer interface {
	Parse(r io.Reader) ([]domain.RawRecord, error)
	Format() string
}

// RecordExporter writes finalized records
type RecordExporter interface {
	Export(records []domain.FinalizedRecord, w io.Writer) error
	Format() string
}

// ReportExporter writes an anomaly report
type ReportExporter interface {
	ExportReport(report domain.Report, w io.Writer) error
	Format() string
}

// ImporterFor picks an importer from the input file extension. Unknown
// extensions are read as delimited tables. Required columns apply to tables
// and JSON arrays; Ansible inventories and nmap scans only carry the host
// vars they know, so they are checked for row ids alone.
func ImporterFor(path string, delimiter rune, required []string) Importer {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return NewNmapCodec()
	case ".yml", ".yaml":
		return NewAnsibleCodec()
	case ".json":
		return NewJSONCodec().WithRequiredColumns(required)
	case ".tsv":
		return NewCSVCodec('\t', required)
	default:
		return NewCSVCodec(delimiter, required)
	}
}

// ReportExporterFor picks the report format from the output file extension;
// JSON is the default
func ReportExporterFor(path string) ReportExporter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return NewYAMLCodec()
	default:
		return NewJSONCodec()
	}
}

// RecordExporterFor picks the record format by name ("csv", "json" or "ansible")
func RecordExporterFor(format string, delimiter rune) (RecordExporter, error) {
	switch strings.ToLower(format) {
	case "", "csv":
		return NewCSVCodec(delimiter, nil), nil
	case "json":
		return NewJSONCodec(), nil
	case "ansible", "ansible-inventory":
		return NewAnsibleCodec(), nil
	default:
		return nil, fmt.Errorf("unknown record format %q", format)
	}
}
