package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"invclean/internal/domain"
)

// CSVCodec reads the raw inventory table and writes the cleaned table
type CSVCodec struct {
	delimiter rune
	required  []string
}

// NewCSVCodec creates a CSV codec. A zero delimiter means comma; nil required
// columns means every input column.
func NewCSVCodec(delimiter rune, required []string) *CSVCodec {
	if delimiter == 0 {
		delimiter = ','
	}
	if required == nil {
		required = domain.InputColumns
	}
	return &CSVCodec{delimiter: delimiter, required: required}
}

// Format returns the codec format identifier
func (c *CSVCodec) Format() string {
	return "csv"
}

// Parse reads a header row followed by data rows. Cells are keyed by header
// name, so column order is irrelevant. Header names are matched
// case-insensitively. Short rows leave their trailing columns empty.
func (c *CSVCodec) Parse(r io.Reader) ([]domain.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty input: %w", domain.ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		columns[i] = name
		present[name] = true
	}

	var missing []string
	for _, col := range c.required {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if !present[domain.ColumnSourceRowID] && !slices.Contains(missing, domain.ColumnSourceRowID) {
		missing = append(missing, domain.ColumnSourceRowID)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumn, strings.Join(missing, ", "))
	}

	var rows []domain.RawRecord
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(rows)+1, err)
		}

		fields := make(map[string]string, len(columns))
		for i, name := range columns {
			if i < len(cells) {
				fields[name] = cells[i]
			} else {
				fields[name] = ""
			}
		}
		id := strings.TrimSpace(fields[domain.ColumnSourceRowID])
		rows = append(rows, domain.RawRecord{SourceRowID: id, Fields: fields})
	}

	if err := domain.CheckRowIDs(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Export writes the cleaned table with the fixed output column order
func (c *CSVCodec) Export(records []domain.FinalizedRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = c.delimiter

	if err := writer.Write(domain.OutputColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range records {
		if err := writer.Write(outputRow(&records[i])); err != nil {
			return fmt.Errorf("failed to write row %s: %w", records[i].SourceRowID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// outputRow renders a record in domain.OutputColumns order
func outputRow(r *domain.FinalizedRecord) []string {
	row := make([]string, len(domain.OutputColumns))
	for i, col := range domain.OutputColumns {
		switch col {
		case domain.FieldIPVersion:
			if r.IPVersion != 0 {
				row[i] = strconv.Itoa(r.IPVersion)
			}
		case domain.FieldFQDNConsistent:
			if r.FQDNConsistent != nil {
				row[i] = strconv.FormatBool(*r.FQDNConsistent)
			}
		case domain.FieldDeviceTypeConfidence:
			row[i] = strconv.FormatFloat(r.DeviceTypeConfidence, 'f', -1, 64)
		case domain.FieldNormalizationSteps:
			row[i] = r.StepsString()
		default:
			row[i] = r.Field(col)
		}
	}
	return row
}
