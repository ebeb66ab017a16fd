package codec

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"invclean/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct {
	required []string
}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// WithRequiredColumns makes Parse fail unless every column appears as a key
// in at least one object
func (c *JSONCodec) WithRequiredColumns(columns []string) *JSONCodec {
	c.required = columns
	return c
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse imports rows from a JSON array of objects. Scalar values are kept in
// their text form; the source_row_id key is required on every object. The
// keys seen across all objects stand in for a table header when checking
// required columns, so an object may omit keys that are empty for it.
func (c *JSONCodec) Parse(r io.Reader) ([]domain.RawRecord, error) {
	var objects []map[string]any
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&objects); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	rows := make([]domain.RawRecord, 0, len(objects))
	present := make(map[string]bool)
	for i, obj := range objects {
		fields := make(map[string]string, len(obj))
		for k, v := range obj {
			name := strings.ToLower(k)
			fields[name] = scalarString(v)
			present[name] = true
		}
		if _, ok := fields[domain.ColumnSourceRowID]; !ok {
			return nil, fmt.Errorf("object %d: %w: %s", i+1, domain.ErrMissingColumn, domain.ColumnSourceRowID)
		}
		rows = append(rows, domain.RawRecord{
			SourceRowID: strings.TrimSpace(fields[domain.ColumnSourceRowID]),
			Fields:      fields,
		})
	}

	if len(objects) > 0 {
		var missing []string
		for _, col := range c.required {
			if !present[col] {
				missing = append(missing, col)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumn, strings.Join(missing, ", "))
		}
	}

	if err := domain.CheckRowIDs(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Export writes finalized records as a JSON array
func (c *JSONCodec) Export(records []domain.FinalizedRecord, w io.Writer) error {
	if records == nil {
		records = []domain.FinalizedRecord{}
	}
	return c.encode(records, w)
}

// ExportReport writes the anomaly report as a JSON object keyed by row id.
// Keys come out sorted, so equal reports produce identical files.
func (c *JSONCodec) ExportReport(report domain.Report, w io.Writer) error {
	if report == nil {
		report = domain.Report{}
	}
	return c.encode(report, w)
}

func (c *JSONCodec) encode(v any, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// scalarString renders a decoded scalar as text; nil becomes empty
func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
