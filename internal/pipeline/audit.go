package pipeline

import (
	"invclean/internal/domain"
)

// DefaultDuplicateFields are the fields audited for values shared across rows
var DefaultDuplicateFields = []string{domain.ColumnIP, domain.ColumnMAC, domain.ColumnHostname}

// Audit finds finalized values shared by more than one row. For every such
// value it emits a DuplicateValue anomaly on each row holding it, carrying the
// field name and the shared value. Empty values never count as duplicates.
//
// Audit needs the complete record set and must only be called after the row
// pass has finished. Anomalies for a row follow the order of fields.
func Audit(records []domain.FinalizedRecord, fields []string) map[string][]domain.Anomaly {
	if len(fields) == 0 {
		fields = DefaultDuplicateFields
	}

	// field -> normalized value -> number of rows holding it
	counts := make(map[string]map[string]int, len(fields))
	for _, field := range fields {
		values := make(map[string]int)
		for i := range records {
			if v := records[i].Field(field); v != "" {
				values[v]++
			}
		}
		counts[field] = values
	}

	dups := make(map[string][]domain.Anomaly)
	for i := range records {
		rec := &records[i]
		for _, field := range fields {
			v := rec.Field(field)
			if v == "" || counts[field][v] < 2 {
				continue
			}
			dups[rec.SourceRowID] = append(dups[rec.SourceRowID],
				domain.NewAnomaly(rec.SourceRowID, field, domain.IssueDuplicateValue, v))
		}
	}
	return dups
}
