package pipeline

import (
	"invclean/internal/domain"
)

// Assemble groups anomalies by row. Row-local anomalies keep the order the
// stages produced them; duplicate anomalies follow. Rows without anomalies
// are left out of the report.
func Assemble(rows []RowResult, duplicates map[string][]domain.Anomaly) domain.Report {
	report := make(domain.Report)
	for _, row := range rows {
		id := row.Record.SourceRowID
		local := row.Anomalies
		dups := duplicates[id]
		if len(local)+len(dups) == 0 {
			continue
		}

		entries := make([]domain.ReportEntry, 0, len(local)+len(dups))
		for _, a := range local {
			entries = append(entries, a.Entry())
		}
		for _, a := range dups {
			entries = append(entries, a.Entry())
		}
		report[id] = entries
	}
	return report
}
