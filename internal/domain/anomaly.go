package domain

import "sort"

// IssueKind classifies an anomaly
type IssueKind string

const (
	IssueInvalidFormat            IssueKind = "InvalidFormat"
	IssueInconsistentWithHostname IssueKind = "InconsistentWithHostname"
	IssueMissingCriticalField     IssueKind = "MissingCriticalField"
	IssueUnclassifiedDeviceType   IssueKind = "UnclassifiedDeviceType"
	IssueUnparsedOwner            IssueKind = "UnparsedOwner"
	IssueDuplicateValue           IssueKind = "DuplicateValue"
)

// Anomaly is a reported (field, issue) pair attached to one row
type Anomaly struct {
	SourceRowID   string    `json:"source_row_id"`
	Field         string    `json:"field"`
	IssueKind     IssueKind `json:"issue_kind"`
	OriginalValue string    `json:"original_value"`
}

// NewAnomaly creates an anomaly
func NewAnomaly(rowID, field string, kind IssueKind, original string) Anomaly {
	return Anomaly{
		SourceRowID:   rowID,
		Field:         field,
		IssueKind:     kind,
		OriginalValue: original,
	}
}

// ReportEntry is one anomaly as serialized under its row identifier
type ReportEntry struct {
	Field         string    `json:"field" yaml:"field"`
	IssueKind     IssueKind `json:"issue_kind" yaml:"issue_kind"`
	OriginalValue string    `json:"original_value" yaml:"original_value"`
}

// Entry strips the row identifier from an anomaly
func (a Anomaly) Entry() ReportEntry {
	return ReportEntry{
		Field:         a.Field,
		IssueKind:     a.IssueKind,
		OriginalValue: a.OriginalValue,
	}
}

// Report maps a source row identifier to its ordered anomalies
type Report map[string][]ReportEntry

// RowIDs returns the row identifiers in the report, sorted
func (r Report) RowIDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the total number of anomalies in the report
func (r Report) Count() int {
	n := 0
	for _, entries := range r {
		n += len(entries)
	}
	return n
}

// CountByKind tallies anomalies per issue kind
func (r Report) CountByKind() map[IssueKind]int {
	counts := make(map[IssueKind]int)
	for _, entries := range r {
		for _, e := range entries {
			counts[e.IssueKind]++
		}
	}
	return counts
}
