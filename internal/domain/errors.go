package domain

import (
	"errors"
	"fmt"
)

// Structural errors that fail a whole run. Anything else is reported as an anomaly.
var (
	ErrMissingColumn  = errors.New("input table is missing a required column")
	ErrEmptyRowID     = errors.New("input row has an empty source_row_id")
	ErrDuplicateRowID = errors.New("duplicate source_row_id in input")
)

// CheckRowIDs verifies that every row carries a non-empty identifier and that no
// identifier repeats. Both conditions break the join between raw, finalized,
// override and anomaly data.
func CheckRowIDs(rows []RawRecord) error {
	seen := make(map[string]int, len(rows))
	for i, r := range rows {
		if r.SourceRowID == "" {
			return fmt.Errorf("row %d: %w", i+1, ErrEmptyRowID)
		}
		if first, ok := seen[r.SourceRowID]; ok {
			return fmt.Errorf("%w: %q at rows %d and %d", ErrDuplicateRowID, r.SourceRowID, first+1, i+1)
		}
		seen[r.SourceRowID] = i
	}
	return nil
}
