// Package override applies externally curated per-row values ahead of the
// deterministic pipeline results.
//
// The override mapping is plain data keyed by source row identifier. How it was
// produced (manual review, a batch classification job) is irrelevant here; the
// resolver only ever reads it.
package override

import (
	"invclean/internal/domain"
)

// ReasonOverride marks a FieldResult whose value came from the override mapping
const ReasonOverride = "override"

// Resolver merges an OverrideSet into deterministic results. It never mutates the
// set and is safe for concurrent use.
type Resolver struct {
	set domain.OverrideSet
}

// NewResolver creates a resolver over the given mapping; nil means no overrides
func NewResolver(set domain.OverrideSet) *Resolver {
	if set == nil {
		set = domain.OverrideSet{}
	}
	return &Resolver{set: set}
}

// Resolve returns the override for (rowID, category) when one exists and the
// deterministic result otherwise. The boolean reports whether the override won.
// Overrides take precedence unconditionally, whatever the deterministic verdict.
func (r *Resolver) Resolve(rowID, category string, deterministic domain.FieldResult) (domain.FieldResult, bool) {
	entry, ok := r.set.Lookup(rowID)
	if !ok {
		return deterministic, false
	}
	value, ok := entry.Get(category)
	if !ok {
		return deterministic, false
	}
	return domain.FieldResult{
		Value:    value,
		Valid:    true,
		Reason:   ReasonOverride,
		Original: deterministic.Original,
	}, true
}

// ResolveConfidence picks the device type confidence. An explicit override
// confidence wins; an overridden device type without one is fully trusted;
// otherwise the deterministic confidence stands. The boolean reports whether an
// explicit confidence override was applied.
func (r *Resolver) ResolveConfidence(rowID string, deterministic float64, typeOverridden bool) (float64, bool) {
	if entry, ok := r.set.Lookup(rowID); ok {
		if c, ok := entry.ConfidenceValue(); ok {
			return c, true
		}
	}
	if typeOverridden {
		return domain.SourceConfidence[domain.SourceOverride], false
	}
	return deterministic, false
}

// Len returns the number of rows with overrides
func (r *Resolver) Len() int {
	return len(r.set)
}

// Set returns the underlying mapping. Callers must treat it as read-only.
func (r *Resolver) Set() domain.OverrideSet {
	return r.set
}
