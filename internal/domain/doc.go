// Package domain defines the core domain types for the invclean inventory cleaning pipeline.
//
// This package contains the records and value objects that flow through the pipeline:
// raw input rows, per-field validation outcomes, finalized output rows, anomalies,
// and externally supplied overrides.
//
// # Records
//
// RawRecord is one input row keyed by column name. It is never modified after it is read.
//
// FieldResult is the outcome of validating or normalizing a single field. An invalid
// result keeps the original value so it can be reported as an anomaly.
//
// FinalizedRecord is the complete cleaned row, including derived fields and the ordered
// normalization steps that produced it.
//
// # Anomalies
//
// Anomaly records a (field, issue) pair attached to a row. Anomalies never block output:
// every raw record yields exactly one finalized record.
//
// Report groups anomalies by source row identifier for serialization.
//
// # Overrides
//
// OverrideSet maps a row identifier to an OverrideEntry holding externally curated values
// (device type, confidence, owner team, owner email). Overrides take precedence over
// deterministic results for the row and field they name.
//
// # Design Principles
//
// - Immutable value objects where possible
// - No database or external dependencies
// - Pure domain logic without infrastructure concerns
package domain
