// Package validate holds the per-field validators of the cleaning pipeline.
//
// Every validator is a pure function from the raw cell text to a domain.FieldResult.
// A rejected field keeps its original text so it can be reported; validators never
// return errors and never panic on malformed input.
package validate
