// Package repository defines the run history interface for invclean.
//
// Every cleaning run can be recorded: the run summary, each finalized record
// and the anomaly report. The history lets operators compare how an inventory
// improves between runs without keeping the output files around. The actual
// implementation is in the sqlite subpackage.
//
// # SQLite Implementation
//
// The sqlite implementation uses the pure-Go modernc.org/sqlite driver with WAL
// mode. A run and its rows are written in one transaction, so a failed save
// leaves no partial run behind. Deleting a run cascades to its rows.
//
// # Testing
//
// The sqlite repository is tested against in-memory databases.
package repository
