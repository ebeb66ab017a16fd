// Package service implements the cleaning workflow for invclean.
//
// CleaningService coordinates the codecs, the override loader, the pipeline
// and the run history repository. A run reads one input file, applies the
// override mapping, processes every row, writes the cleaned table and the
// anomaly report (plus an optional Ansible inventory), and finally records the
// run. Outputs are written through temporary files and renamed into place.
//
// # Event System
//
// The service publishes run lifecycle events (run_started, run_completed,
// run_failed) on an EventBus. The CLI subscribes to report progress in watch
// mode. Publishing never blocks: slow subscribers miss events.
package service
