// Package database persists audit-run history in SQLite.
//
// Each completed run's RunReport is stored as one row: summary counters in
// queryable columns, the full report as JSON alongside. The store backs the
// audit --history listing and run-over-run comparisons. The driver is
// modernc.org/sqlite, so no cgo is involved.
package database
