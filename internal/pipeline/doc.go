// Package pipeline orchestrates one audit run end to end.
//
// For each page the run moves through fetch, structural checking, semantic
// evaluation, and reporting. Fetch and evaluation run concurrently across
// pages up to a configured limit; the reporting stage then consumes results
// in page order on a single goroutine that owns the duplicate index, checks
// every merged issue against it, and files the novel ones with the tracker.
//
// The pipeline is partial-failure tolerant: a failed page, rule, or task
// creation is counted and the run continues. Only an unreachable rule store
// or a run with zero auditable pages is fatal. A wall-clock budget stops new
// page work when exhausted and returns the partial report with TimedOut set.
package pipeline
