// Package check evaluates structural audit rules against parsed pages.
//
// Each check identifier maps to one deterministic predicate over a
// model.PageContext. Predicates are pure and total: they never fail on
// missing optional fields, they only report whether the page violates the
// rule. A rule whose check identifier is not registered is a configuration
// error; it is logged and skipped, never fatal to the run.
//
// Thresholds (title length, meta description length, minimum word count)
// are package constants documented next to the predicates that use them.
package check
