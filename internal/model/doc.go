// Package model defines the core data structures for page audits.
//
// The central types are:
//   - Rule and RuleSet: the per-run view of enabled audit rules, partitioned
//     into structural (CheckID) and semantic (Instruction) evaluation
//   - PageContext: an immutable parsed snapshot of one page for one audit pass
//   - Issue: one concrete finding produced by either evaluator
//   - Verdict: a semantic evaluation outcome with an explicit unknown state
//   - RunProgress and RunReport: live counters and the final run summary
//
// All types in this package are plain data with small helper methods; no
// component behavior lives here.
package model
