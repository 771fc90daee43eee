// Package rules manages per-site audit rule files.
//
// Rules live in one YAML file per site, grouped by category. The Store loads
// the enabled, valid subset into an immutable RuleSet for a run; invalid
// entries are logged and skipped, never passed to the evaluators. The
// package also carries the seeded default rule set written by the init
// command and the edit operations behind the rules subcommands, including
// the protected-rule guard.
package rules
