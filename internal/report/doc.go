// Package report renders completed audit runs for humans and tools.
//
// Three writers share the Writer interface: SimpleWriter for terminal text,
// JSONWriter for tool integration, and MarkdownWriter for documentation with
// tables, alerts, and a mermaid category chart. MultiWriter fans one report
// out to several destinations, typically terminal plus file.
//
// Every format surfaces the three counters that separate a quiet run from a
// broken one: duplicates skipped, rules unknown, and reporting failures.
package report
