// Package tracker reports audit issues to a Monday-style task board.
//
// The Client speaks the board's GraphQL API over plain HTTP POSTs. A run
// calls EnsureGroups once to set up the workflow groups, ListTasks once to
// snapshot previously reported issues for deduplication, and CreateTask per
// novel issue. New tasks land in the "New Issues" group with a name of the
// form "[Severity] Title - URL".
package tracker
