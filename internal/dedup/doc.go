// Package dedup decides whether audit issues duplicate existing tracker tasks.
//
// The Index holds a per-run snapshot of previously reported issues and
// classifies new issues with two-tier matching: an exact lookup on the
// normalized title plus URL, then a fuzzy same-URL title comparison that
// absorbs the phrasing drift LLM-produced titles show between runs.
// Newly created tasks are registered into the same snapshot immediately so
// duplicates introduced within one run are also caught.
package dedup
