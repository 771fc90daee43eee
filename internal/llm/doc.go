// Package llm evaluates semantic audit rules with a large language model.
//
// The Evaluator partitions a page's semantic rules into fixed-size batches,
// renders each batch into one prompt (page URL, numbered rules, truncated
// page content), and reconciles the model's JSON verdicts against the rules
// that were asked. The verdict contract has an explicit unknown state: a
// rule missing from the response, an unparseable response, or a whole-batch
// call failure degrades the affected rules to unknown rather than pass, and
// the run continues.
//
// The model sits behind the Completer interface; GeminiClient is the
// production implementation with per-call timeouts and retry with
// exponential backoff on rate limits.
package llm
