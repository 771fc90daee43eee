package pipeline

import "github.com/pagelint/pagelint/internal/model"

// mergeIssues joins the two evaluators' output for one page into a single
// ordered list: structural issues first (cheap, deterministic), then
// semantic, each preserving its evaluator's internal order.
//
// There is no cross-evaluator dedup here. A rule with both a check and an
// instruction tests two different things (existence vs. correctness), so
// both issues flow downstream independently.
func mergeIssues(structural, semantic []model.Issue) []model.Issue {
	if len(structural) == 0 && len(semantic) == 0 {
		return nil
	}

	merged := make([]model.Issue, 0, len(structural)+len(semantic))
	merged = append(merged, structural...)
	merged = append(merged, semantic...)
	return merged
}
