package model

// IssueSource identifies which evaluator produced an issue.
type IssueSource string

const (
	// SourceStructural marks issues from deterministic structural checks.
	SourceStructural IssueSource = "structural"

	// SourceSemantic marks issues from LLM-evaluated semantic rules.
	SourceSemantic IssueSource = "semantic"
)

// Issue is one concrete finding produced by either evaluator for one page.
// Issues are created transiently per page per run, consumed immediately by
// the dedup step, and never persisted by the engine itself.
type Issue struct {
	// RuleID identifies the rule that produced the issue.
	RuleID string `json:"rule_id"`

	// URL is the audited page the issue was found on.
	URL string `json:"url"`

	// Title is the short human label used for dedup matching and task names.
	Title string `json:"title"`

	// Description is the remediation text.
	Description string `json:"description,omitempty"`

	// Severity is inherited from the rule unless the evaluator overrides it.
	Severity Severity `json:"severity"`

	// Category is inherited from the rule group.
	Category Category `json:"category"`

	// Source records which evaluator produced the issue. A rule with both a
	// check identifier and an instruction may yield one issue from each.
	Source IssueSource `json:"source"`
}

// VerdictStatus is the outcome of one semantic rule evaluation.
//
// Design decision: "unknown" is a first-class state, distinct from both pass
// and fail. A rule absent from the model response, or present but
// unparseable, degrades to unknown and is counted separately so a silent
// evaluation failure can never masquerade as "no issues found".
type VerdictStatus string

const (
	// VerdictPass means the model judged the page compliant with the rule.
	VerdictPass VerdictStatus = "pass"

	// VerdictFail means the model found a violation of the rule.
	VerdictFail VerdictStatus = "fail"

	// VerdictUnknown means no usable verdict was obtained for the rule.
	VerdictUnknown VerdictStatus = "unknown"
)

// Verdict is one semantic evaluation result for one rule in a batch.
type Verdict struct {
	// RuleIndex is the ordinal of the rule within its batch, as echoed by
	// the model.
	RuleIndex int `json:"ruleIndex"`

	// Status is the evaluation outcome.
	Status VerdictStatus `json:"status"`

	// Title is the short issue label. Required when Status is fail.
	Title string `json:"title,omitempty"`

	// Description is the remediation text. Required when Status is fail.
	Description string `json:"description,omitempty"`
}

// ExistingTaskRecord is a snapshot entry for one previously created tracker
// task. Records are loaded once at run start; the duplicate index mutates its
// in-memory copy as new tasks are created within the same run.
type ExistingTaskRecord struct {
	// TaskID is the tracker's identifier for the task.
	TaskID string `json:"task_id"`

	// Title is the issue title embedded in the task name.
	Title string `json:"title"`

	// URL is the audited page the task refers to.
	URL string `json:"url"`

	// Category is the issue category, when the tracker recorded one.
	Category Category `json:"category,omitempty"`
}
