package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/pagelint/pagelint/internal/model"
)

// systemPrompt frames every semantic evaluation call.
const systemPrompt = `You are a meticulous web content auditor. You evaluate pages against
numbered rules and respond only with the requested JSON. Judge each rule
independently. Mark a rule "fail" only when the page clearly violates it;
when it complies or the rule does not apply, mark it "pass". For every
failure provide a short title naming the problem and a description with a
concrete remediation.`

// verdictSchema constrains the model to one verdict object per rule.
var verdictSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"ruleIndex": {
				Type:        genai.TypeInteger,
				Description: "The ordinal of the rule being judged, as given in the prompt.",
			},
			"status": {
				Type: genai.TypeString,
				Enum: []string{"pass", "fail"},
			},
			"title": {
				Type:        genai.TypeString,
				Description: "Short problem label. Required when status is fail.",
			},
			"description": {
				Type:        genai.TypeString,
				Description: "Concrete remediation advice. Required when status is fail.",
			},
		},
		Required: []string{"ruleIndex", "status"},
	},
}

// Stats counts semantic evaluation outcomes for one page.
// Unknown is tracked separately from pass and fail so evaluation failures
// can never masquerade as a clean page.
type Stats struct {
	Pass    int
	Fail    int
	Unknown int
}

// Evaluator runs semantic rules against pages through a Completer.
//
// Rules are partitioned into fixed-size batches. Batches for one page run
// sequentially to bound worst-case API load; concurrency across pages is the
// pipeline's concern. Output may vary run to run for identical input; the
// dedup layer exists to absorb that variance.
type Evaluator struct {
	completer  Completer
	batchSize  int
	contentCap int
	logger     *slog.Logger
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithBatchSize sets how many rules are sent per model call.
func WithBatchSize(n int) EvaluatorOption {
	return func(e *Evaluator) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithContentCap bounds the page markup included in prompts, in characters.
// Content beyond the cap is dropped, not summarized. Zero disables the cap.
func WithContentCap(n int) EvaluatorOption {
	return func(e *Evaluator) {
		e.contentCap = n
	}
}

// WithLogger sets the logger for batch failures and degradations.
func WithLogger(logger *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// NewEvaluator creates a semantic evaluator backed by the given Completer.
func NewEvaluator(completer Completer, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		completer:  completer,
		batchSize:  5,
		contentCap: 50000,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs all semantic rules against one page and returns the issues
// for failed rules plus outcome counts. A batch call failure degrades every
// rule in that batch to unknown and evaluation continues with the next
// batch; Evaluate itself never returns an error.
func (e *Evaluator) Evaluate(ctx context.Context, rules []model.Rule, page *model.PageContext) ([]model.Issue, Stats) {
	var issues []model.Issue
	var stats Stats

	for start := 0; start < len(rules); start += e.batchSize {
		end := min(start+e.batchSize, len(rules))
		batch := rules[start:end]

		if err := ctx.Err(); err != nil {
			e.logger.Warn("semantic evaluation cut short",
				"url", page.URL,
				"remaining_rules", len(rules)-start,
				"error", err)
			stats.Unknown += len(rules) - start
			break
		}

		batchIssues, batchStats := e.evaluateBatch(ctx, batch, page)
		issues = append(issues, batchIssues...)
		stats.Pass += batchStats.Pass
		stats.Fail += batchStats.Fail
		stats.Unknown += batchStats.Unknown
	}

	return issues, stats
}

// evaluateBatch sends one batch and reconciles the verdicts against the
// rules that were asked about.
func (e *Evaluator) evaluateBatch(ctx context.Context, batch []model.Rule, page *model.PageContext) ([]model.Issue, Stats) {
	prompt := e.buildPrompt(batch, page)

	raw, err := e.completer.CompleteJSON(ctx, systemPrompt, prompt, verdictSchema)
	if err != nil {
		e.logger.Warn("semantic batch failed, degrading to unknown",
			"url", page.URL,
			"rules", len(batch),
			"error", err)
		return nil, Stats{Unknown: len(batch)}
	}

	verdicts, err := parseVerdicts(raw)
	if err != nil {
		e.logger.Warn("unparseable model response, degrading batch to unknown",
			"url", page.URL,
			"rules", len(batch),
			"error", err)
		return nil, Stats{Unknown: len(batch)}
	}

	return e.reconcile(batch, verdicts, page)
}

// reconcile matches verdicts to batch ordinals. A rule with no verdict,
// conflicting duplicate verdicts, an out-of-range index, or a failure
// without a title counts as unknown, never as pass.
func (e *Evaluator) reconcile(batch []model.Rule, verdicts []model.Verdict, page *model.PageContext) ([]model.Issue, Stats) {
	byIndex := make(map[int]model.Verdict, len(batch))
	conflicted := make(map[int]bool)
	for _, v := range verdicts {
		if v.RuleIndex < 0 || v.RuleIndex >= len(batch) {
			e.logger.Debug("verdict for unknown rule ordinal discarded",
				"url", page.URL,
				"rule_index", v.RuleIndex)
			continue
		}
		if _, ok := byIndex[v.RuleIndex]; ok {
			// Two verdicts for one rule means the response cannot be
			// trusted for that rule.
			e.logger.Debug("duplicate verdicts for rule ordinal, counting as unknown",
				"url", page.URL,
				"rule_index", v.RuleIndex)
			conflicted[v.RuleIndex] = true
			continue
		}
		byIndex[v.RuleIndex] = v
	}

	var issues []model.Issue
	var stats Stats

	for i, rule := range batch {
		v, ok := byIndex[i]
		if !ok || conflicted[i] {
			e.logger.Debug("no usable verdict for rule, counting as unknown",
				"url", page.URL,
				"rule", rule.ID)
			stats.Unknown++
			continue
		}

		switch v.Status {
		case model.VerdictPass:
			stats.Pass++
		case model.VerdictFail:
			if strings.TrimSpace(v.Title) == "" {
				stats.Unknown++
				continue
			}
			stats.Fail++
			issues = append(issues, model.Issue{
				RuleID:      rule.ID,
				URL:         page.URL,
				Title:       v.Title,
				Description: v.Description,
				Severity:    rule.Severity,
				Category:    rule.Category,
				Source:      model.SourceSemantic,
			})
		default:
			stats.Unknown++
		}
	}

	return issues, stats
}

// buildPrompt renders one batch request: page URL, the numbered rules with
// their severities and instructions, and the truncated page content.
func (e *Evaluator) buildPrompt(batch []model.Rule, page *model.PageContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Audit this page against the numbered rules below.\n\nPage URL: %s\n\nRules:\n", page.URL)
	for i, rule := range batch {
		fmt.Fprintf(&b, "%d. [%s] %s\n", i, rule.Severity, rule.Instruction)
	}

	content := model.CapContent(page.RawContent, e.contentCap)
	fmt.Fprintf(&b, "\nPage content:\n%s\n", content)

	return b.String()
}

// parseVerdicts decodes the model's JSON response. Responses wrapped in
// markdown code fences are unwrapped first; some models add them despite
// the JSON response type.
func parseVerdicts(raw string) ([]model.Verdict, error) {
	text := strings.TrimSpace(raw)
	if after, ok := strings.CutPrefix(text, "```json"); ok {
		text = after
	} else if after, ok := strings.CutPrefix(text, "```"); ok {
		text = after
	}
	text = strings.TrimSpace(strings.TrimSuffix(text, "```"))

	var verdicts []model.Verdict
	if err := json.Unmarshal([]byte(text), &verdicts); err != nil {
		return nil, fmt.Errorf("decode verdicts: %w", err)
	}
	return verdicts, nil
}
