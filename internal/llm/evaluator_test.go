package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/pagelint/pagelint/internal/model"
)

// fakeCompleter returns canned responses in call order.
type fakeCompleter struct {
	responses []string
	errs      []error
	prompts   []string
	calls     int
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, _, user string, _ *genai.Schema) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, user)

	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "[]", nil
}

func semanticRules(n int) []model.Rule {
	rules := make([]model.Rule, n)
	for i := range rules {
		rules[i] = model.Rule{
			ID:          "sem-" + string(rune('a'+i)),
			Instruction: "judge aspect " + string(rune('a'+i)),
			Severity:    model.SeverityMedium,
			Category:    model.CategoryVoice,
		}
	}
	return rules
}

func testPage() *model.PageContext {
	return &model.PageContext{
		URL:        "https://example.com/rooms",
		RawContent: "<html><body>Oceanview rooms with private balconies.</body></html>",
	}
}

func TestEvaluateAllPass(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{responses: []string{
		`[{"ruleIndex":0,"status":"pass"},{"ruleIndex":1,"status":"pass"}]`,
	}}
	e := NewEvaluator(fake)

	issues, stats := e.Evaluate(context.Background(), semanticRules(2), testPage())
	if len(issues) != 0 {
		t.Errorf("issues = %v, want none", issues)
	}
	if stats.Pass != 2 || stats.Fail != 0 || stats.Unknown != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestEvaluateFailProducesIssue(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{responses: []string{
		`[{"ruleIndex":0,"status":"fail","title":"Tone too formal","description":"Rewrite in a friendlier voice."},
		  {"ruleIndex":1,"status":"pass"}]`,
	}}
	e := NewEvaluator(fake)

	rules := semanticRules(2)
	issues, stats := e.Evaluate(context.Background(), rules, testPage())
	if len(issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(issues))
	}
	issue := issues[0]
	if issue.Title != "Tone too formal" {
		t.Errorf("Title = %q", issue.Title)
	}
	if issue.RuleID != rules[0].ID {
		t.Errorf("RuleID = %q, want %q", issue.RuleID, rules[0].ID)
	}
	if issue.Severity != model.SeverityMedium || issue.Category != model.CategoryVoice {
		t.Errorf("issue did not inherit rule severity/category: %+v", issue)
	}
	if issue.Source != model.SourceSemantic {
		t.Errorf("Source = %v", issue.Source)
	}
	if stats.Fail != 1 || stats.Pass != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestEvaluateMissingRuleIndexIsUnknown(t *testing.T) {
	t.Parallel()

	// Response omits ruleIndex 1 out of 3. The other two still get verdicts
	// and the missing one counts as unknown, never pass.
	fake := &fakeCompleter{responses: []string{
		`[{"ruleIndex":0,"status":"pass"},{"ruleIndex":2,"status":"pass"}]`,
	}}
	e := NewEvaluator(fake)

	issues, stats := e.Evaluate(context.Background(), semanticRules(3), testPage())
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
	if stats.Pass != 2 || stats.Unknown != 1 {
		t.Errorf("stats = %+v, want 2 pass / 1 unknown", stats)
	}
}

func TestEvaluateBatchErrorDegradesBatch(t *testing.T) {
	t.Parallel()

	// First batch errors out; the second batch still runs.
	fake := &fakeCompleter{
		errs: []error{errors.New("api unavailable"), nil},
		responses: []string{
			"",
			`[{"ruleIndex":0,"status":"pass"},{"ruleIndex":1,"status":"pass"}]`,
		},
	}
	e := NewEvaluator(fake, WithBatchSize(3))

	issues, stats := e.Evaluate(context.Background(), semanticRules(5), testPage())
	if fake.calls != 2 {
		t.Fatalf("calls = %d, want 2", fake.calls)
	}
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
	if stats.Unknown != 3 || stats.Pass != 2 {
		t.Errorf("stats = %+v, want 3 unknown / 2 pass", stats)
	}
}

func TestEvaluateUnparseableResponseDegradesBatch(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{responses: []string{`the page looks fine to me`}}
	e := NewEvaluator(fake)

	issues, stats := e.Evaluate(context.Background(), semanticRules(2), testPage())
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
	if stats.Unknown != 2 {
		t.Errorf("stats = %+v, want all unknown", stats)
	}
}

func TestEvaluateFailWithoutTitleIsUnknown(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{responses: []string{
		`[{"ruleIndex":0,"status":"fail"}]`,
	}}
	e := NewEvaluator(fake)

	issues, stats := e.Evaluate(context.Background(), semanticRules(1), testPage())
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
	if stats.Unknown != 1 || stats.Fail != 0 {
		t.Errorf("stats = %+v, want 1 unknown", stats)
	}
}

func TestEvaluateOutOfRangeAndDuplicateVerdicts(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{responses: []string{
		`[{"ruleIndex":7,"status":"fail","title":"bogus"},
		  {"ruleIndex":0,"status":"pass"},
		  {"ruleIndex":0,"status":"fail","title":"conflicting later verdict"}]`,
	}}
	e := NewEvaluator(fake)

	issues, stats := e.Evaluate(context.Background(), semanticRules(1), testPage())
	if len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
	// Conflicting verdicts for one ordinal degrade the rule to unknown;
	// out-of-range ordinals are discarded.
	if stats.Pass != 0 || stats.Unknown != 1 {
		t.Errorf("stats = %+v, want 1 unknown", stats)
	}
}

func TestEvaluateBatching(t *testing.T) {
	t.Parallel()

	fake := &fakeCompleter{responses: []string{
		`[{"ruleIndex":0,"status":"pass"},{"ruleIndex":1,"status":"pass"}]`,
		`[{"ruleIndex":0,"status":"pass"},{"ruleIndex":1,"status":"pass"}]`,
		`[{"ruleIndex":0,"status":"pass"}]`,
	}}
	e := NewEvaluator(fake, WithBatchSize(2))

	_, stats := e.Evaluate(context.Background(), semanticRules(5), testPage())
	if fake.calls != 3 {
		t.Errorf("calls = %d, want 3 batches of at most 2", fake.calls)
	}
	if stats.Pass != 5 {
		t.Errorf("stats = %+v, want 5 pass", stats)
	}

	// Ordinals restart per batch, so each prompt numbers rules from 0.
	for i, prompt := range fake.prompts {
		if !strings.Contains(prompt, "0. [MEDIUM]") {
			t.Errorf("prompt %d missing rule ordinal 0: %q", i, prompt)
		}
	}
}

func TestBuildPromptTruncatesContent(t *testing.T) {
	t.Parallel()

	e := NewEvaluator(&fakeCompleter{}, WithContentCap(10))
	page := testPage()
	page.RawContent = strings.Repeat("x", 100)

	prompt := e.buildPrompt(semanticRules(1), page)
	if strings.Contains(prompt, strings.Repeat("x", 11)) {
		t.Error("prompt contains content beyond the cap")
	}
	if !strings.Contains(prompt, page.URL) {
		t.Error("prompt missing page URL")
	}

	// A cap landing inside a multi-byte rune must not send broken UTF-8.
	// The leading x puts the 10-byte cap mid-rune in the two-byte é run.
	page.RawContent = "x" + strings.Repeat("é", 20)
	prompt = e.buildPrompt(semanticRules(1), page)
	if !utf8.ValidString(prompt) {
		t.Error("prompt is not valid UTF-8 after capping multi-byte content")
	}
}

func TestEvaluateCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeCompleter{}
	e := NewEvaluator(fake, WithBatchSize(2))

	_, stats := e.Evaluate(ctx, semanticRules(4), testPage())
	if fake.calls != 0 {
		t.Errorf("calls = %d, want 0 after cancellation", fake.calls)
	}
	if stats.Unknown != 4 {
		t.Errorf("stats = %+v, want all unknown", stats)
	}
}

func TestParseVerdictsFenced(t *testing.T) {
	t.Parallel()

	raw := "```json\n[{\"ruleIndex\":0,\"status\":\"pass\"}]\n```"
	verdicts, err := parseVerdicts(raw)
	if err != nil {
		t.Fatalf("parseVerdicts() error = %v", err)
	}
	if len(verdicts) != 1 || verdicts[0].Status != model.VerdictPass {
		t.Errorf("verdicts = %v", verdicts)
	}
}
