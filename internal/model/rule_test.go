package model

import (
	"errors"
	"testing"
)

func TestRuleValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{
			name: "structural only",
			rule: Rule{ID: "seo-title", Name: "Title present", CheckID: "title.missing"},
		},
		{
			name: "semantic only",
			rule: Rule{ID: "voice-tone", Name: "Tone check", Instruction: "Check the tone is friendly"},
		},
		{
			name: "both kinds",
			rule: Rule{ID: "seo-meta", Name: "Meta check", CheckID: "meta.description.missing", Instruction: "Check the meta description quality"},
		},
		{
			name:    "neither kind",
			rule:    Rule{ID: "broken", Name: "Broken rule"},
			wantErr: true,
		},
		{
			name:    "missing id",
			rule:    Rule{Name: "No ID", CheckID: "title.missing"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.rule.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRuleValidateSentinel(t *testing.T) {
	t.Parallel()

	rule := Rule{ID: "broken", Name: "Broken"}
	if err := rule.Validate(); !errors.Is(err, ErrRuleInvalid) {
		t.Errorf("Validate() = %v, want ErrRuleInvalid", err)
	}
}

func TestRuleSetPartition(t *testing.T) {
	t.Parallel()

	rs := &RuleSet{
		SiteID: "example",
		Rules: []Rule{
			{ID: "a", CheckID: "title.missing"},
			{ID: "b", Instruction: "check tone"},
			{ID: "c", CheckID: "meta.description.missing", Instruction: "check meta quality"},
		},
	}

	structural := rs.Structural()
	if len(structural) != 2 {
		t.Fatalf("Structural() returned %d rules, want 2", len(structural))
	}
	if structural[0].ID != "a" || structural[1].ID != "c" {
		t.Errorf("Structural() order = [%s %s], want [a c]", structural[0].ID, structural[1].ID)
	}

	semantic := rs.Semantic()
	if len(semantic) != 2 {
		t.Fatalf("Semantic() returned %d rules, want 2", len(semantic))
	}
	if semantic[0].ID != "b" || semantic[1].ID != "c" {
		t.Errorf("Semantic() order = [%s %s], want [b c]", semantic[0].ID, semantic[1].ID)
	}
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Severity
		wantErr bool
	}{
		{input: "critical", want: SeverityCritical},
		{input: "HIGH", want: SeverityHigh},
		{input: " Medium ", want: SeverityMedium},
		{input: "low", want: SeverityLow},
		{input: "urgent", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseSeverity(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSeverity(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseSeverity(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSeverityOrdering(t *testing.T) {
	t.Parallel()

	if !(SeverityCritical > SeverityHigh && SeverityHigh > SeverityMedium && SeverityMedium > SeverityLow) {
		t.Error("severity constants are not ordered low to critical")
	}
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	if got, err := ParseCategory("geo"); err != nil || got != CategoryGEO {
		t.Errorf("ParseCategory(geo) = %v, %v", got, err)
	}
	if _, err := ParseCategory("marketing"); err == nil {
		t.Error("ParseCategory(marketing) should fail")
	}
}
