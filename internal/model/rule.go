package model

import (
	"errors"
	"fmt"
)

// ErrRuleInvalid is returned when a rule defines neither a check identifier
// nor a semantic instruction. Such a rule can never produce an issue and
// indicates a broken rule file, so it is rejected at load time.
var ErrRuleInvalid = errors.New("rule must define a check identifier, an instruction, or both")

// Rule is a single audit rule. A rule is structural (CheckID set),
// semantic (Instruction set), or both.
//
// Design decision: We model rule polymorphism with optional fields on one
// record rather than a type hierarchy. Evaluators test field presence via
// IsStructural/IsSemantic, which keeps the rule schema open to new check
// kinds without new types.
type Rule struct {
	// ID uniquely identifies the rule within a site's rule set.
	ID string `yaml:"id" json:"id"`

	// Name is the short display name used in reports and task titles.
	Name string `yaml:"name" json:"name"`

	// CheckID selects a deterministic structural predicate.
	// Empty means the rule has no structural evaluation.
	CheckID string `yaml:"check_id,omitempty" json:"check_id,omitempty"`

	// Instruction is the natural-language evaluation text sent to the LLM.
	// Empty means the rule has no semantic evaluation.
	Instruction string `yaml:"instruction,omitempty" json:"instruction,omitempty"`

	// Severity is the configured priority of issues produced by this rule.
	Severity Severity `yaml:"severity" json:"severity"`

	// Category is inherited from the rule group the rule was loaded from.
	Category Category `yaml:"-" json:"category"`

	// Enabled controls whether the rule participates in audits.
	// Disabled rules are filtered out before reaching the evaluators.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Protected marks seeded rules that cannot be deleted, only disabled
	// or given a different instruction.
	Protected bool `yaml:"protected,omitempty" json:"protected,omitempty"`
}

// IsStructural reports whether the rule has a structural check.
func (r *Rule) IsStructural() bool {
	return r.CheckID != ""
}

// IsSemantic reports whether the rule has a semantic instruction.
func (r *Rule) IsSemantic() bool {
	return r.Instruction != ""
}

// Validate checks that the rule can produce at least one kind of evaluation.
func (r *Rule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule %q: missing id", r.Name)
	}
	if !r.IsStructural() && !r.IsSemantic() {
		return fmt.Errorf("rule %q: %w", r.ID, ErrRuleInvalid)
	}
	return nil
}

// RuleSet is the immutable-per-run view of enabled rules for one site.
// It is constructed once at run start and never mutated afterwards.
type RuleSet struct {
	// SiteID identifies the site the rules were loaded for.
	SiteID string

	// Rules holds all enabled rules in rule-file order.
	Rules []Rule
}

// Structural returns the rules that have a structural check, preserving order.
// A rule with both fields appears in both partitions.
func (rs *RuleSet) Structural() []Rule {
	var out []Rule
	for _, r := range rs.Rules {
		if r.IsStructural() {
			out = append(out, r)
		}
	}
	return out
}

// Semantic returns the rules that have a semantic instruction, preserving order.
func (rs *RuleSet) Semantic() []Rule {
	var out []Rule
	for _, r := range rs.Rules {
		if r.IsSemantic() {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of enabled rules in the set.
func (rs *RuleSet) Len() int {
	return len(rs.Rules)
}
