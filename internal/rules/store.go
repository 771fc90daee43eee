package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/pagelint/pagelint/internal/model"
)

// Store errors.
var (
	// ErrRulesFileNotFound is returned when a site has no rules file yet.
	ErrRulesFileNotFound = errors.New("rules file not found")

	// ErrRuleNotFound is returned when a rule ID does not exist in the file.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrRuleProtected is returned when a seeded rule would be removed.
	// Protected rules can only be disabled or given a new instruction.
	ErrRuleProtected = errors.New("rule is protected and cannot be removed")
)

// ruleFile is the on-disk shape of a site's rules: rules grouped by
// category. Rules inherit the category of the group they sit in.
type ruleFile struct {
	Categories map[model.Category][]model.Rule `yaml:"categories"`
}

// Store loads and edits per-site rule files.
//
// Design decision: One YAML file per site rather than a shared database
// because rule files are small, human-edited, and reviewed in version
// control alongside the site config.
type Store struct {
	// dir is the directory holding per-site rule files.
	dir string

	// logger receives warnings about skipped rules.
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load-time warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a rule store rooted at dir.
func NewStore(dir string, opts ...Option) *Store {
	s := &Store{
		dir:    dir,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FilePath returns the rules file path for a site.
func (s *Store) FilePath(siteID string) string {
	return filepath.Join(s.dir, siteID+".rules.yml")
}

// Load reads a site's rules and returns the enabled, valid subset as an
// immutable RuleSet. Invalid rules (neither check nor instruction, or no ID)
// are logged and skipped so one bad entry cannot take the site's audit down;
// disabled rules never reach the evaluators.
func (s *Store) Load(siteID string) (*model.RuleSet, error) {
	file, err := s.read(siteID)
	if err != nil {
		return nil, err
	}

	set := &model.RuleSet{SiteID: siteID}
	for _, category := range model.Categories() {
		for _, rule := range file.Categories[category] {
			rule.Category = category
			if err := rule.Validate(); err != nil {
				s.logger.Warn("skipping invalid rule",
					"site", siteID,
					"rule", rule.ID,
					"error", err)
				continue
			}
			if !rule.Enabled {
				continue
			}
			set.Rules = append(set.Rules, rule)
		}
	}
	return set, nil
}

// List returns every rule in the file, including disabled and invalid ones,
// for the rules subcommands.
func (s *Store) List(siteID string) ([]model.Rule, error) {
	file, err := s.read(siteID)
	if err != nil {
		return nil, err
	}

	var out []model.Rule
	for _, category := range model.Categories() {
		for _, rule := range file.Categories[category] {
			rule.Category = category
			out = append(out, rule)
		}
	}
	return out, nil
}

// SetEnabled flips a rule's enabled flag and saves the file.
func (s *Store) SetEnabled(siteID, ruleID string, enabled bool) error {
	return s.update(siteID, ruleID, func(r *model.Rule) error {
		r.Enabled = enabled
		return nil
	})
}

// SetInstruction replaces a rule's semantic instruction and saves the file.
// Allowed on protected rules; editing the instruction is how seeded semantic
// rules get tuned per site.
func (s *Store) SetInstruction(siteID, ruleID, instruction string) error {
	return s.update(siteID, ruleID, func(r *model.Rule) error {
		r.Instruction = instruction
		return nil
	})
}

// Remove deletes a rule from the file. Protected rules cannot be removed.
func (s *Store) Remove(siteID, ruleID string) error {
	file, err := s.read(siteID)
	if err != nil {
		return err
	}

	for category, group := range file.Categories {
		for i, rule := range group {
			if rule.ID != ruleID {
				continue
			}
			if rule.Protected {
				return fmt.Errorf("%w: %s", ErrRuleProtected, ruleID)
			}
			file.Categories[category] = append(group[:i], group[i+1:]...)
			return s.write(siteID, file)
		}
	}
	return fmt.Errorf("%w: %s", ErrRuleNotFound, ruleID)
}

// Add appends a rule to its category group. The rule is validated first so
// the file never accumulates entries the loader would reject.
func (s *Store) Add(siteID string, rule model.Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	file, err := s.read(siteID)
	if errors.Is(err, ErrRulesFileNotFound) {
		file = &ruleFile{Categories: make(map[model.Category][]model.Rule)}
	} else if err != nil {
		return err
	}

	category := rule.Category
	if category == "" {
		category = model.CategorySEO
	}
	file.Categories[category] = append(file.Categories[category], rule)
	return s.write(siteID, file)
}

// update applies fn to the named rule and saves the file.
func (s *Store) update(siteID, ruleID string, fn func(*model.Rule) error) error {
	file, err := s.read(siteID)
	if err != nil {
		return err
	}

	for category, group := range file.Categories {
		for i := range group {
			if group[i].ID != ruleID {
				continue
			}
			if err := fn(&group[i]); err != nil {
				return err
			}
			file.Categories[category] = group
			return s.write(siteID, file)
		}
	}
	return fmt.Errorf("%w: %s", ErrRuleNotFound, ruleID)
}

// read parses a site's rules file.
func (s *Store) read(siteID string) (*ruleFile, error) {
	data, err := os.ReadFile(s.FilePath(siteID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRulesFileNotFound, s.FilePath(siteID))
		}
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	// Category names in the file are matched case-insensitively, so decode
	// raw keys first and normalize them through ParseCategory.
	var raw struct {
		Categories map[string][]model.Rule `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse rules file %q: %w", s.FilePath(siteID), err)
	}

	file := &ruleFile{Categories: make(map[model.Category][]model.Rule, len(raw.Categories))}
	for key, group := range raw.Categories {
		category, err := model.ParseCategory(key)
		if err != nil {
			s.logger.Warn("skipping unknown rule category",
				"site", siteID,
				"category", key)
			continue
		}
		file.Categories[category] = append(file.Categories[category], group...)
	}
	return file, nil
}

// write marshals and saves a site's rules file with owner-only permissions.
func (s *Store) write(siteID string, file *ruleFile) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	if err := os.WriteFile(s.FilePath(siteID), data, 0600); err != nil {
		return fmt.Errorf("write rules file: %w", err)
	}
	return nil
}
