package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pagelint/pagelint/internal/config"
	"github.com/pagelint/pagelint/internal/model"
	"github.com/pagelint/pagelint/internal/rules"
)

// NewRulesCmd creates the rules command group.
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage a site's audit rules",
		Long: `Rules manages the per-site rule files that audits evaluate.

Each site has a YAML rule file grouped by category (seo, geo, voice,
brand). Seeded rules are protected: they can be disabled or given a new
instruction, but not removed.

Examples:
  # Show all rules for a site
  pagelint rules list resort

  # Disable a rule without deleting it
  pagelint rules disable resort title-length

  # Rewrite a semantic rule's evaluation instruction
  pagelint rules set-instruction resort brand-tone "Check the copy reads warm and confident."

  # Add a custom semantic rule
  pagelint rules add resort --id local-dining --name "Mentions local dining" \
    --instruction "The page should reference on-property dining options." \
    --category brand --severity low`,
	}

	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (rule files live in its directory)")

	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesEnableCmd())
	cmd.AddCommand(newRulesDisableCmd())
	cmd.AddCommand(newRulesRemoveCmd())
	cmd.AddCommand(newRulesSetInstructionCmd())
	cmd.AddCommand(newRulesAddCmd())

	return cmd
}

// rulesStore builds the rule store for rules subcommands, resolving the
// rules directory the same way audit does.
func rulesStore(cmd *cobra.Command) (*rules.Store, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	dir := config.XDGConfigDir()
	if found := config.FindConfigFile(configPath); found != "" {
		dir = filepath.Dir(found)
	} else if configPath != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	return rules.NewStore(dir), nil
}

// newRulesListCmd creates the rules list command.
func newRulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <site-id>",
		Short: "List all rules for a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rulesStore(cmd)
			if err != nil {
				return err
			}

			ruleList, err := store.List(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-28s %-8s %-8s %-10s %-8s %s\n",
				"ID", "CATEGORY", "SEVERITY", "TYPE", "ENABLED", "NAME")
			for _, rule := range ruleList {
				fmt.Fprintf(out, "%-28s %-8s %-8s %-10s %-8v %s\n",
					rule.ID,
					rule.Category,
					rule.Severity,
					ruleType(rule),
					rule.Enabled,
					ruleName(rule),
				)
			}
			return nil
		},
	}
}

// ruleType describes which evaluators a rule participates in.
func ruleType(rule model.Rule) string {
	switch {
	case rule.IsStructural() && rule.IsSemantic():
		return "both"
	case rule.IsStructural():
		return "structural"
	case rule.IsSemantic():
		return "semantic"
	default:
		return "invalid"
	}
}

// ruleName renders the display name, marking protected seeded rules.
func ruleName(rule model.Rule) string {
	if rule.Protected {
		return rule.Name + " (protected)"
	}
	return rule.Name
}

// newRulesEnableCmd creates the rules enable command.
func newRulesEnableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enable <site-id> <rule-id>",
		Short: "Enable a rule",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rulesStore(cmd)
			if err != nil {
				return err
			}
			if err := store.SetEnabled(args[0], args[1], true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enabled rule %s\n", args[1])
			return nil
		},
	}
}

// newRulesDisableCmd creates the rules disable command.
func newRulesDisableCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disable <site-id> <rule-id>",
		Short: "Disable a rule without deleting it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rulesStore(cmd)
			if err != nil {
				return err
			}
			if err := store.SetEnabled(args[0], args[1], false); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Disabled rule %s\n", args[1])
			return nil
		},
	}
}

// newRulesRemoveCmd creates the rules remove command.
func newRulesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <site-id> <rule-id>",
		Short: "Remove a custom rule (protected rules can only be disabled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rulesStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Remove(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed rule %s\n", args[1])
			return nil
		},
	}
}

// newRulesSetInstructionCmd creates the rules set-instruction command.
func newRulesSetInstructionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-instruction <site-id> <rule-id> <instruction>",
		Short: "Replace a rule's semantic evaluation instruction",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rulesStore(cmd)
			if err != nil {
				return err
			}
			instruction := strings.Join(args[2:], " ")
			if err := store.SetInstruction(args[0], args[1], instruction); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated instruction for rule %s\n", args[1])
			return nil
		},
	}
}

// newRulesAddCmd creates the rules add command.
func newRulesAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <site-id>",
		Short: "Add a custom rule to a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rulesStore(cmd)
			if err != nil {
				return err
			}

			rule, err := ruleFromFlags(cmd)
			if err != nil {
				return err
			}

			if err := store.Add(args[0], rule); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added rule %s\n", rule.ID)
			return nil
		},
	}

	cmd.Flags().String("id", "", "Rule identifier (required)")
	cmd.Flags().String("name", "", "Short display name (required)")
	cmd.Flags().String("check", "", "Structural check identifier")
	cmd.Flags().String("instruction", "", "Semantic evaluation instruction")
	cmd.Flags().String("severity", "medium", "Issue severity: low, medium, high, critical")
	cmd.Flags().String("category", "seo", "Rule category: seo, geo, voice, brand")

	return cmd
}

// ruleFromFlags builds a model.Rule from the add command's flags.
func ruleFromFlags(cmd *cobra.Command) (model.Rule, error) {
	var rule model.Rule
	var err error

	if rule.ID, err = cmd.Flags().GetString("id"); err != nil {
		return rule, err
	}
	if rule.Name, err = cmd.Flags().GetString("name"); err != nil {
		return rule, err
	}
	if rule.CheckID, err = cmd.Flags().GetString("check"); err != nil {
		return rule, err
	}
	if rule.Instruction, err = cmd.Flags().GetString("instruction"); err != nil {
		return rule, err
	}

	severity, err := cmd.Flags().GetString("severity")
	if err != nil {
		return rule, err
	}
	if rule.Severity, err = model.ParseSeverity(severity); err != nil {
		return rule, err
	}

	category, err := cmd.Flags().GetString("category")
	if err != nil {
		return rule, err
	}
	if rule.Category, err = model.ParseCategory(category); err != nil {
		return rule, err
	}

	rule.Enabled = true
	return rule, nil
}
