// Package main provides the entry point for the pagelint CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagelint.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagelint",
		Short: "Web-page audit tool with rule-based and LLM evaluation",
		Long: `Pagelint audits web pages against configurable rules: deterministic
structural checks (meta tags, headings, links, structured data) and
LLM-judged semantic checks (tone, answer-readiness, brand voice).

Findings are deduplicated against an existing task board so repeat runs
only file genuinely new issues.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewRulesCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
