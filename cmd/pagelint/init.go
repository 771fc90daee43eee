package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pagelint/pagelint/internal/config"
	"github.com/pagelint/pagelint/internal/rules"
)

//go:embed templates/pagelint.yml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a pagelint configuration file",
		Long: `Init creates a pagelint.yml configuration file in the current directory.

The generated file includes:
- Default settings for page limits and the sitemap recency filter
- Commented examples for site entries (domain, sitemap, tracker board)

With --seed, init also writes the built-in rule set for the named sites
as <site-id>.rules.yml next to the configuration file. Seeded rules are
protected: they can be disabled or reworded, but not removed.

Examples:
  # Create pagelint.yml in the current directory
  pagelint init

  # Create the config and seed default rules for a site
  pagelint init --seed resort

  # Create config file at a specific path
  pagelint init -o config/pagelint.yml

  # Force overwrite existing file
  pagelint init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")
	cmd.Flags().StringSlice("seed", nil,
		"Site ids to seed default rule files for")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	seedSites, err := cmd.Flags().GetStringSlice("seed")
	if err != nil {
		return err
	}

	// Check if file already exists
	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Read template from embedded filesystem
	content, err := configTemplate.ReadFile("templates/pagelint.yml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write configuration file
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)

	if err := seedRuleFiles(cmd, filepath.Dir(outputPath), seedSites); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit the configuration to add your sites:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Domain and sitemap URL")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Task-tracker board id")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Page limits and the recency filter")

	return nil
}

// seedRuleFiles writes the built-in rule set for each requested site.
// An already-seeded site is reported, not treated as a failure.
func seedRuleFiles(cmd *cobra.Command, dir string, siteIDs []string) error {
	if len(siteIDs) == 0 {
		return nil
	}

	store := rules.NewStore(dir)
	for _, siteID := range siteIDs {
		path, err := store.Seed(siteID)
		if errors.Is(err, rules.ErrRulesFileExists) {
			fmt.Fprintf(cmd.OutOrStdout(), "Rules file already exists for %s, left untouched\n", siteID)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to seed rules for %s: %w", siteID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded default rules: %s\n", path)
	}
	return nil
}
