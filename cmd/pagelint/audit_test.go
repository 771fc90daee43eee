package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pagelint/pagelint/internal/config"
	"github.com/pagelint/pagelint/internal/database"
	"github.com/pagelint/pagelint/internal/model"
	"github.com/pagelint/pagelint/internal/report"
)

// parseAuditFlags parses flags on a fresh audit command for buildConfig tests.
func parseAuditFlags(t *testing.T, args ...string) *config.Config {
	t.Helper()

	cmd := NewAuditCmd()
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := buildConfig(cmd, cmd.Flags().Args())
	if err != nil {
		t.Fatalf("buildConfig() error = %v", err)
	}
	return cfg
}

// TestBuildConfig tests flag-to-config mapping.
func TestBuildConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := parseAuditFlags(t, "resort")

		if cfg.SiteID != "resort" {
			t.Errorf("SiteID = %q, want resort", cfg.SiteID)
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("Timeout = %v, want %v", cfg.Timeout, config.DefaultTimeout)
		}
		if cfg.MaxPages != config.DefaultMaxPages {
			t.Errorf("MaxPages = %d, want %d", cfg.MaxPages, config.DefaultMaxPages)
		}
		if !cfg.EnableLLM {
			t.Error("EnableLLM should default to true")
		}
		if cfg.DryRun {
			t.Error("DryRun should default to false")
		}
		if !cfg.SaveToDB {
			t.Error("SaveToDB should always be true")
		}
	})

	t.Run("flags override defaults", func(t *testing.T) {
		cfg := parseAuditFlags(t,
			"--dry-run", "--no-llm",
			"--max-pages", "5",
			"--days", "30",
			"--subfolder", "/hawaii",
			"--budget", "2m",
			"resort",
		)

		if !cfg.DryRun {
			t.Error("expected DryRun")
		}
		if cfg.EnableLLM {
			t.Error("expected EnableLLM false with --no-llm")
		}
		if cfg.MaxPages != 5 {
			t.Errorf("MaxPages = %d, want 5", cfg.MaxPages)
		}
		if cfg.DaysToCheck != 30 {
			t.Errorf("DaysToCheck = %d, want 30", cfg.DaysToCheck)
		}
		if cfg.Subfolder != "/hawaii" {
			t.Errorf("Subfolder = %q, want /hawaii", cfg.Subfolder)
		}
		if cfg.RunBudget != 2*time.Minute {
			t.Errorf("RunBudget = %v, want 2m", cfg.RunBudget)
		}
	})

	t.Run("credentials come from environment", func(t *testing.T) {
		t.Setenv(geminiKeyEnv, "test-gemini-key")
		t.Setenv(trackerTokenEnv, "test-tracker-token")

		cfg := parseAuditFlags(t, "resort")

		if cfg.LLMAPIKey != "test-gemini-key" {
			t.Errorf("LLMAPIKey = %q", cfg.LLMAPIKey)
		}
		if cfg.TrackerToken != "test-tracker-token" {
			t.Errorf("TrackerToken = %q", cfg.TrackerToken)
		}
	})

	t.Run("loads explicit config file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "pagelint.yml")
		content := `
sites:
  resort:
    domain: www.example.com
    boardId: "123"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg := parseAuditFlags(t, "-c", configPath, "resort")

		siteCfg, ok := cfg.Sites.GetSiteConfig("resort")
		if !ok {
			t.Fatal("expected resort site in config")
		}
		if siteCfg.Domain != "www.example.com" {
			t.Errorf("Domain = %q", siteCfg.Domain)
		}
		if cfg.ConfigFilePath != configPath {
			t.Errorf("ConfigFilePath = %q, want %q", cfg.ConfigFilePath, configPath)
		}
	})

	t.Run("explicit missing config file errors", func(t *testing.T) {
		cmd := NewAuditCmd()
		if err := cmd.ParseFlags([]string{"-c", "/nonexistent/pagelint.yml", "resort"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		if _, err := buildConfig(cmd, cmd.Flags().Args()); err == nil {
			t.Error("expected error for missing explicit config file")
		}
	})
}

// TestResolveSite tests site selection and per-site overrides.
func TestResolveSite(t *testing.T) {
	t.Parallel()

	t.Run("unknown site id errors", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.SiteID = "ghost"
		cfg.Sites = &config.File{Sites: map[string]config.SiteConfig{}}

		if _, _, err := resolveSite(cfg); !errors.Is(err, config.ErrSiteNotConfigured) {
			t.Errorf("error = %v, want ErrSiteNotConfigured", err)
		}
	})

	t.Run("url-only run derives site id from host", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.TargetURL = "https://www.example.com/spa"
		cfg.Sites = &config.File{Sites: map[string]config.SiteConfig{}}

		_, siteID, err := resolveSite(cfg)
		if err != nil {
			t.Fatalf("resolveSite() error = %v", err)
		}
		if siteID != "example.com" {
			t.Errorf("siteID = %q, want example.com", siteID)
		}
	})

	t.Run("site overrides apply", func(t *testing.T) {
		t.Parallel()

		disabled := false
		cfg := config.NewConfig()
		cfg.SiteID = "resort"
		cfg.Sites = &config.File{
			Sites: map[string]config.SiteConfig{
				"resort": {
					Domain:      "www.example.com",
					DaysToCheck: 14,
					MaxPages:    50,
					EnableLLM:   &disabled,
				},
			},
		}
		cfg.EnableLLM = true

		siteCfg, siteID, err := resolveSite(cfg)
		if err != nil {
			t.Fatalf("resolveSite() error = %v", err)
		}
		if siteID != "resort" {
			t.Errorf("siteID = %q", siteID)
		}
		if cfg.DaysToCheck != 14 {
			t.Errorf("DaysToCheck = %d, want site override 14", cfg.DaysToCheck)
		}
		if cfg.MaxPages != 50 {
			t.Errorf("MaxPages = %d, want site override 50", cfg.MaxPages)
		}
		if cfg.EnableLLM {
			t.Error("expected site to disable semantic evaluation")
		}
		if siteCfg.Domain != "www.example.com" {
			t.Errorf("Domain = %q", siteCfg.Domain)
		}
	})
}

// TestHostOf tests site-id derivation from URLs.
func TestHostOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rawURL  string
		want    string
		wantErr bool
	}{
		{"https://www.example.com/spa", "example.com", false},
		{"https://example.com", "example.com", false},
		{"http://sub.example.com/page?q=1", "sub.example.com", false},
		{"not a url", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.rawURL, func(t *testing.T) {
			t.Parallel()

			got, err := hostOf(tt.rawURL)
			if tt.wantErr {
				if err == nil {
					t.Errorf("hostOf(%q) expected error", tt.rawURL)
				}
				return
			}
			if err != nil {
				t.Fatalf("hostOf(%q) error = %v", tt.rawURL, err)
			}
			if got != tt.want {
				t.Errorf("hostOf(%q) = %q, want %q", tt.rawURL, got, tt.want)
			}
		})
	}
}

// TestRulesDir tests rule-directory resolution.
func TestRulesDir(t *testing.T) {
	t.Parallel()

	t.Run("defaults to xdg config dir", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		if got := rulesDir(cfg, config.SiteConfig{}); got != config.XDGConfigDir() {
			t.Errorf("rulesDir() = %q, want XDG config dir", got)
		}
	})

	t.Run("uses config file directory", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.ConfigFilePath = "/etc/pagelint/pagelint.yml"
		if got := rulesDir(cfg, config.SiteConfig{}); got != "/etc/pagelint" {
			t.Errorf("rulesDir() = %q, want /etc/pagelint", got)
		}
	})

	t.Run("site rules file overrides", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.ConfigFilePath = "/etc/pagelint/pagelint.yml"
		siteCfg := config.SiteConfig{RulesFile: "rules/resort.rules.yml"}
		if got := rulesDir(cfg, siteCfg); got != "/etc/pagelint/rules" {
			t.Errorf("rulesDir() = %q, want /etc/pagelint/rules", got)
		}
	})

	t.Run("absolute site rules file", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		siteCfg := config.SiteConfig{RulesFile: "/srv/audit/resort.rules.yml"}
		if got := rulesDir(cfg, siteCfg); got != "/srv/audit" {
			t.Errorf("rulesDir() = %q, want /srv/audit", got)
		}
	})
}

// testRunReport builds a small completed report for output tests.
func testRunReport() *model.RunReport {
	started := time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC)
	return &model.RunReport{
		SiteID:         "resort",
		StartedAt:      started,
		FinishedAt:     started.Add(time.Minute),
		PagesProcessed: 3,
		IssuesFound:    map[model.Category]int{model.CategorySEO: 2},
		TasksCreated:   1,
		CreatedTasks: []model.CreatedTask{
			{TaskID: "task-1", Title: "Page title missing", URL: "https://example.com/spa", Severity: model.SeverityCritical, Category: model.CategorySEO},
		},
	}
}

// TestOutputReport tests report writing to a file.
func TestOutputReport(t *testing.T) {
	t.Run("json report file round-trips", func(t *testing.T) {
		tmpDir := t.TempDir()
		reportPath := filepath.Join(tmpDir, "out", "report.json")

		cfg := config.NewConfig()
		cfg.JSONReport = true
		cfg.ReportFile = reportPath

		// Silence the stdout copy
		oldStdout := os.Stdout
		devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		if err != nil {
			t.Fatalf("failed to open devnull: %v", err)
		}
		os.Stdout = devNull
		defer func() {
			os.Stdout = oldStdout
			devNull.Close()
		}()

		if err := outputReport(cfg, testRunReport()); err != nil {
			t.Fatalf("outputReport() error = %v", err)
		}

		data, err := os.ReadFile(reportPath)
		if err != nil {
			t.Fatalf("failed to read report file: %v", err)
		}

		var wrapped report.JSONReport
		if err := json.Unmarshal(data, &wrapped); err != nil {
			t.Fatalf("report file is not valid JSON: %v", err)
		}
		if wrapped.Report == nil || wrapped.Report.SiteID != "resort" {
			t.Errorf("decoded report = %+v", wrapped.Report)
		}

		info, err := os.Stat(reportPath)
		if err != nil {
			t.Fatalf("failed to stat report file: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}
	})
}

// TestRunHistory tests the --history listing.
func TestRunHistory(t *testing.T) {
	t.Run("lists saved runs", func(t *testing.T) {
		tmpDir := t.TempDir()

		db, err := database.Open(tmpDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if _, err := db.SaveRun(context.Background(), testRunReport()); err != nil {
			t.Fatalf("failed to save run: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}

		cfg := config.NewConfig()
		cfg.DBDir = tmpDir

		var buf bytes.Buffer
		cmd := NewAuditCmd()
		cmd.SetOut(&buf)

		if err := runHistory(context.Background(), cmd, cfg, 10); err != nil {
			t.Fatalf("runHistory() error = %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "resort") {
			t.Errorf("expected site id in listing, got %q", output)
		}
		if !strings.Contains(output, "ok") {
			t.Errorf("expected ok status, got %q", output)
		}
	})

	t.Run("errors without a history database", func(t *testing.T) {
		cfg := config.NewConfig()
		cfg.DBDir = t.TempDir()

		cmd := NewAuditCmd()
		cmd.SetOut(&bytes.Buffer{})

		if err := runHistory(context.Background(), cmd, cfg, 10); err == nil {
			t.Error("expected error when no database exists")
		}
	})
}

// TestHistoryStatus tests terminal-state rendering for run listings.
func TestHistoryStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		run  database.RunSummary
		want string
	}{
		{"completed run", database.RunSummary{}, "ok"},
		{"timed out run", database.RunSummary{TimedOut: true}, "budget"},
		{"failed run", database.RunSummary{Error: "no pages"}, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := historyStatus(tt.run); got != tt.want {
				t.Errorf("historyStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
