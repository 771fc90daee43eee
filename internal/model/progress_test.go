package model

import (
	"sync"
	"testing"
)

func TestRunProgressCounters(t *testing.T) {
	t.Parallel()

	p := NewRunProgress()
	p.PageProcessed()
	p.PageProcessed()
	p.PageFailed()
	p.IssueFound(CategorySEO)
	p.IssueFound(CategorySEO)
	p.IssueFound(CategoryGEO)
	p.TaskCreated()
	p.DuplicateSkipped()
	p.RuleUnknown(3)
	p.ReportingFailed()
	p.SetPhase(PhaseChecking, "https://example.com/")

	snap := p.Snapshot()
	if snap.PagesProcessed != 2 {
		t.Errorf("PagesProcessed = %d, want 2", snap.PagesProcessed)
	}
	if snap.PagesFailed != 1 {
		t.Errorf("PagesFailed = %d, want 1", snap.PagesFailed)
	}
	if snap.IssuesFound[CategorySEO] != 2 || snap.IssuesFound[CategoryGEO] != 1 {
		t.Errorf("IssuesFound = %v", snap.IssuesFound)
	}
	if snap.TotalIssues() != 3 {
		t.Errorf("TotalIssues() = %d, want 3", snap.TotalIssues())
	}
	if snap.RulesUnknown != 3 {
		t.Errorf("RulesUnknown = %d, want 3", snap.RulesUnknown)
	}
	if snap.Phase != PhaseChecking || snap.CurrentURL != "https://example.com/" {
		t.Errorf("Phase = %v, CurrentURL = %q", snap.Phase, snap.CurrentURL)
	}
}

func TestRunProgressSnapshotIsolation(t *testing.T) {
	t.Parallel()

	p := NewRunProgress()
	p.IssueFound(CategorySEO)

	snap := p.Snapshot()
	snap.IssuesFound[CategorySEO] = 99

	if got := p.Snapshot().IssuesFound[CategorySEO]; got != 1 {
		t.Errorf("snapshot mutation leaked into progress: %d", got)
	}
}

func TestRunProgressConcurrentAccess(t *testing.T) {
	t.Parallel()

	p := NewRunProgress()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.PageProcessed()
			p.IssueFound(CategoryBrand)
			_ = p.Snapshot()
		}()
	}
	wg.Wait()

	snap := p.Snapshot()
	if snap.PagesProcessed != 10 {
		t.Errorf("PagesProcessed = %d, want 10", snap.PagesProcessed)
	}
	if snap.IssuesFound[CategoryBrand] != 10 {
		t.Errorf("IssuesFound[Brand] = %d, want 10", snap.IssuesFound[CategoryBrand])
	}
}

func TestRunReportFinish(t *testing.T) {
	t.Parallel()

	p := NewRunProgress()
	p.PageProcessed()
	p.IssueFound(CategorySEO)
	p.TaskCreated()

	report := NewRunReport("example")
	report.Finish(p)

	if report.PagesProcessed != 1 || report.TasksCreated != 1 {
		t.Errorf("Finish copied counters wrong: %+v", report)
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Error("FinishedAt before StartedAt")
	}
	if !report.Succeeded() {
		t.Error("report with no error should succeed")
	}

	report.Error = "rule store unreachable"
	if report.Succeeded() {
		t.Error("report with error should not succeed")
	}
}

func TestPhaseString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseIdle, "idle"},
		{PhaseFetching, "fetching"},
		{PhaseChecking, "checking"},
		{PhaseReporting, "reporting"},
		{PhaseDone, "done"},
		{Phase(42), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
