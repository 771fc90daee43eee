package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pagelint/pagelint/internal/model"
)

// graphQLRequest mirrors the wire shape of one API call for assertions.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// fakeBoard serves canned GraphQL responses and records requests.
type fakeBoard struct {
	t        *testing.T
	requests []graphQLRequest
	handler  func(req graphQLRequest) string
}

func (f *fakeBoard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if got := r.Header.Get("Authorization"); got != "test-token" {
		f.t.Errorf("Authorization = %q", got)
	}
	if got := r.Header.Get("API-Version"); got == "" {
		f.t.Error("API-Version header missing")
	}

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		f.t.Fatalf("decode request: %v", err)
	}
	f.requests = append(f.requests, req)
	fmt.Fprint(w, f.handler(req))
}

func newTestClient(t *testing.T, handler func(req graphQLRequest) string) (*Client, *fakeBoard) {
	t.Helper()

	board := &fakeBoard{t: t, handler: handler}
	ts := httptest.NewServer(board)
	t.Cleanup(ts.Close)

	client := NewClient("test-token", "board-1",
		WithAPIURL(ts.URL),
		WithHTTPClient(ts.Client()),
	)
	return client, board
}

func TestEnsureGroupsCreatesMissing(t *testing.T) {
	t.Parallel()

	client, board := newTestClient(t, func(req graphQLRequest) string {
		if strings.Contains(req.Query, "create_group") {
			name, _ := req.Variables["groupName"].(string)
			return fmt.Sprintf(`{"data":{"create_group":{"id":"g-%s"}}}`, strings.ReplaceAll(name, " ", "_"))
		}
		// Board already has two of the four groups.
		return `{"data":{"boards":[{"groups":[
			{"id":"g1","title":"new issues"},
			{"id":"g2","title":"Completed"}
		]}]}}`
	})

	if err := client.EnsureGroups(context.Background()); err != nil {
		t.Fatalf("EnsureGroups() error = %v", err)
	}

	// One listing plus one create per missing group; matching is
	// case-insensitive so "new issues" counts as New Issues.
	if len(board.requests) != 3 {
		t.Errorf("requests = %d, want 3", len(board.requests))
	}
	if client.groupIDs[GroupNewIssues] != "g1" {
		t.Errorf("New Issues group = %q, want existing g1", client.groupIDs[GroupNewIssues])
	}
	if client.groupIDs[GroupInProgress] == "" || client.groupIDs[GroupWontFix] == "" {
		t.Error("missing groups were not created")
	}
}

func TestListTasksFollowsCursor(t *testing.T) {
	t.Parallel()

	client, board := newTestClient(t, func(req graphQLRequest) string {
		if strings.Contains(req.Query, "next_items_page") {
			return `{"data":{"next_items_page":{"cursor":"","items":[
				{"id":"t2","name":"[High] Missing meta description - https://example.com/rooms",
				 "column_values":[{"id":"url","text":"https://example.com/rooms"}]}
			]}}}`
		}
		return `{"data":{"boards":[{"items_page":{"cursor":"c1","items":[
			{"id":"t1","name":"[Critical] Page title missing - https://example.com/",
			 "column_values":[{"id":"url","text":"https://example.com/"},{"id":"category","text":"SEO"}]}
		]}}]}}`
	})

	records, err := client.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(board.requests) != 2 {
		t.Errorf("requests = %d, want 2 (cursor follow)", len(board.requests))
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	first := records[0]
	if first.TaskID != "t1" {
		t.Errorf("TaskID = %q", first.TaskID)
	}
	if first.Title != "Page title missing" {
		t.Errorf("Title = %q, want severity prefix and URL suffix stripped", first.Title)
	}
	if first.URL != "https://example.com/" {
		t.Errorf("URL = %q, want value from url column", first.URL)
	}
	if first.Category != "SEO" {
		t.Errorf("Category = %q", first.Category)
	}
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	client, board := newTestClient(t, func(req graphQLRequest) string {
		if strings.Contains(req.Query, "create_item") {
			return `{"data":{"create_item":{"id":"task-42"}}}`
		}
		return `{"data":{"boards":[{"groups":[
			{"id":"g-new","title":"New Issues"},
			{"id":"g-prog","title":"In Progress"},
			{"id":"g-done","title":"Completed"},
			{"id":"g-wont","title":"Won't Fix"}
		]}]}}`
	})

	if err := client.EnsureGroups(context.Background()); err != nil {
		t.Fatal(err)
	}

	issue := model.Issue{
		RuleID:      "title-missing",
		URL:         "https://example.com/very/long/path/that/exceeds/the/name/budget/by/a/lot",
		Title:       "Page title missing",
		Description: "The page has no <title> element.",
		Severity:    model.SeverityCritical,
		Category:    model.CategorySEO,
	}
	taskID, err := client.CreateTask(context.Background(), issue)
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if taskID != "task-42" {
		t.Errorf("taskID = %q", taskID)
	}

	create := board.requests[len(board.requests)-1]
	if got, _ := create.Variables["groupId"].(string); got != "g-new" {
		t.Errorf("groupId = %q, want the New Issues group", got)
	}
	name, _ := create.Variables["itemName"].(string)
	if !strings.HasPrefix(name, "[Critical] Page title missing - ") {
		t.Errorf("itemName = %q", name)
	}
	if len(name) > len("[Critical] Page title missing - ")+maxURLInName {
		t.Errorf("itemName URL not truncated: %q", name)
	}

	columns, _ := create.Variables["columnValues"].(string)
	if !strings.Contains(columns, issue.URL) {
		t.Error("column values missing the full URL")
	}
}

func TestCreateTaskWithoutEnsureGroups(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(graphQLRequest) string { return `{"data":{}}` })

	_, err := client.CreateTask(context.Background(), model.Issue{Title: "x"})
	if !errors.Is(err, ErrTaskCreation) {
		t.Errorf("error = %v, want ErrTaskCreation", err)
	}
}

func TestExecuteGraphQLErrors(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(graphQLRequest) string {
		return `{"errors":[{"message":"invalid board id"}]}`
	})

	err := client.EnsureGroups(context.Background())
	if !errors.Is(err, ErrGraphQL) {
		t.Errorf("error = %v, want ErrGraphQL", err)
	}
	if !strings.Contains(err.Error(), "invalid board id") {
		t.Errorf("error lost the API message: %v", err)
	}
}

func TestTaskName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		issue model.Issue
		want  string
	}{
		{
			name: "severity is title-cased",
			issue: model.Issue{
				Title:    "Thin content",
				URL:      "https://example.com/spa",
				Severity: model.SeverityMedium,
			},
			want: "[Medium] Thin content - https://example.com/spa",
		},
		{
			name: "long URL truncated to 50 chars",
			issue: model.Issue{
				Title:    "URL too long",
				URL:      "https://example.com/" + strings.Repeat("deep/", 20),
				Severity: model.SeverityLow,
			},
			want: "[Low] URL too long - " + ("https://example.com/" + strings.Repeat("deep/", 20))[:50],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := TaskName(tt.issue); got != tt.want {
				t.Errorf("TaskName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitleFromTaskName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"[High] Missing meta description - https://example.com/a", "Missing meta description"},
		{"[Low] Dash - in - title - https://example.com/b", "Dash - in - title"},
		{"free-form task created by hand", "free-form task created by hand"},
	}
	for _, tt := range tests {
		if got := titleFromTaskName(tt.in); got != tt.want {
			t.Errorf("titleFromTaskName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
