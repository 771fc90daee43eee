package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pagelint/pagelint/internal/model"
)

// Board groups audit tasks move through. New tasks always land in
// GroupNewIssues; the rest exist for the editorial workflow.
const (
	GroupNewIssues  = "New Issues"
	GroupInProgress = "In Progress"
	GroupCompleted  = "Completed"
	GroupWontFix    = "Won't Fix"
)

// Board column IDs tasks carry beyond their name.
const (
	urlColumnID         = "url"
	descriptionColumnID = "description"
	categoryColumnID    = "category"
)

// maxURLInName is how much of the page URL fits in a task name.
const maxURLInName = 50

// requiredGroups lists the groups EnsureGroups creates when missing.
func requiredGroups() []string {
	return []string{GroupNewIssues, GroupInProgress, GroupCompleted, GroupWontFix}
}

// EnsureGroups makes sure the board has all workflow groups, creating any
// that are missing, and caches their IDs for subsequent mutations.
// Called once at run start.
func (c *Client) EnsureGroups(ctx context.Context) error {
	var data struct {
		Boards []struct {
			Groups []struct {
				ID    string `json:"id"`
				Title string `json:"title"`
			} `json:"groups"`
		} `json:"boards"`
	}

	query := `query ($boardId: [ID!]) {
		boards(ids: $boardId) {
			groups { id title }
		}
	}`
	if err := c.execute(ctx, query, map[string]any{"boardId": []string{c.boardID}}, &data); err != nil {
		return fmt.Errorf("list board groups: %w", err)
	}
	if len(data.Boards) == 0 {
		return fmt.Errorf("%w: board %s not found", ErrGraphQL, c.boardID)
	}

	existing := make(map[string]string)
	for _, g := range data.Boards[0].Groups {
		existing[strings.ToLower(g.Title)] = g.ID
	}

	for _, title := range requiredGroups() {
		if id, ok := existing[strings.ToLower(title)]; ok {
			c.groupIDs[title] = id
			continue
		}

		c.logger.Info("creating board group", "group", title)
		id, err := c.createGroup(ctx, title)
		if err != nil {
			return err
		}
		c.groupIDs[title] = id
	}
	return nil
}

// createGroup adds one group to the board.
func (c *Client) createGroup(ctx context.Context, title string) (string, error) {
	var data struct {
		CreateGroup struct {
			ID string `json:"id"`
		} `json:"create_group"`
	}

	mutation := `mutation ($boardId: ID!, $groupName: String!) {
		create_group(board_id: $boardId, group_name: $groupName) { id }
	}`
	vars := map[string]any{"boardId": c.boardID, "groupName": title}
	if err := c.execute(ctx, mutation, vars, &data); err != nil {
		return "", fmt.Errorf("create group %q: %w", title, err)
	}
	if data.CreateGroup.ID == "" {
		return "", fmt.Errorf("%w: create group %q", ErrGraphQL, title)
	}
	return data.CreateGroup.ID, nil
}

// boardItem is one task as the list query returns it.
type boardItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ColumnValues []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"column_values"`
}

// itemsPage is one page of the board's item listing.
type itemsPage struct {
	Cursor string      `json:"cursor"`
	Items  []boardItem `json:"items"`
}

// ListTasks retrieves every task on the board as ExistingTaskRecords,
// following the items_page cursor until exhausted. Called once at run start
// to snapshot previously reported issues for the duplicate index.
func (c *Client) ListTasks(ctx context.Context) ([]model.ExistingTaskRecord, error) {
	var records []model.ExistingTaskRecord

	page, err := c.firstItemsPage(ctx)
	if err != nil {
		return nil, err
	}
	records = append(records, toRecords(page.Items)...)

	for page.Cursor != "" {
		page, err = c.nextItemsPage(ctx, page.Cursor)
		if err != nil {
			return nil, err
		}
		records = append(records, toRecords(page.Items)...)
	}
	return records, nil
}

func (c *Client) firstItemsPage(ctx context.Context) (*itemsPage, error) {
	var data struct {
		Boards []struct {
			ItemsPage itemsPage `json:"items_page"`
		} `json:"boards"`
	}

	query := `query ($boardId: [ID!], $limit: Int!) {
		boards(ids: $boardId) {
			items_page(limit: $limit) {
				cursor
				items { id name column_values { id text } }
			}
		}
	}`
	vars := map[string]any{"boardId": []string{c.boardID}, "limit": c.pageSize}
	if err := c.execute(ctx, query, vars, &data); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if len(data.Boards) == 0 {
		return nil, fmt.Errorf("%w: board %s not found", ErrGraphQL, c.boardID)
	}
	return &data.Boards[0].ItemsPage, nil
}

func (c *Client) nextItemsPage(ctx context.Context, cursor string) (*itemsPage, error) {
	var data struct {
		NextItemsPage itemsPage `json:"next_items_page"`
	}

	query := `query ($cursor: String!, $limit: Int!) {
		next_items_page(cursor: $cursor, limit: $limit) {
			cursor
			items { id name column_values { id text } }
		}
	}`
	vars := map[string]any{"cursor": cursor, "limit": c.pageSize}
	if err := c.execute(ctx, query, vars, &data); err != nil {
		return nil, fmt.Errorf("list tasks (next page): %w", err)
	}
	return &data.NextItemsPage, nil
}

// toRecords converts board items into dedup records. The page URL comes from
// the URL column since the task name truncates it; items without a URL
// column fall back to the name suffix.
func toRecords(items []boardItem) []model.ExistingTaskRecord {
	records := make([]model.ExistingTaskRecord, 0, len(items))
	for _, item := range items {
		record := model.ExistingTaskRecord{
			TaskID: item.ID,
			Title:  titleFromTaskName(item.Name),
		}
		for _, col := range item.ColumnValues {
			switch col.ID {
			case urlColumnID:
				record.URL = col.Text
			case categoryColumnID:
				record.Category = model.Category(col.Text)
			}
		}
		if record.URL == "" {
			record.URL = urlFromTaskName(item.Name)
		}
		records = append(records, record)
	}
	return records
}

// CreateTask reports one issue as a new task in the New Issues group and
// returns the created task ID. EnsureGroups must have run first.
func (c *Client) CreateTask(ctx context.Context, issue model.Issue) (string, error) {
	groupID, ok := c.groupIDs[GroupNewIssues]
	if !ok {
		return "", fmt.Errorf("%w: group %q unknown, EnsureGroups not run", ErrTaskCreation, GroupNewIssues)
	}

	columnValues, err := columnValuesJSON(issue)
	if err != nil {
		return "", err
	}

	var data struct {
		CreateItem struct {
			ID string `json:"id"`
		} `json:"create_item"`
	}

	mutation := `mutation ($boardId: ID!, $groupId: String!, $itemName: String!, $columnValues: JSON) {
		create_item(board_id: $boardId, group_id: $groupId, item_name: $itemName, column_values: $columnValues) { id }
	}`
	vars := map[string]any{
		"boardId":      c.boardID,
		"groupId":      groupID,
		"itemName":     TaskName(issue),
		"columnValues": columnValues,
	}
	if err := c.execute(ctx, mutation, vars, &data); err != nil {
		return "", fmt.Errorf("create task for %q: %w", issue.Title, err)
	}
	if data.CreateItem.ID == "" {
		return "", fmt.Errorf("%w: %q", ErrTaskCreation, issue.Title)
	}

	c.logger.Debug("created task", "task", data.CreateItem.ID, "title", issue.Title)
	return data.CreateItem.ID, nil
}

// columnValuesJSON renders an issue's column values as the JSON string the
// mutation expects.
func columnValuesJSON(issue model.Issue) (string, error) {
	values := map[string]any{
		urlColumnID:         map[string]string{"url": issue.URL, "text": issue.URL},
		descriptionColumnID: issue.Description,
		categoryColumnID:    string(issue.Category),
	}

	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("marshal column values: %w", err)
	}
	return string(encoded), nil
}

// TaskName renders the board task name for an issue:
// severity in brackets, issue title, page URL truncated to fit.
func TaskName(issue model.Issue) string {
	severity := cases.Title(language.English).String(strings.ToLower(issue.Severity.String()))
	url := issue.URL
	if len(url) > maxURLInName {
		url = url[:maxURLInName]
	}
	return fmt.Sprintf("[%s] %s - %s", severity, issue.Title, url)
}

// titleFromTaskName recovers the issue title from a task name produced by
// TaskName. Names that do not match the format are returned as-is.
func titleFromTaskName(name string) string {
	rest := name
	if strings.HasPrefix(rest, "[") {
		if end := strings.Index(rest, "] "); end >= 0 {
			rest = rest[end+2:]
		}
	}
	if sep := strings.LastIndex(rest, " - "); sep >= 0 {
		rest = rest[:sep]
	}
	return rest
}

// urlFromTaskName recovers the (possibly truncated) URL suffix of a task name.
func urlFromTaskName(name string) string {
	if sep := strings.LastIndex(name, " - "); sep >= 0 {
		return name[sep+3:]
	}
	return ""
}
