package dedup

import (
	"strings"
	"sync"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/pagelint/pagelint/internal/model"
)

// Index decides whether a new issue duplicates a previously reported task.
// It is loaded once at run start from the tracker snapshot and mutated
// in-memory via Register as tasks are created within the same run, so a
// later page cannot re-report an issue filed earlier in the run.
//
// Design decision: Matching is two-tier. The exact key (normalized title +
// URL) catches repeat runs of structural rules for free; the fuzzy path only
// runs on an exact miss because semantic-evaluator titles drift between runs.
// Fuzzy comparison is restricted to records sharing the issue's URL, so cost
// stays proportional to the per-page history rather than the whole board.
//
// The index is designed as a single-owner structure: the pipeline's
// serialized reporting stage is its only writer. The mutex exists so
// mid-run progress readers can call Len safely, not to support concurrent
// reporting workers.
type Index struct {
	mu sync.Mutex

	// exact maps normalized "title|url" keys to task ids.
	exact map[string]string

	// byURL groups normalized titles by URL for the fuzzy path.
	byURL map[string][]string

	// threshold is the similarity score at or above which two titles on
	// the same URL are duplicates.
	threshold float64

	// metric scores title similarity on a normalized 0-1 scale.
	metric *metrics.SorensenDice
}

// NewIndex builds an index from the tracker's existing-task snapshot.
// The threshold is the 0-1 similarity cutoff; a score meeting or exceeding
// it classifies the pair as duplicates.
func NewIndex(records []model.ExistingTaskRecord, threshold float64) *Index {
	idx := &Index{
		exact:     make(map[string]string, len(records)),
		byURL:     make(map[string][]string),
		threshold: threshold,
		metric:    metrics.NewSorensenDice(),
	}

	for _, rec := range records {
		idx.add(rec.Title, rec.URL, rec.TaskID)
	}

	return idx
}

// IsDuplicate reports whether the issue matches an existing record,
// exactly or fuzzily.
func (idx *Index) IsDuplicate(issue model.Issue) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	title := normalizeTitle(issue.Title)
	url := normalizeURL(issue.URL)

	// Cheap path: exact normalized key.
	if _, ok := idx.exact[title+"|"+url]; ok {
		return true
	}

	// Fuzzy path, same-URL records only.
	for _, existing := range idx.byURL[url] {
		if strutil.Similarity(title, existing, idx.metric) >= idx.threshold {
			return true
		}
	}

	return false
}

// Register adds a just-created task to the in-run snapshot so subsequent
// issues in the same run are checked against it.
func (idx *Index) Register(issue model.Issue, taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.add(issue.Title, issue.URL, taskID)
}

// Len returns the number of indexed records.
func (idx *Index) Len() int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return len(idx.exact)
}

// add inserts one record. Callers must hold the mutex (NewIndex owns the
// index exclusively during construction).
func (idx *Index) add(title, url, taskID string) {
	nt := normalizeTitle(title)
	nu := normalizeURL(url)

	key := nt + "|" + nu
	if _, ok := idx.exact[key]; ok {
		return
	}
	idx.exact[key] = taskID
	idx.byURL[nu] = append(idx.byURL[nu], nt)
}

// normalizeTitle lower-cases and whitespace-collapses a title so the exact
// key is stable across case and spacing differences.
func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// normalizeURL trims trailing slashes so /rooms and /rooms/ key identically.
func normalizeURL(url string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(url), "/")
	if trimmed == "" {
		return url
	}
	return trimmed
}
