package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"civic-assist/internal/embeddings"
	"civic-assist/internal/models"
	"civic-assist/internal/relevance"
	"civic-assist/internal/storage"
	"civic-assist/internal/vocab"
)

var fixedNow = time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)

// fakeReports counts keyword-search invocations so tests can verify
// stage short-circuiting.
type fakeReports struct {
	calls   int
	reports []models.Report
	err     error
}

func (f *fakeReports) SearchKeywords(keywords []string, limit int) ([]models.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.reports, nil
}

type fakeScope struct {
	reports   []models.Report
	inventory bool
	err       error
}

func (f *fakeScope) ScopedReports(query, userID string) ([]models.Report, bool, error) {
	return f.reports, f.inventory, f.err
}

func knowledgeDocs() []models.KnowledgeDocument {
	old := fixedNow.AddDate(-1, 0, 0)
	return []models.KnowledgeDocument{
		{
			ID:        "kb-streetlight",
			Title:     "Streetlight faults",
			Category:  "streetlight",
			Content:   "Streetlight complaints cover dark streets and flickering lamps",
			Timestamp: old,
		},
		{
			ID:        "kb-waste",
			Title:     "Garbage collection",
			Category:  "waste",
			Content:   "Garbage is collected daily by the sanitation team",
			Timestamp: old,
		},
	}
}

func testKnowledge(t *testing.T) *storage.KnowledgeStore {
	t.Helper()

	knowledge, err := storage.NewKnowledgeStore(context.Background(), embeddings.NewHashEmbedder(), knowledgeDocs())
	if err != nil {
		t.Fatalf("Failed to build knowledge store: %v", err)
	}
	return knowledge
}

func newTestController(t *testing.T, reports ReportSearcher, scope UserScoper) *Controller {
	t.Helper()

	v := vocab.Default()
	scorer := relevance.NewScorer(v, func() time.Time { return fixedNow })

	return NewController(testKnowledge(t), reports, scope, embeddings.NewHashEmbedder(), scorer, v, DefaultOptions())
}

func TestStageOneShortCircuitsLaterStages(t *testing.T) {
	reports := &fakeReports{}
	c := newTestController(t, reports, &fakeScope{})

	results := c.Search(context.Background(), "streetlight broken", "", 0)

	if len(results) == 0 {
		t.Fatal("Expected stage 1 to yield knowledge candidates")
	}
	if results[0].ID != "kb-streetlight" {
		t.Errorf("Expected the streetlight document first, got %s", results[0].ID)
	}
	// Exactly one keyword search means stage 2 never ran.
	if reports.calls != 1 {
		t.Errorf("Expected 1 keyword search (stage 1 only), got %d", reports.calls)
	}
}

func TestNonsenseQueryExhaustsAllStages(t *testing.T) {
	reports := &fakeReports{}
	c := newTestController(t, reports, &fakeScope{})

	results := c.Search(context.Background(), "xyz123nonsense", "", 0)

	if len(results) != 0 {
		t.Errorf("Expected empty result for nonsense query, got %v", results)
	}
	// Stage 1 and stage 2 each issue one database query.
	if reports.calls != 2 {
		t.Errorf("Expected 2 keyword searches (stages 1 and 2), got %d", reports.calls)
	}
}

func TestDatabaseFallbackStage(t *testing.T) {
	// The record shares only an issue family with the query, which is
	// worth 0.4: under the 0.5 stage-1 bar but over the 0.1 fallback bar.
	reports := &fakeReports{reports: []models.Report{
		{Title: "Open chamber on the service lane", Category: "road", Description: "uncovered chamber near the bus stop", CreatedAt: fixedNow.AddDate(-1, 0, 0)},
	}}
	c := newTestController(t, reports, &fakeScope{})

	results := c.Search(context.Background(), "manhole", "", 0)

	if len(results) != 1 {
		t.Fatalf("Expected exactly the fallback report candidate, got %v", results)
	}
	if results[0].Kind != models.SourceReport {
		t.Errorf("Expected a report candidate, got %s", results[0].Kind)
	}
	if reports.calls != 2 {
		t.Errorf("Expected stage 2 to re-query the database, got %d calls", reports.calls)
	}
}

func TestStageFailuresDegradeToEmpty(t *testing.T) {
	reports := &fakeReports{err: errors.New("database unavailable")}
	c := newTestController(t, reports, &fakeScope{})

	results := c.Search(context.Background(), "pothole repair", "", 0)

	if len(results) != 0 {
		t.Errorf("Expected empty result when the database is down, got %v", results)
	}
	if reports.calls != 2 {
		t.Errorf("Expected both database stages attempted, got %d calls", reports.calls)
	}
}

// failingEmbedder simulates an unreachable embedding backend.
type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedder offline")
}

func TestPlainTextStageIsLastResort(t *testing.T) {
	// With the embedder and the database both down, stages 1 and 2
	// cannot produce anything; the raw-substring scan of the knowledge
	// base is the authoritative answer.
	reports := &fakeReports{err: errors.New("database unavailable")}
	v := vocab.Default()
	scorer := relevance.NewScorer(v, func() time.Time { return fixedNow })
	c := NewController(testKnowledge(t), reports, &fakeScope{}, failingEmbedder{}, scorer, v, DefaultOptions())

	results := c.Search(context.Background(), "sanitation team", "", 0)

	if len(results) != 1 {
		t.Fatalf("Expected the substring-matched document, got %v", results)
	}
	if results[0].ID != "kb-waste" || results[0].Kind != models.SourceKnowledge {
		t.Errorf("Expected the waste document, got %s (%s)", results[0].ID, results[0].Kind)
	}
	if results[0].Score <= DefaultOptions().FallbackThreshold {
		t.Errorf("Expected the candidate to clear the fallback bar, got %v", results[0].Score)
	}
	if reports.calls != 2 {
		t.Errorf("Expected stages 1 and 2 attempted first, got %d calls", reports.calls)
	}
}

func TestUserScopeInventoryBypassesScoring(t *testing.T) {
	scoped := &fakeScope{
		inventory: true,
		reports: []models.Report{
			{Title: "newest", CreatedAt: fixedNow.AddDate(0, 0, -1)},
			{Title: "middle", CreatedAt: fixedNow.AddDate(0, 0, -5)},
			{Title: "oldest", CreatedAt: fixedNow.AddDate(0, -1, 0)},
		},
	}
	reports := &fakeReports{}
	c := newTestController(t, reports, scoped)

	results := c.Search(context.Background(), "my latest report", "u-1", 0)

	if len(results) != 3 {
		t.Fatalf("Expected the full user report set, got %d", len(results))
	}
	// Order is preserved from the scope filter (newest first).
	if results[0].Title != "newest" || results[2].Title != "oldest" {
		t.Errorf("Expected newest-first ordering, got %v, %v, %v", results[0].Title, results[1].Title, results[2].Title)
	}
	if reports.calls != 0 {
		t.Errorf("Inventory path must not hit keyword search, got %d calls", reports.calls)
	}
}

func TestUserScopedSearchUsesLowerThreshold(t *testing.T) {
	scoped := &fakeScope{
		reports: []models.Report{
			{Title: "Streetlight flickering outside my house", Category: "streetlight", Description: "flickering lamp", CreatedAt: fixedNow.AddDate(0, 0, -3)},
			{Title: "Unrelated", Description: "something else entirely", CreatedAt: fixedNow.AddDate(-1, 0, 0)},
		},
	}
	reports := &fakeReports{}
	c := newTestController(t, reports, scoped)

	results := c.Search(context.Background(), "streetlight problem", "u-1", 0)

	if len(results) == 0 {
		t.Fatal("Expected the user's streetlight report to qualify")
	}
	for _, r := range results {
		if r.Title == "Unrelated" {
			t.Error("Did not expect the unrelated report to clear the threshold")
		}
	}
	if reports.calls != 0 {
		t.Errorf("User-scoped search must use the scoped pool, got %d keyword searches", reports.calls)
	}
}

func TestMaxResultsTruncation(t *testing.T) {
	var many []models.Report
	for i := 0; i < 10; i++ {
		many = append(many, models.Report{
			Title:       "Pothole cluster",
			Category:    "road",
			Description: "pothole on the carriageway",
			CreatedAt:   fixedNow.AddDate(0, 0, -1),
		})
	}
	reports := &fakeReports{reports: many}
	c := newTestController(t, reports, &fakeScope{})

	results := c.Search(context.Background(), "pothole", "", 4)

	if len(results) > 4 {
		t.Errorf("Expected at most 4 results, got %d", len(results))
	}
}

func TestEmptyQueryReturnsEmpty(t *testing.T) {
	reports := &fakeReports{}
	c := newTestController(t, reports, &fakeScope{})

	results := c.Search(context.Background(), "   ", "", 0)
	if len(results) != 0 {
		t.Errorf("Expected empty result for blank query, got %v", results)
	}
}
