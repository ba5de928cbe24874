package relevance

import (
	"math"
	"testing"
	"time"

	"civic-assist/internal/models"
	"civic-assist/internal/vocab"
)

// fixedNow pins the clock so recency bonuses are reproducible.
var fixedNow = time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)

func newTestScorer() *Scorer {
	return NewScorer(vocab.Default(), func() time.Time { return fixedNow })
}

func TestScoreStaysInRange(t *testing.T) {
	s := newTestScorer()

	candidates := []models.Candidate{
		{},
		{Title: "Streetlight damaged", Category: "streetlight", Content: "streetlight broken", Location: "Chakrata Road", Status: models.StatusPending, Priority: models.PriorityHigh, CreatedAt: fixedNow.AddDate(0, 0, -1)},
		{Title: "unrelated", Content: "nothing in common"},
		{Category: "road", Content: "pothole pothole pothole", CreatedAt: fixedNow.AddDate(0, 0, -2)},
	}
	queries := []string{"", "recent streetlight broken near Chakrata", "pothole", "xyz123nonsense", "latest high priority active issues"}

	for _, q := range queries {
		for i := range candidates {
			score := s.Score(q, &candidates[i])
			if score < 0 || score > 1 {
				t.Errorf("Score(%q, candidate %d) = %v, want within [0, 1]", q, i, score)
			}
		}
	}
}

func TestCategoryMatchDominates(t *testing.T) {
	s := newTestScorer()

	// Everything except the category is empty; the category bonus alone
	// must carry the score to at least 0.9.
	c := models.Candidate{Category: "streetlight"}
	if score := s.Score("streetlight", &c); score < 0.9 {
		t.Errorf("Expected score >= 0.9 on category match, got %v", score)
	}

	// Substring match works in both directions.
	c = models.Candidate{Category: "road"}
	if score := s.Score("road conditions in town", &c); score < 0.9 {
		t.Errorf("Expected score >= 0.9 on category-in-query match, got %v", score)
	}
}

func TestKeywordHitMonotonicity(t *testing.T) {
	s := newTestScorer()
	query := "pothole road repair"

	without := models.Candidate{Title: "Issue report", Content: "surface damage"}
	with := models.Candidate{Title: "Pothole issue report", Content: "surface damage"}

	scoreWithout := s.Score(query, &without)
	scoreWith := s.Score(query, &with)

	if scoreWith < scoreWithout {
		t.Errorf("Adding a keyword hit to the title decreased the score: %v -> %v", scoreWithout, scoreWith)
	}
}

func TestScoreIsIdempotent(t *testing.T) {
	s := newTestScorer()

	c := models.Candidate{
		Title:     "Streetlight damaged",
		Category:  "streetlight",
		Content:   "The streetlight near the park is flickering",
		Location:  "Rajpur Road",
		Status:    models.StatusPending,
		CreatedAt: fixedNow.AddDate(0, 0, -3),
	}

	first := s.Score("recent streetlight issues", &c)
	second := s.Score("recent streetlight issues", &c)

	if first != second {
		t.Errorf("Expected identical scores for identical inputs, got %v and %v", first, second)
	}
}

func TestRecentRecordScoresStrictlyHigher(t *testing.T) {
	s := newTestScorer()
	query := "pothole"

	// Content deliberately avoids the full-query and keyword hits so the
	// recency bonuses are not swallowed by clamping.
	recent := models.Candidate{Title: "Road damage", Content: "surface damaged near the school", CreatedAt: fixedNow.AddDate(0, 0, -1)}
	old := recent
	old.CreatedAt = fixedNow.AddDate(-1, 0, 0)

	recentScore := s.Score(query, &recent)
	oldScore := s.Score(query, &old)

	if recentScore <= oldScore {
		t.Errorf("Expected recent record to score strictly higher: recent=%v old=%v", recentScore, oldScore)
	}
	if recentScore-oldScore < 0.2 {
		t.Errorf("Expected at least the 0.2 recency gap, got %v", recentScore-oldScore)
	}
}

func TestRecentQueryBonus(t *testing.T) {
	s := newTestScorer()

	inWindow := models.Candidate{Title: "Road damage", Content: "surface damaged near the school", CreatedAt: fixedNow.AddDate(0, 0, -10)}
	outOfWindow := inWindow
	outOfWindow.CreatedAt = fixedNow.AddDate(0, -2, 0)

	withTerm := s.Score("latest road damage", &inWindow)
	withoutWindow := s.Score("latest road damage", &outOfWindow)

	if withTerm <= withoutWindow {
		t.Errorf("Expected the recent-query bonus for the last-month record: %v vs %v", withTerm, withoutWindow)
	}
}

func TestFullMatchScenarioClampsToOne(t *testing.T) {
	s := newTestScorer()

	c := models.Candidate{
		Title:     "Streetlight damaged",
		Category:  "streetlight",
		Location:  "Chakrata Road",
		Content:   "The streetlight is completely dark at night",
		CreatedAt: fixedNow.AddDate(0, 0, -2),
	}

	score := s.Score("streetlight broken near Chakrata", &c)
	if score != 1.0 {
		t.Errorf("Expected clamped score of 1.0, got %v", score)
	}
}

func TestActiveStatusBonus(t *testing.T) {
	s := newTestScorer()

	c := models.Candidate{Status: models.StatusPending}
	score := s.Score("ongoing complaints", &c)
	if math.Abs(score-0.3) > 1e-9 {
		t.Errorf("Expected exactly the active-status bonus 0.3, got %v", score)
	}

	resolved := models.Candidate{Status: models.StatusResolved}
	if score := s.Score("ongoing complaints", &resolved); score != 0 {
		t.Errorf("Expected no bonus for resolved record, got %v", score)
	}
}

func TestPriorityWordBonus(t *testing.T) {
	s := newTestScorer()

	c := models.Candidate{Priority: models.PriorityHigh}
	score := s.Score("high priority please", &c)
	if math.Abs(score-0.2) > 1e-9 {
		t.Errorf("Expected exactly the priority bonus 0.2, got %v", score)
	}

	// Whole-word only: "low" inside "below" must not match.
	low := models.Candidate{Priority: models.PriorityLow}
	if score := s.Score("water level below the bridge", &low); score != 0 {
		t.Errorf("Expected no priority bonus from substring, got %v for %v", score, low.Priority)
	}
}

func TestEmptyQueryScoresZero(t *testing.T) {
	s := newTestScorer()
	c := models.Candidate{Title: "Streetlight damaged", Category: "streetlight"}

	if score := s.Score("   ", &c); score != 0 {
		t.Errorf("Expected zero score for blank query, got %v", score)
	}
}
