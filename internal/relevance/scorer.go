// Package relevance implements the heuristic relevance score between a
// free-text query and a candidate record. The score is additive over
// independent bonuses and clamped to [0, 1]; a missing field simply
// contributes nothing. It is intentionally an explainable rule set, not
// a model: the downstream prompt assembly benefits more from precision
// than recall.
package relevance

import (
	"math"
	"strings"
	"time"

	"civic-assist/internal/models"
	"civic-assist/internal/vocab"
)

// Bonus values. The keyword contribution uses the capped form
// min(keywordCap, keywordStep * weighted hits) with title and category
// hits weighted x3, content and location hits x1.
const (
	categoryBonus     = 0.9
	titleQueryBonus   = 0.8
	contentQueryBonus = 0.6
	keywordCap        = 0.6
	keywordStep       = 0.1
	familyBonus       = 0.4
	recentQueryBonus  = 0.5
	sixMonthBonus     = 0.2
	sevenDayBonus     = 0.2
	placeBonus        = 0.3
	locationInQuery   = 0.2
	activeStatusBonus = 0.3
	priorityBonus     = 0.2

	titleWeight    = 3
	categoryWeight = 3
	contentWeight  = 1
	locationWeight = 1
)

// Scorer computes relevance scores. The clock is injected so recency
// bonuses are reproducible under test.
type Scorer struct {
	vocab *vocab.Vocabulary
	now   func() time.Time
}

// NewScorer returns a scorer using the given vocabulary and clock.
// Pass time.Now outside of tests.
func NewScorer(v *vocab.Vocabulary, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{vocab: v, now: now}
}

// Score returns the relevance of a candidate to a query in [0, 1].
// Pure in (query, candidate, clock); no bonus is ever negative.
func (s *Scorer) Score(query string, c *models.Candidate) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}

	title := strings.ToLower(c.Title)
	content := strings.ToLower(c.Content)
	category := strings.ToLower(c.Category)
	location := strings.ToLower(c.Location)

	score := 0.0

	if category != "" && (strings.Contains(category, q) || strings.Contains(q, category)) {
		score += categoryBonus
	}
	if title != "" && strings.Contains(title, q) {
		score += titleQueryBonus
	}
	if content != "" && strings.Contains(content, q) {
		score += contentQueryBonus
	}

	score += s.keywordContribution(q, title, content, category, location)
	score += s.familyContribution(q, content, category)
	score += s.recencyContribution(q, c.CreatedAt)
	score += s.localityContribution(q, location)

	if models.OpenStatuses[c.Status] && s.vocab.HasActiveIntent(q) {
		score += activeStatusBonus
	}
	if c.Priority != "" && containsWord(q, strings.ToLower(c.Priority)) {
		score += priorityBonus
	}

	return math.Min(1.0, score)
}

func (s *Scorer) keywordContribution(q, title, content, category, location string) float64 {
	weighted := 0
	for _, kw := range s.vocab.Extract(q) {
		if title != "" && strings.Contains(title, kw) {
			weighted += titleWeight
		}
		if category != "" && strings.Contains(category, kw) {
			weighted += categoryWeight
		}
		if content != "" && strings.Contains(content, kw) {
			weighted += contentWeight
		}
		if location != "" && strings.Contains(location, kw) {
			weighted += locationWeight
		}
	}
	return math.Min(keywordCap, keywordStep*float64(weighted))
}

// familyContribution adds the cross-reference bonus for the first
// query family that also shows up in the record; families never stack.
func (s *Scorer) familyContribution(q, content, category string) float64 {
	for _, family := range s.vocab.Families(q) {
		if s.vocab.FamilyMatches(family, category) || s.vocab.FamilyMatches(family, content) {
			return familyBonus
		}
	}
	return 0
}

func (s *Scorer) recencyContribution(q string, createdAt time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	now := s.now()
	bonus := 0.0

	if (strings.Contains(q, "recent") || strings.Contains(q, "latest")) &&
		createdAt.After(now.AddDate(0, -1, 0)) {
		bonus += recentQueryBonus
	}
	if createdAt.After(now.AddDate(0, -6, 0)) {
		bonus += sixMonthBonus
		if createdAt.After(now.AddDate(0, 0, -7)) {
			bonus += sevenDayBonus
		}
	}
	return bonus
}

func (s *Scorer) localityContribution(q, location string) float64 {
	bonus := 0.0
	if s.vocab.KnownPlace(q) || (location != "" && s.vocab.KnownPlace(location)) {
		bonus += placeBonus
	}
	if location != "" && strings.Contains(q, location) {
		bonus += locationInQuery
	}
	return bonus
}

// containsWord checks for a whole-word occurrence, so a priority of
// "Low" does not match inside "below".
func containsWord(text, word string) bool {
	for _, w := range strings.Fields(text) {
		if strings.Trim(w, ".,!?;:") == word {
			return true
		}
	}
	return false
}
