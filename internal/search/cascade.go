// Package search implements the three-stage fallback cascade that
// selects the candidate records grounding an assistant answer:
//
//  1. embedding similarity over the knowledge base, merged with scored
//     database keyword hits,
//  2. a database keyword re-query at a low acceptance bar,
//  3. a last-resort raw-substring scan of the knowledge base.
//
// Whichever stage first produces output is authoritative for that
// call; stages never merge across each other. A stage failure is
// downgraded to "zero candidates" so the cascade can continue, and a
// call that exhausts all stages returns an empty list, never an error.
package search

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"

	"civic-assist/internal/embeddings"
	"civic-assist/internal/models"
	"civic-assist/internal/relevance"
	"civic-assist/internal/storage"
	"civic-assist/internal/vocab"
)

// candidatePoolSize bounds how many database rows a keyword query may
// feed into scoring.
const candidatePoolSize = 50

// ReportSearcher is the keyword-search slice of the report store.
type ReportSearcher interface {
	SearchKeywords(keywords []string, limit int) ([]models.Report, error)
}

// UserScoper resolves user-owned reports and inventory intent.
type UserScoper interface {
	ScopedReports(query, userID string) ([]models.Report, bool, error)
}

// Options are the cascade tuning knobs.
type Options struct {
	// MaxResults caps the returned candidate list.
	MaxResults int
	// SimilarityThreshold is the stage-1 acceptance bar for global
	// queries.
	SimilarityThreshold float64
	// UserSimilarityThreshold is the lower stage-1 bar used for
	// user-scoped queries.
	UserSimilarityThreshold float64
	// FallbackThreshold is the acceptance bar for stages 2 and 3.
	FallbackThreshold float64
}

// DefaultOptions returns the standard cascade tuning.
func DefaultOptions() Options {
	return Options{
		MaxResults:              5,
		SimilarityThreshold:     0.5,
		UserSimilarityThreshold: 0.3,
		FallbackThreshold:       0.1,
	}
}

// Controller runs the cascade. It is stateless per call; the only
// shared state it reads is the immutable knowledge store.
type Controller struct {
	knowledge *storage.KnowledgeStore
	reports   ReportSearcher
	scope     UserScoper
	embedder  embeddings.Embedder
	scorer    *relevance.Scorer
	vocab     *vocab.Vocabulary
	opts      Options
}

// NewController wires a cascade controller.
func NewController(knowledge *storage.KnowledgeStore, reports ReportSearcher, scope UserScoper,
	embedder embeddings.Embedder, scorer *relevance.Scorer, v *vocab.Vocabulary, opts Options) *Controller {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultOptions().MaxResults
	}
	return &Controller{
		knowledge: knowledge,
		reports:   reports,
		scope:     scope,
		embedder:  embedder,
		scorer:    scorer,
		vocab:     v,
		opts:      opts,
	}
}

// Search returns the candidates for a query, most relevant first,
// truncated to maxResults (the configured default when <= 0). An empty
// userID means a global query. Search never returns an error: degraded
// dependencies shrink the result set instead.
func (c *Controller) Search(ctx context.Context, query, userID string, maxResults int) []models.Candidate {
	if maxResults <= 0 {
		maxResults = c.opts.MaxResults
	}

	var scoped []models.Report
	if userID != "" {
		reports, inventory, err := c.scope.ScopedReports(query, userID)
		if err != nil {
			log.Printf("Warning: user scope lookup failed for %s: %v", userID, err)
		} else {
			scoped = reports
			if inventory {
				// Inventory queries are about the user's reports as a
				// set, not content matching: return them newest-first
				// without scoring.
				return truncate(reportCandidates(scoped), maxResults)
			}
		}
	}

	threshold := c.opts.SimilarityThreshold
	if userID != "" {
		threshold = c.opts.UserSimilarityThreshold
	}

	if out := c.embeddingStage(ctx, query, userID, scoped, threshold, maxResults); len(out) > 0 {
		return out
	}
	if out := c.databaseStage(query, userID, scoped, maxResults); len(out) > 0 {
		return out
	}
	return c.plainTextStage(query, maxResults)
}

// embeddingStage merges cosine-scored knowledge documents with
// heuristically scored report hits, keeping candidates at or above the
// threshold.
func (c *Controller) embeddingStage(ctx context.Context, query, userID string, scoped []models.Report, threshold float64, maxResults int) []models.Candidate {
	var out []models.Candidate

	queryEmbedding, err := c.embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("Warning: query embedding failed, keyword signals only: %v", err)
	} else {
		for _, doc := range c.knowledge.All() {
			cand := models.CandidateFromDocument(doc)
			cos := embeddings.Cosine(queryEmbedding, doc.Embedding)
			heuristic := c.scorer.Score(query, &cand)
			cand.Score = math.Min(1.0, 0.5*cos+0.5*heuristic)
			if cand.Score >= threshold {
				out = append(out, cand)
			}
		}
	}

	for _, report := range c.reportPool(query, userID, scoped) {
		cand := models.CandidateFromReport(&report)
		cand.Score = c.scorer.Score(query, &cand)
		if cand.Score >= threshold {
			out = append(out, cand)
		}
	}

	return truncate(rank(out), maxResults)
}

// databaseStage re-issues the keyword query and accepts anything above
// the fallback bar.
func (c *Controller) databaseStage(query, userID string, scoped []models.Report, maxResults int) []models.Candidate {
	var out []models.Candidate
	for _, report := range c.reportPool(query, userID, scoped) {
		cand := models.CandidateFromReport(&report)
		cand.Score = c.scorer.Score(query, &cand)
		if cand.Score > c.opts.FallbackThreshold {
			out = append(out, cand)
		}
	}
	return truncate(rank(out), maxResults)
}

// plainTextStage scans the knowledge base for the raw query as a
// substring of title, content or category.
func (c *Controller) plainTextStage(query string, maxResults int) []models.Candidate {
	raw := strings.ToLower(strings.TrimSpace(query))
	if raw == "" {
		return []models.Candidate{}
	}

	var out []models.Candidate
	for _, doc := range c.knowledge.All() {
		if !strings.Contains(strings.ToLower(doc.Title), raw) &&
			!strings.Contains(strings.ToLower(doc.Content), raw) &&
			!strings.Contains(strings.ToLower(doc.Category), raw) {
			continue
		}
		cand := models.CandidateFromDocument(doc)
		cand.Score = c.scorer.Score(query, &cand)
		if cand.Score > c.opts.FallbackThreshold {
			out = append(out, cand)
		}
	}
	return truncate(rank(out), maxResults)
}

// reportPool returns the reports a stage should score: the user's own
// reports for scoped queries, a database keyword search otherwise. A
// failing database is treated as an empty pool.
func (c *Controller) reportPool(query, userID string, scoped []models.Report) []models.Report {
	if userID != "" {
		return scoped
	}

	terms := c.searchTerms(query)
	if len(terms) == 0 {
		return nil
	}

	reports, err := c.reports.SearchKeywords(terms, candidatePoolSize)
	if err != nil {
		log.Printf("Warning: report keyword search failed: %v", err)
		return nil
	}
	return reports
}

// searchTerms extracts keywords; an all-stopword query falls back to
// the raw query string for an exact-substring attempt.
func (c *Controller) searchTerms(query string) []string {
	terms := c.vocab.Extract(query)
	if len(terms) > 0 {
		return terms
	}
	raw := strings.ToLower(strings.TrimSpace(query))
	if raw == "" {
		return nil
	}
	return []string{raw}
}

func reportCandidates(reports []models.Report) []models.Candidate {
	out := make([]models.Candidate, 0, len(reports))
	for i := range reports {
		out = append(out, models.CandidateFromReport(&reports[i]))
	}
	return out
}

func rank(candidates []models.Candidate) []models.Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

func truncate(candidates []models.Candidate, max int) []models.Candidate {
	if candidates == nil {
		return []models.Candidate{}
	}
	if len(candidates) > max {
		return candidates[:max]
	}
	return candidates
}
