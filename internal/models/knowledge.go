package models

import "time"

// KnowledgeDocument is a static piece of curated domain text used to
// ground assistant answers. Documents are loaded once at startup and
// never mutated.
type KnowledgeDocument struct {
	ID        string                 `json:"id"`
	Title     string                 `json:"title"`
	Content   string                 `json:"content"`
	Category  string                 `json:"category"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Embedding []float32              `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
}

// SourceKind distinguishes where a candidate came from.
type SourceKind string

const (
	SourceKnowledge SourceKind = "knowledge"
	SourceReport    SourceKind = "report"
)

// Candidate is a transient, uniformly-shaped projection of a knowledge
// document or report, paired with its relevance score. It exists only
// for the duration of a search call.
type Candidate struct {
	Kind      SourceKind `json:"kind"`
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Category  string     `json:"category"`
	Location  string     `json:"location,omitempty"`
	Status    string     `json:"status,omitempty"`
	Priority  string     `json:"priority,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
	Score     float64    `json:"score"`
}

// CandidateFromDocument projects a knowledge document into candidate shape.
func CandidateFromDocument(d *KnowledgeDocument) Candidate {
	return Candidate{
		Kind:      SourceKnowledge,
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Category:  d.Category,
		CreatedAt: d.Timestamp,
	}
}

// CandidateFromReport projects a report into candidate shape.
func CandidateFromReport(r *Report) Candidate {
	return Candidate{
		Kind:      SourceReport,
		ID:        r.ID.String(),
		Title:     r.Title,
		Content:   r.Description,
		Category:  r.Category,
		Location:  r.Location,
		Status:    r.Status,
		Priority:  r.Priority,
		CreatedAt: r.CreatedAt,
	}
}
