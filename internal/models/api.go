package models

// ReportResponse is returned after a successful report submission.
// Similar carries up to a few nearest prior reports so the client can
// surface a possible-duplicate hint.
type ReportResponse struct {
	ID      string      `json:"id"`
	Message string      `json:"message"`
	Similar []Candidate `json:"similar,omitempty"`
}

// ReportListResponse is the payload for report listings.
type ReportListResponse struct {
	Reports []Report `json:"reports"`
	Count   int      `json:"count"`
	User    string   `json:"user"`
}

// UpdateRequest appends a status update to a report.
type UpdateRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

// AssistRequest is a natural-language query against the knowledge base
// and report history.
type AssistRequest struct {
	Question   string `json:"question"`
	UserScope  bool   `json:"user_scope"`
	MaxResults int    `json:"max_results"`
}

// AssistResponse carries the generated answer and the candidates that
// grounded it. Sources may be empty; that is a valid low-confidence
// outcome, not an error.
type AssistResponse struct {
	Answer  string      `json:"answer"`
	Sources []Candidate `json:"sources"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status string `json:"status"`
}
