// Package models defines the report and knowledge document types shared
// across the service.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Report statuses. The set is open at the data layer; these are the
// values the service itself writes.
const (
	StatusNew        = "New"
	StatusPending    = "Pending"
	StatusAssigned   = "Assigned"
	StatusInProgress = "In Progress"
	StatusResolved   = "Resolved"
)

// Report priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// OwnerRef is the legacy nested owner object some drifted records carry
// instead of a flat ownership column.
type OwnerRef struct {
	UID string `json:"uid,omitempty"`
	ID  string `json:"id,omitempty"`
}

// ReportUpdate is one entry in a report's status history.
type ReportUpdate struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
	By      string `json:"by,omitempty"`
}

// Report is a citizen-submitted infrastructure issue record.
//
// Ownership is inconsistently recorded across historical data:
// CreatedBy is canonical for anything this service writes, but UserID,
// SubmittedBy and the nested User object all occur in older records.
// Readers must probe them in order (see internal/scope).
type Report struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Category    string         `json:"category"`
	Status      string         `json:"status"`
	Priority    string         `json:"priority"`
	Location    string         `json:"location"`
	Coordinates string         `json:"coordinates,omitempty"`
	Description string         `json:"description"`
	Assignee    string         `json:"assignee,omitempty"`
	CreatedBy   string         `json:"created_by,omitempty"`
	UserID      string         `json:"user_id,omitempty"`
	SubmittedBy string         `json:"submitted_by,omitempty"`
	User        *OwnerRef      `json:"user,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	Updates     []ReportUpdate `json:"updates,omitempty"`
	Embedding   []float32      `json:"-"`
}

// Owner returns the first populated ownership field, in the same probe
// order the scope filter uses. Empty when no field is set.
func (r *Report) Owner() string {
	switch {
	case r.CreatedBy != "":
		return r.CreatedBy
	case r.UserID != "":
		return r.UserID
	case r.SubmittedBy != "":
		return r.SubmittedBy
	case r.User != nil && r.User.UID != "":
		return r.User.UID
	case r.User != nil && r.User.ID != "":
		return r.User.ID
	}
	return ""
}

// OpenStatuses are the statuses considered "active" by the scorer.
var OpenStatuses = map[string]bool{
	StatusNew:        true,
	StatusPending:    true,
	StatusAssigned:   true,
	StatusInProgress: true,
}
