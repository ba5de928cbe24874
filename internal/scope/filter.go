// Package scope restricts report lookups to the requesting user.
//
// Ownership field names drifted over the source system's life, so the
// filter probes a fixed list of historical field names in order and
// takes the first field that yields any match. Matches are never
// merged across fields: a loosely-typed fallback that unioned fields
// could leak another user's records when two users collide on a
// secondary field.
package scope

import (
	"log"

	"civic-assist/internal/models"
	"civic-assist/internal/vocab"
)

// canonicalOwnerField is the only field new submissions write. The
// remaining probe fields are a migration shim for drifted records.
const canonicalOwnerField = "created_by"

// ownerFields is the fixed probe order.
var ownerFields = []string{
	canonicalOwnerField,
	"user_id",
	"submitted_by",
	"user.uid",
	"user.id",
}

// ReportSource is the slice of the report store the filter needs.
type ReportSource interface {
	ReportsByOwnerField(field, value string) ([]models.Report, error)
}

// Filter resolves which reports belong to a user and detects
// inventory-style queries.
type Filter struct {
	source ReportSource
	vocab  *vocab.Vocabulary
}

// NewFilter creates a user-scope filter over the given source.
func NewFilter(source ReportSource, v *vocab.Vocabulary) *Filter {
	return &Filter{source: source, vocab: v}
}

// UserReports returns all reports owned by the user: the first
// ownership field with at least one match wins, later fields are not
// consulted. No match across all fields yields an empty set, not an
// error.
func (f *Filter) UserReports(userID string) ([]models.Report, error) {
	if userID == "" {
		return nil, nil
	}

	for _, field := range ownerFields {
		reports, err := f.source.ReportsByOwnerField(field, userID)
		if err != nil {
			return nil, err
		}
		if len(reports) == 0 {
			continue
		}
		if field != canonicalOwnerField {
			// Migration shim hit. Records matched under a legacy field
			// name should be normalized to created_by at write time.
			log.Printf("Warning: user %s matched %d report(s) via legacy ownership field %q", userID, len(reports), field)
		}
		return reports, nil
	}

	return nil, nil
}

// HasStatusIntent reports whether the query asks about the user's
// report inventory (status, counts, latest) rather than report
// content.
func (f *Filter) HasStatusIntent(query string) bool {
	return f.vocab.HasStatusIntent(query)
}

// ScopedReports returns the user's reports for a query. The boolean is
// true when the query has inventory intent, in which case the full set
// is returned (newest first, as the source orders it) and callers must
// skip keyword scoring.
func (f *Filter) ScopedReports(query, userID string) ([]models.Report, bool, error) {
	reports, err := f.UserReports(userID)
	if err != nil {
		return nil, false, err
	}
	return reports, f.HasStatusIntent(query), nil
}
