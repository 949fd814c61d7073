// Package index retrieves screening candidates from a full-text backend.
//
// A Retriever returns an unordered candidate set; relevance order from the
// backend carries no meaning for ranking.
package index

import (
	"context"

	"watchlist/internal/screening/models"
)

const (
	minCandidates        = 100
	maxCandidates        = 500
	candidatesPerPageRow = 10
)

// Filter holds the hard constraints ANDed onto a search.
type Filter struct {
	// SubjectTypes are raw source vocabulary values; empty means any type.
	SubjectTypes []string
	// Sources is an allow-list of source codes; empty means every source.
	Sources            []string
	ExcludeWhitelisted bool
}

// Query is one bounded candidate search.
type Query struct {
	Text   string
	Filter Filter
	Limit  int
}

// Retriever is the full-text search capability the screening service depends on.
type Retriever interface {
	Search(ctx context.Context, q Query) ([]models.Subject, error)
}

var typeVocabulary = map[models.SubjectType][]string{
	models.SubjectIndividual: {"Individual", "Person", "individual", "person"},
	models.SubjectEntity:     {"Entity", "Organization", "Enterprise"},
	models.SubjectVessel:     {"Ship", "Vessel", "Enterprise", "enterprise", "ship", "vessel"},
}

// TypeVocabulary returns the stored subject_type values that belong to a
// screening bucket, or nil for an unknown bucket (no type filter).
func TypeVocabulary(t models.SubjectType) []string {
	values, ok := typeVocabulary[t]
	if !ok {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// CandidateLimit sizes the candidate pool from the requested page size:
// ten candidates per result row, clamped to [100, 500].
func CandidateLimit(pageSize int) int {
	if pageSize >= maxCandidates/candidatesPerPageRow {
		return maxCandidates
	}
	return min(maxCandidates, max(minCandidates, pageSize*candidatesPerPageRow))
}

// Matches reports whether subject passes the hard filters.
func (f Filter) Matches(s models.Subject) bool {
	if f.ExcludeWhitelisted && s.IsWhitelisted {
		return false
	}
	if len(f.SubjectTypes) > 0 && !contains(f.SubjectTypes, s.SubjectType) {
		return false
	}
	if len(f.Sources) > 0 && !contains(f.Sources, s.Source) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
