package index

import (
	"context"
	"strings"

	"watchlist/internal/screening/match"
	"watchlist/internal/screening/models"
)

// SubjectLister exposes every stored subject. Implemented by the subject stores.
type SubjectLister interface {
	All(ctx context.Context) ([]models.Subject, error)
}

// Memory is an in-process index over a SubjectLister. A subject is a
// candidate when any query term is a prefix of any term in its searchable
// fields (name, aliases, address, remarks, other information).
type Memory struct {
	subjects SubjectLister
}

// NewMemory builds an in-memory index.
func NewMemory(subjects SubjectLister) *Memory {
	return &Memory{subjects: subjects}
}

func (m *Memory) Search(ctx context.Context, q Query) ([]models.Subject, error) {
	all, err := m.subjects.All(ctx)
	if err != nil {
		return nil, NewRetrievalError(ErrorUnavailable, "memory", "list subjects", err)
	}

	terms := strings.Fields(match.Normalize(q.Text))
	if len(terms) == 0 {
		return []models.Subject{}, nil
	}

	out := make([]models.Subject, 0, min(len(all), max(q.Limit, 0)))
	for _, s := range all {
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
		if !q.Filter.Matches(s) {
			continue
		}
		if matchesAnyTerm(searchableTerms(s), terms) {
			out = append(out, s)
		}
	}
	return out, nil
}

func searchableTerms(s models.Subject) []string {
	fields := append([]string{s.Name, s.Address, s.Remarks, s.OtherInformation}, s.Aliases...)
	return strings.Fields(match.Normalize(strings.Join(fields, " ")))
}

func matchesAnyTerm(docTerms, queryTerms []string) bool {
	for _, q := range queryTerms {
		for _, d := range docTerms {
			if strings.HasPrefix(d, q) {
				return true
			}
		}
	}
	return false
}
