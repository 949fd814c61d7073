// Package ranking scores retrieved candidates, orders them, and builds the
// per-source best match view.
package ranking

import (
	"math"
	"sort"

	"watchlist/internal/screening/match"
	"watchlist/internal/screening/models"
	"watchlist/internal/screening/weights"
)

// unlistedPriority ranks sources missing from the priority list after every listed one.
const unlistedPriority = 999

// Comparator scores one query attribute against one candidate attribute.
type Comparator func(query, candidate string, weight float64) float64

// Scorer applies the field comparators with a weight profile.
type Scorer struct {
	priority map[string]int
}

// NewScorer builds a scorer whose ties are broken by the order of sources.
func NewScorer(sources []string) *Scorer {
	priority := make(map[string]int, len(sources))
	for i, s := range sources {
		if _, ok := priority[s]; !ok {
			priority[s] = i
		}
	}
	return &Scorer{priority: priority}
}

// DefaultScorer breaks ties by models.CanonicalSources.
func DefaultScorer() *Scorer {
	return NewScorer(models.CanonicalSources)
}

// Priority returns the tie-break rank of source; lower sorts first.
func (s *Scorer) Priority(source string) int {
	if p, ok := s.priority[source]; ok {
		return p
	}
	return unlistedPriority
}

// ScoreOne computes the breakdown and confidence of a single candidate.
// Breakdown values and the confidence are rounded to two decimals; the
// confidence is rounded from the unrounded sum.
func (s *Scorer) ScoreOne(subject models.Subject, query string, attrs models.Attributes, profile weights.Profile) models.ScoredCandidate {
	raw := map[string]float64{
		models.FieldName:    match.Name(query, subject.Name, profile.Weight(models.FieldName)),
		models.FieldDOB:     match.DOB(attrs.BirthDate, subject.DOB, profile.Weight(models.FieldDOB)),
		models.FieldCountry: match.Country(attrs.Nationality, subject.Nationality, profile.Weight(models.FieldCountry)),
		models.FieldGender:  match.Gender(attrs.Gender, subject.Gender, profile.Weight(models.FieldGender)),
		models.FieldAddress: match.Address(attrs.Address, subject.Address, profile.Weight(models.FieldAddress)),
		models.FieldIMO:     match.IMO(attrs.IMO, subject.OtherInformation, profile.Weight(models.FieldIMO)),
	}

	total := 0.0
	breakdown := make(models.Breakdown, len(raw))
	for _, field := range models.Fields {
		total += raw[field]
		breakdown[field] = Round2(raw[field])
	}

	return models.ScoredCandidate{
		Subject:    subject,
		Breakdown:  breakdown,
		Confidence: Round2(total),
	}
}

// Score scores every candidate and returns them ranked: confidence
// descending, then source priority, then subject id for a total order.
func (s *Scorer) Score(candidates []models.Subject, query string, attrs models.Attributes, profile weights.Profile) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, s.ScoreOne(c, query, attrs, profile))
	}
	s.Sort(scored)
	return scored
}

// Sort orders candidates in place by the ranking rules used by Score.
func (s *Scorer) Sort(scored []models.ScoredCandidate) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		pa, pb := s.Priority(a.Subject.Source), s.Priority(b.Subject.Source)
		if pa != pb {
			return pa < pb
		}
		return a.Subject.ID < b.Subject.ID
	})
}

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
