package ranking

import (
	"sort"

	"watchlist/internal/screening/models"
)

// DefaultPerSourceLimit is how many matches each source group carries.
const DefaultPerSourceLimit = 1

// BestBySource takes up to perSourceLimit of the already ranked candidates for
// every source in sources, padding with nil so each group's Data has exactly
// perSourceLimit entries. Groups are ordered by best confidence descending;
// groups without a match sort last and keep the order of sources among
// themselves.
func BestBySource(ranked []models.ScoredCandidate, sources []string, perSourceLimit int) []models.SourceGroup {
	if perSourceLimit < 1 {
		perSourceLimit = DefaultPerSourceLimit
	}

	groups := make([]models.SourceGroup, 0, len(sources))
	for _, src := range sources {
		data := make([]*models.ScoredCandidate, 0, perSourceLimit)
		for i := range ranked {
			if len(data) == perSourceLimit {
				break
			}
			if ranked[i].Subject.Source == src {
				c := ranked[i]
				data = append(data, &c)
			}
		}
		for len(data) < perSourceLimit {
			data = append(data, nil)
		}

		group := models.SourceGroup{Source: src, Data: data}
		if data[0] != nil {
			best := data[0].Confidence
			group.BestConfidence = &best
		}
		groups = append(groups, group)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].BestConfidence, groups[j].BestConfidence
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return groups
}
