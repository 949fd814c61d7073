package screeninglog

import (
	"context"
	"sort"
	"sync"

	"watchlist/internal/screening/models"
	"watchlist/pkg/requestcontext"
)

// InMemoryStore keeps log entries in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	entries []models.LogEntry
}

// NewInMemoryStore creates an empty log store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append assigns an id and creation time and stores entry.
func (s *InMemoryStore) Append(ctx context.Context, entry models.LogEntry) (models.LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	entry.ID = s.nextID
	entry.CreatedAt = requestcontext.Now(ctx)
	if entry.ScreeningDate.IsZero() {
		entry.ScreeningDate = entry.CreatedAt
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

// List returns entries matching filter, newest screening date first.
func (s *InMemoryStore) List(_ context.Context, filter models.LogFilter) (*models.LogPage, error) {
	filter = Normalize(filter)

	s.mu.RLock()
	matched := make([]models.LogEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if matches(filter, e) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].ScreeningDate.Equal(matched[j].ScreeningDate) {
			return matched[i].ScreeningDate.After(matched[j].ScreeningDate)
		}
		return matched[i].ID > matched[j].ID
	})

	page := &models.LogPage{Items: []models.LogEntry{}, Total: len(matched), Limit: filter.Limit, Offset: filter.Offset}
	if from := skip(filter); from < len(matched) {
		page.Items = matched[from:min(len(matched), from+filter.Limit)]
	}
	return page, nil
}
