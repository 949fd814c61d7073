package subject

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"watchlist/internal/screening/models"
	"watchlist/pkg/platform/sentinel"
	"watchlist/pkg/requestcontext"
)

type recordKey struct {
	source   string
	recordID string
}

// InMemoryStore is a concurrency-safe subject store for development and tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byID   map[int64]models.Subject
	byKey  map[recordKey]int64
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:  make(map[int64]models.Subject),
		byKey: make(map[recordKey]int64),
	}
}

// Upsert inserts s or updates the stored record with the same
// (source, source_record_id). Records whose hash is unchanged are left
// untouched and reported with changed=false. Whitelist state is never
// overwritten by an upsert.
func (s *InMemoryStore) Upsert(ctx context.Context, subject models.Subject) (models.Subject, bool, error) {
	if err := validate(subject); err != nil {
		return models.Subject{}, false, err
	}
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{source: subject.Source, recordID: subject.SourceRecordID}
	if id, ok := s.byKey[key]; ok {
		existing := s.byID[id]
		if subject.RecordHash != "" && existing.RecordHash == subject.RecordHash {
			return cloneSubject(existing), false, nil
		}
		subject.ID = id
		subject.CreatedAt = existing.CreatedAt
		subject.UpdatedAt = now
		subject.IsWhitelisted = existing.IsWhitelisted
		subject.WhitelistedAt = existing.WhitelistedAt
		subject.WhitelistReason = existing.WhitelistReason
		s.byID[id] = cloneSubject(subject)
		return cloneSubject(subject), true, nil
	}

	s.nextID++
	subject.ID = s.nextID
	subject.CreatedAt = now
	subject.UpdatedAt = now
	s.byID[subject.ID] = cloneSubject(subject)
	s.byKey[key] = subject.ID
	return cloneSubject(subject), true, nil
}

// FindByID returns the subject or sentinel.ErrNotFound.
func (s *InMemoryStore) FindByID(_ context.Context, id int64) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subject, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("subject %d: %w", id, sentinel.ErrNotFound)
	}
	c := cloneSubject(subject)
	return &c, nil
}

// SetWhitelisted marks or clears the whitelist exception on a subject.
func (s *InMemoryStore) SetWhitelisted(ctx context.Context, id int64, whitelisted bool, reason string) (*models.Subject, error) {
	now := requestcontext.Now(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	subject, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("subject %d: %w", id, sentinel.ErrNotFound)
	}
	applyWhitelist(&subject, whitelisted, reason, now)
	s.byID[id] = subject
	c := cloneSubject(subject)
	return &c, nil
}

// All returns every subject ordered by id.
func (s *InMemoryStore) All(_ context.Context) ([]models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Subject, 0, len(s.byID))
	for _, subject := range s.byID {
		out = append(out, cloneSubject(subject))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func applyWhitelist(subject *models.Subject, whitelisted bool, reason string, now time.Time) {
	subject.IsWhitelisted = whitelisted
	subject.UpdatedAt = now
	if whitelisted {
		at := now
		subject.WhitelistedAt = &at
		subject.WhitelistReason = reason
		return
	}
	subject.WhitelistedAt = nil
	subject.WhitelistReason = ""
}

func cloneSubject(s models.Subject) models.Subject {
	if s.Aliases != nil {
		s.Aliases = append([]string(nil), s.Aliases...)
	}
	return s
}
