package subject

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"watchlist/internal/screening/models"
)

// Upserter is the write side shared by both store implementations.
type Upserter interface {
	Upsert(ctx context.Context, subject models.Subject) (models.Subject, bool, error)
}

// LoadFixture upserts a JSON array of already normalized subjects and
// returns how many records changed.
func LoadFixture(ctx context.Context, store Upserter, r io.Reader) (int, error) {
	var subjects []models.Subject
	if err := json.NewDecoder(r).Decode(&subjects); err != nil {
		return 0, fmt.Errorf("decode subjects fixture: %w", err)
	}

	changed := 0
	for i, s := range subjects {
		_, ok, err := store.Upsert(ctx, s)
		if err != nil {
			return changed, fmt.Errorf("fixture record %d: %w", i, err)
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// LoadFixtureFile is LoadFixture over the file at path.
func LoadFixtureFile(ctx context.Context, store Upserter, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open subjects fixture: %w", err)
	}
	defer f.Close()
	return LoadFixture(ctx, store, f)
}
