// Package logsink delivers screening log entries to the primary store and to
// best-effort secondary sinks.
package logsink

import (
	"context"
	"log/slog"

	"watchlist/internal/screening/models"
)

// Sink accepts appended screening log entries.
type Sink interface {
	Append(ctx context.Context, entry models.LogEntry) (models.LogEntry, error)
}

// Fanout writes to a primary sink and then forwards the stored entry to
// secondaries. Only the primary's error is returned.
type Fanout struct {
	primary     Sink
	secondaries []Sink
	logger      *slog.Logger
}

// NewFanout creates a fanout over primary and optional secondaries.
func NewFanout(logger *slog.Logger, primary Sink, secondaries ...Sink) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{primary: primary, secondaries: secondaries, logger: logger}
}

// Append stores entry in the primary sink, then publishes it to every secondary.
func (f *Fanout) Append(ctx context.Context, entry models.LogEntry) (models.LogEntry, error) {
	stored, err := f.primary.Append(ctx, entry)
	if err != nil {
		return models.LogEntry{}, err
	}
	for _, s := range f.secondaries {
		if _, err := s.Append(ctx, stored); err != nil {
			f.logger.WarnContext(ctx, "secondary screening log sink failed",
				"log_id", stored.ID,
				"user_id", stored.UserID,
				"error", err,
			)
		}
	}
	return stored, nil
}
