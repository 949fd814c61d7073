package logsink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"watchlist/internal/screening/models"
	"watchlist/pkg/requestcontext"
)

const eventType = "screening.performed"

// Publisher produces a single keyed record.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers map[string]string) error
}

// Event is the JSON payload published for each screening log entry.
type Event struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	SearchString  string    `json:"search_string"`
	ScreeningType string    `json:"screening_type"`
	IsMatch       bool      `json:"is_match"`
	ScreeningDate time.Time `json:"screening_date"`
}

// Kafka publishes log entries keyed by user id so a user's screenings stay ordered.
type Kafka struct {
	publisher Publisher
	newID     func() string
}

// NewKafka creates a sink over publisher.
func NewKafka(publisher Publisher) *Kafka {
	return &Kafka{publisher: publisher, newID: uuid.NewString}
}

// Append publishes entry and returns it unchanged.
func (k *Kafka) Append(ctx context.Context, entry models.LogEntry) (models.LogEntry, error) {
	payload, err := json.Marshal(Event{
		ID:            entry.ID,
		UserID:        entry.UserID,
		SearchString:  entry.SearchString,
		ScreeningType: entry.ScreeningType,
		IsMatch:       entry.IsMatch,
		ScreeningDate: entry.ScreeningDate.UTC(),
	})
	if err != nil {
		return models.LogEntry{}, fmt.Errorf("marshal screening event: %w", err)
	}

	headers := map[string]string{
		"event_id":   k.newID(),
		"event_type": eventType,
	}
	if rid := requestcontext.RequestID(ctx); rid != "" {
		headers["request_id"] = rid
	}
	if err := k.publisher.Publish(ctx, []byte(entry.UserID), payload, headers); err != nil {
		return models.LogEntry{}, err
	}
	return entry, nil
}
