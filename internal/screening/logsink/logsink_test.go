package logsink

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlist/internal/screening/models"
	"watchlist/internal/screening/store/screeninglog"
	"watchlist/pkg/requestcontext"
)

type failingSink struct{ calls int }

func (f *failingSink) Append(context.Context, models.LogEntry) (models.LogEntry, error) {
	f.calls++
	return models.LogEntry{}, errors.New("sink down")
}

type recordingSink struct{ entries []models.LogEntry }

func (r *recordingSink) Append(_ context.Context, entry models.LogEntry) (models.LogEntry, error) {
	r.entries = append(r.entries, entry)
	return entry, nil
}

type published struct {
	key     string
	value   []byte
	headers map[string]string
}

type fakePublisher struct {
	records []published
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, key, value []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, published{key: string(key), value: value, headers: headers})
	return nil
}

func TestFanout(t *testing.T) {
	ctx := context.Background()
	entry := models.LogEntry{UserID: "u1", SearchString: "Ivan", ScreeningType: "individual"}

	t.Run("secondaries receive the stored entry", func(t *testing.T) {
		primary := screeninglog.NewInMemoryStore()
		secondary := &recordingSink{}
		fanout := NewFanout(nil, primary, secondary)

		stored, err := fanout.Append(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.ID)
		require.Len(t, secondary.entries, 1)
		assert.Equal(t, stored, secondary.entries[0])
	})

	t.Run("secondary failure is swallowed", func(t *testing.T) {
		bad := &failingSink{}
		good := &recordingSink{}
		fanout := NewFanout(nil, screeninglog.NewInMemoryStore(), bad, good)

		_, err := fanout.Append(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, 1, bad.calls)
		assert.Len(t, good.entries, 1)
	})

	t.Run("primary failure is returned and secondaries skipped", func(t *testing.T) {
		secondary := &recordingSink{}
		fanout := NewFanout(nil, &failingSink{}, secondary)

		_, err := fanout.Append(ctx, entry)
		require.Error(t, err)
		assert.Empty(t, secondary.entries)
	})
}

func TestKafka_Append(t *testing.T) {
	date := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := models.LogEntry{
		ID:            7,
		UserID:        "user-42",
		SearchString:  "Ocean Star",
		ScreeningType: "vessel",
		IsMatch:       true,
		ScreeningDate: date,
	}

	t.Run("publishes keyed JSON event", func(t *testing.T) {
		pub := &fakePublisher{}
		sink := NewKafka(pub)
		sink.newID = func() string { return "evt-1" }
		ctx := requestcontext.WithRequestID(context.Background(), "req-9")

		got, err := sink.Append(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, entry, got)

		require.Len(t, pub.records, 1)
		rec := pub.records[0]
		assert.Equal(t, "user-42", rec.key)
		assert.Equal(t, "evt-1", rec.headers["event_id"])
		assert.Equal(t, "screening.performed", rec.headers["event_type"])
		assert.Equal(t, "req-9", rec.headers["request_id"])

		var event Event
		require.NoError(t, json.Unmarshal(rec.value, &event))
		assert.Equal(t, int64(7), event.ID)
		assert.Equal(t, "vessel", event.ScreeningType)
		assert.True(t, event.IsMatch)
		assert.True(t, date.Equal(event.ScreeningDate))
	})

	t.Run("publish error is returned", func(t *testing.T) {
		sink := NewKafka(&fakePublisher{err: errors.New("broker unavailable")})
		_, err := sink.Append(context.Background(), entry)
		require.Error(t, err)
	})
}
