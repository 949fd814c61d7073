//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"watchlist/internal/platform/kafka"
	"watchlist/internal/screening/logsink"
	"watchlist/internal/screening/models"
	"watchlist/pkg/requestcontext"
	"watchlist/pkg/testutil/containers"
)

const topic = "watchlist.screenings.test"

type ProducerSuite struct {
	suite.Suite
	broker   *containers.RedpandaContainer
	producer *kafka.Producer
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.broker = mgr.GetRedpanda(s.T())

	producer, err := kafka.NewProducer(kafka.Config{Brokers: []string{s.broker.Broker}, Topic: topic}, nil)
	s.Require().NoError(err)
	s.producer = producer

	ctx := context.Background()
	s.Require().NoError(s.producer.Ping(ctx))
	s.Require().NoError(s.producer.EnsureTopic(ctx, 1, 1))
	// Second call hits TopicAlreadyExists and is not an error.
	s.Require().NoError(s.producer.EnsureTopic(ctx, 1, 1))
}

func (s *ProducerSuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *ProducerSuite) TestScreeningEventRoundTrip() {
	ctx := requestcontext.WithRequestID(context.Background(), "req-9")
	sink := logsink.NewKafka(s.producer)

	date := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	_, err := sink.Append(ctx, models.LogEntry{
		ID:            7,
		UserID:        "analyst-1",
		SearchString:  "Ivan Petrov",
		ScreeningType: "individual",
		IsMatch:       true,
		ScreeningDate: date,
	})
	s.Require().NoError(err)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	pollCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	fetches := consumer.PollRecords(pollCtx, 1)
	s.Require().NoError(fetches.Err())
	records := fetches.Records()
	s.Require().Len(records, 1)

	record := records[0]
	s.Equal("analyst-1", string(record.Key))

	headers := map[string]string{}
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	s.Equal("screening.performed", headers["event_type"])
	s.Equal("req-9", headers["request_id"])
	s.NotEmpty(headers["event_id"])

	var event logsink.Event
	s.Require().NoError(json.Unmarshal(record.Value, &event))
	s.Equal(int64(7), event.ID)
	s.Equal("Ivan Petrov", event.SearchString)
	s.True(event.IsMatch)
	s.True(event.ScreeningDate.Equal(date))
}
