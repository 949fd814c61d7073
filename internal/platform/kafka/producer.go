// Package kafka wraps a franz-go client for publishing screening events.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Config holds producer settings.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
	// Linger batches records for up to this long before sending.
	Linger time.Duration
}

// Producer publishes records to a single default topic.
type Producer struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewProducer connects to the configured brokers. The connection is lazy;
// call Ping to verify reachability.
func NewProducer(cfg Config, logger *slog.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "watchlist"
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordRetries(5),
	}
	if cfg.Linger > 0 {
		opts = append(opts, kgo.ProducerLinger(cfg.Linger))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	return &Producer{client: client, topic: cfg.Topic, logger: logger}, nil
}

// Topic returns the default topic records are produced to.
func (p *Producer) Topic() string {
	return p.topic
}

// Publish synchronously produces one record and waits for broker acknowledgement.
func (p *Producer) Publish(ctx context.Context, key, value []byte, headers map[string]string) error {
	record := &kgo.Record{Topic: p.topic, Key: key, Value: value}
	for k, v := range headers {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("kafka: produce to %s: %w", p.topic, err)
	}
	return nil
}

// EnsureTopic creates the default topic if it does not exist yet.
func (p *Producer) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(p.client)
	responses, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, p.topic)
	if err != nil {
		return fmt.Errorf("kafka: create topic %s: %w", p.topic, err)
	}
	for _, resp := range responses {
		if resp.Err == nil {
			p.logger.InfoContext(ctx, "kafka topic created", "topic", resp.Topic, "partitions", partitions)
			continue
		}
		if errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			continue
		}
		return fmt.Errorf("kafka: create topic %s: %w", resp.Topic, resp.Err)
	}
	return nil
}

// Ping checks that at least one broker is reachable.
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes buffered records and releases the client.
func (p *Producer) Close() {
	p.client.Close()
}
