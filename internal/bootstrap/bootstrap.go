// Package bootstrap builds the screening stack from configuration. The HTTP
// server and the operator CLI share it so both see the same stores.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"watchlist/internal/platform/config"
	"watchlist/internal/platform/kafka"
	"watchlist/internal/platform/postgres"
	"watchlist/internal/platform/redis"
	"watchlist/internal/screening/index"
	"watchlist/internal/screening/logsink"
	"watchlist/internal/screening/metrics"
	"watchlist/internal/screening/models"
	"watchlist/internal/screening/ranking"
	"watchlist/internal/screening/service"
	"watchlist/internal/screening/store/screeninglog"
	"watchlist/internal/screening/store/subject"
	"watchlist/internal/screening/weights"
)

// SubjectStore is the full subject store surface used by the stack.
type SubjectStore interface {
	subject.Upserter
	index.SubjectLister
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	SetWhitelisted(ctx context.Context, id int64, whitelisted bool, reason string) (*models.Subject, error)
}

// Stack is the assembled screening service plus the handles it owns.
type Stack struct {
	Service  *service.Service
	Subjects SubjectStore
	Logs     service.LogStore
	DB       *sql.DB
	Redis    *redis.Client
	Producer *kafka.Producer

	closers []func()
}

// Options tunes Build for the caller.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// SkipKafka leaves the event sink out even when brokers are configured.
	SkipKafka bool
}

// Build wires storage, retrieval, cache and event sink from cfg. Optional
// backends are skipped when unconfigured: no DATABASE_URL selects the
// in-memory stores, no REDIS_URL disables the cache, no KAFKA_BROKERS
// disables event publishing.
func Build(ctx context.Context, cfg config.Server, opts Options) (*Stack, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	selector, err := weights.LoadFile(cfg.Screening.WeightsFile)
	if err != nil {
		return nil, err
	}
	mode, err := ranking.ParseThresholdMode(cfg.Screening.ThresholdMode)
	if err != nil {
		return nil, err
	}

	stack := &Stack{}
	var retriever index.Retriever

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		stack.DB = db
		stack.closers = append(stack.closers, func() { _ = db.Close() })
		if cfg.AutoMigrate {
			if err := postgres.MigrateUp(ctx, db); err != nil {
				stack.Close()
				return nil, err
			}
		}
		stack.Subjects = subject.NewPostgres(db)
		stack.Logs = screeninglog.NewPostgres(db)
		retriever = index.NewPostgres(db)
		logger.InfoContext(ctx, "using postgres stores")
	} else {
		subjects := subject.NewInMemoryStore()
		stack.Subjects = subjects
		stack.Logs = screeninglog.NewInMemoryStore()
		retriever = index.NewMemory(subjects)
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
	}

	if cfg.Screening.SubjectsFixture != "" {
		n, err := subject.LoadFixtureFile(ctx, stack.Subjects, cfg.Screening.SubjectsFixture)
		if err != nil {
			stack.Close()
			return nil, err
		}
		logger.InfoContext(ctx, "loaded subjects fixture",
			"path", cfg.Screening.SubjectsFixture,
			"changed", n,
		)
	}

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		stack.Close()
		return nil, err
	}
	var invalidator service.CacheInvalidator
	if rdb != nil {
		stack.Redis = rdb
		stack.closers = append(stack.closers, func() { _ = rdb.Close() })
		cached := index.NewCached(retriever, rdb.Client, cfg.Redis.CacheTTL, logger,
			index.WithCacheMetrics(opts.Metrics))
		retriever, invalidator = cached, cached
		logger.InfoContext(ctx, "candidate cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	var recorder service.LogRecorder = stack.Logs
	if len(cfg.Kafka.Brokers) > 0 && !opts.SkipKafka {
		producer, err := kafka.NewProducer(kafka.Config{
			Brokers:  cfg.Kafka.Brokers,
			Topic:    cfg.Kafka.Topic,
			ClientID: "watchlist",
		}, logger)
		if err != nil {
			stack.Close()
			return nil, err
		}
		stack.Producer = producer
		stack.closers = append(stack.closers, producer.Close)
		if err := producer.EnsureTopic(ctx, 3, 1); err != nil {
			logger.WarnContext(ctx, "ensure screening topic failed",
				"topic", cfg.Kafka.Topic,
				"error", err,
			)
		}
		recorder = logsink.NewFanout(logger, stack.Logs, logsink.NewKafka(producer))
		logger.InfoContext(ctx, "publishing screening events", "topic", cfg.Kafka.Topic)
	}

	stack.Service = service.New(retriever, stack.Subjects, stack.Logs,
		service.WithLogger(logger),
		service.WithMetrics(opts.Metrics),
		service.WithWeights(selector),
		service.WithThresholdMode(mode),
		service.WithLogRecorder(recorder),
		service.WithCacheInvalidator(invalidator),
	)
	return stack, nil
}

// Close releases every handle in reverse order of acquisition.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenDB opens Postgres without building the rest of the stack.
func OpenDB(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL is required for this command")
	}
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
