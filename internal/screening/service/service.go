// Package service orchestrates a screening call: weight selection, candidate
// retrieval, scoring, threshold filtering, per-source aggregation and the
// screening log side effect.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"watchlist/internal/screening/index"
	"watchlist/internal/screening/metrics"
	"watchlist/internal/screening/models"
	"watchlist/internal/screening/ranking"
	"watchlist/internal/screening/weights"
	dErrors "watchlist/pkg/domain-errors"
	"watchlist/pkg/platform/sentinel"
	pstrings "watchlist/pkg/platform/strings"
	"watchlist/pkg/requestcontext"
)

const (
	// DefaultPageLimit is the page size of the ranked list when none is requested.
	DefaultPageLimit = 50
	// MaxPageLimit bounds a page; the candidate pool never exceeds it.
	MaxPageLimit = 500
)

const tracerName = "watchlist/internal/screening/service"

type SubjectStore interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	SetWhitelisted(ctx context.Context, id int64, whitelisted bool, reason string) (*models.Subject, error)
}

type LogStore interface {
	Append(ctx context.Context, entry models.LogEntry) (models.LogEntry, error)
	List(ctx context.Context, filter models.LogFilter) (*models.LogPage, error)
}

// LogRecorder receives one entry per screening. logsink.Fanout satisfies it.
type LogRecorder interface {
	Append(ctx context.Context, entry models.LogEntry) (models.LogEntry, error)
}

// CacheInvalidator drops cached candidate sets. index.Cached satisfies it.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service runs screenings against a candidate retriever.
type Service struct {
	retriever     index.Retriever
	subjects      SubjectStore
	logs          LogStore
	recorder      LogRecorder
	invalidator   CacheInvalidator
	selector      *weights.Selector
	scorer        *ranking.Scorer
	thresholdMode ranking.ThresholdMode
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithWeights replaces the default weight profiles.
func WithWeights(selector *weights.Selector) Option {
	return func(s *Service) {
		s.selector = selector
	}
}

func WithThresholdMode(mode ranking.ThresholdMode) Option {
	return func(s *Service) {
		s.thresholdMode = mode
	}
}

// WithLogRecorder sends screening log entries to recorder instead of the log store.
func WithLogRecorder(recorder LogRecorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

// WithCacheInvalidator clears cached candidates after whitelist changes.
func WithCacheInvalidator(invalidator CacheInvalidator) Option {
	return func(s *Service) {
		s.invalidator = invalidator
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(retriever index.Retriever, subjects SubjectStore, logs LogStore, opts ...Option) *Service {
	s := &Service{
		retriever:     retriever,
		subjects:      subjects,
		logs:          logs,
		selector:      weights.DefaultSelector(),
		scorer:        ranking.DefaultScorer(),
		thresholdMode: ranking.ThresholdCeiling,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.recorder == nil {
		s.recorder = logs
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer(tracerName)
	}
	return s
}

// Screen scores the candidates matching req and records one screening log entry.
func (s *Service) Screen(ctx context.Context, req models.ScreeningRequest) (*models.ScreeningResult, error) {
	start := time.Now()

	search := strings.TrimSpace(req.Search)
	if search == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "search is required")
	}
	limit := req.Limit
	if limit < 1 {
		limit = DefaultPageLimit
	}
	limit = min(limit, MaxPageLimit)
	offset := max(1, req.Offset)
	subjectType := req.SubjectType
	if subjectType == "" {
		subjectType = models.SubjectIndividual
	}

	ctx, span := s.tracer.Start(ctx, "screening.Screen", trace.WithAttributes(
		attribute.String("screening.subject_type", subjectType.String()),
		attribute.Float64("screening.confidence_rating", req.ConfidenceRating),
	))
	defer span.End()

	profile := s.selector.WeightsFor(subjectType)
	query := index.Query{
		Text: search,
		Filter: index.Filter{
			SubjectTypes:       index.TypeVocabulary(subjectType),
			Sources:            pstrings.DedupeAndTrimUpper(req.Sources),
			ExcludeWhitelisted: req.ExcludeWhitelisted,
		},
		Limit: index.CandidateLimit(limit),
	}

	candidates, err := s.retriever.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "candidate retrieval failed")
		return nil, s.retrievalFailure(ctx, err)
	}
	s.metrics.ObserveCandidates(len(candidates))

	ranked := s.scorer.Score(candidates, search, req.Attributes, profile)
	filtered := ranking.FilterByConfidence(ranked, req.ConfidenceRating, s.thresholdMode)

	result := &models.ScreeningResult{
		SearchedFor:         search,
		SubjectType:         profile.SubjectType(),
		ConfidenceThreshold: req.ConfidenceRating,
		TotalCandidates:     len(candidates),
		FilteredResults:     len(filtered),
		Page:                ranking.Page(filtered, limit, offset),
		BestBySource:        ranking.BestBySource(filtered, models.CanonicalSources, ranking.DefaultPerSourceLimit),
		IsMatch:             len(filtered) > 0,
	}
	span.SetAttributes(
		attribute.Int("screening.total_candidates", result.TotalCandidates),
		attribute.Int("screening.filtered_results", result.FilteredResults),
		attribute.Bool("screening.is_match", result.IsMatch),
	)

	s.recordScreening(ctx, models.LogEntry{
		UserID:        req.UserID,
		SearchString:  search,
		ScreeningType: profile.SubjectType().String(),
		IsMatch:       result.IsMatch,
		ScreeningDate: requestcontext.Now(ctx),
	})

	s.metrics.IncrementScreening(profile.SubjectType().String(), result.IsMatch)
	s.metrics.ObserveScreenLatency(time.Since(start))
	s.logger.InfoContext(ctx, "screening completed",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", req.UserID,
		"subject_type", profile.SubjectType(),
		"total_candidates", result.TotalCandidates,
		"filtered_results", result.FilteredResults,
		"is_match", result.IsMatch,
	)
	return result, nil
}

func (s *Service) retrievalFailure(ctx context.Context, err error) error {
	category := index.Category(err)
	s.metrics.IncrementRetrievalFailure(string(category))
	s.logger.ErrorContext(ctx, "candidate retrieval failed",
		"request_id", requestcontext.RequestID(ctx),
		"category", category,
		"retryable", index.IsRetryable(err),
		"error", err,
	)

	var re *index.RetrievalError
	if !errors.As(err, &re) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to retrieve screening candidates")
	}
	if re.Category == index.ErrorTimeout {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "screening index timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "screening index unavailable")
}

// recordScreening writes the screening log entry. A failed write is reported
// and never fails the screening.
func (s *Service) recordScreening(ctx context.Context, entry models.LogEntry) {
	if s.recorder == nil {
		return
	}
	if _, err := s.recorder.Append(ctx, entry); err != nil {
		s.metrics.IncrementLogWriteFailure()
		s.logger.ErrorContext(ctx, "failed to record screening log",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", entry.UserID,
			"screening_type", entry.ScreeningType,
			"is_match", entry.IsMatch,
			"error", err,
		)
	}
}

// Subject returns one watchlist subject.
func (s *Service) Subject(ctx context.Context, id int64) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Screening subject not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load screening subject")
	}
	return subject, nil
}

// SetWhitelisted marks or clears a subject's whitelist exception.
func (s *Service) SetWhitelisted(ctx context.Context, id int64, whitelisted bool, reason string) (*models.Subject, error) {
	reason = strings.TrimSpace(reason)
	if whitelisted && reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "whitelist reason is required")
	}
	subject, err := s.subjects.SetWhitelisted(ctx, id, whitelisted, reason)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Screening subject not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update whitelist")
	}
	if s.invalidator != nil {
		// The update stands; entries that survive expire with the cache TTL.
		if err := s.invalidator.Invalidate(ctx); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate candidate cache",
				"request_id", requestcontext.RequestID(ctx),
				"subject_id", id,
				"error", err,
			)
		}
	}
	s.logger.InfoContext(ctx, "subject whitelist updated",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", requestcontext.UserID(ctx),
		"subject_id", id,
		"whitelisted", whitelisted,
	)
	return subject, nil
}

// ListLogs returns a page of screening log entries.
func (s *Service) ListLogs(ctx context.Context, filter models.LogFilter) (*models.LogPage, error) {
	page, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list screening logs")
	}
	return page, nil
}

// RecordLog appends a screening log entry submitted directly by a caller.
func (s *Service) RecordLog(ctx context.Context, entry models.LogEntry) (*models.LogEntry, error) {
	entry.SearchString = strings.TrimSpace(entry.SearchString)
	if entry.SearchString == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "search_string is required")
	}
	entry.ScreeningType = strings.ToLower(strings.TrimSpace(entry.ScreeningType))
	if !models.SubjectType(entry.ScreeningType).Known() {
		return nil, dErrors.New(dErrors.CodeValidation, "screening_type must be one of individual, entity, vessel")
	}
	if entry.ScreeningDate.IsZero() {
		entry.ScreeningDate = requestcontext.Now(ctx)
	}
	stored, err := s.recorder.Append(ctx, entry)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record screening log")
	}
	return &stored, nil
}
