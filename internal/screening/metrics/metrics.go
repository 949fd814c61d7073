package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the screening module.
type Metrics struct {
	// Screenings by subject type and match outcome
	Screenings *prometheus.CounterVec

	// Full screening latency including retrieval and log write
	ScreenLatency prometheus.Histogram

	// Size of the candidate pool returned by the retriever
	CandidatesRetrieved prometheus.Histogram

	RetrievalFailures *prometheus.CounterVec
	LogWriteFailures  prometheus.Counter

	// Requests answered with an error, by endpoint and error code
	RequestErrors *prometheus.CounterVec

	CacheHits            prometheus.Counter
	CacheMisses          prometheus.Counter
	CacheErrors          *prometheus.CounterVec
	CircuitBreakerChange *prometheus.CounterVec
	CircuitBreakerState  *prometheus.GaugeVec
}

// New creates a new Metrics instance with all screening metrics registered.
func New() *Metrics {
	return &Metrics{
		Screenings: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlist_screenings_total",
			Help: "Total screenings by subject type and match outcome",
		}, []string{"subject_type", "match"}),

		ScreenLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "watchlist_screening_duration_seconds",
			Help:    "Duration of a full screening request",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		CandidatesRetrieved: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "watchlist_screening_candidates",
			Help:    "Number of candidates retrieved per screening",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		}),

		RetrievalFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlist_retrieval_failures_total",
			Help: "Candidate retrieval failures by category",
		}, []string{"category"}),

		LogWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_screening_log_failures_total",
			Help: "Screening log writes that failed",
		}),

		RequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlist_request_errors_total",
			Help: "Screening API requests answered with an error, by endpoint and error code",
		}, []string{"endpoint", "code"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_candidate_cache_hits_total",
			Help: "Candidate cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "watchlist_candidate_cache_misses_total",
			Help: "Candidate cache misses",
		}),
		CacheErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlist_candidate_cache_errors_total",
			Help: "Candidate cache errors by operation",
		}, []string{"op"}), // op: "get", "set", "decode"

		CircuitBreakerChange: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "watchlist_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		}, []string{"name", "state"}),
		CircuitBreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "watchlist_circuit_breaker_open",
			Help: "Current circuit breaker state (0=closed, 1=open)",
		}, []string{"name"}),
	}
}

// IncrementScreening records a completed screening.
func (m *Metrics) IncrementScreening(subjectType string, matched bool) {
	if m != nil {
		m.Screenings.WithLabelValues(subjectType, strconv.FormatBool(matched)).Inc()
	}
}

// ObserveScreenLatency records the total screening duration.
func (m *Metrics) ObserveScreenLatency(d time.Duration) {
	if m != nil {
		m.ScreenLatency.Observe(d.Seconds())
	}
}

// ObserveCandidates records the candidate pool size.
func (m *Metrics) ObserveCandidates(n int) {
	if m != nil {
		m.CandidatesRetrieved.Observe(float64(n))
	}
}

func (m *Metrics) IncrementRetrievalFailure(category string) {
	if m != nil {
		m.RetrievalFailures.WithLabelValues(category).Inc()
	}
}

func (m *Metrics) IncrementLogWriteFailure() {
	if m != nil {
		m.LogWriteFailures.Inc()
	}
}

// IncrementRequestError records a request answered with an error.
func (m *Metrics) IncrementRequestError(endpoint, code string) {
	if m != nil {
		m.RequestErrors.WithLabelValues(endpoint, code).Inc()
	}
}

func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) RecordCacheError(op string) {
	if m != nil {
		m.CacheErrors.WithLabelValues(op).Inc()
	}
}

// RecordCircuitChange records a breaker transition and its current state.
func (m *Metrics) RecordCircuitChange(name string, open bool) {
	if m == nil {
		return
	}
	state, gauge := "closed", 0.0
	if open {
		state, gauge = "open", 1.0
	}
	m.CircuitBreakerChange.WithLabelValues(name, state).Inc()
	m.CircuitBreakerState.WithLabelValues(name).Set(gauge)
}
