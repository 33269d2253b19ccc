package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Relay session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voice_relay_active_sessions",
		Help: "Number of active relay sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_sessions_total",
		Help: "Total number of relay sessions handled",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_relay_session_duration_seconds",
		Help:    "Duration of relay sessions in seconds",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	// Turn-taking metrics
	bargeIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voice_relay_barge_ins_total",
		Help: "Total number of caller interruptions that canceled an in-flight response",
	})

	droppedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_dropped_frames_total",
		Help: "Total audio frames dropped instead of forwarded",
	}, []string{"reason"}) // reason: "no_stream_sid", "bad_payload"

	// Tool call metrics
	toolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_tool_calls_total",
		Help: "Total number of model tool calls serviced",
	}, []string{"status"})

	// Retrieval metrics
	searchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_search_requests_total",
		Help: "Total number of retrieval backend requests",
	}, []string{"status"})

	searchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voice_relay_search_latency_seconds",
		Help:    "Retrieval backend latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "voice_relay_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})

	// Audio metrics
	audioBytesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voice_relay_audio_bytes_total",
		Help: "Total audio bytes relayed",
	}, []string{"direction"}) // direction: "in" or "out"
)

// Metrics tracks metrics for a single relay session
type Metrics struct {
	sessionID       string
	startTime       time.Time
	searchStartTime time.Time
	mu              sync.Mutex
}

// NewSessionMetrics creates a new metrics tracker for a relay session
func NewSessionMetrics(sessionID string) *Metrics {
	return &Metrics{
		sessionID: sessionID,
		startTime: time.Now(),
	}
}

// RecordSessionStart records the start of a relay session
func (m *Metrics) RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a relay session
func (m *Metrics) RecordSessionEnd() {
	activeSessions.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordBargeIn records a caller interruption of an in-flight response
func (m *Metrics) RecordBargeIn() {
	bargeIns.Inc()
}

// RecordDroppedFrame records an audio frame dropped instead of forwarded
func (m *Metrics) RecordDroppedFrame(reason string) {
	droppedFrames.WithLabelValues(reason).Inc()
}

// RecordToolCall records a serviced model tool call
func (m *Metrics) RecordToolCall(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	toolCalls.WithLabelValues(status).Inc()
}

// RecordSearchStart records the start of a retrieval backend request
func (m *Metrics) RecordSearchStart() {
	m.mu.Lock()
	m.searchStartTime = time.Now()
	m.mu.Unlock()
}

// RecordSearchEnd records the end of a retrieval backend request
func (m *Metrics) RecordSearchEnd(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.searchStartTime.IsZero() {
		searchLatency.Observe(time.Since(m.searchStartTime).Seconds())
	}

	status := "success"
	if !success {
		status = "error"
	}
	searchRequests.WithLabelValues(status).Inc()
}

// RecordError records an error
func (m *Metrics) RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordAudioBytes records audio bytes relayed in the given direction
func (m *Metrics) RecordAudioBytes(direction string, bytes int64) {
	audioBytesRelayed.WithLabelValues(direction).Add(float64(bytes))
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
