package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the interview voice service
type Metrics struct {
	// Session metrics
	ActiveSessions    prometheus.Gauge
	SessionsCreated   prometheus.Counter
	SessionsDestroyed prometheus.Counter
	SessionDuration   prometheus.Histogram

	// Recording metrics
	RecordingsStarted   prometheus.Counter
	RecordingsCompleted prometheus.Counter
	RecordingsAbandoned prometheus.Counter
	RecordingSize       prometheus.Histogram

	// Transcoding metrics
	TranscodesSucceeded prometheus.Counter
	TranscodesFailed    prometheus.Counter
	TranscodeDuration   prometheus.Histogram

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionDropped   prometheus.Counter
	TranscriptionDuration  prometheus.Histogram

	// Evaluation metrics
	EvaluationRequests  prometheus.Counter
	EvaluationSuccesses prometheus.Counter
	EvaluationFailures  prometheus.Counter
	EvaluationRejected  prometheus.Counter
	EvaluationDuration  prometheus.Histogram

	// Narration metrics
	NarrationsStarted   prometheus.Counter
	NarrationsCancelled prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Session metrics
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "interview_active_sessions",
			Help: "Current number of active practice sessions",
		}),
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_sessions_created_total",
			Help: "Total number of practice sessions created",
		}),
		SessionsDestroyed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_sessions_destroyed_total",
			Help: "Total number of practice sessions destroyed",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_session_duration_seconds",
			Help:    "Duration of practice sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(30, 2, 10), // 30s to ~4 hours
		}),

		// Recording metrics
		RecordingsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_recordings_started_total",
			Help: "Total number of voice recordings started",
		}),
		RecordingsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_recordings_completed_total",
			Help: "Total number of voice recordings completed",
		}),
		RecordingsAbandoned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_recordings_abandoned_total",
			Help: "Total number of voice recordings abandoned",
		}),
		RecordingSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_recording_size_bytes",
			Help:    "Size of completed voice recordings in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 12), // 1KB to ~4MB
		}),

		// Transcoding metrics
		TranscodesSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_transcodes_succeeded_total",
			Help: "Total number of recordings transcoded to WAV",
		}),
		TranscodesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_transcodes_failed_total",
			Help: "Total number of recordings that failed to decode",
		}),
		TranscodeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_transcode_duration_seconds",
			Help:    "Time spent decoding and re-encoding recordings",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10), // 1ms to ~1s
		}),

		// Transcription metrics
		TranscriptionRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_transcription_requests_total",
			Help: "Total number of transcription requests sent",
		}),
		TranscriptionSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_transcription_successes_total",
			Help: "Total number of successful transcription requests",
		}),
		TranscriptionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		TranscriptionDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_transcriptions_dropped_total",
			Help: "Total number of transcripts dropped because the answer was edited first",
		}),
		TranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_transcription_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),

		// Evaluation metrics
		EvaluationRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_evaluation_requests_total",
			Help: "Total number of bulk evaluation requests sent",
		}),
		EvaluationSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_evaluation_successes_total",
			Help: "Total number of successful evaluations",
		}),
		EvaluationFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_evaluation_failures_total",
			Help: "Total number of failed evaluations",
		}),
		EvaluationRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_evaluations_rejected_total",
			Help: "Total number of evaluations rejected for incomplete answers",
		}),
		EvaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "interview_evaluation_duration_seconds",
			Help:    "Duration of bulk evaluation requests",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~8 minutes
		}),

		// Narration metrics
		NarrationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_narrations_started_total",
			Help: "Total number of question narrations started",
		}),
		NarrationsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "interview_narrations_cancelled_total",
			Help: "Total number of question narrations cancelled before completion",
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "interview_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "interview_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// SetActiveSessions sets the current number of active sessions
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordSessionCreated increments the sessions created counter
func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreated.Inc()
}

// RecordSessionDestroyed increments the sessions destroyed counter and records duration
func (m *Metrics) RecordSessionDestroyed(durationSeconds float64) {
	m.SessionsDestroyed.Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordRecordingStarted increments the recordings started counter
func (m *Metrics) RecordRecordingStarted() {
	m.RecordingsStarted.Inc()
}

// RecordRecordingCompleted increments the recordings completed counter
func (m *Metrics) RecordRecordingCompleted() {
	m.RecordingsCompleted.Inc()
}

// RecordRecordingSize observes the compressed size of a finished recording
func (m *Metrics) RecordRecordingSize(sizeBytes int) {
	m.RecordingSize.Observe(float64(sizeBytes))
}

// RecordRecordingAbandoned increments the recordings abandoned counter
func (m *Metrics) RecordRecordingAbandoned() {
	m.RecordingsAbandoned.Inc()
}

// RecordTranscode records the outcome of a decode/re-encode pass
func (m *Metrics) RecordTranscode(ok bool, durationSeconds float64) {
	if ok {
		m.TranscodesSucceeded.Inc()
	} else {
		m.TranscodesFailed.Inc()
	}
	m.TranscodeDuration.Observe(durationSeconds)
}

// RecordTranscriptionRequest increments transcription requests counter
func (m *Metrics) RecordTranscriptionRequest() {
	m.TranscriptionRequests.Inc()
}

// RecordTranscriptionSuccess records a successful transcription
func (m *Metrics) RecordTranscriptionSuccess(durationSeconds float64) {
	m.TranscriptionSuccesses.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionFailure records a failed transcription
func (m *Metrics) RecordTranscriptionFailure(durationSeconds float64) {
	m.TranscriptionFailures.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionDropped increments the stale-transcript counter
func (m *Metrics) RecordTranscriptionDropped() {
	m.TranscriptionDropped.Inc()
}

// RecordEvaluationRequest increments evaluation requests counter
func (m *Metrics) RecordEvaluationRequest() {
	m.EvaluationRequests.Inc()
}

// RecordEvaluationSuccess records a successful evaluation
func (m *Metrics) RecordEvaluationSuccess(durationSeconds float64) {
	m.EvaluationSuccesses.Inc()
	m.EvaluationDuration.Observe(durationSeconds)
}

// RecordEvaluationFailure records a failed evaluation
func (m *Metrics) RecordEvaluationFailure(durationSeconds float64) {
	m.EvaluationFailures.Inc()
	m.EvaluationDuration.Observe(durationSeconds)
}

// RecordEvaluationRejected increments the incomplete-answers counter
func (m *Metrics) RecordEvaluationRejected() {
	m.EvaluationRejected.Inc()
}

// RecordNarrationStarted increments the narrations started counter
func (m *Metrics) RecordNarrationStarted() {
	m.NarrationsStarted.Inc()
}

// RecordNarrationCancelled increments the narrations cancelled counter
func (m *Metrics) RecordNarrationCancelled() {
	m.NarrationsCancelled.Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
