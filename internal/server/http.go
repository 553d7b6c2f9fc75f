package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/abhishek-singh110/InterviewGenie/internal/audio"
	"github.com/abhishek-singh110/InterviewGenie/internal/config"
	"github.com/abhishek-singh110/InterviewGenie/internal/evaluation"
	"github.com/abhishek-singh110/InterviewGenie/internal/metrics"
	"github.com/abhishek-singh110/InterviewGenie/internal/narration"
	"github.com/abhishek-singh110/InterviewGenie/internal/questions"
	"github.com/abhishek-singh110/InterviewGenie/internal/session"
	"github.com/abhishek-singh110/InterviewGenie/internal/transcription"
)

// maxVoiceUpload bounds multipart voice uploads.
const maxVoiceUpload = 16 << 20

// HTTPServer provides the HTTP API for sessions, practice operations and
// monitoring.
type HTTPServer struct {
	server      *http.Server
	logger      *slog.Logger
	config      *config.Config
	sessionMgr  *session.Manager
	transcriber *transcription.Client
	evaluator   *evaluation.Client
	metrics     *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server
func NewHTTPServer(cfg config.HTTPConfig, logger *slog.Logger, appConfig *config.Config,
	sessionMgr *session.Manager, transcriber *transcription.Client,
	evaluator *evaluation.Client, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:      logger,
		config:      appConfig,
		sessionMgr:  sessionMgr,
		transcriber: transcriber,
		evaluator:   evaluator,
		metrics:     m,
		startTime:   time.Now(),
	}

	// Create HTTP server with routes
	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	// Session collection and per-session operations
	mux.HandleFunc("/sessions", h.withMetrics("/sessions", h.handleSessions))
	mux.HandleFunc("/sessions/", h.withMetrics("/sessions/{id}", h.handleSessionDetail))

	// Question generation
	mux.HandleFunc("/questions/generate", h.withMetrics("/questions/generate", h.handleGenerateQuestions))

	// Health check endpoint
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Configuration endpoint
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))

	// Statistics endpoint
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	mux.Handle("/metrics", promhttp.Handler())

	// Root endpoint with API documentation
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		// Create a response writer wrapper to capture status code
		ww := &responseWriter{ResponseWriter: w, statusCode: 200}

		// Call the original handler
		handler(ww, r)

		// Record metrics
		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)

		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)

		// Record error if status code indicates an error
		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

// writeJSON writes a JSON response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps a domain error onto an HTTP status code.
func (h *HTTPServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, session.ErrIncompleteAnswers),
		errors.Is(err, audio.ErrAlreadyRecording),
		errors.Is(err, audio.ErrNoActiveRecording):
		status = http.StatusConflict
	case errors.Is(err, session.ErrQuestionIndex):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, audio.ErrDecode):
		status = http.StatusBadRequest
	case errors.Is(err, audio.ErrDeviceUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, transcription.ErrFailed), errors.Is(err, evaluation.ErrFailed):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// handleSessions implements POST /sessions and GET /sessions.
func (h *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		infos := h.sessionMgr.GetAllSessions()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"total_sessions": len(infos),
			"timestamp":      time.Now().UTC(),
			"sessions":       infos,
		})

	case http.MethodPost:
		var req struct {
			Questions      []string `json:"questions"`
			JobDescription string   `json:"jd"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}

		qs := req.Questions
		if len(qs) == 0 && req.JobDescription != "" {
			qs = questions.GenerateQuestions(questions.ParseJobDescription(req.JobDescription))
		}
		if len(qs) == 0 {
			http.Error(w, "questions or jd required", http.StatusBadRequest)
			return
		}
		if max := h.config.Session.MaxQuestions; len(qs) > max {
			http.Error(w, fmt.Sprintf("at most %d questions allowed", max), http.StatusBadRequest)
			return
		}

		s, err := h.sessionMgr.CreateSession(qs)
		if err != nil {
			h.writeError(w, err)
			return
		}

		h.metrics.RecordSessionCreated()
		h.metrics.SetActiveSessions(h.sessionMgr.GetActiveSessionCount())

		writeJSON(w, http.StatusCreated, s.Snapshot())

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSessionDetail routes /sessions/{id} and /sessions/{id}/{action}.
func (h *HTTPServer) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	id, subpath, _ := strings.Cut(rest, "/")
	if id == "" {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}

	// Capture endpoints carry a sub-action (capture/start, capture/chunk,
	// ...); every other action is a single segment.
	action, _, nested := strings.Cut(subpath, "/")
	if nested && action != "capture" {
		http.NotFound(w, r)
		return
	}

	s, exists := h.sessionMgr.GetSession(id)
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, s.Snapshot())
		case http.MethodDelete:
			start := s.StartTime
			h.sessionMgr.RemoveSession(id)
			h.metrics.RecordSessionDestroyed(time.Since(start).Seconds())
			h.metrics.SetActiveSessions(h.sessionMgr.GetActiveSessionCount())
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case "answer":
		h.handleAnswer(w, r, s)
	case "voice":
		h.handleVoice(w, r, s)
	case "navigate":
		h.handleNavigate(w, r, s)
	case "narrate":
		h.handleNarrate(w, r, s)
	case "evaluate":
		h.handleEvaluate(w, r, s)
	case "capture":
		h.handleCapture(w, r, s, rest)
	default:
		http.NotFound(w, r)
	}
}

// handleAnswer implements POST /sessions/{id}/answer.
func (h *HTTPServer) handleAnswer(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Index  *int   `json:"index"`
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	index := s.Current()
	if req.Index != nil {
		index = *req.Index
	}

	if err := s.SetAnswer(index, req.Answer); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.Snapshot())
}

// handleVoice implements POST /sessions/{id}/voice: a complete compressed
// recording uploaded in one request.
func (h *HTTPServer) handleVoice(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxVoiceUpload); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "audio file required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxVoiceUpload))
	if err != nil {
		http.Error(w, "Failed to read audio", http.StatusBadRequest)
		return
	}

	index := s.Current()
	if v := r.FormValue("index"); v != "" {
		index, err = strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid index", http.StatusBadRequest)
			return
		}
	}

	blob := audio.Blob{
		Data:       data,
		Format:     audio.FormatCompressed,
		Codec:      audio.Codec(h.config.Audio.Codec),
		SampleRate: h.config.Audio.SampleRate,
		Channels:   h.config.Audio.Channels,
	}

	start := time.Now()
	h.metrics.RecordTranscriptionRequest()

	transcript, installed, err := s.SubmitVoice(r.Context(), index, blob)
	if err != nil {
		h.metrics.RecordTranscriptionFailure(time.Since(start).Seconds())
		h.writeError(w, err)
		return
	}

	h.metrics.RecordTranscriptionSuccess(time.Since(start).Seconds())
	h.metrics.RecordRecordingCompleted()
	h.metrics.RecordRecordingSize(len(data))
	if !installed {
		h.metrics.RecordTranscriptionDropped()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"transcript": transcript,
		"installed":  installed,
	})
}

// handleNavigate implements POST /sessions/{id}/navigate.
func (h *HTTPServer) handleNavigate(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	current := s.Navigate(req.Delta)

	writeJSON(w, http.StatusOK, map[string]interface{}{"current": current})
}

// handleNarrate implements POST /sessions/{id}/narrate.
func (h *HTTPServer) handleNarrate(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	state := s.Narrate()
	if state == narration.StateSpeaking {
		h.metrics.RecordNarrationStarted()
	} else {
		h.metrics.RecordNarrationCancelled()
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"narration": state})
}

// handleEvaluate implements POST /sessions/{id}/evaluate.
func (h *HTTPServer) handleEvaluate(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	h.metrics.RecordEvaluationRequest()

	feedback, err := s.EvaluateAll(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrIncompleteAnswers) {
			h.metrics.RecordEvaluationRejected()
		} else {
			h.metrics.RecordEvaluationFailure(time.Since(start).Seconds())
		}
		h.writeError(w, err)
		return
	}

	h.metrics.RecordEvaluationSuccess(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session_id":  s.ID,
		"evaluations": feedback,
	})
}

// handleCapture implements the chunked recording endpoints:
// POST /sessions/{id}/capture/start, /chunk, /stop and /abandon.
func (h *HTTPServer) handleCapture(w http.ResponseWriter, r *http.Request, s *session.Session, rest string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		http.NotFound(w, r)
		return
	}

	switch parts[2] {
	case "start":
		if err := s.StartRecording(r.Context()); err != nil {
			h.writeError(w, err)
			return
		}
		h.metrics.RecordRecordingStarted()
		writeJSON(w, http.StatusOK, map[string]string{"recording": "started"})

	case "chunk":
		data, err := io.ReadAll(io.LimitReader(r.Body, maxVoiceUpload))
		if err != nil || len(data) == 0 {
			http.Error(w, "Chunk body required", http.StatusBadRequest)
			return
		}
		if err := s.PushAudio(data); err != nil {
			h.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)

	case "stop":
		start := time.Now()
		transcript, installed, err := s.StopRecording(r.Context())
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.metrics.RecordRecordingCompleted()
		h.metrics.RecordTranscriptionSuccess(time.Since(start).Seconds())
		if !installed {
			h.metrics.RecordTranscriptionDropped()
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"transcript": transcript,
			"installed":  installed,
		})

	case "abandon":
		if err := s.AbandonRecording(); err != nil {
			h.writeError(w, err)
			return
		}
		h.metrics.RecordRecordingAbandoned()
		writeJSON(w, http.StatusOK, map[string]string{"recording": "abandoned"})

	default:
		http.NotFound(w, r)
	}
}

// handleGenerateQuestions implements POST /questions/generate.
func (h *HTTPServer) handleGenerateQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		JobDescription string `json:"jd"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		http.Error(w, "jd required", http.StatusBadRequest)
		return
	}

	profile := questions.ParseJobDescription(req.JobDescription)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"skills":    profile.Skills,
		"keywords":  profile.Keywords,
		"questions": questions.GenerateQuestions(profile),
	})
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)
	transcriptionStats := h.transcriber.GetStats()
	evaluationStats := h.evaluator.GetStats()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    uptime.String(),
		"service": map[string]interface{}{
			"name":    "interview-voice-service",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"session_manager": map[string]interface{}{
				"status":          "running",
				"active_sessions": h.sessionMgr.GetActiveSessionCount(),
			},
			"transcription": map[string]interface{}{
				"status":          "running",
				"total_requests":  transcriptionStats.TotalRequests,
				"success_rate":    transcriptionStats.SuccessRate,
				"active_requests": transcriptionStats.ActiveRequests,
			},
			"evaluation": map[string]interface{}{
				"status":          "running",
				"total_requests":  evaluationStats.TotalRequests,
				"success_rate":    evaluationStats.SuccessRate,
				"active_requests": evaluationStats.ActiveRequests,
			},
		},
	}

	writeJSON(w, http.StatusOK, health)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Return sanitized configuration (remove sensitive data)
	sanitizedConfig := map[string]interface{}{
		"http": map[string]interface{}{
			"port":    h.config.HTTP.Port,
			"address": h.config.HTTP.Address,
		},
		"audio": map[string]interface{}{
			"codec":       h.config.Audio.Codec,
			"sample_rate": h.config.Audio.SampleRate,
			"channels":    h.config.Audio.Channels,
		},
		"session": map[string]interface{}{
			"timeout":       h.config.Session.Timeout,
			"max_questions": h.config.Session.MaxQuestions,
		},
		"transcription": map[string]interface{}{
			"endpoint":       h.config.Transcription.Endpoint,
			"timeout":        h.config.Transcription.Timeout,
			"max_retries":    h.config.Transcription.MaxRetries,
			"max_concurrent": h.config.Transcription.MaxConcurrent,
			// Note: API key is intentionally omitted for security
		},
		"evaluation": map[string]interface{}{
			"endpoint":       h.config.Evaluation.Endpoint,
			"timeout":        h.config.Evaluation.Timeout,
			"max_retries":    h.config.Evaluation.MaxRetries,
			"max_concurrent": h.config.Evaluation.MaxConcurrent,
		},
		"tts": map[string]interface{}{
			"endpoint": h.config.TTS.Endpoint,
			"voice":    h.config.TTS.Voice,
			"timeout":  h.config.TTS.Timeout,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	writeJSON(w, http.StatusOK, sanitizedConfig)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(h.startTime)

	stats := map[string]interface{}{
		"uptime":        uptime.String(),
		"timestamp":     time.Now().UTC(),
		"sessions":      h.sessionMgr.GetStats(),
		"transcription": h.transcriber.GetStats(),
		"evaluation":    h.evaluator.GetStats(),
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Interview Voice Service",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":                               "API documentation",
			"POST /sessions":                      "Create a practice session",
			"GET /sessions":                       "List all active sessions",
			"GET /sessions/{id}":                  "Get session state",
			"DELETE /sessions/{id}":               "Tear down a session",
			"POST /sessions/{id}/answer":          "Set a typed answer",
			"POST /sessions/{id}/voice":           "Submit a recorded voice answer",
			"POST /sessions/{id}/navigate":        "Move between questions",
			"POST /sessions/{id}/narrate":         "Toggle question narration",
			"POST /sessions/{id}/evaluate":        "Evaluate all answers",
			"POST /sessions/{id}/capture/start":   "Start a chunked recording",
			"POST /sessions/{id}/capture/chunk":   "Push a recording chunk",
			"POST /sessions/{id}/capture/stop":    "Finish recording and transcribe",
			"POST /sessions/{id}/capture/abandon": "Discard the active recording",
			"POST /questions/generate":            "Generate questions from a job description",
			"GET /health":                         "Service health check",
			"GET /config":                         "Get service configuration",
			"GET /stats":                          "Get service statistics",
			"GET /metrics":                        "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, apiDoc)
}
