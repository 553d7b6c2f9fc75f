package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhishek-singh110/InterviewGenie/internal/audio"
	"github.com/abhishek-singh110/InterviewGenie/internal/config"
	"github.com/abhishek-singh110/InterviewGenie/internal/evaluation"
	"github.com/abhishek-singh110/InterviewGenie/internal/metrics"
	"github.com/abhishek-singh110/InterviewGenie/internal/server"
	"github.com/abhishek-singh110/InterviewGenie/internal/session"
	"github.com/abhishek-singh110/InterviewGenie/internal/transcription"
	"github.com/abhishek-singh110/InterviewGenie/internal/tts"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "interview-voice-service"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load .env before the config so API keys can come from the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Failed to load .env file: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		slog.String("capture_codec", cfg.Audio.Codec),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("channels", cfg.Audio.Channels),
		slog.Duration("session_timeout", cfg.Session.GetTimeoutDuration()),
		slog.String("transcription_endpoint", cfg.Transcription.Endpoint),
		slog.String("evaluation_endpoint", cfg.Evaluation.Endpoint),
		slog.String("tts_endpoint", cfg.TTS.Endpoint),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize external service clients
	transcriber, err := transcription.NewClient(transcription.Config{
		Endpoint:      cfg.Transcription.Endpoint,
		APIKey:        cfg.Transcription.APIKey,
		Timeout:       cfg.Transcription.GetTimeoutDuration(),
		MaxRetries:    cfg.Transcription.MaxRetries,
		MaxConcurrent: cfg.Transcription.MaxConcurrent,
	})
	if err != nil {
		logger.Error("Failed to create transcription client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	evaluator, err := evaluation.NewClient(evaluation.Config{
		Endpoint:      cfg.Evaluation.Endpoint,
		APIKey:        cfg.Evaluation.APIKey,
		Timeout:       cfg.Evaluation.GetTimeoutDuration(),
		MaxRetries:    cfg.Evaluation.MaxRetries,
		MaxConcurrent: cfg.Evaluation.MaxConcurrent,
	})
	if err != nil {
		logger.Error("Failed to create evaluation client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	synthesizer, err := tts.NewClient(tts.Config{
		Endpoint: cfg.TTS.Endpoint,
		APIKey:   cfg.TTS.APIKey,
		Voice:    cfg.TTS.Voice,
		Timeout:  cfg.TTS.GetTimeoutDuration(),
	}, logger)
	if err != nil {
		logger.Error("Failed to create speech synthesis client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize session manager
	sessionMgr := session.NewManager(logger, cfg.Session.GetTimeoutDuration(), session.Deps{
		Transcriber: transcriber,
		Evaluator:   evaluator,
		Synthesizer: synthesizer,
		CaptureFormat: audio.CaptureFormat{
			Codec:      audio.Codec(cfg.Audio.Codec),
			SampleRate: cfg.Audio.SampleRate,
			Channels:   cfg.Audio.Channels,
		},
		Logger: logger,
		OnTranscode: func(ok bool, duration time.Duration) {
			appMetrics.RecordTranscode(ok, duration.Seconds())
		},
	})
	logger.Info("Session manager initialized",
		slog.Duration("session_timeout", cfg.Session.GetTimeoutDuration()),
	)

	// Initialize and start the HTTP API server
	httpServer := server.NewHTTPServer(cfg.HTTP, logger, cfg, sessionMgr, transcriber, evaluator, appMetrics)
	if err := httpServer.Start(); err != nil {
		logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Service started successfully, waiting for signals...",
		slog.String("http_address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down")
	}

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	// Stop session manager (tear down sessions and stop background routines)
	sessionMgr.Stop()

	// Close external clients, waiting for in-flight requests
	if err := transcriber.Close(); err != nil {
		logger.Error("Error closing transcription client", slog.String("error", err.Error()))
	}
	if err := evaluator.Close(); err != nil {
		logger.Error("Error closing evaluation client", slog.String("error", err.Error()))
	}

	// Get final statistics
	transcriptionStats := transcriber.GetStats()
	evaluationStats := evaluator.GetStats()
	logger.Info("Final service statistics",
		slog.Uint64("transcription_requests", transcriptionStats.TotalRequests),
		slog.Float64("transcription_success_rate", transcriptionStats.SuccessRate),
		slog.Uint64("evaluation_requests", evaluationStats.TotalRequests),
		slog.Float64("evaluation_success_rate", evaluationStats.SuccessRate),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
