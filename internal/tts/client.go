package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/abhishek-singh110/InterviewGenie/internal/audio"
)

// ErrFailed indicates the synthesis service returned a non-success status
// or audio that could not be parsed.
var ErrFailed = errors.New("speech synthesis failed")

// Client is an HTTP client for a text-to-speech service that returns WAV
// audio for a JSON {"text": ...} request.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

// Config contains speech synthesis client configuration
type Config struct {
	Endpoint string
	APIKey   string
	Voice    string
	Timeout  time.Duration
}

type synthesisRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

// NewClient creates a new speech synthesis client
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint cannot be empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}, nil
}

// Synthesize requests WAV audio for the given text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(synthesisRequest{Text: text, Voice: c.config.Voice})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP error %d: %s", ErrFailed, resp.StatusCode, string(body))
	}

	if err := audio.ValidateWAV(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailed, err)
	}

	return body, nil
}

// Speak synthesizes the text and blocks for the audio's duration,
// returning early with the context error if cancelled. Implements
// narration.Synthesizer.
func (c *Client) Speak(ctx context.Context, text string) error {
	wav, err := c.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	seconds, err := audio.GetWAVDuration(wav)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFailed, err)
	}

	c.logger.Debug("Narration playback started",
		slog.Float64("duration_seconds", seconds),
		slog.Int("text_length", len(text)),
	)

	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
