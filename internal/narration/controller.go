package narration

import (
	"context"
	"log/slog"
	"sync"
)

// State represents the narration playback state.
type State string

const (
	StateIdle     State = "idle"
	StateSpeaking State = "speaking"
)

// Synthesizer produces and plays one utterance. Speak blocks until playback
// finishes naturally or ctx is cancelled.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Controller owns at most one active utterance at a time.
type Controller struct {
	synth  Synthesizer
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	text       string
	generation uint64
	cancel     context.CancelFunc
}

// NewController creates a narration controller around a synthesizer.
func NewController(synth Synthesizer, logger *slog.Logger) *Controller {
	return &Controller{
		synth:  synth,
		logger: logger,
		state:  StateIdle,
	}
}

// Toggle starts speaking text if idle, or cancels the current utterance if
// one is playing (for any question). A cancelled utterance fires no
// completion transition.
func (c *Controller) Toggle(text string) State {
	c.mu.Lock()

	if c.state == StateSpeaking {
		c.cancelLocked()
		c.mu.Unlock()
		return StateIdle
	}

	if text == "" {
		c.mu.Unlock()
		return StateIdle
	}

	c.generation++
	gen := c.generation

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.state = StateSpeaking
	c.text = text
	c.mu.Unlock()

	go func() {
		err := c.synth.Speak(ctx, text)
		cancel()

		c.mu.Lock()
		defer c.mu.Unlock()

		// A newer utterance or an explicit stop already owns the state.
		if c.generation != gen || c.state != StateSpeaking {
			return
		}

		c.state = StateIdle
		c.text = ""
		c.cancel = nil

		if err != nil && err != context.Canceled {
			c.logger.Warn("Narration playback failed", slog.String("error", err.Error()))
		}
	}()

	return StateSpeaking
}

// Stop synchronously cancels any active utterance. The state transition to
// idle is observable before Stop returns, so navigation can rely on the
// previous question's narration being halted.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSpeaking {
		c.cancelLocked()
	}
}

// State returns the current narration state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Text returns the text of the active utterance, or "" when idle.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// cancelLocked cancels the active utterance. Bumping the generation first
// guarantees the utterance goroutine cannot fire a completion transition
// for the cancelled playback.
func (c *Controller) cancelLocked() {
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = StateIdle
	c.text = ""
}
