package narration

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

// fakeSynth records Speak calls and blocks until cancelled or released.
type fakeSynth struct {
	mu        sync.Mutex
	spoken    []string
	cancelled int
	completed int
	release   chan struct{}
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{release: make(chan struct{})}
}

func (f *fakeSynth) Speak(ctx context.Context, text string) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		f.mu.Lock()
		f.cancelled++
		f.mu.Unlock()
		return ctx.Err()
	case <-f.release:
		f.mu.Lock()
		f.completed++
		f.mu.Unlock()
		return nil
	}
}

func (f *fakeSynth) spokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.spoken))
	copy(out, f.spoken)
	return out
}

func narrationLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestToggleStartsSpeaking(t *testing.T) {
	synth := newFakeSynth()
	ctrl := NewController(synth, narrationLogger())

	state := ctrl.Toggle("What is a goroutine?")
	if state != StateSpeaking {
		t.Errorf("Expected speaking state, got %q", state)
	}

	if ctrl.State() != StateSpeaking {
		t.Errorf("Expected controller to report speaking, got %q", ctrl.State())
	}

	if ctrl.Text() != "What is a goroutine?" {
		t.Errorf("Unexpected utterance text: %q", ctrl.Text())
	}
}

func TestToggleWhileSpeakingCancels(t *testing.T) {
	synth := newFakeSynth()
	ctrl := NewController(synth, narrationLogger())

	ctrl.Toggle("question one")

	// The utterance runs in its own goroutine; wait for it to reach the
	// synthesizer so the second toggle actually cancels an in-flight Speak.
	deadline := time.After(time.Second)
	for len(synth.spokenTexts()) == 0 {
		select {
		case <-deadline:
			t.Fatal("Utterance never reached the synthesizer")
		case <-time.After(5 * time.Millisecond):
		}
	}

	state := ctrl.Toggle("question one")

	if state != StateIdle {
		t.Errorf("Expected idle after cancel toggle, got %q", state)
	}

	if ctrl.State() != StateIdle {
		t.Errorf("Expected controller idle, got %q", ctrl.State())
	}

	// Only the first utterance was ever started.
	texts := synth.spokenTexts()
	if len(texts) != 1 {
		t.Errorf("Expected 1 utterance, got %d", len(texts))
	}
}

func TestStopIsSynchronous(t *testing.T) {
	synth := newFakeSynth()
	ctrl := NewController(synth, narrationLogger())

	ctrl.Toggle("question zero")
	ctrl.Stop()

	// The idle transition must be observable immediately after Stop,
	// before the utterance goroutine has a chance to run.
	if ctrl.State() != StateIdle {
		t.Errorf("Expected idle immediately after Stop, got %q", ctrl.State())
	}
}

func TestStopThenToggleNewQuestion(t *testing.T) {
	synth := newFakeSynth()
	ctrl := NewController(synth, narrationLogger())

	ctrl.Toggle("question zero")
	ctrl.Stop()
	ctrl.Toggle("question one")

	if ctrl.Text() != "question one" {
		t.Errorf("Expected new utterance text, got %q", ctrl.Text())
	}

	deadline := time.After(time.Second)
	for {
		texts := synth.spokenTexts()
		if len(texts) == 2 {
			if texts[0] != "question zero" || texts[1] != "question one" {
				t.Errorf("Unexpected utterance order: %v", texts)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatalf("Timed out waiting for utterances, got %v", texts)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNaturalCompletionGoesIdle(t *testing.T) {
	synth := newFakeSynth()
	ctrl := NewController(synth, narrationLogger())

	ctrl.Toggle("short question")
	close(synth.release)

	deadline := time.After(time.Second)
	for ctrl.State() != StateIdle {
		select {
		case <-deadline:
			t.Fatal("Controller never returned to idle after natural completion")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestToggleEmptyTextStaysIdle(t *testing.T) {
	synth := newFakeSynth()
	ctrl := NewController(synth, narrationLogger())

	if state := ctrl.Toggle(""); state != StateIdle {
		t.Errorf("Expected idle for empty text, got %q", state)
	}

	if len(synth.spokenTexts()) != 0 {
		t.Error("No utterance should start for empty text")
	}
}
