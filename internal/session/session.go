package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/abhishek-singh110/InterviewGenie/internal/audio"
	"github.com/abhishek-singh110/InterviewGenie/internal/evaluation"
	"github.com/abhishek-singh110/InterviewGenie/internal/narration"
)

// ErrIncompleteAnswers indicates bulk evaluation was requested while some
// answer is still blank, a transcription is still in flight, or another
// evaluation is already running.
var ErrIncompleteAnswers = errors.New("incomplete answers")

// ErrQuestionIndex indicates an out-of-range question index.
var ErrQuestionIndex = errors.New("question index out of range")

// CaptureMode records how an answer was produced.
type CaptureMode string

const (
	ModeText  CaptureMode = "text"
	ModeVoice CaptureMode = "voice"
)

// Transcriber converts a WAV blob into text.
type Transcriber interface {
	Transcribe(ctx context.Context, sessionID string, blob audio.Blob) (string, error)
}

// Evaluator scores a full set of question/answer pairs.
type Evaluator interface {
	Evaluate(ctx context.Context, sessionID string, pairs []evaluation.QAPair) ([]evaluation.Feedback, error)
}

// Session is one interview practice session. The question list is fixed at
// creation; answers, modes and feedback evolve in lockstep with it.
type Session struct {
	ID        string
	StartTime time.Time

	questions []string
	answers   []string
	modes     []CaptureMode
	feedback  []evaluation.Feedback // nil until a bulk evaluation lands

	current    int
	editStamps []uint64 // bumped on every answer write, guards stale installs
	pending    int      // in-flight voice transcriptions
	evaluating bool

	device    *audio.PushDevice
	capture   *audio.CaptureSource
	recording *audio.RecordingSession
	narrator  *narration.Controller

	transcriber Transcriber
	evaluator   Evaluator
	onTranscode func(ok bool, duration time.Duration)

	lastActivity time.Time
	logger       *slog.Logger
	mu           sync.Mutex
}

// SessionInfo is an immutable snapshot of a session for monitoring and API
// responses.
type SessionInfo struct {
	ID                    string                `json:"id"`
	Questions             []string              `json:"questions"`
	Answers               []string              `json:"answers"`
	Modes                 []CaptureMode         `json:"modes"`
	Feedback              []evaluation.Feedback `json:"feedback,omitempty"`
	Current               int                   `json:"current"`
	Narration             narration.State       `json:"narration"`
	Recording             bool                  `json:"recording"`
	PendingTranscriptions int                   `json:"pending_transcriptions"`
	Evaluating            bool                  `json:"evaluating"`
	StartTime             time.Time             `json:"start_time"`
	LastActivity          time.Time             `json:"last_activity"`
}

// Deps carries the collaborators a session needs.
type Deps struct {
	Transcriber   Transcriber
	Evaluator     Evaluator
	Synthesizer   narration.Synthesizer
	CaptureFormat audio.CaptureFormat
	Logger        *slog.Logger

	// OnTranscode, if set, observes every compressed-to-WAV conversion.
	OnTranscode func(ok bool, duration time.Duration)
}

// NewSession creates a session over the given question list.
func NewSession(id string, questions []string, deps Deps) (*Session, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("session needs at least one question")
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	device := audio.NewPushDevice(0)
	now := time.Now()

	s := &Session{
		ID:           id,
		StartTime:    now,
		questions:    append([]string(nil), questions...),
		answers:      make([]string, len(questions)),
		modes:        make([]CaptureMode, len(questions)),
		editStamps:   make([]uint64, len(questions)),
		device:       device,
		capture:      audio.NewCaptureSource(device, deps.CaptureFormat, logger),
		narrator:     narration.NewController(deps.Synthesizer, logger),
		transcriber:  deps.Transcriber,
		evaluator:    deps.Evaluator,
		onTranscode:  deps.OnTranscode,
		lastActivity: now,
		logger:       logger,
	}

	for i := range s.modes {
		s.modes[i] = ModeText
	}

	return s, nil
}

// SetAnswer replaces the answer at index i with manually entered text. Any
// previous feedback for the whole session is invalidated: a changed answer
// makes the other scores unreliable too, since the evaluator sees the full
// set at once.
func (s *Session) SetAnswer(i int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.questions) {
		return fmt.Errorf("%w: %d", ErrQuestionIndex, i)
	}

	s.answers[i] = text
	s.modes[i] = ModeText
	s.editStamps[i]++
	s.feedback = nil
	s.lastActivity = time.Now()

	return nil
}

// SubmitVoice transcodes a compressed recording, transcribes it and installs
// the transcript as the answer at index i. If the answer was edited while
// the transcription was in flight the result is dropped; installed reports
// whether the transcript landed. Failures leave the answer untouched.
func (s *Session) SubmitVoice(ctx context.Context, i int, blob audio.Blob) (transcript string, installed bool, err error) {
	s.mu.Lock()
	if i < 0 || i >= len(s.questions) {
		s.mu.Unlock()
		return "", false, fmt.Errorf("%w: %d", ErrQuestionIndex, i)
	}
	stamp := s.editStamps[i]
	s.pending++
	s.lastActivity = time.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}()

	start := time.Now()
	wav, err := audio.Transcode(ctx, blob)
	if s.onTranscode != nil {
		s.onTranscode(err == nil, time.Since(start))
	}
	if err != nil {
		return "", false, fmt.Errorf("transcoding recording: %w", err)
	}

	transcript, err = s.transcriber.Transcribe(ctx, s.ID, wav)
	if err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editStamps[i] != stamp {
		s.logger.Debug("Dropping stale transcription result",
			slog.String("session_id", s.ID),
			slog.Int("question", i),
		)
		return transcript, false, nil
	}

	s.answers[i] = transcript
	s.modes[i] = ModeVoice
	s.editStamps[i]++
	s.feedback = nil
	s.lastActivity = time.Now()

	return transcript, true, nil
}

// Navigate moves the current question index by delta, clamped to the
// question list. Narration of the previous question is halted before the
// index changes, so a caller observing the new index never hears the old
// question still being read.
func (s *Session) Navigate(delta int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.narrator.Stop()

	next := s.current + delta
	if next < 0 {
		next = 0
	}
	if next >= len(s.questions) {
		next = len(s.questions) - 1
	}
	s.current = next
	s.lastActivity = time.Now()

	return s.current
}

// Current returns the current question index.
func (s *Session) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Narrate toggles narration of the current question and returns the
// resulting narration state.
func (s *Session) Narrate() narration.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = time.Now()
	return s.narrator.Toggle(s.questions[s.current])
}

// EvaluateAll submits every answer for evaluation in one call. It fails
// with ErrIncompleteAnswers unless every answer is non-blank, no voice
// transcription is pending and no other evaluation is running. The payload
// is snapshotted atomically; feedback is installed all at once, and only if
// no answer changed while the evaluator was working.
func (s *Session) EvaluateAll(ctx context.Context) ([]evaluation.Feedback, error) {
	s.mu.Lock()

	if s.evaluating {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: evaluation already in progress", ErrIncompleteAnswers)
	}
	if s.pending > 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %d transcriptions still pending", ErrIncompleteAnswers, s.pending)
	}
	for i, answer := range s.answers {
		if strings.TrimSpace(answer) == "" {
			s.mu.Unlock()
			return nil, fmt.Errorf("%w: question %d has no answer", ErrIncompleteAnswers, i)
		}
	}

	pairs := make([]evaluation.QAPair, len(s.questions))
	stamps := make([]uint64, len(s.editStamps))
	for i := range s.questions {
		pairs[i] = evaluation.QAPair{
			Question: s.questions[i],
			Answer:   s.answers[i],
			Mode:     string(s.modes[i]),
		}
		stamps[i] = s.editStamps[i]
	}

	s.evaluating = true
	s.lastActivity = time.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.evaluating = false
		s.mu.Unlock()
	}()

	feedback, err := s.evaluator.Evaluate(ctx, s.ID, pairs)
	if err != nil {
		return nil, err
	}
	if len(feedback) != len(pairs) {
		return nil, fmt.Errorf("%w: expected %d feedback entries, got %d",
			evaluation.ErrFailed, len(pairs), len(feedback))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range stamps {
		if s.editStamps[i] != stamps[i] {
			s.logger.Debug("Dropping evaluation for edited answers",
				slog.String("session_id", s.ID),
				slog.Int("question", i),
			)
			return feedback, nil
		}
	}

	s.feedback = feedback
	s.lastActivity = time.Now()

	return feedback, nil
}

// StartRecording begins capturing a voice answer for the current question.
func (s *Session) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.capture.StartCapture(ctx)
	if err != nil {
		return err
	}

	s.recording = rec
	s.lastActivity = time.Now()
	return nil
}

// PushAudio feeds a compressed chunk into the active recording.
func (s *Session) PushAudio(chunk []byte) error {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()

	return s.device.Push(chunk)
}

// StopRecording finalizes the active recording and submits it as a voice
// answer for the question that is current at stop time.
func (s *Session) StopRecording(ctx context.Context) (transcript string, installed bool, err error) {
	s.mu.Lock()
	rec := s.recording
	s.recording = nil
	index := s.current
	s.mu.Unlock()

	if rec == nil {
		return "", false, audio.ErrNoActiveRecording
	}

	blob, err := s.capture.StopCapture(rec)
	if err != nil {
		return "", false, err
	}

	return s.SubmitVoice(ctx, index, blob)
}

// AbandonRecording discards the active recording without producing an
// answer.
func (s *Session) AbandonRecording() error {
	s.mu.Lock()
	rec := s.recording
	s.recording = nil
	s.lastActivity = time.Now()
	s.mu.Unlock()

	if rec == nil {
		return audio.ErrNoActiveRecording
	}

	return s.capture.Abandon(rec)
}

// Close halts narration and discards any active recording.
func (s *Session) Close() {
	s.narrator.Stop()

	s.mu.Lock()
	rec := s.recording
	s.recording = nil
	s.mu.Unlock()

	if rec != nil {
		if err := s.capture.Abandon(rec); err != nil {
			s.logger.Warn("Error abandoning recording on close",
				slog.String("session_id", s.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := SessionInfo{
		ID:                    s.ID,
		Questions:             append([]string(nil), s.questions...),
		Answers:               append([]string(nil), s.answers...),
		Modes:                 append([]CaptureMode(nil), s.modes...),
		Current:               s.current,
		Narration:             s.narrator.State(),
		Recording:             s.capture.Active(),
		PendingTranscriptions: s.pending,
		Evaluating:            s.evaluating,
		StartTime:             s.StartTime,
		LastActivity:          s.lastActivity,
	}
	if s.feedback != nil {
		info.Feedback = append([]evaluation.Feedback(nil), s.feedback...)
	}

	return info
}

// LastActivity returns the time of the most recent operation on the
// session.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}
