package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDeviceUnavailable indicates microphone permission or hardware is absent.
	ErrDeviceUnavailable = errors.New("capture device unavailable")
	// ErrAlreadyRecording indicates a recording session is already active.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNoActiveRecording indicates stop/abandon was called without a matching start.
	ErrNoActiveRecording = errors.New("no active recording")
)

// Device provides access to a capture device producing compressed audio.
type Device interface {
	// AcquireStream opens the device for exclusive use. The returned stream
	// delivers compressed audio chunks until closed.
	AcquireStream(ctx context.Context) (Stream, error)
}

// Stream is a live audio stream from an acquired device. Chunks arrive in
// capture order; the channel is closed when the stream ends. Close releases
// the underlying device and must be safe to call more than once.
type Stream interface {
	Chunks() <-chan []byte
	Close() error
}

// CaptureFormat describes the codec the device produces.
type CaptureFormat struct {
	Codec      Codec
	SampleRate int
	Channels   int
}

// RecordingSession is the ephemeral state of one start/stop recording
// gesture. It owns the live stream and the accumulating chunk list.
type RecordingSession struct {
	ID        string
	StartTime time.Time

	stream Stream

	mu     sync.Mutex
	chunks [][]byte

	collectDone chan struct{}
}

// appendChunk stores one compressed chunk in arrival order.
func (r *RecordingSession) appendChunk(data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)

	r.mu.Lock()
	r.chunks = append(r.chunks, buf)
	r.mu.Unlock()
}

// flush concatenates the buffered chunks into one payload.
func (r *RecordingSession) flush() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, c := range r.chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range r.chunks {
		out = append(out, c...)
	}
	r.chunks = nil
	return out
}

// CaptureSource wraps a capture device into discrete start/stop recording
// sessions, producing one compressed blob per session. At most one recording
// is active at a time.
type CaptureSource struct {
	device Device
	format CaptureFormat
	logger *slog.Logger

	mu     sync.Mutex
	active *RecordingSession
}

// NewCaptureSource creates a capture source for the given device.
func NewCaptureSource(device Device, format CaptureFormat, logger *slog.Logger) *CaptureSource {
	return &CaptureSource{
		device: device,
		format: format,
		logger: logger,
	}
}

// StartCapture acquires the device stream and begins accumulating chunks.
func (c *CaptureSource) StartCapture(ctx context.Context) (*RecordingSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return nil, fmt.Errorf("%w: session %s is active", ErrAlreadyRecording, c.active.ID)
	}

	stream, err := c.device.AcquireStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	rec := &RecordingSession{
		ID:          uuid.NewString(),
		StartTime:   time.Now(),
		stream:      stream,
		collectDone: make(chan struct{}),
	}
	c.active = rec

	go func() {
		defer close(rec.collectDone)
		for chunk := range stream.Chunks() {
			if len(chunk) > 0 {
				rec.appendChunk(chunk)
			}
		}
	}()

	c.logger.Info("Recording started",
		slog.String("recording_id", rec.ID),
		slog.String("codec", string(c.format.Codec)),
	)

	return rec, nil
}

// StopCapture finalizes the recording: the device stream is released
// unconditionally, buffered chunks are concatenated into one compressed
// blob, and the session is destroyed.
func (c *CaptureSource) StopCapture(rec *RecordingSession) (Blob, error) {
	if err := c.release(rec); err != nil {
		return Blob{}, err
	}

	// Wait for in-flight chunks to land before flushing.
	<-rec.collectDone

	data := rec.flush()
	if len(data) == 0 {
		return Blob{}, fmt.Errorf("recording %s produced no audio", rec.ID)
	}

	c.logger.Info("Recording stopped",
		slog.String("recording_id", rec.ID),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(rec.StartTime)),
	)

	return Blob{
		Data:       data,
		Format:     FormatCompressed,
		Codec:      c.format.Codec,
		SampleRate: c.format.SampleRate,
		Channels:   c.format.Channels,
	}, nil
}

// Abandon releases the device stream without producing a blob.
func (c *CaptureSource) Abandon(rec *RecordingSession) error {
	if err := c.release(rec); err != nil {
		return err
	}
	<-rec.collectDone
	rec.flush()

	c.logger.Info("Recording abandoned", slog.String("recording_id", rec.ID))
	return nil
}

// Active reports whether a recording session is currently in progress.
func (c *CaptureSource) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// release detaches the session and closes its stream. The stream close is
// unconditional so the device is never leaked.
func (c *CaptureSource) release(rec *RecordingSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rec == nil || c.active != rec {
		return ErrNoActiveRecording
	}
	c.active = nil

	if err := rec.stream.Close(); err != nil {
		c.logger.Warn("Error closing capture stream",
			slog.String("recording_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// PushDevice is a Device fed by an external producer, used when capture
// chunks arrive over the network instead of local hardware. It models the
// microphone's exclusive ownership: only one stream may be open at a time.
type PushDevice struct {
	mu      sync.Mutex
	active  *pushStream
	bufsize int
}

// NewPushDevice creates a push-fed capture device. bufsize bounds the number
// of chunks buffered between producer and recorder.
func NewPushDevice(bufsize int) *PushDevice {
	if bufsize < 1 {
		bufsize = 64
	}
	return &PushDevice{bufsize: bufsize}
}

// AcquireStream opens the device. Fails while another stream is open.
func (d *PushDevice) AcquireStream(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active != nil {
		return nil, fmt.Errorf("device is already acquired")
	}

	s := &pushStream{
		device: d,
		ch:     make(chan []byte, d.bufsize),
	}
	d.active = s
	return s, nil
}

// Push delivers one compressed chunk to the open stream.
func (d *PushDevice) Push(data []byte) error {
	d.mu.Lock()
	s := d.active
	d.mu.Unlock()

	if s == nil {
		return ErrNoActiveRecording
	}
	return s.push(data)
}

// releaseStream clears the active stream if it matches.
func (d *PushDevice) releaseStream(s *pushStream) {
	d.mu.Lock()
	if d.active == s {
		d.active = nil
	}
	d.mu.Unlock()
}

type pushStream struct {
	device *PushDevice

	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func (s *pushStream) Chunks() <-chan []byte {
	return s.ch
}

func (s *pushStream) push(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNoActiveRecording
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	select {
	case s.ch <- buf:
		return nil
	default:
		return fmt.Errorf("capture buffer full, dropping %d bytes", len(data))
	}
}

func (s *pushStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	close(s.ch)
	s.device.releaseStream(s)
	return nil
}
