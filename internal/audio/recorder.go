package audio

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// State is the recording session state. At most one session exists
// process-wide.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateTranscribing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateTranscribing:
		return "transcribing"
	}
	return "unknown"
}

var (
	// ErrAlreadyRecording guards against re-entrant starts. The UI's
	// single toggle control should make this unreachable.
	ErrAlreadyRecording = errors.New("recording already in progress")
	// ErrNotRecording rejects stop/abort outside a session.
	ErrNotRecording = errors.New("no recording in progress")
)

// Capture acquires an audio input and buffers it to a file.
type Capture interface {
	// Start begins capturing. Failure leaves nothing to clean up.
	Start(ctx context.Context) error
	// Stop finalizes the buffered audio and returns the file path.
	Stop() (string, error)
	// Abort stops capturing and discards the buffer.
	Abort() error
}

// Transcriber converts a finalized recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Recorder drives the push-to-record interaction:
// idle → recording → transcribing → idle, with an abort path
// recording → idle that discards cleanly without transcribing.
type Recorder struct {
	mu          sync.Mutex
	state       State
	capture     Capture
	transcriber Transcriber
	log         zerolog.Logger
}

// NewRecorder creates a recorder over the given capture backend and
// transcription service.
func NewRecorder(capture Capture, transcriber Transcriber, log zerolog.Logger) *Recorder {
	return &Recorder{
		capture:     capture,
		transcriber: transcriber,
		log:         log,
	}
}

// State returns the current session state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start acquires the input stream and begins buffering. On acquisition
// failure the recorder stays idle and the failure is surfaced.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle {
		return ErrAlreadyRecording
	}
	if r.capture == nil {
		return errors.New("no capture backend available (install arecord, sox or ffmpeg)")
	}
	if err := r.capture.Start(ctx); err != nil {
		return err
	}
	r.state = StateRecording
	r.log.Debug().Msg("recording started")
	return nil
}

// Stop finalizes the buffered audio and submits it for transcription.
// The returned text may be empty (a successful transcription of
// silence); the caller decides whether to send. The recorder always
// returns to idle.
func (r *Recorder) Stop(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return "", ErrNotRecording
	}
	r.state = StateTranscribing
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.state = StateIdle
		r.mu.Unlock()
	}()

	path, err := r.capture.Stop()
	if err != nil {
		return "", err
	}
	text, err := r.transcriber.Transcribe(ctx, path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Abort stops and discards the session without transcribing.
func (r *Recorder) Abort() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return ErrNotRecording
	}
	r.state = StateIdle
	return r.capture.Abort()
}
