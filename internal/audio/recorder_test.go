package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

type fakeCapture struct {
	startErr error
	started  int
	stopped  int
	aborted  int
	path     string
}

func (f *fakeCapture) Start(context.Context) error { f.started++; return f.startErr }
func (f *fakeCapture) Stop() (string, error)       { f.stopped++; return f.path, nil }
func (f *fakeCapture) Abort() error                { f.aborted++; return nil }

type fakeTranscriber struct {
	text  string
	err   error
	calls int
	last  string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, path string) (string, error) {
	f.calls++
	f.last = path
	return f.text, f.err
}

func TestRecorderHappyPath(t *testing.T) {
	capture := &fakeCapture{path: "/tmp/rec.wav"}
	tr := &fakeTranscriber{text: " hello there \n"}
	r := NewRecorder(capture, tr, zerolog.Nop())

	if r.State() != StateIdle {
		t.Fatalf("expected idle start, got %v", r.State())
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if r.State() != StateRecording {
		t.Fatalf("expected recording, got %v", r.State())
	}

	text, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if text != "hello there" {
		t.Errorf("transcript not trimmed: %q", text)
	}
	if tr.last != "/tmp/rec.wav" {
		t.Errorf("transcriber got wrong path %q", tr.last)
	}
	if r.State() != StateIdle {
		t.Errorf("expected idle after stop, got %v", r.State())
	}
}

func TestRecorderAcquisitionFailureStaysIdle(t *testing.T) {
	capture := &fakeCapture{startErr: errors.New("no microphone")}
	r := NewRecorder(capture, &fakeTranscriber{}, zerolog.Nop())

	if err := r.Start(context.Background()); err == nil {
		t.Fatal("expected acquisition failure to surface")
	}
	if r.State() != StateIdle {
		t.Errorf("failed acquisition must leave recorder idle, got %v", r.State())
	}
}

func TestRecorderGuardsReentrantStart(t *testing.T) {
	capture := &fakeCapture{}
	r := NewRecorder(capture, &fakeTranscriber{}, zerolog.Nop())
	r.Start(context.Background())

	if err := r.Start(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("expected ErrAlreadyRecording, got %v", err)
	}
	if capture.started != 1 {
		t.Errorf("re-entrant start reached the capture backend %d times", capture.started)
	}
}

func TestRecorderAbortDiscardsWithoutTranscribing(t *testing.T) {
	capture := &fakeCapture{}
	tr := &fakeTranscriber{}
	r := NewRecorder(capture, tr, zerolog.Nop())
	r.Start(context.Background())

	if err := r.Abort(); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
	if capture.aborted != 1 || capture.stopped != 0 {
		t.Errorf("abort should discard, not finalize: aborted=%d stopped=%d", capture.aborted, capture.stopped)
	}
	if tr.calls != 0 {
		t.Error("abort must not transcribe")
	}
	if r.State() != StateIdle {
		t.Errorf("expected idle after abort, got %v", r.State())
	}
}

func TestRecorderEmptyTranscript(t *testing.T) {
	r := NewRecorder(&fakeCapture{path: "/tmp/x.wav"}, &fakeTranscriber{text: "   "}, zerolog.Nop())
	r.Start(context.Background())

	text, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty transcript, got %q", text)
	}
	if r.State() != StateIdle {
		t.Errorf("expected idle, got %v", r.State())
	}
}

func TestRecorderStopOutsideSession(t *testing.T) {
	r := NewRecorder(&fakeCapture{}, &fakeTranscriber{}, zerolog.Nop())
	if _, err := r.Stop(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Errorf("expected ErrNotRecording, got %v", err)
	}
	if err := r.Abort(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("expected ErrNotRecording, got %v", err)
	}
}

func TestRecorderTranscriptionFailureReturnsToIdle(t *testing.T) {
	r := NewRecorder(&fakeCapture{path: "/tmp/x.wav"}, &fakeTranscriber{err: errors.New("HTTP 500")}, zerolog.Nop())
	r.Start(context.Background())

	if _, err := r.Stop(context.Background()); err == nil {
		t.Fatal("expected transcription failure to surface")
	}
	if r.State() != StateIdle {
		t.Errorf("expected idle after failure, got %v", r.State())
	}
}
