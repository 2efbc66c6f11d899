package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ProcessCapture records microphone audio by running an external
// recorder (arecord, sox or ffmpeg, whichever is installed) into a
// temporary WAV file.
type ProcessCapture struct {
	cmd  *exec.Cmd
	path string
	done chan struct{}
}

// NewProcessCapture returns a capture backend, or an error when no
// supported recorder binary is on PATH.
func NewProcessCapture() (*ProcessCapture, error) {
	if _, err := recorderCommand("/dev/null"); err != nil {
		return nil, err
	}
	return &ProcessCapture{}, nil
}

func recorderCommand(path string) (*exec.Cmd, error) {
	if bin, err := exec.LookPath("arecord"); err == nil {
		return exec.Command(bin, "-q", "-f", "cd", "-t", "wav", path), nil
	}
	if bin, err := exec.LookPath("sox"); err == nil {
		return exec.Command(bin, "-q", "-d", "-t", "wav", path), nil
	}
	if bin, err := exec.LookPath("ffmpeg"); err == nil {
		return exec.Command(bin, "-loglevel", "quiet", "-f", "pulse", "-i", "default", "-y", path), nil
	}
	return nil, fmt.Errorf("no audio recorder found: install arecord, sox or ffmpeg")
}

// Start begins capturing into a fresh temp file.
func (c *ProcessCapture) Start(ctx context.Context) error {
	path := filepath.Join(os.TempDir(), "chatterm-rec-"+uuid.NewString()+".wav")
	cmd, err := recorderCommand(path)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start recorder: %w", err)
	}
	c.cmd = cmd
	c.path = path
	c.done = make(chan struct{})

	// Honor context cancellation while recording. The watcher holds its
	// own reference to cmd and exits when the session ends normally.
	go watchCancel(ctx, c.done, func() {
		cmd.Process.Signal(os.Interrupt)
	})
	return nil
}

// watchCancel interrupts an in-flight recording when ctx is cancelled.
// Closing done releases the watcher once the session has ended.
func watchCancel(ctx context.Context, done <-chan struct{}, interrupt func()) {
	select {
	case <-ctx.Done():
		interrupt()
	case <-done:
	}
}

func (c *ProcessCapture) release() {
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
}

// Stop interrupts the recorder, waits for it to flush the WAV header,
// and returns the file path.
func (c *ProcessCapture) Stop() (string, error) {
	if c.cmd == nil || c.cmd.Process == nil {
		return "", ErrNotRecording
	}
	c.release()
	c.cmd.Process.Signal(os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- c.cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		c.cmd.Process.Kill()
		<-done
	}
	path := c.path
	c.cmd = nil
	c.path = ""
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		os.Remove(path)
		return "", fmt.Errorf("recording produced no audio")
	}
	return path, nil
}

// Abort kills the recorder and removes the partial file.
func (c *ProcessCapture) Abort() error {
	if c.cmd == nil || c.cmd.Process == nil {
		return ErrNotRecording
	}
	c.release()
	c.cmd.Process.Kill()
	c.cmd.Wait()
	err := os.Remove(c.path)
	c.cmd = nil
	c.path = ""
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
