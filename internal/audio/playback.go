package audio

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"
)

// playerCandidates are probed in order when no player is configured.
var playerCandidates = []string{"mpv", "ffplay", "play", "afplay"}

// Play writes synthesized audio to a temp file and plays it with the
// configured player command, blocking until playback ends. The caller
// runs this off the UI loop.
func Play(player string, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("no audio data")
	}
	if player == "" {
		for _, c := range playerCandidates {
			if _, err := exec.LookPath(c); err == nil {
				player = c
				break
			}
		}
	}
	if player == "" {
		return fmt.Errorf("no audio player found (install mpv or set audio.player)")
	}

	path := os.TempDir() + "/chatterm-tts-" + uuid.NewString() + ".mp3"
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	defer os.Remove(path)

	args := playerArgs(player, path)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("playback with %s failed: %w", player, err)
	}
	return nil
}

// playerArgs quiets the noisy players.
func playerArgs(player, path string) []string {
	switch player {
	case "mpv":
		return []string{"mpv", "--really-quiet", "--no-video", path}
	case "ffplay":
		return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path}
	default:
		return []string{player, path}
	}
}
