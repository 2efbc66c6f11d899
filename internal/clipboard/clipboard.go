// Package clipboard shells out to the platform clipboard utilities.
// Two operations matter here: copying a code block out of the
// transcript, and pulling a pasted image in as an upload.
package clipboard

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// WriteText puts text on the system clipboard
func WriteText(text string) error {
	switch runtime.GOOS {
	case "darwin":
		return writeTextMacOS(text)
	case "linux":
		return writeTextLinux(text)
	default:
		return fmt.Errorf("clipboard write not supported on %s", runtime.GOOS)
	}
}

func writeTextMacOS(text string) error {
	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

func writeTextLinux(text string) error {
	// Try wl-copy first (Wayland)
	if _, err := exec.LookPath("wl-copy"); err == nil {
		cmd := exec.Command("wl-copy")
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	// Fall back to xclip (X11)
	if _, err := exec.LookPath("xclip"); err == nil {
		cmd := exec.Command("xclip", "-selection", "clipboard", "-in")
		cmd.Stdin = strings.NewReader(text)
		if err := cmd.Run(); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no clipboard utility found (install wl-copy or xclip)")
}

// ReadImage reads image data from the system clipboard.
// Returns an error when the clipboard holds no image.
func ReadImage() ([]byte, error) {
	switch runtime.GOOS {
	case "darwin":
		return readImageMacOS()
	case "linux":
		return readImageLinux()
	default:
		return nil, fmt.Errorf("clipboard read not supported on %s", runtime.GOOS)
	}
}

func readImageMacOS() ([]byte, error) {
	pngpastePath, err := exec.LookPath("pngpaste")
	if err != nil {
		return nil, fmt.Errorf("pngpaste not found (brew install pngpaste)")
	}

	tmpFile, err := os.CreateTemp("", "chatterm-paste-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	if err := exec.Command(pngpastePath, tmpPath).Run(); err != nil {
		return nil, fmt.Errorf("no image on clipboard")
	}
	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no image on clipboard")
	}
	return data, nil
}

func readImageLinux() ([]byte, error) {
	// Try wl-paste first (Wayland)
	if _, err := exec.LookPath("wl-paste"); err == nil {
		cmd := exec.Command("wl-paste", "--type", "image/png")
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err == nil && out.Len() > 0 {
			return out.Bytes(), nil
		}
	}

	// Fall back to xclip (X11)
	if _, err := exec.LookPath("xclip"); err == nil {
		cmd := exec.Command("xclip", "-selection", "clipboard", "-t", "image/png", "-o")
		var out bytes.Buffer
		cmd.Stdout = &out
		if err := cmd.Run(); err == nil && out.Len() > 0 {
			return out.Bytes(), nil
		}
	}

	return nil, fmt.Errorf("no image on clipboard")
}

// SaveImageToTemp writes pasted image data to a temp file and returns
// its path, so it can go through the normal upload batch.
func SaveImageToTemp(data []byte) (string, error) {
	tmpFile, err := os.CreateTemp("", "chatterm-paste-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmpFile.Name()
	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
