// Package prefs persists the small set of client-side preferences the
// server never sees: theme, selected voice and model, toggle defaults
// and the last active thread.
package prefs

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mjaros/chatterm/internal/config"
)

// Prefs are the locally persisted preferences.
type Prefs struct {
	Theme      string `yaml:"theme"`
	Voice      string `yaml:"voice"`
	Model      string `yaml:"model"`
	Web        bool   `yaml:"web"`
	UseMemory  bool   `yaml:"use_memory"`
	LastThread string `yaml:"last_thread"`
}

// Default returns the preferences used before anything is saved.
// Memory use defaults on, mirroring the server-side default.
func Default() Prefs {
	return Prefs{Theme: "dark", UseMemory: true}
}

func path() (string, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prefs.yaml"), nil
}

// Load reads saved preferences. A missing or unreadable file yields
// defaults; preference loading cannot fail observably.
func Load() Prefs {
	p := Default()
	file, err := path()
	if err != nil {
		return p
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return p
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Default()
	}
	return p
}

// Save writes preferences atomically (temp file + rename). Errors are
// returned for logging but callers treat saving as best-effort.
func Save(p Prefs) error {
	file, err := path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, file)
}
