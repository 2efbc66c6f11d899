// Package debuglog provides the process-wide zerolog logger. The TUI
// owns stdout, so log output always goes to a file under the data
// directory (or nowhere when debug logging is off).
package debuglog

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/mjaros/chatterm/internal/config"
)

// New returns a logger writing to debug.log in the data dir. When
// disabled (or the file cannot be opened) it returns a no-op logger;
// logging failures never reach the user.
func New(enabled bool) zerolog.Logger {
	if !enabled {
		return zerolog.Nop()
	}
	dataDir, err := config.GetDataDir()
	if err != nil {
		return zerolog.Nop()
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "debug.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger().Level(zerolog.DebugLevel)
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
