// Package input expands user-typed upload arguments into concrete
// file paths.
package input

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandPaths resolves upload arguments into existing file paths.
// Supported forms:
//   - Regular paths: passed through after a stat check
//   - ~/... paths: expanded against the home directory
//   - Glob patterns (e.g. "*.png"): expanded, directories skipped
//
// A glob that matches nothing is dropped silently; a literal path that
// does not exist is an error.
func ExpandPaths(args []string) ([]string, error) {
	var paths []string

	for _, arg := range args {
		expanded := expandHome(arg)

		matches, err := filepath.Glob(expanded)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", arg, err)
		}

		if len(matches) == 0 {
			if containsGlobChars(arg) {
				continue
			}
			matches = []string{expanded}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("stat %q: %w", match, err)
			}
			if info.IsDir() {
				continue
			}
			paths = append(paths, match)
		}
	}

	return paths, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func containsGlobChars(path string) bool {
	return strings.ContainsAny(path, "*?[")
}
