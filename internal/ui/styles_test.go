package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/mjaros/chatterm/internal/config"
)

func TestThemeFromConfigOverrides(t *testing.T) {
	theme := ThemeFromConfig(config.ThemeConfig{
		Primary:   "#ff0000",
		Secondary: "#00ff00",
	})

	if theme.Primary != lipgloss.Color("#ff0000") {
		t.Errorf("primary override not applied: %v", theme.Primary)
	}
	if theme.Border != lipgloss.Color("#00ff00") {
		t.Errorf("border should follow secondary: %v", theme.Border)
	}
	// Untouched fields keep defaults.
	if theme.Error != DefaultTheme().Error {
		t.Errorf("error color should keep default: %v", theme.Error)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is too long", 10, "this is..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}
