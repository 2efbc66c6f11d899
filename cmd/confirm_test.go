package cmd

import (
	"strings"
	"testing"
)

func TestConfirmOnlyExplicitYesProceeds(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{" YES \n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"", false}, // EOF declines
		{"yeah\n", false},
	}
	for _, tc := range cases {
		var out strings.Builder
		got := confirm(strings.NewReader(tc.input), &out, "Delete thread t1? [y/N]: ")
		if got != tc.want {
			t.Errorf("input %q: got %v, want %v", tc.input, got, tc.want)
		}
		if !strings.Contains(out.String(), "[y/N]") {
			t.Errorf("input %q: prompt not written", tc.input)
		}
	}
}
