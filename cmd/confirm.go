package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// confirm prints the prompt and reads one line of input. Only an
// explicit yes proceeds; anything else, including EOF, declines.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
