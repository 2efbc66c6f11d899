package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlight applies best-effort syntax highlighting to a code block
// for preview display. Any failure returns the code unchanged; it
// never raises past the caller.
func Highlight(code, language string) string {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatANSI(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

// formatANSI emits true-color foreground ANSI for each token, no
// background.
func formatANSI(w io.Writer, style *chroma.Style, iterator chroma.Iterator) error {
	for token := iterator(); token != chroma.EOF; token = iterator() {
		entry := style.Get(token.Type)

		var codes []string
		if entry.Colour.IsSet() {
			codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue()))
		}
		if entry.Bold == chroma.Yes {
			codes = append(codes, "1")
		}
		if entry.Italic == chroma.Yes {
			codes = append(codes, "3")
		}

		if len(codes) > 0 {
			if _, err := fmt.Fprintf(w, "\x1b[%sm%s\x1b[0m", strings.Join(codes, ";"), token.Value); err != nil {
				return err
			}
		} else {
			if _, err := fmt.Fprint(w, token.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
