package render

import (
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/muesli/reflow/wordwrap"
)

// Pipeline converts assistant-authored markdown into safe terminal
// output. Assistant text is untrusted: embedded HTML is reduced to an
// explicit attribute allow-list and ANSI escapes are stripped before
// rendering. User-authored text is trusted to display as typed and is
// never interpreted as markup; keeping that asymmetry is the point.
type Pipeline struct {
	policy *bluemonday.Policy
	copies *CopyRegistry
}

// allowedAttrs is the full set of attributes that may survive
// sanitization; everything else, including any executable content,
// is stripped.
var allowedAttrs = []string{"class", "href", "src", "alt", "title", "target", "rel"}

// NewPipeline creates a render pipeline with a fresh copy registry.
func NewPipeline() *Pipeline {
	policy := bluemonday.NewPolicy()
	policy.AllowStandardURLs()
	policy.AllowAttrs(allowedAttrs...).Globally()
	policy.AllowElements(
		"a", "p", "br", "b", "i", "em", "strong", "code", "pre",
		"ul", "ol", "li", "h1", "h2", "h3", "h4", "h5", "h6",
		"blockquote", "img", "table", "thead", "tbody", "tr", "th", "td",
	)
	return &Pipeline{
		policy: policy,
		copies: NewCopyRegistry(),
	}
}

// Copies exposes the registry of fenced code blocks seen by the
// pipeline, for the copy-to-clipboard affordance.
func (p *Pipeline) Copies() *CopyRegistry {
	return p.copies
}

// RenderAssistant renders untrusted markdown for display. Rendering or
// highlighting failures never escape: the sanitized plain text is the
// fallback. entryID keys the copy registry so re-rendering the same
// entry does not duplicate copy slots.
func (p *Pipeline) RenderAssistant(entryID, md string, width int) string {
	safe := p.policy.Sanitize(stripANSI(md))
	safe = unescapeEntities(safe)

	p.copies.Collect(entryID, safe)

	out, err := renderMarkdown(safe, width)
	if err != nil {
		return fallbackRender(safe, width)
	}
	if slots := p.copies.Slots(entryID); len(slots) > 0 {
		out += "\n" + copyFooter(slots)
	}
	return out
}

// RenderUser returns user text verbatim apart from ANSI stripping and
// wrapping. No markdown interpretation.
func (p *Pipeline) RenderUser(text string, width int) string {
	return wordwrap.String(stripANSI(text), width)
}

// copyFooter renders the copy affordance line for a message's blocks.
func copyFooter(slots []int) string {
	parts := make([]string, len(slots))
	for i, n := range slots {
		parts[i] = "[copy #" + itoa(n) + "]"
	}
	return strings.Join(parts, " ")
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [8]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

// fallbackRender displays sanitized text when glamour fails: prose is
// wrapped, fenced code keeps syntax highlighting.
func fallbackRender(md string, width int) string {
	var out []string
	inFence := false
	lang := ""
	var code []string

	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				out = append(out, Highlight(strings.Join(code, "\n"), lang))
				code = code[:0]
			} else {
				lang = strings.TrimPrefix(trimmed, "```")
			}
			inFence = !inFence
			continue
		}
		if inFence {
			code = append(code, line)
			continue
		}
		out = append(out, wordwrap.String(line, width))
	}
	if len(code) > 0 {
		out = append(out, Highlight(strings.Join(code, "\n"), lang))
	}
	return strings.Join(out, "\n")
}

// rendererCache keeps one glamour renderer per width; creating one is
// expensive.
var rendererCache sync.Map // map[int]*glamour.TermRenderer

func getRenderer(width int) (*glamour.TermRenderer, error) {
	if cached, ok := rendererCache.Load(width); ok {
		return cached.(*glamour.TermRenderer), nil
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	rendererCache.Store(width, renderer)
	return renderer, nil
}

func renderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	renderer, err := getRenderer(width)
	if err != nil {
		return "", err
	}
	rendered, err := renderer.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(rendered, "\n"), nil
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]|\x1b\][^\x07]*\x07`)

// stripANSI removes terminal escape sequences from untrusted input.
// A raw escape in remote text is the terminal analogue of an embedded
// script.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// unescapeEntities reverses the entity escaping bluemonday applies to
// bare text so markdown punctuation survives sanitization.
var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&#34;", `"`,
	"&#39;", "'",
)

func unescapeEntities(s string) string {
	return entityReplacer.Replace(s)
}
