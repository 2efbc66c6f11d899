package render

import (
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// CodeBlock is one fenced block extracted from a rendered message.
type CodeBlock struct {
	Slot     int    // global 1-based copy slot
	Language string // fence info string, may be empty
	Code     string
}

// CopyRegistry tracks fenced code blocks by message entry so the UI
// can offer copy-to-clipboard. Registration is idempotent per entry:
// re-rendering a message replaces nothing and allocates no new slots.
type CopyRegistry struct {
	mu      sync.Mutex
	next    int
	byEntry map[string][]CodeBlock
	bySlot  map[int]CodeBlock
}

// NewCopyRegistry creates an empty registry.
func NewCopyRegistry() *CopyRegistry {
	return &CopyRegistry{
		next:    1,
		byEntry: make(map[string][]CodeBlock),
		bySlot:  make(map[int]CodeBlock),
	}
}

var codeParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Collect parses md and registers its fenced code blocks under
// entryID. A second Collect for the same entry is a no-op.
func (r *CopyRegistry) Collect(entryID, md string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, seen := r.byEntry[entryID]; seen {
		return
	}

	source := []byte(md)
	doc := codeParser.Parser().Parse(text.NewReader(source))

	var blocks []CodeBlock
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fence, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var code []byte
		lines := fence.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			code = append(code, seg.Value(source)...)
		}
		block := CodeBlock{
			Slot:     r.next,
			Language: string(fence.Language(source)),
			Code:     string(code),
		}
		r.next++
		blocks = append(blocks, block)
		r.bySlot[block.Slot] = block
		return ast.WalkContinue, nil
	})

	r.byEntry[entryID] = blocks
}

// Slots returns the copy slot numbers registered for an entry.
func (r *CopyRegistry) Slots(entryID string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	blocks := r.byEntry[entryID]
	slots := make([]int, len(blocks))
	for i, b := range blocks {
		slots[i] = b.Slot
	}
	return slots
}

// Get returns the block for a copy slot.
func (r *CopyRegistry) Get(slot int) (CodeBlock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bySlot[slot]
	return b, ok
}

// Last returns the most recently registered block, if any.
func (r *CopyRegistry) Last() (CodeBlock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next == 1 {
		return CodeBlock{}, false
	}
	b, ok := r.bySlot[r.next-1]
	return b, ok
}

// Reset drops all registrations, used when the timeline is rebuilt.
func (r *CopyRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 1
	r.byEntry = make(map[string][]CodeBlock)
	r.bySlot = make(map[int]CodeBlock)
}
