package document

import (
	"strings"
	"sync"
)

// Body is the reading pane's text content, split into structural blocks
// (paragraphs). Offsets into the normalized stream are rune offsets and stay
// stable for the lifetime of the Body; blocks are the boundaries a single
// highlight mark may not cross.
type Body struct {
	mu     sync.RWMutex
	stream []rune
	blocks []blockSpan
	marks  []Mark
}

type blockSpan struct {
	start int
	end   int
}

// Mark is a non-destructive highlight wrapper placed around a rune range of
// the stream. It carries the owning annotation identifier and never alters
// the underlying text.
type Mark struct {
	AnnotationID string
	Start        int
	End          int
}

const blockSeparator = "\n\n"

// Parse builds a Body from raw text. Blocks are separated by one or more
// blank lines; line endings are normalized and runs of blank lines collapse
// into a single block boundary.
func Parse(raw string) *Body {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")

	var paragraphs []string
	for _, candidate := range strings.Split(normalized, "\n\n") {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "" {
			continue
		}
		paragraphs = append(paragraphs, trimmed)
	}

	body := &Body{}
	var builder strings.Builder
	offset := 0
	for index, paragraph := range paragraphs {
		if index > 0 {
			builder.WriteString(blockSeparator)
			offset += len([]rune(blockSeparator))
		}
		length := len([]rune(paragraph))
		body.blocks = append(body.blocks, blockSpan{start: offset, end: offset + length})
		builder.WriteString(paragraph)
		offset += length
	}
	body.stream = []rune(builder.String())
	return body
}

// Text returns the normalized text stream.
func (b *Body) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.stream)
}

// Len reports the stream length in runes.
func (b *Body) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.stream)
}

// BlockCount reports how many structural blocks the body holds.
func (b *Body) BlockCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blocks)
}

// Slice returns the stream content between two rune offsets. Offsets outside
// the stream yield an empty string.
func (b *Body) Slice(start, end int) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if start < 0 || end > len(b.stream) || start >= end {
		return ""
	}
	return string(b.stream[start:end])
}

// blockContaining returns the index of the block whose span includes the
// offset, or -1 when the offset falls in a separator or outside the stream.
// Callers must hold the read lock.
func (b *Body) blockContaining(offset int) int {
	for index, span := range b.blocks {
		if offset >= span.start && offset < span.end {
			return index
		}
	}
	return -1
}

// Marks returns a snapshot of the placed highlight marks in placement order.
func (b *Body) Marks() []Mark {
	b.mu.RLock()
	defer b.mu.RUnlock()
	snapshot := make([]Mark, len(b.marks))
	copy(snapshot, b.marks)
	return snapshot
}

// MarkFor reports the mark owned by the annotation identifier, if placed.
func (b *Body) MarkFor(annotationID string) (Mark, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, mark := range b.marks {
		if mark.AnnotationID == annotationID {
			return mark, true
		}
	}
	return Mark{}, false
}

// MarkAt resolves a stream offset back to the mark covering it. This is the
// click contract: activating a highlight in the rendered document yields the
// annotation identifier to reveal. The most recently placed covering mark
// wins when marks overlap.
func (b *Body) MarkAt(offset int) (Mark, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for index := len(b.marks) - 1; index >= 0; index-- {
		mark := b.marks[index]
		if offset >= mark.Start && offset < mark.End {
			return mark, true
		}
	}
	return Mark{}, false
}
