package document

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	// ErrCollapsedSelection indicates the selection has zero width.
	ErrCollapsedSelection = errors.New("document: selection is collapsed")
	// ErrEmptySelection indicates the selection holds only whitespace.
	ErrEmptySelection = errors.New("document: selection is empty after trimming")
	// ErrSelectionOutOfBounds indicates the selection escapes the body.
	ErrSelectionOutOfBounds = errors.New("document: selection outside body bounds")
	// ErrPhraseNotFound indicates a phrase lookup matched nothing.
	ErrPhraseNotFound = errors.New("document: phrase not found")
)

// Selection is a raw platform text selection expressed as rune offsets into
// the body's normalized stream. Start and End may arrive in either order.
type Selection struct {
	Start int
	End   int
}

// Anchor is the durable locator produced from a validated selection: the rune
// range plus an immutable snapshot of the text it covered at capture time.
type Anchor struct {
	Start int
	End   int
	Text  string
}

// IsZero reports whether the anchor is the absent value.
func (a Anchor) IsZero() bool {
	return a.Text == "" && a.Start == 0 && a.End == 0
}

// Capture validates a raw selection against the body and returns a durable
// anchor. Collapsed selections, whitespace-only selections, and selections
// escaping the body bounds are rejected. Leading and trailing whitespace is
// trimmed by moving the offsets inward, which also normalizes selections
// ending exactly on a block boundary back into the nearest containing block.
func Capture(sel Selection, body *Body) (Anchor, error) {
	if body == nil {
		return Anchor{}, ErrSelectionOutOfBounds
	}

	start, end := sel.Start, sel.End
	if start > end {
		start, end = end, start
	}
	if start == end {
		return Anchor{}, ErrCollapsedSelection
	}
	if start < 0 || end > body.Len() {
		return Anchor{}, fmt.Errorf("%w: [%d,%d) in stream of %d", ErrSelectionOutOfBounds, start, end, body.Len())
	}

	body.mu.RLock()
	for start < end && unicode.IsSpace(body.stream[start]) {
		start++
	}
	for end > start && unicode.IsSpace(body.stream[end-1]) {
		end--
	}
	body.mu.RUnlock()

	if start == end {
		return Anchor{}, ErrEmptySelection
	}

	return Anchor{Start: start, End: end, Text: body.Slice(start, end)}, nil
}

// CaptureByPhrase anchors the first literal occurrence of the phrase within
// the body. The phrase is not pattern-interpreted. When the phrase appears
// more than once the first occurrence wins; ambiguous anchors are a known
// limitation and are not disambiguated.
func CaptureByPhrase(phrase string, body *Body) (Anchor, error) {
	trimmed := strings.TrimSpace(phrase)
	if trimmed == "" {
		return Anchor{}, ErrEmptySelection
	}
	if body == nil {
		return Anchor{}, fmt.Errorf("%w: %q", ErrPhraseNotFound, trimmed)
	}

	stream := body.Text()
	byteIndex := strings.Index(stream, trimmed)
	if byteIndex < 0 {
		return Anchor{}, fmt.Errorf("%w: %q", ErrPhraseNotFound, trimmed)
	}

	start := len([]rune(stream[:byteIndex]))
	end := start + len([]rune(trimmed))
	return Anchor{Start: start, End: end, Text: trimmed}, nil
}
