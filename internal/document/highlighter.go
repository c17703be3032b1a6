package document

import (
	"errors"

	"go.uber.org/zap"
)

// ErrAnchorConflict indicates an anchor that cannot be wrapped by a single
// contiguous mark: it crosses a block boundary, or its text can no longer be
// located in the stream. The conflict is a soft failure; record creation
// proceeds without the in-text mark.
var ErrAnchorConflict = errors.New("document: anchor cannot be wrapped")

// SpanHandle is a located, wrappable range inside a single block.
type SpanHandle struct {
	start int
	end   int
}

// Surface is the narrow mutation contract the highlighter holds on the text
// body: locate an anchor as a wrappable span, then wrap it.
type Surface interface {
	Locate(anchor Anchor) (SpanHandle, error)
	Wrap(handle SpanHandle, annotationID string) bool
	Marked(annotationID string) bool
}

// Locate resolves an anchor to a wrappable span. The anchor's range must lie
// within a single block; when the stream no longer carries the anchor's text
// at its recorded offsets, the anchor is re-located at the first occurrence
// of its captured text.
func (b *Body) Locate(anchor Anchor) (SpanHandle, error) {
	if anchor.IsZero() {
		return SpanHandle{}, ErrAnchorConflict
	}

	start, end := anchor.Start, anchor.End
	if b.Slice(start, end) != anchor.Text {
		relocated, err := CaptureByPhrase(anchor.Text, b)
		if err != nil {
			return SpanHandle{}, ErrAnchorConflict
		}
		start, end = relocated.Start, relocated.End
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	startBlock := b.blockContaining(start)
	endBlock := b.blockContaining(end - 1)
	if startBlock < 0 || endBlock < 0 || startBlock != endBlock {
		return SpanHandle{}, ErrAnchorConflict
	}
	return SpanHandle{start: start, end: end}, nil
}

// Wrap places a mark around the located span on behalf of the annotation.
// Returns false when the annotation already owns a mark.
func (b *Body) Wrap(handle SpanHandle, annotationID string) bool {
	if annotationID == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, mark := range b.marks {
		if mark.AnnotationID == annotationID {
			return false
		}
	}
	b.marks = append(b.marks, Mark{AnnotationID: annotationID, Start: handle.start, End: handle.end})
	return true
}

// Marked reports whether the annotation already owns a placed mark.
func (b *Body) Marked(annotationID string) bool {
	_, ok := b.MarkFor(annotationID)
	return ok
}

// MarkResult reports the outcome of a highlight attempt.
type MarkResult struct {
	Applied bool
}

// Highlighter places at most one mark per annotation on a surface. A failed
// placement is never fatal: the caller keeps the annotation record and only
// the in-text mark is missing.
type Highlighter struct {
	surface Surface
	logger  *zap.Logger
}

// NewHighlighter binds a highlighter to its surface. A nil logger falls back
// to a no-op logger.
func NewHighlighter(surface Surface, logger *zap.Logger) *Highlighter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Highlighter{surface: surface, logger: logger}
}

// Mark wraps the anchor's range on behalf of the annotation. Re-invoking for
// an annotation that already holds a mark is a no-op reporting applied. A
// conflicting anchor reports not applied and nothing else changes.
func (h *Highlighter) Mark(anchor Anchor, annotationID string) MarkResult {
	if h == nil || h.surface == nil || annotationID == "" {
		return MarkResult{}
	}
	if h.surface.Marked(annotationID) {
		return MarkResult{Applied: true}
	}

	handle, err := h.surface.Locate(anchor)
	if err != nil {
		h.logger.Warn("highlight placement failed",
			zap.String("annotation_id", annotationID),
			zap.Error(err))
		return MarkResult{}
	}

	return MarkResult{Applied: h.surface.Wrap(handle, annotationID)}
}
