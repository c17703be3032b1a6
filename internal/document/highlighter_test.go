package document

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestMarkAppliesWithinSingleBlock(t *testing.T) {
	body := sampleBody(t)
	highlighter := NewHighlighter(body, zap.NewNop())
	anchor := mustCapture(t, body, "stress signals")

	result := highlighter.Mark(anchor, "ann-1")

	if !result.Applied {
		t.Fatalf("expected highlight to apply within a single block")
	}
	mark, ok := body.MarkFor("ann-1")
	if !ok {
		t.Fatalf("expected a placed mark for the annotation")
	}
	if body.Slice(mark.Start, mark.End) != "stress signals" {
		t.Fatalf("mark does not cover the anchor text")
	}
}

func TestMarkIsIdempotentPerAnnotation(t *testing.T) {
	body := sampleBody(t)
	highlighter := NewHighlighter(body, zap.NewNop())
	anchor := mustCapture(t, body, "stress signals")

	first := highlighter.Mark(anchor, "ann-1")
	second := highlighter.Mark(anchor, "ann-1")

	if !first.Applied || !second.Applied {
		t.Fatalf("expected both calls to report applied, got %v then %v", first.Applied, second.Applied)
	}
	if len(body.Marks()) != 1 {
		t.Fatalf("expected exactly one mark after repeated calls, got %d", len(body.Marks()))
	}
}

func TestMarkFailsAcrossBlockBoundary(t *testing.T) {
	body := sampleBody(t)
	highlighter := NewHighlighter(body, zap.NewNop())

	// Selections may legally span blocks; the mark placement is what fails.
	start := offsetOf(t, body, "during tasks.")
	end := offsetOf(t, body, "Field studies") + len("Field studies")
	anchor, err := Capture(Selection{Start: start, End: end}, body)
	if err != nil {
		t.Fatalf("unexpected capture error: %v", err)
	}

	result := highlighter.Mark(anchor, "ann-2")

	if result.Applied {
		t.Fatalf("expected cross-block anchor to fail placement")
	}
	if len(body.Marks()) != 0 {
		t.Fatalf("expected no marks after failed placement, got %d", len(body.Marks()))
	}
}

func TestMarkRelocatesStaleAnchorByText(t *testing.T) {
	body := sampleBody(t)
	highlighter := NewHighlighter(body, zap.NewNop())

	// Offsets no longer hold the captured text; the captured snapshot is
	// re-located at its first occurrence.
	anchor := Anchor{Start: 1, End: 1 + len("stress signals"), Text: "stress signals"}

	result := highlighter.Mark(anchor, "ann-3")

	if !result.Applied {
		t.Fatalf("expected stale anchor to re-locate by its text")
	}
	mark, ok := body.MarkFor("ann-3")
	if !ok {
		t.Fatalf("expected a placed mark")
	}
	if body.Slice(mark.Start, mark.End) != "stress signals" {
		t.Fatalf("re-located mark does not cover the anchor text")
	}
}

func TestMarkZeroAnchorNotApplied(t *testing.T) {
	body := sampleBody(t)
	highlighter := NewHighlighter(body, zap.NewNop())

	result := highlighter.Mark(Anchor{}, "ann-4")

	if result.Applied {
		t.Fatalf("expected zero anchor to fail placement")
	}
}

func TestMarkAtResolvesOwningAnnotation(t *testing.T) {
	body := sampleBody(t)
	highlighter := NewHighlighter(body, zap.NewNop())
	anchor := mustCapture(t, body, "stress signals")
	if result := highlighter.Mark(anchor, "ann-5"); !result.Applied {
		t.Fatalf("expected highlight to apply")
	}

	mark, ok := body.MarkAt(anchor.Start + 3)
	if !ok {
		t.Fatalf("expected a mark at an offset inside the highlight")
	}
	if mark.AnnotationID != "ann-5" {
		t.Fatalf("expected click to resolve to ann-5, got %s", mark.AnnotationID)
	}

	if _, ok := body.MarkAt(0); ok {
		t.Fatalf("expected no mark outside the highlighted range")
	}
}

func TestParseCollapsesBlankLineRuns(t *testing.T) {
	body := Parse("First paragraph.\r\n\r\n\r\n\r\nSecond paragraph.")

	if body.BlockCount() != 2 {
		t.Fatalf("expected 2 blocks, got %d", body.BlockCount())
	}
	if !strings.Contains(body.Text(), "First paragraph.\n\nSecond paragraph.") {
		t.Fatalf("unexpected normalized stream %q", body.Text())
	}
}
