package document

import (
	"strings"
	"testing"
)

const readingSample = `Usability testing with children requires extra care. Sessions should stay short and the moderator must watch for stress signals (extra care?) during tasks.

Field studies reveal how families actually read together. Field studies also demand longer timelines than lab sessions.

Annotations let classmates share reactions in the margin of the text.`

func sampleBody(t *testing.T) *Body {
	t.Helper()
	body := Parse(readingSample)
	if body.BlockCount() != 3 {
		t.Fatalf("expected 3 blocks in sample, got %d", body.BlockCount())
	}
	return body
}

// offsetOf derives the rune offset of a phrase in the body stream. The
// sample corpus is ASCII, so byte and rune offsets coincide.
func offsetOf(t *testing.T, body *Body, phrase string) int {
	t.Helper()
	index := strings.Index(body.Text(), phrase)
	if index < 0 {
		t.Fatalf("phrase %q not present in sample body", phrase)
	}
	return index
}

func selectionFor(t *testing.T, body *Body, phrase string) Selection {
	t.Helper()
	start := offsetOf(t, body, phrase)
	return Selection{Start: start, End: start + len(phrase)}
}

func mustCapture(t *testing.T, body *Body, phrase string) Anchor {
	t.Helper()
	anchor, err := Capture(selectionFor(t, body, phrase), body)
	if err != nil {
		t.Fatalf("unexpected capture error: %v", err)
	}
	return anchor
}
