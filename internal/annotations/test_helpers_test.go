package annotations

import (
	"fmt"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/margin/internal/document"
)

type sequenceIDProvider struct {
	next int
}

func (p *sequenceIDProvider) NewID() (string, error) {
	p.next++
	return fmt.Sprintf("ann-%d", p.next), nil
}

type stubMarker struct {
	applied bool
	calls   int
}

func (m *stubMarker) Mark(anchor document.Anchor, annotationID string) document.MarkResult {
	m.calls++
	return document.MarkResult{Applied: m.applied}
}

type recordingNotifier struct {
	created []Annotation
	replies []Reply
}

func (n *recordingNotifier) AnnotationCreated(annotation Annotation) {
	n.created = append(n.created, annotation)
}

func (n *recordingNotifier) ReplyReceived(annotation Annotation, reply Reply) {
	n.replies = append(n.replies, reply)
}

func fixedClock(seconds int64) func() time.Time {
	return func() time.Time {
		return time.Unix(seconds, 0).UTC()
	}
}

func mustStore(t *testing.T, cfg StoreConfig) *Store {
	t.Helper()
	if cfg.IDProvider == nil {
		cfg.IDProvider = &sequenceIDProvider{}
	}
	if cfg.Clock == nil {
		cfg.Clock = fixedClock(1700000000)
	}
	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("unexpected store construction error: %v", err)
	}
	return store
}

func testAnchor(text string) document.Anchor {
	return document.Anchor{Start: 10, End: 10 + len(text), Text: text}
}

func mustAppend(t *testing.T, store *Store, params AppendParams) Annotation {
	t.Helper()
	record, err := store.Append(params)
	if err != nil {
		t.Fatalf("unexpected append error: %v", err)
	}
	return record
}
