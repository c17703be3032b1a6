package annotations

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFullListProjectsStoreOrder(t *testing.T) {
	store := mustStore(t, StoreConfig{Clock: fixedClock(1761998640)})
	projector := NewProjector(store)

	first := mustAppend(t, store, AppendParams{Anchor: testAnchor("first snippet"), Note: "first note"})
	mustAppend(t, store, AppendParams{Anchor: testAnchor("second snippet"), Note: "second note", Author: "Mr. Ramirez"})
	if _, err := store.AppendReply(first.ID, "Maya", "agreed"); err != nil {
		t.Fatalf("unexpected reply error: %v", err)
	}

	view := projector.FullList()

	if view.Empty {
		t.Fatalf("expected a populated view")
	}
	if view.Count != 2 || len(view.Items) != 2 {
		t.Fatalf("expected 2 items, got count=%d len=%d", view.Count, len(view.Items))
	}
	if view.Items[0].Snippet != "first snippet" || view.Items[1].Snippet != "second snippet" {
		t.Fatalf("expected store order to be preserved")
	}
	if view.Items[0].ReplyCount != 1 {
		t.Fatalf("expected reply count 1, got %d", view.Items[0].ReplyCount)
	}
	if view.Items[1].Author != "Mr. Ramirez" {
		t.Fatalf("unexpected author %q", view.Items[1].Author)
	}
	expectedTime := time.Unix(1761998640, 0).UTC().Format("Jan 2, 3:04 PM")
	if view.Items[0].DisplayTime != expectedTime {
		t.Fatalf("expected display time %q, got %q", expectedTime, view.Items[0].DisplayTime)
	}
}

func TestFullListEmptyState(t *testing.T) {
	store := mustStore(t, StoreConfig{})
	projector := NewProjector(store)

	view := projector.FullList()

	if !view.Empty {
		t.Fatalf("expected the empty sentinel")
	}
	if view.EmptyMessage != EmptyListMessage {
		t.Fatalf("unexpected empty message %q", view.EmptyMessage)
	}
	if len(view.Items) != 0 || view.Count != 0 {
		t.Fatalf("expected no items in the empty view")
	}
}

func TestCompactSummariesTruncation(t *testing.T) {
	longSnippet := strings.Repeat("s", 61)
	longNote := strings.Repeat("n", 71)
	exactSnippet := strings.Repeat("x", 60)

	tests := []struct {
		name          string
		snippet       string
		note          string
		expectedTitle string
		expectedNote  string
	}{
		{
			name:          "short values untouched",
			snippet:       "short snippet",
			note:          "short note",
			expectedTitle: "short snippet",
			expectedNote:  "short note",
		},
		{
			name:          "long values truncated with ellipsis",
			snippet:       longSnippet,
			note:          longNote,
			expectedTitle: strings.Repeat("s", 60) + "…",
			expectedNote:  strings.Repeat("n", 70) + "…",
		},
		{
			name:          "exact limit keeps full text",
			snippet:       exactSnippet,
			note:          "fine",
			expectedTitle: exactSnippet,
			expectedNote:  "fine",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := mustStore(t, StoreConfig{})
			projector := NewProjector(store)
			mustAppend(t, store, AppendParams{Anchor: testAnchor(tc.snippet), Note: tc.note})

			view := projector.CompactSummaries()

			if len(view.Items) != 1 {
				t.Fatalf("expected 1 summary, got %d", len(view.Items))
			}
			if view.Items[0].Title != tc.expectedTitle {
				t.Fatalf("unexpected title %q", view.Items[0].Title)
			}
			if !strings.HasSuffix(view.Items[0].Meta, tc.expectedNote) {
				t.Fatalf("expected meta to end with %q, got %q", tc.expectedNote, view.Items[0].Meta)
			}
		})
	}
}

func TestCompactSummariesEmptyState(t *testing.T) {
	store := mustStore(t, StoreConfig{})
	projector := NewProjector(store)

	view := projector.CompactSummaries()

	if !view.Empty || view.EmptyMessage != EmptySummariesMessage {
		t.Fatalf("expected the summaries empty sentinel, got %+v", view)
	}
}

func TestReplyThreadTextJoinsArrivalOrder(t *testing.T) {
	store := mustStore(t, StoreConfig{})
	projector := NewProjector(store)
	record := mustAppend(t, store, AppendParams{Anchor: testAnchor("root"), Note: "root"})

	if _, err := store.AppendReply(record.ID, "Maya", "agreed"); err != nil {
		t.Fatalf("unexpected reply error: %v", err)
	}
	if _, err := store.AppendReply(record.ID, "Sam", "see page 4"); err != nil {
		t.Fatalf("unexpected reply error: %v", err)
	}

	thread, err := projector.ReplyThreadText(record.ID)
	if err != nil {
		t.Fatalf("unexpected thread error: %v", err)
	}
	expected := "Maya · agreed   ·   Sam · see page 4"
	if thread != expected {
		t.Fatalf("expected thread %q, got %q", expected, thread)
	}
}

func TestReplyThreadTextEmptyThread(t *testing.T) {
	store := mustStore(t, StoreConfig{})
	projector := NewProjector(store)
	record := mustAppend(t, store, AppendParams{Anchor: testAnchor("root"), Note: "root"})

	thread, err := projector.ReplyThreadText(record.ID)
	if err != nil {
		t.Fatalf("unexpected thread error: %v", err)
	}
	if thread != "" {
		t.Fatalf("expected empty thread text, got %q", thread)
	}
}

func TestReplyThreadTextUnknownAnnotation(t *testing.T) {
	store := mustStore(t, StoreConfig{})
	projector := NewProjector(store)

	_, err := projector.ReplyThreadText("missing-id")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}
