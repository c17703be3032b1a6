package annotations

import (
	"fmt"
	"strings"
)

// Projection limits and affordances mirroring the reading UI: snippets and
// notes are previewed truncated with a trailing ellipsis, and empty
// collections always carry an explicit empty-state message so no consumer
// renders an ambiguous blank container.
const (
	snippetPreviewLimit = 60
	notePreviewLimit    = 70
	previewEllipsis     = "…"

	// EmptyListMessage is the empty-state affordance for the full list.
	EmptyListMessage = "No annotations yet."
	// EmptySummariesMessage is the empty-state affordance for summaries.
	EmptySummariesMessage = "No saved annotations yet."

	replyThreadSeparator = "   ·   "
	displayTimeLayout    = "Jan 2, 3:04 PM"
)

// ListItem is a fully rendered annotation row: provenance, note, the literal
// snippet, and the reply thread.
type ListItem struct {
	ID               string
	Author           string
	DisplayTime      string
	Note             string
	Snippet          string
	ReplyCount       int
	Replies          []Reply
	HighlightApplied bool
}

// ListView is the drawer's full annotation list with its header count.
type ListView struct {
	Items        []ListItem
	Count        int
	Empty        bool
	EmptyMessage string
}

// Summary is a compact annotation row for secondary surfaces: truncated
// snippet as the title, timestamp plus truncated note as the meta line.
type Summary struct {
	ID    string
	Title string
	Meta  string
}

// SummariesView is the "my annotations" panel projection.
type SummariesView struct {
	Items        []Summary
	Empty        bool
	EmptyMessage string
}

// Projector derives read-only views from the annotation store. Projections
// are full re-computations over a store snapshot: they never mutate the
// store and any number of consumers may call them at any time.
type Projector struct {
	store *Store
}

// NewProjector binds a projector to its store.
func NewProjector(store *Store) *Projector {
	return &Projector{store: store}
}

// FullList projects every annotation in store order with its reply thread.
func (p *Projector) FullList() ListView {
	records := p.store.List()
	if len(records) == 0 {
		return ListView{Empty: true, EmptyMessage: EmptyListMessage}
	}

	items := make([]ListItem, 0, len(records))
	for _, record := range records {
		items = append(items, ListItem{
			ID:               record.ID,
			Author:           record.Author,
			DisplayTime:      record.CreatedAt.Format(displayTimeLayout),
			Note:             record.Note,
			Snippet:          record.Anchor.Text,
			ReplyCount:       record.ReplyCount(),
			Replies:          record.Replies,
			HighlightApplied: record.HighlightApplied,
		})
	}
	return ListView{Items: items, Count: len(items)}
}

// CompactSummaries projects the truncated per-annotation summaries.
func (p *Projector) CompactSummaries() SummariesView {
	records := p.store.List()
	if len(records) == 0 {
		return SummariesView{Empty: true, EmptyMessage: EmptySummariesMessage}
	}

	items := make([]Summary, 0, len(records))
	for _, record := range records {
		items = append(items, Summary{
			ID:    record.ID,
			Title: truncatePreview(record.Anchor.Text, snippetPreviewLimit),
			Meta: fmt.Sprintf("%s · %s",
				record.CreatedAt.Format(displayTimeLayout),
				truncatePreview(record.Note, notePreviewLimit)),
		})
	}
	return SummariesView{Items: items}
}

// ReplyThreadText joins an annotation's replies as "author · text" entries in
// arrival order. An annotation without replies projects an empty string.
func (p *Projector) ReplyThreadText(annotationID string) (string, error) {
	record, err := p.store.Get(annotationID)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(record.Replies))
	for _, reply := range record.Replies {
		lines = append(lines, fmt.Sprintf("%s · %s", reply.Author, reply.Text))
	}
	return strings.Join(lines, replyThreadSeparator), nil
}

// truncatePreview shortens text to limit runes, appending an ellipsis when
// anything was cut.
func truncatePreview(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + previewEllipsis
}
