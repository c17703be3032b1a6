package notifications

import (
	"fmt"

	"github.com/MarcoPoloResearchLab/margin/internal/annotations"
	"go.uber.org/zap"
)

// StoreNotifier adapts the feed to the annotation store's notifier contract:
// qualifying store mutations (a new own annotation, a received reply) become
// feed entries. Feed failures never propagate back into the store mutation.
type StoreNotifier struct {
	feed   *Feed
	logger *zap.Logger
}

// NewStoreNotifier binds the adapter to a feed. A nil logger falls back to a
// no-op logger.
func NewStoreNotifier(feed *Feed, logger *zap.Logger) *StoreNotifier {
	if logger == nil {
		logger = noOpLogger
	}
	return &StoreNotifier{feed: feed, logger: logger}
}

// AnnotationCreated records a feed entry for a newly saved own annotation.
func (n *StoreNotifier) AnnotationCreated(annotation annotations.Annotation) {
	_, err := n.feed.Notify(NotifyParams{
		Title:               annotation.Author,
		Body:                "Your annotation was saved.",
		RelatedAnnotationID: annotation.ID,
	})
	if err != nil {
		n.logger.Warn("annotation-created notification failed", zap.Error(err))
	}
}

// ReplyReceived records a feed entry for a reply landing on an annotation.
func (n *StoreNotifier) ReplyReceived(annotation annotations.Annotation, reply annotations.Reply) {
	_, err := n.feed.Notify(NotifyParams{
		Title:               reply.Author,
		Body:                fmt.Sprintf("%s replied to your annotation.", reply.Author),
		RelatedAnnotationID: annotation.ID,
	})
	if err != nil {
		n.logger.Warn("reply notification failed", zap.Error(err))
	}
}
