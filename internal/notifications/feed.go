package notifications

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/margin/internal/events"
	"go.uber.org/zap"
)

var (
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()

	// ErrValidation indicates a notification without a body.
	ErrValidation = errors.New("notifications: invalid input")
)

const (
	opFeedNew = "notifications.feed.new"
	opNotify  = "notifications.notify"

	// EmptyFeedMessage is the empty-state affordance for the inbox.
	EmptyFeedMessage = "No notifications yet."
)

// Notification is a single inbox entry. RelatedAnnotationID is a lookup-only
// back-reference to the annotation that triggered the entry, when one did.
type Notification struct {
	ID                  string
	Title               string
	Body                string
	RelatedAnnotationID string
	CreatedAt           time.Time
	Read                bool
}

// IDProvider issues unique notification identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// FeedConfig describes the dependencies for a notification feed.
type FeedConfig struct {
	Clock      func() time.Time
	IDProvider IDProvider
	Logger     *zap.Logger
	Events     *events.Dispatcher
}

// Feed is the recency-ordered notification inbox. New entries insert at the
// front, the opposite of the annotation store's chronological append:
// notifications are an inbox, annotations a document-order list. Entries are
// never deleted; the only mutation after insert is marking read.
type Feed struct {
	mu         sync.RWMutex
	entries    []Notification
	clock      func() time.Time
	idProvider IDProvider
	logger     *zap.Logger
	events     *events.Dispatcher
}

// NewFeed constructs an empty feed.
func NewFeed(cfg FeedConfig) (*Feed, error) {
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("%s.missing_id_provider: %w", opFeedNew, errMissingIDProvider)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Feed{
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
		events:     cfg.Events,
	}, nil
}

// NotifyParams carries the input for a single feed entry. CreatedAt is
// optional so seeded entries can supply their own provenance.
type NotifyParams struct {
	Title               string
	Body                string
	RelatedAnnotationID string
	CreatedAt           time.Time
}

// Notify inserts an unread entry at the front of the feed and signals
// consumers to refresh badges.
func (f *Feed) Notify(params NotifyParams) (Notification, error) {
	body := strings.TrimSpace(params.Body)
	if body == "" {
		return Notification{}, fmt.Errorf("%s.empty_body: %w", opNotify, ErrValidation)
	}

	id, err := f.idProvider.NewID()
	if err != nil {
		f.logger.Error("notification id generation failed", zap.Error(err))
		return Notification{}, fmt.Errorf("%s.id_generation_failed: %w", opNotify, err)
	}

	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = f.clock().UTC()
	}

	entry := Notification{
		ID:                  id,
		Title:               strings.TrimSpace(params.Title),
		Body:                body,
		RelatedAnnotationID: params.RelatedAnnotationID,
		CreatedAt:           createdAt,
	}

	f.mu.Lock()
	f.entries = append([]Notification{entry}, f.entries...)
	f.mu.Unlock()

	if f.events != nil {
		f.events.Publish(events.Message{
			EventType:      events.EventNotificationAdded,
			NotificationID: id,
			AnnotationID:   params.RelatedAnnotationID,
			Timestamp:      f.clock().UTC(),
		})
	}

	f.logger.Info("notification added", zap.String("notification_id", id))
	return entry, nil
}

// MarkRead sets the entry read. A missing identifier is treated as already
// resolved: the call is a silent no-op, never an error.
func (f *Feed) MarkRead(notificationID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for index := range f.entries {
		if f.entries[index].ID == notificationID {
			f.entries[index].Read = true
			return
		}
	}
}

// Get returns the entry with the identifier, if present.
func (f *Feed) Get(notificationID string) (Notification, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, entry := range f.entries {
		if entry.ID == notificationID {
			return entry, true
		}
	}
	return Notification{}, false
}

// UnreadCount reports how many entries are unread. A zero count hides the
// badge.
func (f *Feed) UnreadCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	count := 0
	for _, entry := range f.entries {
		if !entry.Read {
			count++
		}
	}
	return count
}

// List returns a snapshot of the feed, most recent first.
func (f *Feed) List() []Notification {
	f.mu.RLock()
	defer f.mu.RUnlock()
	snapshot := make([]Notification, len(f.entries))
	copy(snapshot, f.entries)
	return snapshot
}

// Len reports the number of entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
