package annotations

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/margin/internal/document"
	"github.com/MarcoPoloResearchLab/margin/internal/events"
	"go.uber.org/zap"
)

var (
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

const (
	opStoreNew    = "annotations.store.new"
	opAppend      = "annotations.append"
	opAppendReply = "annotations.append_reply"
	opGet         = "annotations.get"

	// DefaultAuthor is the display name recorded when the caller does not
	// supply one.
	DefaultAuthor = "You"
)

// IDProvider issues unique annotation identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// Marker is the highlighter binding: best-effort placement of the in-text
// mark for a newly created annotation.
type Marker interface {
	Mark(anchor document.Anchor, annotationID string) document.MarkResult
}

// Notifier receives qualifying store mutations so a feed can record them.
type Notifier interface {
	AnnotationCreated(annotation Annotation)
	ReplyReceived(annotation Annotation, reply Reply)
}

// StoreConfig describes the dependencies for an annotation store.
type StoreConfig struct {
	Clock       func() time.Time
	IDProvider  IDProvider
	Logger      *zap.Logger
	Marker      Marker
	Events      *events.Dispatcher
	Notifier    Notifier
	CurrentUser string
}

// Store is the single source of truth for annotation records. Records append
// at the end in creation order and are never deleted; replies grow in place.
// Every committed mutation publishes an annotation-change event.
type Store struct {
	mu          sync.RWMutex
	records     []Annotation
	clock       func() time.Time
	idProvider  IDProvider
	logger      *zap.Logger
	marker      Marker
	events      *events.Dispatcher
	notifier    Notifier
	currentUser string
}

// NewStore constructs an empty annotation store.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.IDProvider == nil {
		return nil, newStoreError(opStoreNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	currentUser := strings.TrimSpace(cfg.CurrentUser)
	if currentUser == "" {
		currentUser = DefaultAuthor
	}

	return &Store{
		clock:       clock,
		idProvider:  cfg.IDProvider,
		logger:      logger,
		marker:      cfg.Marker,
		events:      cfg.Events,
		notifier:    cfg.Notifier,
		currentUser: currentUser,
	}, nil
}

// AppendParams carries the input for a single Append. Author and CreatedAt
// are optional: seeded records supply their own provenance, interactive
// records default to the current user and the store clock.
type AppendParams struct {
	Anchor    document.Anchor
	Note      string
	Author    string
	CreatedAt time.Time
}

// Append validates the input, creates the record at the end of the store,
// places the highlight best-effort, and signals consumers. The call either
// fully succeeds or leaves the store untouched. A highlight that cannot be
// placed is not a failure: the record is created with HighlightApplied false.
func (s *Store) Append(params AppendParams) (Annotation, error) {
	note := strings.TrimSpace(params.Note)
	if note == "" {
		return Annotation{}, newStoreError(opAppend, "empty_note", fmt.Errorf("%w: a note is required", ErrValidation))
	}
	if params.Anchor.IsZero() {
		return Annotation{}, newStoreError(opAppend, "missing_anchor", fmt.Errorf("%w: anchor is required", ErrValidation))
	}

	id, err := s.idProvider.NewID()
	if err != nil {
		s.logger.Error("annotation id generation failed", zap.Error(err))
		return Annotation{}, newStoreError(opAppend, "id_generation_failed", err)
	}

	author := strings.TrimSpace(params.Author)
	if author == "" {
		author = s.currentUser
	}
	createdAt := params.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock().UTC()
	}

	record := Annotation{
		ID:        id,
		Anchor:    params.Anchor,
		Note:      note,
		Author:    author,
		CreatedAt: createdAt,
	}
	if s.marker != nil {
		record.HighlightApplied = s.marker.Mark(params.Anchor, id).Applied
	}

	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()

	s.publish(events.Message{
		EventType:    events.EventAnnotationChanged,
		AnnotationID: id,
		Timestamp:    s.clock().UTC(),
	})
	if s.notifier != nil && author == s.currentUser {
		s.notifier.AnnotationCreated(record.clone())
	}

	s.logger.Info("annotation created",
		zap.String("annotation_id", id),
		zap.String("author", author),
		zap.Bool("highlight_applied", record.HighlightApplied))
	return record.clone(), nil
}

// AppendReply validates and appends a reply to an existing annotation, then
// signals consumers and records a reply notification. Each successful call
// appends exactly one reply; duplicate submissions are the caller's concern.
func (s *Store) AppendReply(annotationID, author, text string) (Reply, error) {
	trimmedText := strings.TrimSpace(text)
	if trimmedText == "" {
		return Reply{}, newStoreError(opAppendReply, "empty_text", fmt.Errorf("%w: reply text is required", ErrValidation))
	}
	trimmedAuthor := strings.TrimSpace(author)
	if trimmedAuthor == "" {
		trimmedAuthor = s.currentUser
	}

	reply := Reply{
		Author:    trimmedAuthor,
		Text:      trimmedText,
		CreatedAt: s.clock().UTC(),
	}

	s.mu.Lock()
	index := s.indexOf(annotationID)
	if index < 0 {
		s.mu.Unlock()
		return Reply{}, newStoreError(opAppendReply, "unknown_annotation", fmt.Errorf("%w: %s", ErrNotFound, annotationID))
	}
	s.records[index].Replies = append(s.records[index].Replies, reply)
	updated := s.records[index].clone()
	s.mu.Unlock()

	s.publish(events.Message{
		EventType:    events.EventAnnotationChanged,
		AnnotationID: annotationID,
		Timestamp:    s.clock().UTC(),
	})
	if s.notifier != nil {
		s.notifier.ReplyReceived(updated, reply)
	}

	s.logger.Info("annotation reply appended",
		zap.String("annotation_id", annotationID),
		zap.String("author", trimmedAuthor))
	return reply, nil
}

// List returns a snapshot of every record in creation order. The snapshot is
// independent of the store: callers may hold or iterate it freely.
func (s *Store) List() []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make([]Annotation, 0, len(s.records))
	for _, record := range s.records {
		snapshot = append(snapshot, record.clone())
	}
	return snapshot
}

// Get returns a snapshot of a single record.
func (s *Store) Get(annotationID string) (Annotation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index := s.indexOf(annotationID)
	if index < 0 {
		return Annotation{}, newStoreError(opGet, "unknown_annotation", fmt.Errorf("%w: %s", ErrNotFound, annotationID))
	}
	return s.records[index].clone(), nil
}

// Len reports the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// indexOf requires the caller to hold at least the read lock.
func (s *Store) indexOf(annotationID string) int {
	for index, record := range s.records {
		if record.ID == annotationID {
			return index
		}
	}
	return -1
}

func (s *Store) publish(message events.Message) {
	if s.events == nil {
		return
	}
	s.events.Publish(message)
}
