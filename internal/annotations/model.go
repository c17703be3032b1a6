package annotations

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/margin/internal/document"
)

const maxAuthorLength = 190

var (
	// ErrValidation indicates input that must be corrected by the caller:
	// an empty note or reply, or an absent anchor. No state is mutated.
	ErrValidation = errors.New("annotations: invalid input")
	// ErrNotFound indicates an operation targeting a missing annotation.
	ErrNotFound = errors.New("annotations: annotation not found")
)

// Author represents a validated author display name.
type Author string

// NewAuthor validates raw input and returns an Author.
func NewAuthor(rawInput string) (Author, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty author", ErrValidation)
	}
	if len(trimmed) > maxAuthorLength {
		return "", fmt.Errorf("%w: author exceeds %d characters", ErrValidation, maxAuthorLength)
	}
	return Author(trimmed), nil
}

// String returns the underlying display name.
func (a Author) String() string {
	return string(a)
}

// Reply is a single threaded response on an annotation.
type Reply struct {
	Author    string
	Text      string
	CreatedAt time.Time
}

// Annotation is a persisted note bound to an anchor in the text body. The
// anchor and provenance fields never change after creation; Replies only
// grows. Replies is the authoritative reply record: its length is the reply
// count.
type Annotation struct {
	ID               string
	Anchor           document.Anchor
	Note             string
	Author           string
	CreatedAt        time.Time
	Replies          []Reply
	HighlightApplied bool
}

// ReplyCount reports the number of replies on the annotation.
func (a Annotation) ReplyCount() int {
	return len(a.Replies)
}

func (a Annotation) clone() Annotation {
	duplicate := a
	if len(a.Replies) > 0 {
		duplicate.Replies = make([]Reply, len(a.Replies))
		copy(duplicate.Replies, a.Replies)
	}
	return duplicate
}

// StoreError wraps a store failure with a dotted operation code.
type StoreError struct {
	code string
	err  error
}

func (e *StoreError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *StoreError) Unwrap() error {
	return e.err
}

// Code returns the dotted operation code for the failure.
func (e *StoreError) Code() string {
	return e.code
}

func newStoreError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &StoreError{code: code, err: cause}
}
