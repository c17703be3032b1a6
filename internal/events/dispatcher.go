package events

import (
	"context"
	"sync"
	"time"
)

// Event types emitted by the annotation core. Consumers re-pull the
// projections they render when their trigger arrives.
const (
	// EventAnnotationChanged fires on every store mutation (append, reply).
	EventAnnotationChanged = "annotation-change"
	// EventNotificationAdded fires when the feed gains an entry.
	EventNotificationAdded = "notification-added"
	// EventAnnotationRevealed fires when a highlight or notification click
	// asks consumers to surface a specific annotation.
	EventAnnotationRevealed = "annotation-reveal"
)

// Message is a single outbound signal from the core.
type Message struct {
	EventType      string
	AnnotationID   string
	NotificationID string
	Timestamp      time.Time
}

// Dispatcher fans core signals out to subscribed consumers. Publishing never
// blocks: a subscriber whose buffer is full misses the message and is
// expected to re-pull projections on its next delivery.
type Dispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]*subscriber
	nextID      int64
	bufferSize  int
}

type subscriber struct {
	id     int64
	stream chan Message
}

// NewDispatcher constructs an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		subscribers: make(map[int64]*subscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a consumer stream. The stream is detached when the
// context is done or the returned cleanup runs, whichever happens first.
func (d *Dispatcher) Subscribe(ctx context.Context) (<-chan Message, func()) {
	sub := &subscriber{
		id:     d.nextSequence(),
		stream: make(chan Message, d.bufferSize),
	}
	d.mu.Lock()
	d.subscribers[sub.id] = sub
	d.mu.Unlock()

	cleanup := func() {
		d.mu.Lock()
		delete(d.subscribers, sub.id)
		d.mu.Unlock()
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return sub.stream, cleanup
}

// Publish delivers the message to every subscriber without blocking.
func (d *Dispatcher) Publish(message Message) {
	if message.EventType == "" {
		return
	}
	d.mu.RLock()
	copies := make([]*subscriber, 0, len(d.subscribers))
	for _, sub := range d.subscribers {
		copies = append(copies, sub)
	}
	d.mu.RUnlock()

	for _, sub := range copies {
		select {
		case sub.stream <- message:
		default:
		}
	}
}

func (d *Dispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}
