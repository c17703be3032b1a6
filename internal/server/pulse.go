package server

import (
	"sync"
	"time"
)

const pulseDuration = 1200 * time.Millisecond

// Pulser tracks the transient visual pulse placed on a revealed annotation.
// A pulse self-clears after a fixed delay; the timer firing after the pulse
// was replaced or the view torn down is a safe no-op. At most one annotation
// pulses at a time, matching the reading UI's flash behavior.
type Pulser struct {
	mu           sync.Mutex
	annotationID string
	generation   int64
	duration     time.Duration
	timerFactory func(time.Duration, func()) *time.Timer
}

// NewPulser constructs a pulser with the fixed reveal-flash duration.
func NewPulser() *Pulser {
	return &Pulser{
		duration:     pulseDuration,
		timerFactory: time.AfterFunc,
	}
}

// Trigger starts (or restarts) the pulse on the annotation.
func (p *Pulser) Trigger(annotationID string) {
	if annotationID == "" {
		return
	}
	p.mu.Lock()
	p.generation++
	generation := p.generation
	p.annotationID = annotationID
	factory := p.timerFactory
	duration := p.duration
	p.mu.Unlock()

	factory(duration, func() {
		p.clear(generation)
	})
}

// Active reports the currently pulsing annotation, if any.
func (p *Pulser) Active() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.annotationID, p.annotationID != ""
}

// clear drops the pulse only when it still belongs to the triggering
// generation; a stale timer finds nothing to do.
func (p *Pulser) clear(generation int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != generation {
		return
	}
	p.annotationID = ""
}
