package canim

import (
	"context"
	"fmt"
)

// EventKind identifies the payload of an Event.
type EventKind int

// Possible event kinds.
const (
	EventStatus EventKind = iota + 1
	EventProgress
)

// Event is a progress message sent from a running conversion to whoever is
// presenting it.
type Event struct {
	Kind    EventKind `json:"kind"`
	Status  string    `json:"status,omitempty"`
	Percent float64   `json:"percent"`
}

func (e Event) String() string {
	switch e.Kind {
	case EventStatus:
		return e.Status
	case EventProgress:
		return fmt.Sprintf("%.1f%%", e.Percent)
	}
	return fmt.Sprintf("Event(%d)", e.Kind)
}

// Progress is a bounded, ordered event channel. The producer blocks when the
// buffer is full, so no event is lost; the consumer drains it with Poll or
// ranges over C.
type Progress struct {
	C chan Event
}

// NewProgress returns a progress channel buffering up to size events.
func NewProgress(size int) *Progress {
	return &Progress{C: make(chan Event, size)}
}

// Poll returns every event currently buffered without blocking. The second
// result is false once the channel has been closed and drained.
func (p *Progress) Poll() ([]Event, bool) {
	var events []Event
	for {
		select {
		case ev, ok := <-p.C:
			if !ok {
				return events, false
			}
			events = append(events, ev)
		default:
			return events, true
		}
	}
}

// Close marks the end of the event stream. Only the producer may call it.
func (p *Progress) Close() {
	close(p.C)
}

// Status sends a status message, giving up if ctx is done first. It is a
// no-op on a nil Progress.
func (p *Progress) Status(ctx context.Context, format string, args ...interface{}) {
	p.send(ctx, Event{Kind: EventStatus, Status: fmt.Sprintf(format, args...)})
}

// Percent sends a completion percentage, giving up if ctx is done first. It
// is a no-op on a nil Progress.
func (p *Progress) Percent(ctx context.Context, pct float64) {
	p.send(ctx, Event{Kind: EventProgress, Percent: pct})
}

func (p *Progress) send(ctx context.Context, ev Event) {
	if p == nil {
		return
	}
	select {
	case p.C <- ev:
	case <-ctx.Done():
	}
}
