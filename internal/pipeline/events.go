package pipeline

import (
	"sync"
	"time"
)

// Event types published by the pipeline.
const (
	EventRunStarted  = "run_started"
	EventRunFinished = "run_finished"
	EventDigestAdded = "digest_added"
	EventExportDone  = "export_done"
)

// Event is a pipeline progress notification delivered to UI subscribers.
type Event struct {
	Type     string    `json:"type"`
	SourceID int64     `json:"source_id,omitempty"`
	DigestID string    `json:"digest_id,omitempty"`
	Message  string    `json:"message,omitempty"`
	Time     time.Time `json:"time"`
}

// Broker fans events out to subscribers. Slow subscribers drop events rather
// than block the pipeline.
type Broker struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called to release the channel.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers ev to all current subscribers without blocking.
func (b *Broker) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
