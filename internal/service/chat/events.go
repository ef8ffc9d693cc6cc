package chat

import (
	"log"
	"sync"
	"time"

	"github.com/zhouzirui/persona-probe/backend/internal/model/chat"
)

// EventType names a registry lifecycle event.
type EventType string

const (
	EventSessionCreated EventType = "session.created"
	EventSessionMessage EventType = "session.message"
	EventSessionEnded   EventType = "session.ended"
)

// Event is published whenever a session is created, receives a message or ends.
type Event struct {
	Type      EventType     `json:"type"`
	SessionID string        `json:"session_id"`
	Summary   *chat.Summary `json:"summary,omitempty"`
	At        time.Time     `json:"at"`
}

// Broadcaster fans events out to subscribers without ever blocking the publisher.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	next        int
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[int]chan Event)}
}

// Subscribe registers a listener. The returned cancel func closes the channel and is safe to call twice.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber with room in its buffer.
func (b *Broadcaster) Publish(event Event) {
	if b == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			log.Printf("[events] subscriber %d is full, dropping %s for session=%s", id, event.Type, event.SessionID)
		}
	}
}

// Subscribers reports the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
