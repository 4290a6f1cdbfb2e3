package server

import (
	"sync"

	"github.com/playperu/minigames/internal/room"
)

// Broker is an in-process pub/sub for room events, keyed by room ID. It
// implements room.Notifier and feeds the SSE and WebSocket handlers.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan room.Event]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan room.Event]struct{}),
	}
}

// Subscribe returns a channel that receives events for the given room.
func (b *Broker) Subscribe(roomID string) chan room.Event {
	ch := make(chan room.Event, 16)
	b.mu.Lock()
	if b.subs[roomID] == nil {
		b.subs[roomID] = make(map[chan room.Event]struct{})
	}
	b.subs[roomID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the room's subscribers.
func (b *Broker) Unsubscribe(roomID string, ch chan room.Event) {
	b.mu.Lock()
	delete(b.subs[roomID], ch)
	if len(b.subs[roomID]) == 0 {
		delete(b.subs, roomID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given room.
func (b *Broker) Publish(roomID string, ev room.Event) {
	b.mu.RLock()
	for ch := range b.subs[roomID] {
		select {
		case ch <- ev:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

// Subscribers reports how many feeds are open for a room.
func (b *Broker) Subscribers(roomID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[roomID])
}
