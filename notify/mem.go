package notify

import (
	"context"
	"sync"
)

// MemNotifier fans events out to in-process subscriber channels
type MemNotifier struct {
	subscribers []chan Event

	sync.RWMutex
}

// NewMemNotifier instantiates a new in-memory notifier
func NewMemNotifier() *MemNotifier {
	return &MemNotifier{
		subscribers: make([]chan Event, 0),
	}
}

// Subscribe registers a new subscriber channel and returns it
func (m *MemNotifier) Subscribe(buffer int) chan Event {
	m.Lock()
	defer m.Unlock()

	ch := make(chan Event, buffer)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

// Notify delivers the event to every subscriber that has room for it.
// Slow subscribers miss events rather than block the caller.
func (m *MemNotifier) Notify(ctx context.Context, event Event) {
	m.RLock()
	defer m.RUnlock()

	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
