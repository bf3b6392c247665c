// SPDX-License-Identifier: MPL-2.0

package eventbus

import "sync"

// subscriberBuffer bounds how many unconsumed events a slow subscriber may
// accumulate before new publishes to it are dropped, so one stalled
// consumer never blocks the scheduler.
const subscriberBuffer = 256

// Bus is a process-wide singleton fan-out: Publish never blocks on a slow
// subscriber, and subscribers are removed by id, not by comparing
// channels, so a caller that only remembers an id can still unsubscribe.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan Event
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber under id, replacing any previous
// subscriber registered under the same id, and returns a channel of
// events. Callers must call Unsubscribe(id) when done to release the
// channel.
func (b *Bus) Subscribe(id string) <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[id] = ch
	return ch
}

// Unsubscribe removes and closes the subscriber registered under id, if
// any.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Publish fans event out to every current subscriber. A subscriber whose
// buffer is full has the event dropped for it rather than blocking the
// publisher (the LogStore remains the durable record; the bus is a
// best-effort live feed).
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount reports how many subscribers are currently registered;
// used by tests and diagnostics.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
