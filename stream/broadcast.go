package stream

import "sync"

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts losing values.
const subscriberBuffer = 32

// Broadcaster fans out published values to every subscriber.
type Broadcaster[T any] struct {
	mu      sync.RWMutex
	clients map[chan T]struct{}
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{
		clients: make(map[chan T]struct{}),
	}
}

// Subscribe registers a new subscriber and returns its dedicated channel.
func (b *Broadcaster[T]) Subscribe() chan T {
	ch := make(chan T, subscriberBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster[T]) Unsubscribe(ch chan T) {
	b.mu.Lock()
	if _, ok := b.clients[ch]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.clients, ch)
	b.mu.Unlock()
	close(ch)
}

// Publish delivers v to every subscriber. Delivery is non-blocking; a full
// subscriber channel drops the value.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- v:
		default:
		}
	}
}

// Len returns the current number of subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
