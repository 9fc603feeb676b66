package stream

import "sync"

// Queue is an unbounded multi-producer single-consumer FIFO. Push never
// blocks; the consumer drains Out(). After Close, pending values are still
// delivered, then Out() is closed.
type Queue[T any] struct {
	mu     sync.Mutex
	buf    []T
	closed bool

	wake chan struct{}
	out  chan T
}

func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
	}
	go q.pump()
	return q
}

// Push enqueues a value. It reports false once the queue has been closed,
// which producers treat as a clean stop signal rather than an error.
func (q *Queue[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.buf = append(q.buf, v)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Out returns the consumer side of the queue. Values arrive in Push order
// per producer. The channel is closed once the queue is closed and drained.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// Close stops the queue. Idempotent. Values already pushed are still
// delivered to the consumer.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *Queue[T]) pump() {
	for {
		q.mu.Lock()
		for len(q.buf) > 0 {
			v := q.buf[0]
			q.buf = q.buf[1:]
			q.mu.Unlock()
			q.out <- v
			q.mu.Lock()
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			close(q.out)
			return
		}
		<-q.wake
	}
}
