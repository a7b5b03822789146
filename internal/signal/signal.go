// Package signal provides a latest-value broadcast primitive. A subscriber
// first receives the current value (if one was published) and then every
// subsequent one. Delivery to a slow subscriber coalesces: it always ends up
// with the most recent value but may skip intermediate ones.
package signal

import (
	"context"
	"sync"
)

type Signal[T any] struct {
	mu     sync.Mutex
	value  T
	has    bool
	closed bool
	nextID int
	subs   map[int]chan T
}

func New[T any]() *Signal[T] {
	return &Signal[T]{subs: make(map[int]chan T)}
}

func NewWithValue[T any](value T) *Signal[T] {
	s := New[T]()
	s.value = value
	s.has = true
	return s
}

func (s *Signal[T]) Publish(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.value = value
	s.has = true
	for _, ch := range s.subs {
		replace(ch, value)
	}
}

func (s *Signal[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.has
}

// Subscribe returns a channel that is closed when ctx is done or the signal
// is closed.
func (s *Signal[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	if s.has {
		ch <- s.value
	}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}()

	return ch
}

// Close ends every subscription. Publishing after Close is a no-op.
func (s *Signal[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// replace swaps whatever is buffered for value. Callers hold s.mu, so no
// other sender can fill the buffer in between.
func replace[T any](ch chan T, value T) {
	select {
	case <-ch:
	default:
	}
	ch <- value
}
