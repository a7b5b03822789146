package signal

import (
	"context"
	"testing"
	"time"
)

func TestSubscribe_ReceivesCurrentValue(t *testing.T) {
	t.Parallel()

	s := NewWithValue(7)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	if got := receive(t, ch); got != 7 {
		t.Fatalf("expected current value 7, got %d", got)
	}
}

func TestSubscribe_NoValueUntilPublished(t *testing.T) {
	t.Parallel()

	s := New[string]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	select {
	case v := <-ch:
		t.Fatalf("unexpected value before publish: %q", v)
	default:
	}

	s.Publish("granted")
	if got := receive(t, ch); got != "granted" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestPublish_CoalescesToLatest(t *testing.T) {
	t.Parallel()

	s := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	s.Publish(1)
	s.Publish(2)
	s.Publish(3)

	if got := receive(t, ch); got != 3 {
		t.Fatalf("expected latest value 3, got %d", got)
	}
	if v, ok := s.Value(); !ok || v != 3 {
		t.Fatalf("unexpected Value(): %d %v", v, ok)
	}
}

func TestSubscribe_ClosedOnCancel(t *testing.T) {
	t.Parallel()

	s := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	ch := s.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("subscription was not closed after cancel")
	}
}

func TestClose_EndsSubscriptions(t *testing.T) {
	t.Parallel()

	s := New[int]()
	ch := s.Subscribe(context.Background())
	s.Close()
	s.Publish(4)

	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if _, ok := <-s.Subscribe(context.Background()); ok {
		t.Fatalf("expected subscription on closed signal to be closed")
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for value")
	}
	var zero T
	return zero
}
