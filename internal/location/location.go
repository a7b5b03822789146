// Package location supplies the coordinates weather requests are made for.
package location

import (
	"context"
	"errors"
	"sync"

	"github.com/thegreatkingbear/calendar-clock/internal/signal"
)

var ErrNoFix = errors.New("location: no fix yet")

type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Source reports a position fix. FirstFix yields once, when the first fix
// becomes available, then closes.
type Source interface {
	Coordinates(ctx context.Context) (Coordinates, error)
	FirstFix(ctx context.Context) <-chan Coordinates
	Authorized() bool
}

// Static is a Source fed by configuration or by Update. It is authorized
// once it has been given coordinates.
type Static struct {
	fix *signal.Signal[Coordinates]

	mu         sync.Mutex
	authorized bool
}

func NewStatic() *Static {
	return &Static{fix: signal.New[Coordinates]()}
}

// NewStaticAt returns a source that already has a fix.
func NewStaticAt(c Coordinates) *Static {
	s := NewStatic()
	s.Update(c)
	return s
}

// Update records a new position.
func (s *Static) Update(c Coordinates) {
	s.mu.Lock()
	s.authorized = true
	s.mu.Unlock()
	s.fix.Publish(c)
}

func (s *Static) Authorized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authorized
}

func (s *Static) Coordinates(_ context.Context) (Coordinates, error) {
	c, ok := s.fix.Value()
	if !ok {
		return Coordinates{}, ErrNoFix
	}
	return c, nil
}

func (s *Static) FirstFix(ctx context.Context) <-chan Coordinates {
	out := make(chan Coordinates, 1)
	subCtx, cancel := context.WithCancel(ctx)
	updates := s.fix.Subscribe(subCtx)

	go func() {
		defer close(out)
		defer cancel()
		select {
		case <-ctx.Done():
		case c, ok := <-updates:
			if ok {
				out <- c
			}
		}
	}()
	return out
}

// Close releases FirstFix waiters that never received a fix.
func (s *Static) Close() {
	s.fix.Close()
}
