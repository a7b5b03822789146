package app

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/clock"
	"github.com/thegreatkingbear/calendar-clock/internal/location"
	"github.com/thegreatkingbear/calendar-clock/internal/logging"
	"github.com/thegreatkingbear/calendar-clock/internal/settings"
	"github.com/thegreatkingbear/calendar-clock/internal/weather"
)

var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type fakeCalendars struct {
	calendars []calendar.Descriptor
	events    map[string][]calendar.RawEvent
}

func (f *fakeCalendars) ListCalendars(context.Context) ([]calendar.Descriptor, error) {
	return append([]calendar.Descriptor(nil), f.calendars...), nil
}

func (f *fakeCalendars) ListEvents(_ context.Context, uid string, _, _ time.Time) ([]calendar.RawEvent, error) {
	return f.events[uid], nil
}

func newFakeCalendars() *fakeCalendars {
	day := calendar.StartOfDay(testNow)
	return &fakeCalendars{
		calendars: []calendar.Descriptor{
			{Owner: "me@example.com", Name: "Work", UID: "work", Enabled: true},
			{Owner: "Local", Name: "Home", UID: "home", Enabled: true},
		},
		events: map[string][]calendar.RawEvent{
			"work": {{CalendarUID: "work", UID: "standup", Summary: "Standup", Start: day.Add(9 * time.Hour), End: day.Add(9*time.Hour + 15*time.Minute)}},
			"home": {{CalendarUID: "home", UID: "dentist", Summary: "Dentist", Start: day.Add(17 * time.Hour), End: day.Add(18 * time.Hour)}},
		},
	}
}

// gatedCalendars parks the first ListEvents call until release is closed.
type gatedCalendars struct {
	*fakeCalendars
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (g *gatedCalendars) ListEvents(ctx context.Context, uid string, from, to time.Time) ([]calendar.RawEvent, error) {
	first := false
	g.once.Do(func() {
		first = true
		close(g.started)
	})
	if first {
		select {
		case <-g.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return g.fakeCalendars.ListEvents(ctx, uid, from, to)
}

// blockingWeather parks every call until release is closed or ctx ends.
type blockingWeather struct {
	release chan struct{}
	calls   atomic.Int32
	started chan struct{}
	once    sync.Once
}

func newBlockingWeather() *blockingWeather {
	return &blockingWeather{release: make(chan struct{}), started: make(chan struct{})}
}

func (w *blockingWeather) wait(ctx context.Context) error {
	w.calls.Add(1)
	w.once.Do(func() { close(w.started) })
	select {
	case <-w.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *blockingWeather) Current(ctx context.Context, _ location.Coordinates) (weather.Sample, error) {
	if err := w.wait(ctx); err != nil {
		return weather.Sample{}, err
	}
	return weather.Sample{Description: "clear", Temperature: 10}, nil
}

func (w *blockingWeather) Forecast(ctx context.Context, _ location.Coordinates) ([]weather.Sample, error) {
	if err := w.wait(ctx); err != nil {
		return nil, err
	}
	return []weather.Sample{{Epoch: testNow.Unix()}}, nil
}

func newDeps(t *testing.T) Deps {
	t.Helper()

	store, err := settings.Open(t.TempDir(), logging.Discard())
	if err != nil {
		t.Fatalf("open settings: %v", err)
	}
	return Deps{
		Calendars: newFakeCalendars(),
		Settings:  store,
		Clock:     clock.New("15:04:05", "2006-01-02", time.UTC),
		Logger:    logging.Discard(),
		Now:       func() time.Time { return testNow },
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
