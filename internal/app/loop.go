// Package app wires the calendar, weather and clock collaborators into a
// single-threaded reducer loop and provides the one-shot commands of the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/events"
	"github.com/thegreatkingbear/calendar-clock/internal/reactor"
)

var ErrStopped = errors.New("loop stopped")

// Observer receives every new clock screen state together with the action
// that produced it. It runs on the loop goroutine and must not block.
type Observer func(action reactor.Action, st reactor.State)

type fetchRequest struct {
	kind reactor.FetchKind
}

type fetchResult struct {
	kind   reactor.FetchKind
	action reactor.Action
}

// barrier is closed by the loop once every earlier message was handled.
type barrier chan struct{}

// Loop owns the clock and settings screen states. All reductions happen on
// one goroutine; fetches run concurrently and report back through the inbox,
// at most one per FetchKind at a time.
type Loop struct {
	deps      Deps
	intervals Intervals
	logger    *log.Logger
	observer  Observer

	agg      *events.Aggregator
	clock    *reactor.Clock
	settings *reactor.Settings

	inbox chan any

	mu            sync.Mutex
	state         reactor.State
	settingsState reactor.SettingsState

	// inFlight and pending are only touched by the loop goroutine. A
	// request arriving while its kind is in flight marks it pending; the
	// completion then starts exactly one follow-up fetch.
	inFlight map[reactor.FetchKind]bool
	pending  map[reactor.FetchKind]bool

	ctx     context.Context
	cancel  context.CancelFunc
	cron    *cron.Cron
	fetches sync.WaitGroup
	workers sync.WaitGroup
	started bool
}

func New(deps Deps, intervals Intervals, observer Observer) *Loop {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if observer == nil {
		observer = func(reactor.Action, reactor.State) {}
	}

	agg := events.NewAggregator(deps.Calendars, deps.Logger)

	l := &Loop{
		deps:      deps,
		intervals: intervals,
		logger:    deps.Logger,
		observer:  observer,
		agg:       agg,
		inbox:     make(chan any, 64),
		inFlight:  make(map[reactor.FetchKind]bool),
		pending:   make(map[reactor.FetchKind]bool),
	}
	l.clock = reactor.NewClock(deps.Clock, agg)
	l.settings = reactor.NewSettings(settingsEffects{store: deps.Settings, agg: agg, logger: deps.Logger})
	l.state = l.clock.Initial()
	return l
}

// Start launches the loop goroutine, the timers and the change triggers.
// The loop runs until ctx is done or Stop is called.
func (l *Loop) Start(ctx context.Context) error {
	if l.started {
		return errors.New("loop already started")
	}
	l.started = true
	l.ctx, l.cancel = context.WithCancel(ctx)

	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		l.run()
	}()

	l.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cron.PrintfLogger(l.logger.StandardLog())),
		cron.WithChain(cron.Recover(cron.PrintfLogger(l.logger.StandardLog()))),
	)
	schedules := []struct {
		every time.Duration
		job   func()
	}{
		{l.intervals.Tick, l.tick},
		{l.intervals.Events, func() { l.Refresh(reactor.FetchEvents) }},
		{l.intervals.Weather, func() { l.Refresh(reactor.FetchWeather) }},
		{l.intervals.Forecast, func() { l.Refresh(reactor.FetchForecast) }},
	}
	for _, s := range schedules {
		if s.every <= 0 {
			continue
		}
		if _, err := l.cron.AddFunc(fmt.Sprintf("@every %s", s.every), s.job); err != nil {
			l.cancel()
			return fmt.Errorf("schedule timer: %w", err)
		}
	}
	l.cron.Start()

	l.watchSelection()
	l.watchCalendarStore()
	l.watchFirstFix()

	l.tick()
	l.Refresh(reactor.FetchCalendars)
	return nil
}

// Stop cancels outstanding work and waits for it to finish. Completions
// that arrive after Stop are dropped.
func (l *Loop) Stop() {
	if !l.started {
		return
	}
	l.cancel()
	<-l.cron.Stop().Done()
	l.fetches.Wait()
	l.workers.Wait()
	l.agg.Close()
}

// Dispatch queues action for reduction.
func (l *Loop) Dispatch(action reactor.Action) error {
	return l.send(action)
}

// Refresh asks for a fetch of kind. Requests made while one is in flight
// coalesce into a single fetch started after it completes.
func (l *Loop) Refresh(kind reactor.FetchKind) {
	_ = l.send(fetchRequest{kind: kind})
}

// State returns the latest clock screen state.
func (l *Loop) State() reactor.State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) SettingsState() reactor.SettingsState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.settingsState
}

// Sync blocks until every message queued before it was handled.
func (l *Loop) Sync(ctx context.Context) error {
	b := make(barrier)
	if err := l.send(b); err != nil {
		return err
	}
	select {
	case <-b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ctx.Done():
		return ErrStopped
	}
}

func (l *Loop) send(msg any) error {
	if !l.started {
		return errors.New("loop not started")
	}
	select {
	case <-l.ctx.Done():
		return ErrStopped
	default:
	}
	select {
	case l.inbox <- msg:
		return nil
	case <-l.ctx.Done():
		return ErrStopped
	}
}

func (l *Loop) tick() {
	_ = l.send(reactor.Clicked{Now: l.deps.Now()})
}

func (l *Loop) run() {
	for {
		select {
		case <-l.ctx.Done():
			return
		case msg := <-l.inbox:
			if l.ctx.Err() != nil {
				return
			}
			l.handle(msg)
		}
	}
}

func (l *Loop) handle(msg any) {
	switch m := msg.(type) {
	case barrier:
		close(m)
	case fetchRequest:
		l.startFetch(m.kind)
	case fetchResult:
		l.inFlight[m.kind] = false
		if failed, ok := m.action.(reactor.FetchFailed); ok {
			l.logger.Warn("fetch failed", "kind", failed.Kind, "err", failed.Err)
		}
		l.reduce(m.action)
		if l.pending[m.kind] {
			delete(l.pending, m.kind)
			l.startFetch(m.kind)
		}
	case reactor.Action:
		l.reduce(m)
	default:
		l.logger.Error("unexpected loop message", "type", fmt.Sprintf("%T", msg))
	}
}

func (l *Loop) reduce(action reactor.Action) {
	switch a := action.(type) {
	case reactor.CalendarsFetched:
		l.setSettings(l.settings.Reduce(l.SettingsState(), a))
		l.apply(reactor.CalendarSettingsLoaded{Groups: a.Groups})
	case reactor.CalendarToggled:
		l.setSettings(l.settings.Reduce(l.SettingsState(), a))
	default:
		l.apply(action)
	}
}

func (l *Loop) apply(action reactor.Action) {
	l.mu.Lock()
	next := l.clock.Reduce(l.state, action)
	l.state = next
	l.mu.Unlock()
	l.observer(action, next)
}

func (l *Loop) setSettings(next reactor.SettingsState) {
	l.mu.Lock()
	l.settingsState = next
	l.mu.Unlock()
}

func (l *Loop) startFetch(kind reactor.FetchKind) {
	if l.inFlight[kind] {
		l.logger.Debug("fetch in flight, queued follow-up", "kind", kind)
		l.pending[kind] = true
		return
	}
	if reason := l.unavailable(kind); reason != "" {
		l.logger.Debug("fetch skipped", "kind", kind, "reason", reason)
		return
	}

	l.inFlight[kind] = true
	l.fetches.Add(1)
	go func() {
		defer l.fetches.Done()

		ctx := l.ctx
		if l.intervals.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, l.intervals.Timeout)
			defer cancel()
		}

		result := fetchResult{kind: kind, action: l.fetch(ctx, kind)}
		select {
		case l.inbox <- result:
		case <-l.ctx.Done():
		}
	}()
}

func (l *Loop) unavailable(kind reactor.FetchKind) string {
	switch kind {
	case reactor.FetchEvents, reactor.FetchCalendars:
		if l.deps.Calendars == nil {
			return "calendar access not granted"
		}
	case reactor.FetchWeather, reactor.FetchForecast:
		if l.deps.Weather == nil {
			return "weather not configured"
		}
		if l.deps.Location == nil || !l.deps.Location.Authorized() {
			return "location not available"
		}
	}
	return ""
}

func (l *Loop) fetch(ctx context.Context, kind reactor.FetchKind) reactor.Action {
	failed := func(err error) reactor.Action {
		return reactor.FetchFailed{Kind: kind, Err: err}
	}

	switch kind {
	case reactor.FetchCalendars:
		fetched, err := l.deps.Calendars.ListCalendars(ctx)
		if err != nil {
			return failed(err)
		}
		return reactor.CalendarsFetched{Groups: calendar.Reconcile(fetched, l.deps.Settings.Load())}

	case reactor.FetchEvents:
		if _, ok := l.agg.Selection(); !ok {
			return failed(errors.New("no calendar selection yet"))
		}
		records, err := l.agg.FetchToday(ctx, l.deps.Now())
		if err != nil {
			return failed(err)
		}
		return reactor.EventsReceived{Records: records}

	case reactor.FetchWeather:
		coords, err := l.deps.Location.Coordinates(ctx)
		if err != nil {
			return failed(err)
		}
		sample, err := l.deps.Weather.Current(ctx, coords)
		if err != nil {
			return failed(err)
		}
		return reactor.WeatherReceived{Sample: sample}

	case reactor.FetchForecast:
		coords, err := l.deps.Location.Coordinates(ctx)
		if err != nil {
			return failed(err)
		}
		samples, err := l.deps.Weather.Forecast(ctx, coords)
		if err != nil {
			return failed(err)
		}
		return reactor.ForecastReceived{Samples: samples}

	default:
		return failed(fmt.Errorf("unknown fetch kind %q", kind))
	}
}

func (l *Loop) watchSelection() {
	changes := l.agg.SelectionChanges(l.ctx)
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		for range changes {
			l.Refresh(reactor.FetchEvents)
		}
	}()
}

func (l *Loop) watchCalendarStore() {
	watcher, ok := l.deps.Calendars.(Watcher)
	if !ok {
		return
	}
	changes, err := watcher.Watch(l.ctx)
	if err != nil {
		l.logger.Warn("calendar store changes will not be observed", "err", err)
		return
	}
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		for range changes {
			l.logger.Debug("calendar store changed")
			l.Refresh(reactor.FetchCalendars)
			l.Refresh(reactor.FetchEvents)
		}
	}()
}

func (l *Loop) watchFirstFix() {
	if l.deps.Location == nil {
		return
	}
	fix := l.deps.Location.FirstFix(l.ctx)
	l.workers.Add(1)
	go func() {
		defer l.workers.Done()
		if _, ok := <-fix; ok {
			l.Refresh(reactor.FetchWeather)
			l.Refresh(reactor.FetchForecast)
		}
	}()
}

type settingsEffects struct {
	store  SettingsStore
	agg    *events.Aggregator
	logger *log.Logger
}

func (e settingsEffects) SaveSettings(groups []calendar.PersistedGroup) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(groups); err != nil {
		e.logger.Error("save calendar settings", "err", err)
	}
}

func (e settingsEffects) PublishSelection(ids calendar.IdentifierSet) {
	e.agg.PublishSelection(ids)
}
