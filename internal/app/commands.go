package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/events"
	"github.com/thegreatkingbear/calendar-clock/internal/reactor"
	"github.com/thegreatkingbear/calendar-clock/internal/weather"
)

var (
	ErrNoCalendarAccess = errors.New("calendar access not granted")
	ErrNoWeather        = errors.New("weather not configured")
	ErrNoLocation       = errors.New("location not available")
	ErrUnknownCalendar  = errors.New("unknown calendar")
	ErrQuit             = errors.New("quit")
)

// Calendars lists the calendars grouped by owner with the persisted
// selection applied.
func Calendars(ctx context.Context, deps Deps) ([]calendar.Group, error) {
	if deps.Calendars == nil {
		return nil, ErrNoCalendarAccess
	}
	fetched, err := deps.Calendars.ListCalendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	return calendar.Reconcile(fetched, deps.Settings.Load()), nil
}

// Agenda returns today's events of the selected calendars.
func Agenda(ctx context.Context, deps Deps) ([]events.Record, error) {
	groups, err := Calendars(ctx, deps)
	if err != nil {
		return nil, err
	}

	agg := events.NewAggregator(deps.Calendars, deps.Logger)
	defer agg.Close()
	agg.PublishSelection(calendar.CollectSelectedIdentifiers(groups))
	return agg.FetchToday(ctx, now(deps))
}

// ToggleCalendar flips the selection of one calendar and persists the new
// selection.
func ToggleCalendar(ctx context.Context, deps Deps, identifier string) (calendar.Descriptor, error) {
	groups, err := Calendars(ctx, deps)
	if err != nil {
		return calendar.Descriptor{}, err
	}

	agg := events.NewAggregator(deps.Calendars, deps.Logger)
	defer agg.Close()
	r := reactor.NewSettings(settingsEffects{store: deps.Settings, agg: agg, logger: deps.Logger})

	st := r.Reduce(reactor.SettingsState{}, reactor.CalendarsFetched{Groups: groups})
	st = r.Reduce(st, reactor.CalendarToggled{Identifier: identifier})

	updated, ok := calendar.Find(st.Groups, identifier)
	if !ok {
		return calendar.Descriptor{}, fmt.Errorf("%w: %s", ErrUnknownCalendar, identifier)
	}
	return updated, nil
}

// Weather fetches current conditions and the forecast grouped by day.
func Weather(ctx context.Context, deps Deps) (*weather.Sample, []weather.Group, error) {
	if deps.Weather == nil {
		return nil, nil, ErrNoWeather
	}
	if deps.Location == nil || !deps.Location.Authorized() {
		return nil, nil, ErrNoLocation
	}
	coords, err := deps.Location.Coordinates(ctx)
	if err != nil {
		return nil, nil, err
	}

	current, err := deps.Weather.Current(ctx, coords)
	if err != nil {
		return nil, nil, err
	}
	samples, err := deps.Weather.Forecast(ctx, coords)
	if err != nil {
		return &current, nil, err
	}

	loc := deps.Clock.Location
	if loc == nil {
		loc = time.Local
	}
	return &current, weather.GroupForecast(samples, loc), nil
}

// Exec interprets one line of the run command's input. It returns ErrQuit
// for "quit".
func (l *Loop) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch strings.ToLower(fields[0]) {
	case "hide":
		if len(fields) != 2 {
			return errors.New("usage: hide <n>")
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid event number %q", fields[1])
		}
		return l.Dispatch(reactor.EventHidden{Index: n - 1})
	case "undo":
		return l.Dispatch(reactor.UndoRequested{})
	case "lock":
		return l.Dispatch(reactor.DisplayLockToggled{})
	case "toggle":
		if len(fields) != 2 {
			return errors.New("usage: toggle <calendar-id>")
		}
		return l.Dispatch(reactor.CalendarToggled{Identifier: fields[1]})
	case "refresh":
		l.Refresh(reactor.FetchCalendars)
		l.Refresh(reactor.FetchEvents)
		l.Refresh(reactor.FetchWeather)
		l.Refresh(reactor.FetchForecast)
		return nil
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func now(deps Deps) time.Time {
	if deps.Now == nil {
		return time.Now()
	}
	return deps.Now()
}
