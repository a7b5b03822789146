package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thegreatkingbear/calendar-clock/internal/calendar"
	"github.com/thegreatkingbear/calendar-clock/internal/clock"
	"github.com/thegreatkingbear/calendar-clock/internal/config"
	"github.com/thegreatkingbear/calendar-clock/internal/eds"
	"github.com/thegreatkingbear/calendar-clock/internal/icsdir"
	"github.com/thegreatkingbear/calendar-clock/internal/location"
	"github.com/thegreatkingbear/calendar-clock/internal/settings"
	"github.com/thegreatkingbear/calendar-clock/internal/state"
	"github.com/thegreatkingbear/calendar-clock/internal/weather"
)

// CalendarSource is a calendar backend.
type CalendarSource interface {
	ListCalendars(ctx context.Context) ([]calendar.Descriptor, error)
	ListEvents(ctx context.Context, calendarUID string, from, to time.Time) ([]calendar.RawEvent, error)
}

// Watcher is implemented by sources that can report store changes.
type Watcher interface {
	Watch(ctx context.Context) (<-chan struct{}, error)
}

type WeatherAPI interface {
	Current(ctx context.Context, coords location.Coordinates) (weather.Sample, error)
	Forecast(ctx context.Context, coords location.Coordinates) ([]weather.Sample, error)
}

type SettingsStore interface {
	Load() []calendar.PersistedGroup
	Save(groups []calendar.PersistedGroup) error
}

// Deps are the collaborators of the loop and the one-shot commands.
// Calendars is nil when the calendar store could not be opened; Weather is
// nil when no API key is configured.
type Deps struct {
	Calendars CalendarSource
	Settings  SettingsStore
	Weather   WeatherAPI
	Location  location.Source
	Clock     clock.Clock
	Logger    *log.Logger
	Now       func() time.Time
}

type Intervals struct {
	Tick     time.Duration
	Events   time.Duration
	Weather  time.Duration
	Forecast time.Duration
	Timeout  time.Duration
}

func IntervalsFrom(cfg config.Runtime) Intervals {
	return Intervals{
		Tick:     cfg.Tick,
		Events:   cfg.EventsInterval,
		Weather:  cfg.WeatherInterval,
		Forecast: cfg.ForecastInterval,
		Timeout:  cfg.Timeout,
	}
}

// Build opens every collaborator named by cfg. Failing to open the calendar
// source is not fatal; it is logged and Deps.Calendars stays nil. The
// returned release func closes what was opened.
func Build(ctx context.Context, cfg config.Runtime, logger *log.Logger) (Deps, func(), error) {
	if err := state.EnsureDirs(cfg.StateDir, cfg.SettingsDir); err != nil {
		return Deps{}, nil, err
	}

	store, err := settings.Open(cfg.SettingsDir, logger)
	if err != nil {
		return Deps{}, nil, err
	}

	deps := Deps{
		Settings: store,
		Clock:    clock.New(cfg.TimeLayout, cfg.DateLayout, cfg.Location),
		Logger:   logger,
		Now:      time.Now,
	}
	var closers []func()

	source, closeSource, err := openSource(ctx, cfg, logger)
	if err != nil {
		logger.Warn("calendar access unavailable", "source", cfg.Source, "err", err)
	} else {
		deps.Calendars = source
		if closeSource != nil {
			closers = append(closers, closeSource)
		}
	}

	if cfg.WeatherAPIKey != "" {
		deps.Weather = weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.Timeout, logger)
	} else {
		logger.Info("weather disabled, no api key configured")
	}

	loc := location.NewStatic()
	if cfg.HasLocation {
		loc.Update(location.Coordinates{Lat: cfg.Latitude, Lon: cfg.Longitude})
	}
	deps.Location = loc
	closers = append(closers, loc.Close)

	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return deps, release, nil
}

func openSource(ctx context.Context, cfg config.Runtime, logger *log.Logger) (CalendarSource, func(), error) {
	switch cfg.Source {
	case config.SourceICS:
		source, err := icsdir.Open(cfg.ICSDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return source, nil, nil
	case config.SourceEDS:
		client, err := eds.New(ctx, logger)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {
			if err := client.Close(); err != nil {
				logger.Debug("close eds client", "err", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported calendar source %q", cfg.Source)
	}
}
