package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SourceEDS = "eds"
	SourceICS = "ics"
)

type Runtime struct {
	ConfigFile string

	Source string
	ICSDir string

	WeatherAPIKey  string
	WeatherBaseURL string
	Latitude       float64
	Longitude      float64
	HasLocation    bool

	Tick             time.Duration
	EventsInterval   time.Duration
	WeatherInterval  time.Duration
	ForecastInterval time.Duration
	Timeout          time.Duration

	StateDir     string
	SnapshotPath string
	SettingsDir  string

	LogLevel   string
	TimeLayout string
	DateLayout string
	Location   *time.Location
}

func Load() (Runtime, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Runtime{}, fmt.Errorf("resolve home dir: %w", err)
	}

	xdgConfig := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	xdgState := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if xdgState == "" {
		xdgState = filepath.Join(home, ".local", "state")
	}

	defaultConfig := filepath.Join(xdgConfig, "calendar-clock", "calendar-clock.env")
	configFile := strings.TrimSpace(os.Getenv("CALENDAR_CLOCK_CONFIG_FILE"))
	if configFile == "" {
		configFile = defaultConfig
	}

	if err := loadEnvFile(configFile); err != nil {
		return Runtime{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("CALENDAR_CLOCK")
	v.AutomaticEnv()

	_ = v.BindEnv("weather_api_key", "CALENDAR_CLOCK_WEATHER_API_KEY", "WEATHER_API_KEY")
	_ = v.BindEnv("latitude", "CALENDAR_CLOCK_LATITUDE")
	_ = v.BindEnv("longitude", "CALENDAR_CLOCK_LONGITUDE")

	defaultStateDir := filepath.Join(xdgState, "calendar-clock")
	defaultSettingsDir := filepath.Join(xdgConfig, "calendar-clock", "settings")
	defaultICSDir := filepath.Join(home, ".local", "share", "calendars")

	v.SetDefault("source", SourceEDS)
	v.SetDefault("ics_dir", defaultICSDir)
	v.SetDefault("weather_base_url", "https://api.openweathermap.org/data/2.5/")
	v.SetDefault("tick_seconds", 1)
	v.SetDefault("events_interval_seconds", 60)
	v.SetDefault("weather_interval_minutes", 60)
	v.SetDefault("forecast_interval_minutes", 120)
	v.SetDefault("timeout_seconds", 20)
	v.SetDefault("state_dir", defaultStateDir)
	v.SetDefault("settings_dir", defaultSettingsDir)
	v.SetDefault("log_level", "info")
	v.SetDefault("time_layout", "15:04:05")
	v.SetDefault("date_layout", "Mon, Jan 2")

	source := strings.ToLower(strings.TrimSpace(v.GetString("source")))
	if source != SourceICS {
		source = SourceEDS
	}

	icsDir := strings.TrimSpace(v.GetString("ics_dir"))
	if icsDir == "" {
		icsDir = defaultICSDir
	}

	stateDir := strings.TrimSpace(v.GetString("state_dir"))
	if stateDir == "" {
		stateDir = defaultStateDir
	}

	settingsDir := strings.TrimSpace(v.GetString("settings_dir"))
	if settingsDir == "" {
		settingsDir = defaultSettingsDir
	}

	latRaw := strings.TrimSpace(v.GetString("latitude"))
	lonRaw := strings.TrimSpace(v.GetString("longitude"))
	hasLocation := latRaw != "" && lonRaw != ""

	loc := time.Local
	if name := strings.TrimSpace(v.GetString("timezone")); name != "" {
		loaded, err := time.LoadLocation(name)
		if err != nil {
			return Runtime{}, fmt.Errorf("load timezone %q: %w", name, err)
		}
		loc = loaded
	}

	return Runtime{
		ConfigFile:       configFile,
		Source:           source,
		ICSDir:           icsDir,
		WeatherAPIKey:    strings.TrimSpace(v.GetString("weather_api_key")),
		WeatherBaseURL:   strings.TrimSpace(v.GetString("weather_base_url")),
		Latitude:         v.GetFloat64("latitude"),
		Longitude:        v.GetFloat64("longitude"),
		HasLocation:      hasLocation,
		Tick:             positiveDuration(v.GetInt("tick_seconds"), 1, time.Second),
		EventsInterval:   positiveDuration(v.GetInt("events_interval_seconds"), 60, time.Second),
		WeatherInterval:  positiveDuration(v.GetInt("weather_interval_minutes"), 60, time.Minute),
		ForecastInterval: positiveDuration(v.GetInt("forecast_interval_minutes"), 120, time.Minute),
		Timeout:          positiveDuration(v.GetInt("timeout_seconds"), 20, time.Second),
		StateDir:         stateDir,
		SnapshotPath:     filepath.Join(stateDir, "snapshot.json"),
		SettingsDir:      settingsDir,
		LogLevel:         strings.TrimSpace(v.GetString("log_level")),
		TimeLayout:       v.GetString("time_layout"),
		DateLayout:       v.GetString("date_layout"),
		Location:         loc,
	}, nil
}

func positiveDuration(value int, fallback int, unit time.Duration) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * unit
}

func loadEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open env file %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}

		if len(value) >= 2 {
			if (value[0] == '\'' && value[len(value)-1] == '\'') ||
				(value[0] == '"' && value[len(value)-1] == '"') {
				value = value[1 : len(value)-1]
			}
		}

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, value)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan env file %s: %w", path, err)
	}
	return nil
}
