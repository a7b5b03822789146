package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/thegreatkingbear/calendar-clock/internal/httpx"
	"github.com/thegreatkingbear/calendar-clock/internal/location"
)

const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/"

var (
	ErrMissingAPIKey = errors.New("weather: api key not configured")
	ErrNoCondition   = errors.New("weather: response has no condition")
)

type conditionPayload struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Dt int64 `json:"dt"`
}

type forecastPayload struct {
	List []conditionPayload `json:"list"`
}

func (p conditionPayload) sample() (Sample, bool) {
	if len(p.Weather) == 0 {
		return Sample{}, false
	}
	w := p.Weather[0]
	return Sample{
		Description: w.Description,
		Icon:        w.Icon,
		ConditionID: w.ID,
		Temperature: p.Main.Temp,
		FeelsLike:   p.Main.FeelsLike,
		Humidity:    p.Main.Humidity,
		Epoch:       p.Dt,
	}, true
}

type Client struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	http   *http.Client
	logger *log.Logger
}

func NewClient(baseURL string, apiKey string, timeout time.Duration, logger *log.Logger) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		Timeout: timeout,
		http:    &http.Client{},
		logger:  logger,
	}
}

// Current fetches the conditions at coords.
func (c *Client) Current(ctx context.Context, coords location.Coordinates) (Sample, error) {
	payload, err := get[conditionPayload](ctx, c, "weather", coords)
	if err != nil {
		return Sample{}, fmt.Errorf("fetch current weather: %w", err)
	}
	sample, ok := payload.sample()
	if !ok {
		return Sample{}, fmt.Errorf("fetch current weather: %w", ErrNoCondition)
	}
	return sample, nil
}

// Forecast fetches the forecast list at coords. Entries without a
// condition are dropped.
func (c *Client) Forecast(ctx context.Context, coords location.Coordinates) ([]Sample, error) {
	payload, err := get[forecastPayload](ctx, c, "forecast", coords)
	if err != nil {
		return nil, fmt.Errorf("fetch forecast: %w", err)
	}

	samples := make([]Sample, 0, len(payload.List))
	for i, entry := range payload.List {
		sample, ok := entry.sample()
		if !ok {
			c.logger.Debug("skipping forecast entry without condition", "index", i, "dt", entry.Dt)
			continue
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func get[T any](ctx context.Context, c *Client, path string, coords location.Coordinates) (T, error) {
	var zero T
	if c.APIKey == "" {
		return zero, ErrMissingAPIKey
	}

	query := url.Values{}
	query.Set("appid", c.APIKey)
	query.Set("lat", strconv.FormatFloat(coords.Lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(coords.Lon, 'f', -1, 64))
	query.Set("units", "metric")

	endpoint := c.BaseURL + path
	c.logger.Debug("weather request", "url", httpx.Redact(endpoint+"?"+query.Encode(), "appid"))
	return httpx.GetJSON[T](ctx, c.http, endpoint, query, c.Timeout)
}
