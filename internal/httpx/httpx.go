package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, truncate(e.Body, 220))
}

func IsStatus(err error, statusCode int) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == statusCode
}

// GetJSON issues a GET to endpoint with query appended and decodes the 2xx
// body into T. Non-2xx responses yield a *StatusError.
func GetJSON[T any](
	ctx context.Context,
	client *http.Client,
	endpoint string,
	query url.Values,
	timeout time.Duration,
) (T, error) {
	var zero T

	target, err := url.Parse(endpoint)
	if err != nil {
		return zero, fmt.Errorf("parse url: %w", err)
	}
	if len(query) > 0 {
		merged := target.Query()
		for key, values := range query {
			for _, value := range values {
				merged.Add(key, value)
			}
		}
		target.RawQuery = merged.Encode()
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	payload, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return zero, fmt.Errorf("read response: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(payload))}
	}

	var decoded T
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return zero, fmt.Errorf("decode json response: %w", err)
	}

	return decoded, nil
}

// Redact hides the value of key in a URL before it is logged.
func Redact(raw string, key string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := parsed.Query()
	if query.Get(key) == "" {
		return raw
	}
	query.Set(key, "REDACTED")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "..."
}
