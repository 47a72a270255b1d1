// Package openweather consumes the OpenWeather 2.5 five-day forecast API.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/ride-check/internal/domain"
	"github.com/couchcryptid/ride-check/internal/observability"
)

const (
	// DefaultBaseURL is the public OpenWeather 2.5 endpoint.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// MissingAPIKeyMessage is shown to riders when ErrMissingAPIKey is returned.
	MissingAPIKeyMessage = "Weather API key is not configured"
)

var (
	// ErrMissingAPIKey is returned before any request when no API key is set.
	ErrMissingAPIKey = errors.New("openweather: API key is not configured")

	// ErrUnavailable wraps circuit breaker rejections.
	ErrUnavailable = errors.New("forecast provider unavailable")
)

// ProviderError is a non-200 answer from OpenWeather.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openweather: status %d", e.StatusCode)
	}
	return fmt.Sprintf("openweather: status %d: %s", e.StatusCode, e.Message)
}

// ParseError reports a payload that could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "openweather: decode forecast: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Client implements domain.ForecastProvider using the OpenWeather forecast API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeather client. An empty baseURL selects DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: newBreaker(),
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

func newBreaker() *gobreaker.CircuitBreaker[*http.Response] {
	return gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})
}

// Forecast fetches and decodes the forecast for a city.
func (c *Client) Forecast(ctx context.Context, city domain.City) (domain.Forecast, error) {
	payload, err := c.RawForecast(ctx, city)
	if err != nil {
		return domain.Forecast{}, err
	}
	fc, err := Decode(payload)
	if err != nil {
		return domain.Forecast{}, err
	}
	if fc.City == "" {
		fc.City = city.Name
	}
	return fc, nil
}

// RawForecast returns the undecoded forecast payload for a city.
func (c *Client) RawForecast(ctx context.Context, city domain.City) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	country := city.Country
	if country == "" {
		country = domain.DefaultCountry
	}
	params := url.Values{
		"q":     {city.Name + "," + country},
		"appid": {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, fmt.Errorf("upstream returned %d", r.StatusCode)
		}
		return r, nil
	})
	c.metrics.ForecastRequestDuration.Observe(time.Since(start).Seconds())

	if resp != nil {
		defer resp.Body.Close()
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.metrics.ForecastRequests.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp == nil {
		c.metrics.ForecastRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("forecast request for %s: %w", city.Name, err)
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		c.metrics.ForecastRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("read forecast response: %w", readErr)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.ForecastRequests.WithLabelValues("error").Inc()
		perr := &ProviderError{StatusCode: resp.StatusCode, Message: providerMessage(body)}
		c.logger.Warn("openweather request failed", "city", city.Name, "status", resp.StatusCode, "message", perr.Message)
		return nil, perr
	}

	c.metrics.ForecastRequests.WithLabelValues("success").Inc()
	return body, nil
}

// providerMessage extracts the "message" field OpenWeather puts in error bodies.
func providerMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Message
}
