package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/ride-check/internal/adapter/openweather"
	"github.com/couchcryptid/ride-check/internal/domain"
	"github.com/couchcryptid/ride-check/internal/observability"
)

// ErrorKind classifies a failed check for metrics and HTTP status mapping.
type ErrorKind string

const (
	KindUnknownCity   ErrorKind = "unknown_city"
	KindConfig        ErrorKind = "config"
	KindProvider      ErrorKind = "provider"
	KindUnavailable   ErrorKind = "unavailable"
	KindParse         ErrorKind = "parse"
	KindInvalidSample ErrorKind = "invalid_sample"
	KindPrecondition  ErrorKind = "precondition"
	KindCanceled      ErrorKind = "canceled"
	KindOther         ErrorKind = "other"
)

// Classify maps an error returned by Check to its kind.
func Classify(err error) ErrorKind {
	var (
		providerErr *openweather.ProviderError
		parseErr    *openweather.ParseError
	)
	switch {
	case errors.Is(err, domain.ErrUnknownCity):
		return KindUnknownCity
	case errors.Is(err, openweather.ErrMissingAPIKey):
		return KindConfig
	case errors.Is(err, openweather.ErrUnavailable):
		return KindUnavailable
	case errors.As(err, &providerErr):
		return KindProvider
	case errors.As(err, &parseErr):
		return KindParse
	case errors.Is(err, domain.ErrInvalidSample):
		return KindInvalidSample
	case errors.Is(err, domain.ErrPrecondition):
		return KindPrecondition
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindOther
	}
}

// Checker produces a ride report for one city: fetch forecast, pick the ride
// day, evaluate it.
type Checker struct {
	provider domain.ForecastProvider
	window   domain.CommuteWindow
	rideDay  domain.RideDay
	country  string
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewChecker creates a Checker. An empty country keeps the catalog's default.
func NewChecker(provider domain.ForecastProvider, window domain.CommuteWindow, rideDay domain.RideDay, country string, logger *slog.Logger, metrics *observability.Metrics) *Checker {
	return &Checker{
		provider: provider,
		window:   window,
		rideDay:  rideDay,
		country:  country,
		logger:   logger,
		metrics:  metrics,
	}
}

// Check evaluates the upcoming ride day for the named city.
func (c *Checker) Check(ctx context.Context, name string) (domain.Report, error) {
	report, err := c.check(ctx, name)
	if err != nil {
		c.metrics.CheckErrors.WithLabelValues(string(Classify(err))).Inc()
		return domain.Report{}, err
	}
	c.metrics.Verdicts.WithLabelValues(string(report.Verdict.Status)).Inc()
	c.logger.Debug("ride checked",
		"city", report.City,
		"day", report.Day,
		"status", report.Verdict.Status,
		"warnings", len(report.Verdict.Warnings),
	)
	return report, nil
}

func (c *Checker) check(ctx context.Context, name string) (domain.Report, error) {
	city, ok := domain.LookupCity(name)
	if !ok {
		return domain.Report{}, fmt.Errorf("%w: %q", domain.ErrUnknownCity, name)
	}
	if c.country != "" {
		city.Country = c.country
	}

	fc, err := c.provider.Forecast(ctx, city)
	if err != nil {
		return domain.Report{}, fmt.Errorf("forecast for %s: %w", city.Name, err)
	}
	fc.Zone = domain.CatalogTimeZone

	sel, err := domain.SelectRideDay(fc, c.rideDay, c.window, domain.Now())
	if err != nil {
		return domain.Report{}, fmt.Errorf("select ride day for %s: %w", city.Name, err)
	}

	verdict, err := domain.Evaluate(sel.Samples, c.window)
	if err != nil {
		return domain.Report{}, fmt.Errorf("evaluate %s: %w", city.Name, err)
	}

	return domain.NewReport(city, sel, c.window, verdict), nil
}
