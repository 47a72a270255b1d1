package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ride-check/internal/adapter/openweather"
	"github.com/couchcryptid/ride-check/internal/domain"
	"github.com/couchcryptid/ride-check/internal/observability"
	"github.com/couchcryptid/ride-check/internal/pipeline"
)

// fixtureProvider serves the recorded Brașov forecast (UTC+3, 3h slots from
// 2024-06-10T00:00Z) for every city.
type fixtureProvider struct {
	t    *testing.T
	err  error
	seen []domain.City
}

func (f *fixtureProvider) Forecast(_ context.Context, city domain.City) (domain.Forecast, error) {
	f.seen = append(f.seen, city)
	if f.err != nil {
		return domain.Forecast{}, f.err
	}
	data, err := os.ReadFile(filepath.Join("..", "adapter", "openweather", "testdata", "forecast_brasov.json"))
	require.NoError(f.t, err)
	return openweather.Decode(data)
}

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func newTestChecker(provider domain.ForecastProvider) (*pipeline.Checker, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	c := pipeline.NewChecker(provider, domain.DefaultCommuteWindow(), domain.DefaultRideDay(), "ro", newTestLogger(), metrics)
	return c, metrics
}

func TestChecker_Check_FirstRideDay(t *testing.T) {
	checkedAt := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	freezeClock(t, checkedAt)
	c, metrics := newTestChecker(&fixtureProvider{t: t})

	report, err := c.Check(context.Background(), "brasov")
	require.NoError(t, err)

	expected := domain.Report{
		City:          "Brașov",
		Country:       "ro",
		Day:           "2024-06-10",
		CommuteWindow: "8-9,16-18",
		SampleCount:   4,
		CommuteSlots:  2,
		Verdict: domain.Verdict{
			Safe:     true,
			Status:   domain.StatusCaution,
			Warnings: []string{"Moderate winds: 32 km/h - ride with caution"},
		},
		CheckedAt: checkedAt,
	}
	if diff := cmp.Diff(expected, report, cmpopts.IgnoreFields(domain.Report{}, "ID")); diff != "" {
		t.Fatalf("report mismatch (-want +got):\n%s", diff)
	}
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Verdicts.WithLabelValues("caution")))
}

func TestChecker_Check_SkipsElapsedDay(t *testing.T) {
	// 21:00 local: the 18:00 slot has ended, so the next day is evaluated.
	freezeClock(t, time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC))
	c, _ := newTestChecker(&fixtureProvider{t: t})

	report, err := c.Check(context.Background(), "Brașov")
	require.NoError(t, err)

	assert.Equal(t, "2024-06-11", report.Day)
	assert.True(t, report.Verdict.Safe)
	assert.Equal(t, domain.StatusCaution, report.Verdict.Status)
	assert.Equal(t, []string{
		"Cool temperature during commute: 6°C - ride with caution",
		"Light rain during commute - ride with caution",
		"Moderate winds: 40 km/h - ride with caution",
	}, report.Verdict.Warnings)
}

func TestChecker_Check_UsesConfiguredCountry(t *testing.T) {
	freezeClock(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	provider := &fixtureProvider{t: t}
	c := pipeline.NewChecker(provider, domain.DefaultCommuteWindow(), domain.DefaultRideDay(), "md",
		newTestLogger(), observability.NewMetricsForTesting())

	report, err := c.Check(context.Background(), "Iasi")
	require.NoError(t, err)

	require.Len(t, provider.seen, 1)
	assert.Equal(t, domain.City{Name: "Iași", Country: "md"}, provider.seen[0])
	assert.Equal(t, "md", report.Country)
}

type staticProvider struct {
	fc domain.Forecast
}

func (s staticProvider) Forecast(context.Context, domain.City) (domain.Forecast, error) {
	return s.fc, nil
}

func TestChecker_Check_LocalHoursFollowDST(t *testing.T) {
	// Recorded on 2024-10-26 at UTC+3; Romania switches to UTC+2 on 2024-10-27.
	start := time.Date(2024, 10, 28, 0, 0, 0, 0, time.UTC)
	var samples []domain.RawSample
	for i := range 8 {
		temp := 288.15
		if i == 2 { // 06:00Z is 08:00 local after the change
			temp = 275.15
		}
		samples = append(samples, domain.RawSample{
			Time:         start.Add(time.Duration(i) * domain.SlotDuration),
			TemperatureK: temp,
			WindSpeedMS:  2,
		})
	}
	provider := staticProvider{fc: domain.Forecast{City: "Sibiu", UTCOffset: 3 * 60 * 60, Samples: samples}}

	freezeClock(t, start)
	window, err := domain.NewCommuteWindow(8, 17)
	require.NoError(t, err)
	c := pipeline.NewChecker(provider, window, domain.DefaultRideDay(), "ro",
		newTestLogger(), observability.NewMetricsForTesting())

	report, err := c.Check(context.Background(), "Sibiu")
	require.NoError(t, err)
	assert.Equal(t, "2024-10-28", report.Day)
	assert.Equal(t, 2, report.CommuteSlots)
	assert.Equal(t, []string{"Temperature too low during commute: 2°C"}, report.Verdict.Warnings)
}

func TestChecker_Check_UnknownCity(t *testing.T) {
	provider := &fixtureProvider{t: t}
	c, metrics := newTestChecker(provider)

	_, err := c.Check(context.Background(), "Atlantis")
	require.ErrorIs(t, err, domain.ErrUnknownCity)
	assert.Empty(t, provider.seen, "provider must not be called for unknown cities")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CheckErrors.WithLabelValues("unknown_city")))
}

func TestChecker_Check_ForecastExhausted(t *testing.T) {
	freezeClock(t, time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC))
	c, metrics := newTestChecker(&fixtureProvider{t: t})

	_, err := c.Check(context.Background(), "Brașov")
	require.ErrorIs(t, err, domain.ErrPrecondition)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CheckErrors.WithLabelValues("precondition")))
}

func TestChecker_Check_ProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind pipeline.ErrorKind
	}{
		{"missing key", openweather.ErrMissingAPIKey, pipeline.KindConfig},
		{"provider", &openweather.ProviderError{StatusCode: http.StatusNotFound, Message: "city not found"}, pipeline.KindProvider},
		{"parse", &openweather.ParseError{Err: errors.New("unexpected EOF")}, pipeline.KindParse},
		{"breaker", errors.Join(openweather.ErrUnavailable, errors.New("circuit breaker is open")), pipeline.KindUnavailable},
		{"canceled", context.Canceled, pipeline.KindCanceled},
		{"other", errors.New("dial tcp: connection refused"), pipeline.KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, metrics := newTestChecker(&fixtureProvider{t: t, err: tt.err})

			_, err := c.Check(context.Background(), "Sibiu")
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, tt.kind, pipeline.Classify(err))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CheckErrors.WithLabelValues(string(tt.kind))))
		})
	}
}

func TestClassify_DomainErrors(t *testing.T) {
	assert.Equal(t, pipeline.KindInvalidSample, pipeline.Classify(errors.Join(domain.ErrInvalidSample)))
	assert.Equal(t, pipeline.KindPrecondition, pipeline.Classify(domain.ErrPrecondition))
	assert.Equal(t, pipeline.KindUnknownCity, pipeline.Classify(domain.ErrUnknownCity))
}
