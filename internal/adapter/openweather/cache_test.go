package openweather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ride-check/internal/domain"
	"github.com/couchcryptid/ride-check/internal/observability"
)

// --- mock for cache tests ---

type countingProvider struct {
	calls int
	err   error
}

func (m *countingProvider) Forecast(_ context.Context, city domain.City) (domain.Forecast, error) {
	m.calls++
	if m.err != nil {
		return domain.Forecast{}, m.err
	}
	return domain.Forecast{City: city.Name, UTCOffset: 10800}, nil
}

func newTestCache(inner domain.ForecastProvider, size int, clock clockwork.Clock) *CachedProvider {
	return NewCachedProvider(inner, size, 10*time.Minute, clock, observability.NewMetricsForTesting())
}

// --- CachedProvider tests ---

func TestCachedProvider_CacheHit(t *testing.T) {
	inner := &countingProvider{}
	cached := newTestCache(inner, 10, clockwork.NewFakeClock())

	f1, err := cached.Forecast(context.Background(), brasov)
	require.NoError(t, err)
	f2, err := cached.Forecast(context.Background(), brasov)
	require.NoError(t, err)

	assert.Equal(t, f1, f2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(cached.metrics.ForecastCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cached.metrics.ForecastCache.WithLabelValues("miss")))
}

func TestCachedProvider_ExpiresAfterTTL(t *testing.T) {
	inner := &countingProvider{}
	clock := clockwork.NewFakeClock()
	cached := newTestCache(inner, 10, clock)

	_, _ = cached.Forecast(context.Background(), brasov)
	clock.Advance(9 * time.Minute)
	_, _ = cached.Forecast(context.Background(), brasov)
	assert.Equal(t, 1, inner.calls)

	clock.Advance(time.Minute)
	_, _ = cached.Forecast(context.Background(), brasov)
	assert.Equal(t, 2, inner.calls, "entry should expire at the TTL")
}

func TestCachedProvider_DifferentCitiesMiss(t *testing.T) {
	inner := &countingProvider{}
	cached := newTestCache(inner, 10, clockwork.NewFakeClock())

	_, _ = cached.Forecast(context.Background(), brasov)
	_, _ = cached.Forecast(context.Background(), domain.City{Name: "Sibiu", Country: "ro"})

	assert.Equal(t, 2, inner.calls)
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: errors.New("boom")}
	cached := newTestCache(inner, 10, clockwork.NewFakeClock())

	_, err := cached.Forecast(context.Background(), brasov)
	require.Error(t, err)
	_, err = cached.Forecast(context.Background(), brasov)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3, time.Minute, clockwork.NewFakeClock())

	c.put("a", domain.Forecast{City: "A"})
	c.put("b", domain.Forecast{City: "B"})

	fc, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", fc.City)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2, time.Minute, clockwork.NewFakeClock())

	c.put("a", domain.Forecast{City: "A"})
	c.put("b", domain.Forecast{City: "B"})
	c.put("c", domain.Forecast{City: "C"})

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	fc, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", fc.City)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2, time.Minute, clockwork.NewFakeClock())

	c.put("a", domain.Forecast{City: "A"})
	c.put("b", domain.Forecast{City: "B"})
	c.get("a")
	c.put("c", domain.Forecast{City: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")
	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateRefreshesExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := newLRUCache(2, time.Minute, clock)

	c.put("a", domain.Forecast{City: "A1"})
	clock.Advance(50 * time.Second)
	c.put("a", domain.Forecast{City: "A2"})
	clock.Advance(50 * time.Second)

	fc, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", fc.City)
}
