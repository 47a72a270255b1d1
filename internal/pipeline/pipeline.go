package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/ride-check/internal/domain"
	"github.com/couchcryptid/ride-check/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// CityChecker produces a report for one city.
type CityChecker interface {
	Check(ctx context.Context, city string) (domain.Report, error)
}

// BatchLoader writes multiple reports to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, reports []domain.Report) error
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	Cities      []string
	Interval    time.Duration
	Concurrency int
	Clock       clockwork.Clock // nil uses the real clock
}

// Poller periodically checks a fixed list of cities and publishes the reports.
type Poller struct {
	checker     CityChecker
	loader      BatchLoader
	cities      []string
	interval    time.Duration
	concurrency int
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
}

// NewPoller creates a Poller with the given stages and observability.
func NewPoller(c CityChecker, l BatchLoader, opts PollerOptions, logger *slog.Logger, metrics *observability.Metrics) *Poller {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Poller{
		checker:     c,
		loader:      l,
		cities:      opts.Cities,
		interval:    opts.Interval,
		concurrency: concurrency,
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

// CheckReadiness returns nil once the poller has published at least one batch.
func (p *Poller) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("poller has not published any reports yet")
	}
	return nil
}

// Run polls until the context is cancelled. A failed publish is retried with
// a fresh cycle after an exponential backoff instead of the full interval.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("poller started", "cities", len(p.cities), "interval", p.interval, "concurrency", p.concurrency)
	p.metrics.PollerRunning.Set(1)
	defer p.metrics.PollerRunning.Set(0)

	backoff := initialBackoff
	for {
		err := p.pollOnce(ctx)
		if ctx.Err() != nil {
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		}

		wait := p.interval
		if err != nil {
			p.logger.Error("publish reports failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !sleepWithContext(ctx, p.clock, wait) {
			p.logger.Info("poller stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// pollOnce checks every city and publishes the successful reports. Only a
// publish failure is returned; per-city failures are logged and skipped.
func (p *Poller) pollOnce(ctx context.Context) error {
	start := p.clock.Now()

	reports := p.checkAll(ctx)
	if len(reports) == 0 || ctx.Err() != nil {
		return nil
	}

	if err := p.loader.LoadBatch(ctx, reports); err != nil {
		return err
	}

	p.metrics.ReportsPublished.Add(float64(len(reports)))
	p.metrics.PollCycleDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Info("poll cycle complete", "published", len(reports), "cities", len(p.cities))
	return nil
}

// checkAll runs the checks concurrently and returns the reports in city order.
func (p *Poller) checkAll(ctx context.Context) []domain.Report {
	results := make([]*domain.Report, len(p.cities))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, city := range p.cities {
		g.Go(func() error {
			report, err := p.checker.Check(ctx, city)
			if err != nil {
				if ctx.Err() == nil {
					p.logger.Warn("ride check failed, skipping city", "city", city, "kind", Classify(err), "error", err)
				}
				return nil
			}
			results[i] = &report
			return nil
		})
	}
	_ = g.Wait()

	reports := make([]domain.Report, 0, len(results))
	for _, r := range results {
		if r != nil {
			reports = append(reports, *r)
		}
	}
	return reports
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
