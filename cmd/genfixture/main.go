// Command genfixture records a live OpenWeather forecast for a city as a test
// fixture and prints the report the evaluator produces for it. The clock is
// frozen at the first forecast slot so the printed report is reproducible
// from the fixture alone.
//
// Usage:
//
//	OPENWEATHER_API_KEY=... go run ./cmd/genfixture \
//	  -city Brasov \
//	  -out internal/adapter/openweather/testdata/forecast_brasov.json
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/ride-check/internal/adapter/openweather"
	"github.com/couchcryptid/ride-check/internal/config"
	"github.com/couchcryptid/ride-check/internal/domain"
	"github.com/couchcryptid/ride-check/internal/observability"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cityName := flag.String("city", "", "catalog city to record")
	out := flag.String("out", "", "output path for the raw forecast fixture")
	flag.Parse()

	if *cityName == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -city, -out")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	city, ok := domain.LookupCity(*cityName)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCity, *cityName)
	}
	city.Country = cfg.Country

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.OpenWeatherTimeout,
		observability.NewMetricsForTesting(), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	payload, err := client.RawForecast(ctx, city)
	if err != nil {
		return fmt.Errorf("fetch forecast: %w", err)
	}
	if err := writeFixture(*out, payload); err != nil {
		return err
	}

	fc, err := openweather.Decode(payload)
	if err != nil {
		return err
	}
	if len(fc.Samples) == 0 {
		return fmt.Errorf("forecast for %s has no samples", city.Name)
	}

	// Freeze the clock at the first slot for reproducible reports.
	fc.Zone = domain.CatalogTimeZone
	domain.SetClock(clockwork.NewFakeClockAt(fc.Samples[0].Time))
	defer domain.SetClock(nil)

	sel, err := domain.SelectRideDay(fc, cfg.RideDay, cfg.CommuteWindow, domain.Now())
	if err != nil {
		return err
	}
	verdict, err := domain.Evaluate(sel.Samples, cfg.CommuteWindow)
	if err != nil {
		return err
	}

	report := domain.NewReport(city, sel, cfg.CommuteWindow, verdict)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "wrote %d samples to %s\n", len(fc.Samples), *out)
	return nil
}

func writeFixture(path string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return fmt.Errorf("indent payload: %w", err)
	}
	buf.WriteByte('\n')
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
