// Command ride tells a rider whether the upcoming commute day is rideable.
//
// Usage:
//
//	ride -city Brasov   # check a city and remember it
//	ride                # re-check the remembered city
//	ride -list          # print the supported cities
//
// Exit status is 0 when riding is recommended, 2 when it is not, and 1 on error.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/ride-check/internal/adapter/openweather"
	"github.com/couchcryptid/ride-check/internal/adapter/store"
	"github.com/couchcryptid/ride-check/internal/config"
	"github.com/couchcryptid/ride-check/internal/domain"
	"github.com/couchcryptid/ride-check/internal/observability"
	"github.com/couchcryptid/ride-check/internal/pipeline"
)

const (
	exitRideable    = 0
	exitError       = 1
	exitNotRideable = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ride", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cityFlag := fs.String("city", "", "city to check; remembered for the next run")
	list := fs.Bool("list", false, "print the supported cities and exit")
	asJSON := fs.Bool("json", false, "print the full report as JSON")
	if err := fs.Parse(args); err != nil {
		return exitError
	}

	if *list {
		for _, c := range domain.Cities() {
			fmt.Fprintln(stdout, c.Name)
		}
		return exitRideable
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	logger := observability.NewLoggerTo(stderr, cfg)
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())

	selection, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer closeStore()

	name, err := resolveCity(ctx, *cityFlag, selection)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	client := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.OpenWeatherTimeout, metrics, logger)
	provider := openweather.NewCachedProvider(client, cfg.ForecastCacheSize, cfg.ForecastCacheTTL, clockwork.NewRealClock(), metrics)
	checker := pipeline.NewChecker(provider, cfg.CommuteWindow, cfg.RideDay, cfg.Country, logger, metrics)

	report, err := checker.Check(ctx, name)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", riderMessage(err))
		return exitError
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	} else {
		printReport(stdout, report)
	}

	if !report.Verdict.Safe {
		return exitNotRideable
	}
	return exitRideable
}

// resolveCity validates and saves an explicit city, or falls back to the
// remembered one.
func resolveCity(ctx context.Context, name string, selection domain.SelectionStore) (string, error) {
	if name == "" {
		saved, err := selection.Load(ctx)
		if err != nil {
			return "", err
		}
		if saved == "" {
			return "", errors.New("no city selected, run with -city NAME (see -list)")
		}
		return saved, nil
	}

	city, ok := domain.LookupCity(name)
	if !ok {
		return "", fmt.Errorf("%w: %q (see -list)", domain.ErrUnknownCity, name)
	}
	if err := selection.Save(ctx, city.Name); err != nil {
		return "", err
	}
	return city.Name, nil
}

func riderMessage(err error) string {
	var perr *openweather.ProviderError
	switch {
	case errors.Is(err, openweather.ErrMissingAPIKey):
		return openweather.MissingAPIKeyMessage
	case errors.As(err, &perr) && perr.Message != "":
		return perr.Message
	default:
		return err.Error()
	}
}

func printReport(w io.Writer, r domain.Report) {
	fmt.Fprintf(w, "%s, %s (commute %s)\n", r.City, r.Day, r.CommuteWindow)
	fmt.Fprintln(w, r.Headline())
	for _, warning := range r.Verdict.Warnings {
		fmt.Fprintf(w, "  - %s\n", warning)
	}
}
