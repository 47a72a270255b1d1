package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/ride-check/internal/domain"
)

// Selection store drivers.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// OpenWeather provider configuration. An empty API key is not a load
	// error; the provider reports it when a forecast is requested.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	OpenWeatherTimeout time.Duration
	Country            string

	ForecastCacheSize int
	ForecastCacheTTL  time.Duration

	// Ride policy.
	CommuteWindow domain.CommuteWindow
	RideDay       domain.RideDay

	// Poller and verdict topic. The poller is off when PollCities is empty.
	PollCities      []string
	PollInterval    time.Duration
	PollConcurrency int
	KafkaBrokers    []string
	KafkaSinkTopic  string

	// Selected-city persistence.
	SelectionStore   string
	SelectionFile    string
	SelectionProfile string
	DatabaseURL      string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first if present; it never
// overrides variables already set in the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	owTimeout, err := parsePositiveDuration("OPENWEATHER_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parsePositiveDuration("FORECAST_CACHE_TTL", "10m")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("POLL_INTERVAL", "30m")
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("FORECAST_CACHE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	pollConcurrency, err := parsePositiveInt("POLL_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	window, err := domain.ParseCommuteWindow(sharedcfg.EnvOrDefault("COMMUTE_HOURS", "8-9,16-18"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMMUTE_HOURS: %w", err)
	}
	rideDay, err := domain.ParseRideDay(sharedcfg.EnvOrDefault("RIDE_DAY_HOURS", "8-18"))
	if err != nil {
		return nil, fmt.Errorf("invalid RIDE_DAY_HOURS: %w", err)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"), "/"),
		OpenWeatherTimeout: owTimeout,
		Country:            strings.ToLower(sharedcfg.EnvOrDefault("WEATHER_COUNTRY", domain.DefaultCountry)),

		ForecastCacheSize: cacheSize,
		ForecastCacheTTL:  cacheTTL,

		CommuteWindow: window,
		RideDay:       rideDay,

		PollCities:      splitList(os.Getenv("POLL_CITIES")),
		PollInterval:    pollInterval,
		PollConcurrency: pollConcurrency,
		KafkaBrokers:    sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic:  sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "ride-verdicts"),

		SelectionStore:   strings.ToLower(sharedcfg.EnvOrDefault("SELECTION_STORE", StoreFile)),
		SelectionFile:    sharedcfg.EnvOrDefault("SELECTION_FILE", defaultSelectionFile()),
		SelectionProfile: sharedcfg.EnvOrDefault("SELECTION_PROFILE", "default"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
	}

	for _, name := range cfg.PollCities {
		if _, ok := domain.LookupCity(name); !ok {
			return nil, fmt.Errorf("POLL_CITIES: %w: %q", domain.ErrUnknownCity, name)
		}
	}
	if len(cfg.PollCities) > 0 {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when POLL_CITIES is set")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when POLL_CITIES is set")
		}
	}

	switch cfg.SelectionStore {
	case StoreFile:
		if cfg.SelectionFile == "" {
			return nil, errors.New("SELECTION_FILE is required for the file selection store")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("SELECTION_STORE is postgres but DATABASE_URL is not set")
		}
	default:
		return nil, fmt.Errorf("invalid SELECTION_STORE %q", cfg.SelectionStore)
	}

	return cfg, nil
}

// PollerEnabled reports whether background polling is configured.
func (c *Config) PollerEnabled() bool {
	return len(c.PollCities) > 0
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultSelectionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "selection.json"
	}
	return filepath.Join(dir, "ride-check", "selection.json")
}
