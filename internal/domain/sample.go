package domain

import (
	"context"
	"errors"
	"time"
	_ "time/tzdata"
)

var (
	// ErrPrecondition is returned when the evaluator or ride-day selection is
	// called with input it cannot produce a meaningful verdict for.
	ErrPrecondition = errors.New("precondition violated")

	// ErrInvalidSample is returned when a provider sample fails validation at
	// the ingestion boundary.
	ErrInvalidSample = errors.New("invalid forecast sample")

	// ErrUnknownCity is returned when a city name is not in the catalog.
	ErrUnknownCity = errors.New("unknown city")
)

// RawSample is one forecast slot in provider units.
type RawSample struct {
	Time            time.Time `json:"time"`
	TemperatureK    float64   `json:"temperature_k" validate:"gt=0"`
	WindSpeedMS     float64   `json:"wind_speed_ms" validate:"gte=0"`
	RainProbability float64   `json:"rain_probability" validate:"gte=0,lte=1"`
	RainVolumeMM    float64   `json:"rain_volume_mm" validate:"gte=0"` // over the 3h slot
}

// Forecast is the decoded provider response for one city.
type Forecast struct {
	City string
	// UTCOffset is the city's offset from UTC in seconds, as reported by the provider.
	UTCOffset int
	// Zone is an optional IANA zone name. When it loads, it replaces UTCOffset
	// so local hours stay correct across a DST change inside the forecast.
	Zone    string
	Samples []RawSample
}

// Location returns the city's time zone: Zone when set and known, otherwise a
// fixed zone at UTCOffset.
func (f Forecast) Location() *time.Location {
	if f.Zone != "" {
		if loc, err := time.LoadLocation(f.Zone); err == nil {
			return loc
		}
	}
	return time.FixedZone(f.City, f.UTCOffset)
}

// Sample is a normalized forecast slot ready for evaluation.
type Sample struct {
	Hour            int     `json:"hour"`
	TemperatureC    float64 `json:"temperature_c"`
	RainProbability float64 `json:"rain_probability"`
	RainVolumeMM    float64 `json:"rain_volume_mm"`
	WindSpeedKmh    float64 `json:"wind_speed_kmh"`
}

// Status is the three-level classification of a ride day.
type Status string

const (
	StatusSafe    Status = "safe"
	StatusCaution Status = "caution"
	StatusUnsafe  Status = "unsafe"
)

// Verdict is the outcome of one evaluation.
type Verdict struct {
	Safe     bool     `json:"safe"`
	Status   Status   `json:"status"`
	Warnings []string `json:"warnings"`
}

// ForecastProvider fetches the forecast for a city.
type ForecastProvider interface {
	Forecast(ctx context.Context, city City) (Forecast, error)
}

// SelectionStore persists the rider's last selected city.
type SelectionStore interface {
	// Load returns the saved city name, or "" when nothing has been saved.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, city string) error
}
