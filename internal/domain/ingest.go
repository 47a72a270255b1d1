package domain

import (
	"fmt"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
)

// SlotDuration is the span covered by one provider forecast entry.
const SlotDuration = 3 * time.Hour

var validate = validator.New()

// RideDaySelection is the normalized input for one evaluation.
type RideDaySelection struct {
	Date    string // local date, YYYY-MM-DD
	Samples []Sample
}

// CommuteSlots counts the selected samples that fall in the window.
func (s RideDaySelection) CommuteSlots(window CommuteWindow) int {
	n := 0
	for _, sample := range s.Samples {
		if window.Contains(sample.Hour) {
			n++
		}
	}
	return n
}

// ValidateRawSample rejects samples with missing timestamps or values outside
// their physical range.
func ValidateRawSample(raw RawSample) error {
	if raw.Time.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidSample)
	}
	if err := validate.Struct(raw); err != nil {
		return fmt.Errorf("%w at %s: %v", ErrInvalidSample, raw.Time.UTC().Format(time.RFC3339), err)
	}
	return nil
}

// NormalizeSample validates a provider sample and converts it to rider units,
// computing the hour of day in loc.
func NormalizeSample(raw RawSample, loc *time.Location) (Sample, error) {
	if err := ValidateRawSample(raw); err != nil {
		return Sample{}, err
	}
	return Sample{
		Hour:            raw.Time.In(loc).Hour(),
		TemperatureC:    ToCelsius(raw.TemperatureK),
		RainProbability: raw.RainProbability,
		RainVolumeMM:    raw.RainVolumeMM,
		WindSpeedKmh:    ToKmh(raw.WindSpeedMS),
	}, nil
}

// SelectRideDay picks the ride day from a forecast and normalizes its samples.
//
// Slots that have fully elapsed at now are ignored. The ride day is the
// earliest local date that still has a commute-window slot; its samples are
// those inside the ride-day band or the commute window. Any invalid sample
// rejects the whole forecast so partial data never reaches Evaluate.
func SelectRideDay(fc Forecast, day RideDay, window CommuteWindow, now time.Time) (RideDaySelection, error) {
	if len(fc.Samples) == 0 {
		return RideDaySelection{}, fmt.Errorf("%w: forecast for %q has no samples", ErrPrecondition, fc.City)
	}
	if window.IsEmpty() {
		return RideDaySelection{}, fmt.Errorf("%w: commute window has no hours", ErrPrecondition)
	}

	loc := fc.Location()
	byDate := make(map[string][]Sample)
	var commuteDates []string

	for _, raw := range fc.Samples {
		sample, err := NormalizeSample(raw, loc)
		if err != nil {
			return RideDaySelection{}, err
		}
		if !raw.Time.Add(SlotDuration).After(now) {
			continue
		}
		if !day.Contains(sample.Hour) && !window.Contains(sample.Hour) {
			continue
		}

		date := raw.Time.In(loc).Format(time.DateOnly)
		byDate[date] = append(byDate[date], sample)
		if window.Contains(sample.Hour) && !slices.Contains(commuteDates, date) {
			commuteDates = append(commuteDates, date)
		}
	}

	if len(commuteDates) == 0 {
		return RideDaySelection{}, fmt.Errorf("%w: forecast for %q has no upcoming slots in commute window %s",
			ErrPrecondition, fc.City, window)
	}

	slices.Sort(commuteDates)
	date := commuteDates[0]
	return RideDaySelection{Date: date, Samples: byDate[date]}, nil
}
