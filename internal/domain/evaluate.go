package domain

import (
	"fmt"
	"strconv"
)

// Safety thresholds.
const (
	unsafeTempC     = 5.0
	cautionTempC    = 10.0
	heavyRainMM     = 7.0
	strongWindKmh   = 50.0
	moderateWindKmh = 30.0
)

// Evaluate classifies a ride day. Temperature and rain are judged over the
// samples that fall in the commute window; wind is judged over every sample.
// Warnings are ordered temperature, rain, wind. The inputs are not modified.
func Evaluate(samples []Sample, window CommuteWindow) (Verdict, error) {
	if len(samples) == 0 {
		return Verdict{}, fmt.Errorf("%w: no samples to evaluate", ErrPrecondition)
	}
	if window.IsEmpty() {
		return Verdict{}, fmt.Errorf("%w: commute window has no hours", ErrPrecondition)
	}

	commute := commuteSamples(samples, window)
	if len(commute) == 0 {
		return Verdict{}, fmt.Errorf("%w: no samples in commute window %s", ErrPrecondition, window)
	}

	warnings := make([]string, 0, 3)
	safe := true

	minTemp := commute[0].TemperatureC
	for _, s := range commute[1:] {
		minTemp = min(minTemp, s.TemperatureC)
	}
	switch {
	case minTemp < unsafeTempC:
		safe = false
		warnings = append(warnings, fmt.Sprintf("Temperature too low during commute: %s°C", formatNumber(minTemp)))
	case minTemp < cautionTempC:
		warnings = append(warnings, fmt.Sprintf("Cool temperature during commute: %s°C - ride with caution", formatNumber(minTemp)))
	}

	heavyRain, lightRain := false, false
	for _, s := range commute {
		if s.RainVolumeMM > heavyRainMM {
			heavyRain = true
		}
		if s.RainVolumeMM > 0 {
			lightRain = true
		}
	}
	switch {
	case heavyRain:
		safe = false
		warnings = append(warnings, "Heavy rain during commute hours")
	case lightRain:
		warnings = append(warnings, "Light rain during commute - ride with caution")
	}

	maxWind := samples[0].WindSpeedKmh
	for _, s := range samples[1:] {
		maxWind = max(maxWind, s.WindSpeedKmh)
	}
	switch {
	case maxWind > strongWindKmh:
		safe = false
		warnings = append(warnings, fmt.Sprintf("Strong winds: %s km/h", formatNumber(maxWind)))
	case maxWind >= moderateWindKmh:
		warnings = append(warnings, fmt.Sprintf("Moderate winds: %s km/h - ride with caution", formatNumber(maxWind)))
	}

	return Verdict{
		Safe:     safe,
		Status:   deriveStatus(safe, len(warnings)),
		Warnings: warnings,
	}, nil
}

func commuteSamples(samples []Sample, window CommuteWindow) []Sample {
	var out []Sample
	for _, s := range samples {
		if window.Contains(s.Hour) {
			out = append(out, s)
		}
	}
	return out
}

func deriveStatus(safe bool, warnings int) Status {
	switch {
	case !safe:
		return StatusUnsafe
	case warnings > 0:
		return StatusCaution
	default:
		return StatusSafe
	}
}

// formatNumber renders a value the way riders read it: 4, -3, 4.5.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
