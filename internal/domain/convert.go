package domain

import "math"

const absoluteZeroC = 273.15

// ToCelsius converts Kelvin to whole degrees Celsius.
func ToCelsius(kelvin float64) float64 {
	return roundHalfUp(kelvin - absoluteZeroC)
}

// ToKmh converts metres per second to whole kilometres per hour.
func ToKmh(metersPerSecond float64) float64 {
	return roundHalfUp(metersPerSecond * 3.6)
}

// roundHalfUp rounds to the nearest integer with halves going toward +Inf,
// unlike math.Round which rounds halves away from zero.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
