package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// CommuteWindow is the set of local hours treated as commute time.
// The zero value is an empty window.
type CommuteWindow struct {
	hours [24]bool
}

// DefaultCommuteWindow covers the morning (08-09) and evening (16-18) rides.
func DefaultCommuteWindow() CommuteWindow {
	w, _ := NewCommuteWindow(8, 9, 16, 17, 18)
	return w
}

// NewCommuteWindow builds a window from explicit hours in 0..23.
func NewCommuteWindow(hours ...int) (CommuteWindow, error) {
	var w CommuteWindow
	for _, h := range hours {
		if h < 0 || h > 23 {
			return CommuteWindow{}, fmt.Errorf("commute hour %d out of range 0-23", h)
		}
		w.hours[h] = true
	}
	return w, nil
}

// ParseCommuteWindow parses a comma-separated list of hours and inclusive
// ranges, e.g. "8-9,16-18" or "7,8,17".
func ParseCommuteWindow(s string) (CommuteWindow, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return CommuteWindow{}, fmt.Errorf("commute window is empty")
	}

	var hours []int
	for _, part := range strings.Split(s, ",") {
		from, to, err := parseHourRange(part)
		if err != nil {
			return CommuteWindow{}, err
		}
		for h := from; h <= to; h++ {
			hours = append(hours, h)
		}
	}
	return NewCommuteWindow(hours...)
}

// parseHourRange parses "8" or "16-18" into an inclusive range within 0..23.
func parseHourRange(part string) (int, int, error) {
	part = strings.TrimSpace(part)
	lo, hi, isRange := strings.Cut(part, "-")

	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid commute hour %q", part)
	}
	to := from
	if isRange {
		if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
			return 0, 0, fmt.Errorf("invalid commute hour %q", part)
		}
	}
	if from < 0 || to > 23 {
		return 0, 0, fmt.Errorf("hour range %q out of range 0-23", part)
	}
	if to < from {
		return 0, 0, fmt.Errorf("commute range %q ends before it starts", part)
	}
	return from, to, nil
}

// Contains reports whether the hour is commute time.
func (w CommuteWindow) Contains(hour int) bool {
	if hour < 0 || hour > 23 {
		return false
	}
	return w.hours[hour]
}

// IsEmpty reports whether no hour is selected.
func (w CommuteWindow) IsEmpty() bool {
	for _, ok := range w.hours {
		if ok {
			return false
		}
	}
	return true
}

// Hours returns the selected hours in ascending order.
func (w CommuteWindow) Hours() []int {
	var out []int
	for h, ok := range w.hours {
		if ok {
			out = append(out, h)
		}
	}
	return out
}

// String renders the window in the same range syntax ParseCommuteWindow accepts.
func (w CommuteWindow) String() string {
	var parts []string
	hours := w.Hours()
	for i := 0; i < len(hours); {
		j := i
		for j+1 < len(hours) && hours[j+1] == hours[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, strconv.Itoa(hours[i]))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", hours[i], hours[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}

// RideDay is the inclusive band of local hours that make up the riding day.
// The wind check considers every sample in this band.
type RideDay struct {
	StartHour int
	EndHour   int
}

// DefaultRideDay is 08:00-18:00 local time.
func DefaultRideDay() RideDay {
	return RideDay{StartHour: 8, EndHour: 18}
}

// ParseRideDay parses an inclusive "start-end" hour band such as "8-18".
func ParseRideDay(s string) (RideDay, error) {
	from, to, err := parseHourRange(s)
	if err != nil {
		return RideDay{}, fmt.Errorf("ride day: %w", err)
	}
	return RideDay{StartHour: from, EndHour: to}, nil
}

// Contains reports whether the hour falls within the ride day.
func (d RideDay) Contains(hour int) bool {
	return hour >= d.StartHour && hour <= d.EndHour
}
