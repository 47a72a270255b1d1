package domain

import (
	"time"

	"github.com/google/uuid"
)

// Report is a verdict for one city and ride day, as returned by the API and
// published to the verdict topic.
type Report struct {
	ID            string    `json:"id"`
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Day           string    `json:"day"`
	CommuteWindow string    `json:"commute_window"`
	SampleCount   int       `json:"sample_count"`
	CommuteSlots  int       `json:"commute_slots"`
	Verdict       Verdict   `json:"verdict"`
	CheckedAt     time.Time `json:"checked_at"`
}

// NewReport assembles a report and stamps it with the package clock.
func NewReport(city City, sel RideDaySelection, window CommuteWindow, verdict Verdict) Report {
	return Report{
		ID:            uuid.NewString(),
		City:          city.Name,
		Country:       city.Country,
		Day:           sel.Date,
		CommuteWindow: window.String(),
		SampleCount:   len(sel.Samples),
		CommuteSlots:  sel.CommuteSlots(window),
		Verdict:       verdict,
		CheckedAt:     clock.Now().UTC(),
	}
}

// Headline is the one-line summary shown to riders.
func (r Report) Headline() string {
	if r.Verdict.Safe {
		return "It's safe to ride!"
	}
	return "Not recommended to ride"
}
