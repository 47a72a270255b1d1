package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestNewReport(t *testing.T) {
	fixedTime := time.Date(2024, 6, 10, 5, 30, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	sel := RideDaySelection{
		Date: "2024-06-10",
		Samples: []Sample{
			{Hour: 9, TemperatureC: 12},
			{Hour: 12, TemperatureC: 18},
			{Hour: 18, TemperatureC: 14},
		},
	}
	verdict := Verdict{Safe: true, Status: StatusSafe, Warnings: []string{}}
	city, _ := LookupCity("sibiu")

	r := NewReport(city, sel, DefaultCommuteWindow(), verdict)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Sibiu", r.City)
	assert.Equal(t, "ro", r.Country)
	assert.Equal(t, "2024-06-10", r.Day)
	assert.Equal(t, "8-9,16-18", r.CommuteWindow)
	assert.Equal(t, 3, r.SampleCount)
	assert.Equal(t, 2, r.CommuteSlots)
	assert.Equal(t, fixedTime, r.CheckedAt)
	assert.Equal(t, "It's safe to ride!", r.Headline())

	r.Verdict.Safe = false
	assert.Equal(t, "Not recommended to ride", r.Headline())
}

func TestNewReport_UniqueIDs(t *testing.T) {
	sel := RideDaySelection{Date: "2024-06-10", Samples: []Sample{{Hour: 8}}}
	a := NewReport(City{Name: "Arad"}, sel, DefaultCommuteWindow(), Verdict{})
	b := NewReport(City{Name: "Arad"}, sel, DefaultCommuteWindow(), Verdict{})
	assert.NotEqual(t, a.ID, b.ID)
}
