package openweather

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/couchcryptid/ride-check/internal/domain"
)

// OpenWeather forecast payload. Only the fields the evaluator needs are mapped.

type forecastResponse struct {
	List []forecastEntry `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"` // seconds east of UTC
	} `json:"city"`
}

type forecastEntry struct {
	DateTime int64 `json:"dt"`
	Main     struct {
		Temp float64 `json:"temp"` // Kelvin
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
	} `json:"wind"`
	Pop  float64 `json:"pop"`
	Rain *struct {
		ThreeHour float64 `json:"3h"`
	} `json:"rain,omitempty"`
}

// Decode maps a forecast payload into a domain.Forecast. Entries without a
// rain block have zero rain volume.
func Decode(payload []byte) (domain.Forecast, error) {
	var resp forecastResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return domain.Forecast{}, &ParseError{Err: err}
	}
	if resp.List == nil {
		return domain.Forecast{}, &ParseError{Err: fmt.Errorf("payload has no forecast list")}
	}

	fc := domain.Forecast{
		City:      resp.City.Name,
		UTCOffset: resp.City.Timezone,
		Samples:   make([]domain.RawSample, 0, len(resp.List)),
	}
	for _, e := range resp.List {
		s := domain.RawSample{
			TemperatureK:    e.Main.Temp,
			WindSpeedMS:     e.Wind.Speed,
			RainProbability: e.Pop,
		}
		if e.DateTime > 0 {
			s.Time = time.Unix(e.DateTime, 0).UTC()
		}
		if e.Rain != nil {
			s.RainVolumeMM = e.Rain.ThreeHour
		}
		fc.Samples = append(fc.Samples, s)
	}
	return fc, nil
}
