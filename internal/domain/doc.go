// Package domain models motorcycle commute safety for a single ride day.
//
// # Data Source
//
// Forecasts come from the OpenWeather 5 day / 3 hour forecast API
// (https://openweathermap.org/forecast5). Each list entry is one forecast slot
// covering three hours. The adapter in internal/adapter/openweather decodes
// the payload into a [Forecast] of [RawSample] values in provider units.
//
// # Provider Conventions
//
// Time:
//
//	"dt" is the slot start in Unix seconds (UTC). The city's offset from UTC
//	is reported once per response ("city.timezone", seconds east of UTC), so
//	it is wrong for slots after a DST change. Catalog cities are evaluated in
//	[CatalogTimeZone] instead; the reported offset is the fallback when no
//	zone is set on the [Forecast].
//
// Units:
//
//	Temperature: Kelvin ("main.temp"), converted by [ToCelsius].
//	Wind speed:  metres per second ("wind.speed"), converted by [ToKmh].
//	Rain:        probability of precipitation 0..1 ("pop") and volume in mm
//	             over the 3 hour slot ("rain.3h"). The volume key is omitted
//	             when no rain is forecast and is read as 0.
//
// Rounding:
//
//	Both conversions round to whole units once, at ingestion. Halves round up
//	(-2.5 -> -2). The rounded value is both compared against thresholds and shown in
//	warnings.
//
// # Commute Window
//
// A [CommuteWindow] is a set of local hours considered commute time. The
// default is 08-09 and 16-18. Samples are selected by their computed local
// hour, never by their position in the forecast list.
//
// # Ride Day
//
// [SelectRideDay] picks the earliest local date in the forecast that still has
// a commute-window slot ahead of now and keeps that date's daytime slots
// (08-18 by default). Temperature and rain checks look at commute slots only;
// the wind check looks at every daytime slot of the ride day.
//
// # Safety Rules
//
//	Temperature (commute minimum): <5°C unsafe | <10°C caution
//	Rain (commute, mm per slot):   >7 unsafe   | >0 caution
//	Wind (daytime maximum, km/h):  >50 unsafe  | >=30 caution
//
// Caution findings add a warning without making the day unsafe. Warnings are
// always reported in temperature, rain, wind order. See [Evaluate].
package domain
