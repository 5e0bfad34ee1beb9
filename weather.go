package skysong

import (
	"time"

	"github.com/viterin/vek"
)

// Default measurement values used when the data source returns fewer
// samples than timestamps; trailing records get these per-index defaults.
const (
	DefaultHumidity      = 50.0
	DefaultPrecipitation = 0.0
	DefaultWindSpeed     = 0.0
)

// Observation is one sampled instant of the input series. It is immutable
// once read from the source; the mapping engine never modifies it.
type Observation struct {
	Time          time.Time
	Temperature   float64 // degrees Celsius, signed
	Humidity      float64 // relative humidity, percent
	Precipitation float64 // millimeters
	WindSpeed     float64 // km/h
}

// Hour returns the hour-of-day component of the observation, 0-23.
func (o Observation) Hour() int { return o.Time.Hour() }

// Bounds is the min/max of one measurement over a whole series. A zero
// width range (Max <= Min) is degenerate; Normalize then falls back to a
// fixed midpoint so no division by zero can occur.
type Bounds struct {
	Min, Max float64
}

// Normalize scales v into 0-1 against the bounds, clamping the result.
// Degenerate bounds yield the fixed midpoint 0.5 for every input.
func (b Bounds) Normalize(v float64) float64 {
	if b.Max <= b.Min {
		return 0.5
	}
	n := (v - b.Min) / (b.Max - b.Min)
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// SeriesBounds holds the normalization bounds of every measurement,
// computed once per run and shared read-only by all generator invocations.
type SeriesBounds struct {
	Temperature   Bounds
	Humidity      Bounds
	Precipitation Bounds
	WindSpeed     Bounds
}

// MeasureBounds computes the per-measurement min/max over the whole series.
func MeasureBounds(series []Observation) SeriesBounds {
	if len(series) == 0 {
		return SeriesBounds{}
	}
	temp := make([]float64, len(series))
	hum := make([]float64, len(series))
	precip := make([]float64, len(series))
	wind := make([]float64, len(series))
	for i, o := range series {
		temp[i] = o.Temperature
		hum[i] = o.Humidity
		precip[i] = o.Precipitation
		wind[i] = o.WindSpeed
	}
	return SeriesBounds{
		Temperature:   Bounds{Min: vek.Min(temp), Max: vek.Max(temp)},
		Humidity:      Bounds{Min: vek.Min(hum), Max: vek.Max(hum)},
		Precipitation: Bounds{Min: vek.Min(precip), Max: vek.Max(precip)},
		WindSpeed:     Bounds{Min: vek.Min(wind), Max: vek.Max(wind)},
	}
}
