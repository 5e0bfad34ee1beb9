// Package meteo retrieves hourly weather observations from the Open-Meteo
// forecast API. It is the only external collaborator of the pipeline: a
// single blocking request-response call with a bounded timeout. Fetch
// errors are surfaced to the caller verbatim and never retried.
package meteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lkorpela/skysong"
)

// DefaultBaseURL is the public Open-Meteo forecast endpoint.
const DefaultBaseURL = "https://api.open-meteo.com/v1/forecast"

// timeLayout is the timestamp format of the hourly time axis.
const timeLayout = "2006-01-02T15:04"

// Client fetches observation series over HTTP.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient returns a client against the public API with a 15 second
// request timeout.
func NewClient() *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// payload mirrors the parts of the Open-Meteo hourly response we read. The
// measurement arrays may be shorter than the time axis; missing trailing
// samples get the documented defaults.
type payload struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature   []float64 `json:"temperature_2m"`
		Humidity      []float64 `json:"relative_humidity_2m"`
		Precipitation []float64 `json:"precipitation"`
		WindSpeed     []float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
}

// Forecast returns hourly observations for the given coordinates. The
// requested hour count is clamped to 1-168 before the request is made.
func (c *Client) Forecast(ctx context.Context, latitude, longitude float64, hours int) ([]skysong.Observation, error) {
	hours = skysong.Clamp(hours, 1, 168)
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(latitude, 'f', 4, 64))
	query.Set("longitude", strconv.FormatFloat(longitude, 'f', 4, 64))
	query.Set("hourly", "temperature_2m,relative_humidity_2m,precipitation,wind_speed_10m")
	query.Set("forecast_hours", strconv.Itoa(hours))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("could not build forecast request: %v", err)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast request returned status %v", resp.Status)
	}
	var data payload
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("could not decode forecast response: %v", err)
	}
	return data.observations()
}

// observations converts the decoded payload into a series, applying the
// per-index defaults where a measurement array runs out before the time
// axis does.
func (p *payload) observations() ([]skysong.Observation, error) {
	h := &p.Hourly
	if len(h.Time) == 0 {
		return nil, fmt.Errorf("forecast response contains no hourly data")
	}
	if len(h.Temperature) < len(h.Time) {
		return nil, fmt.Errorf("forecast response has %v temperature samples for %v timestamps", len(h.Temperature), len(h.Time))
	}
	series := make([]skysong.Observation, len(h.Time))
	for i, stamp := range h.Time {
		ts, err := time.Parse(timeLayout, stamp)
		if err != nil {
			return nil, fmt.Errorf("could not parse timestamp %q: %v", stamp, err)
		}
		series[i] = skysong.Observation{
			Time:          ts,
			Temperature:   h.Temperature[i],
			Humidity:      sampleOr(h.Humidity, i, skysong.DefaultHumidity),
			Precipitation: sampleOr(h.Precipitation, i, skysong.DefaultPrecipitation),
			WindSpeed:     sampleOr(h.WindSpeed, i, skysong.DefaultWindSpeed),
		}
	}
	return series, nil
}

func sampleOr(samples []float64, index int, fallback float64) float64 {
	if index < len(samples) {
		return samples[index]
	}
	return fallback
}
