// Package weather is the adapter for the Visual Crossing timeline API.
package weather

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"aria/internal/httpclient"
)

const defaultBaseURL = "https://weather.visualcrossing.com/VisualCrossingWebServices/rest/services/timeline"

// Hour is one hourly forecast slot.
type Hour struct {
	Time       string  `json:"datetime"` // "HH:MM:SS"
	Temp       float64 `json:"temp"`
	PrecipProb float64 `json:"precipprob"`
	FeelsLike  float64 `json:"feelslike"`
}

// Day is one forecast day with its hourly breakdown.
type Day struct {
	Date       string  `json:"datetime"` // "YYYY-MM-DD"
	Temp       float64 `json:"temp"`
	TempMin    float64 `json:"tempmin"`
	TempMax    float64 `json:"tempmax"`
	PrecipProb float64 `json:"precipprob"`
	Sunrise    string  `json:"sunrise"`
	Sunset     string  `json:"sunset"`
	Hours      []Hour  `json:"hours"`
}

// Forecast is the document returned by the timeline endpoints.
type Forecast struct {
	Address string `json:"address"`
	Days    []Day  `json:"days"`
}

// Day returns the forecast day for date, if present.
func (f *Forecast) Day(date time.Time) (Day, bool) {
	want := date.Format("2006-01-02")
	for _, day := range f.Days {
		if day.Date == want {
			return day, true
		}
	}
	return Day{}, false
}

// HourAt returns the hourly slot covering t, if present.
func (f *Forecast) HourAt(t time.Time) (Hour, bool) {
	day, ok := f.Day(t)
	if !ok {
		return Hour{}, false
	}
	want := fmt.Sprintf("%02d:00:00", t.Hour())
	for _, hour := range day.Hours {
		if hour.Time == want {
			return hour, true
		}
	}
	return Hour{}, false
}

// Client queries the timeline API. Temperatures are metric.
type Client struct {
	http    *httpclient.Client
	baseURL string
	key     string
}

// New returns a weather client.
func New(http *httpclient.Client, key string) *Client {
	return &Client{http: http, baseURL: defaultBaseURL, key: key}
}

// WithBaseURL redirects the client, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// Forecast fetches the standard 15-day forecast for location.
func (c *Client) Forecast(ctx context.Context, location, elements, include string) (*Forecast, error) {
	return c.fetch(ctx, url.PathEscape(location), elements, include)
}

// DynamicRange fetches a named dynamic period ("today", "next7days",
// "nextweekend", ...) for location.
func (c *Client) DynamicRange(ctx context.Context, location, period, elements, include string) (*Forecast, error) {
	return c.fetch(ctx, url.PathEscape(location)+"/"+url.PathEscape(period), elements, include)
}

func (c *Client) fetch(ctx context.Context, path, elements, include string) (*Forecast, error) {
	query := url.Values{
		"unitGroup": {"metric"},
		"key":       {c.key},
	}
	if elements != "" {
		query.Set("elements", elements)
	}
	if include != "" {
		query.Set("include", include)
	}
	var forecast Forecast
	if err := c.http.GetJSON(ctx, "weather", c.baseURL+"/"+path, query, nil, &forecast); err != nil {
		return nil, err
	}
	return &forecast, nil
}
