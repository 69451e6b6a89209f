// Package events is the adapter for the Ticketmaster Discovery API.
package events

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"aria/internal/httpclient"
)

const defaultBaseURL = "https://app.ticketmaster.com/discovery/v2"

// Event is a reduced ticket-discovery record.
type Event struct {
	ID    string
	Name  string
	Venue string
	City  string
	Lat   float64
	Lon   float64
	Start time.Time
	URL   string
}

// SearchParams narrows an event search.
type SearchParams struct {
	City     string
	RadiusKM int
	Start    time.Time
	End      time.Time
	Size     int
}

// Client queries the discovery API.
type Client struct {
	http    *httpclient.Client
	baseURL string
	key     string
}

// New returns an events client.
func New(http *httpclient.Client, key string) *Client {
	return &Client{http: http, baseURL: defaultBaseURL, key: key}
}

// WithBaseURL redirects the client, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

type discoveryResponse struct {
	Embedded struct {
		Events []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			URL   string `json:"url"`
			Dates struct {
				Start struct {
					DateTime string `json:"dateTime"`
				} `json:"start"`
			} `json:"dates"`
			Embedded struct {
				Venues []struct {
					Name string `json:"name"`
					City struct {
						Name string `json:"name"`
					} `json:"city"`
					Location struct {
						Latitude  string `json:"latitude"`
						Longitude string `json:"longitude"`
					} `json:"location"`
				} `json:"venues"`
			} `json:"_embedded"`
		} `json:"events"`
	} `json:"_embedded"`
}

// Search returns events matching params, ordered by start time.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Event, error) {
	size := params.Size
	if size <= 0 {
		size = 20
	}
	query := url.Values{
		"apikey": {c.key},
		"city":   {params.City},
		"sort":   {"date,asc"},
		"size":   {strconv.Itoa(size)},
	}
	if params.RadiusKM > 0 {
		query.Set("radius", strconv.Itoa(params.RadiusKM))
		query.Set("unit", "km")
	}
	if !params.Start.IsZero() {
		query.Set("startDateTime", params.Start.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if !params.End.IsZero() {
		query.Set("endDateTime", params.End.UTC().Format("2006-01-02T15:04:05Z"))
	}

	var parsed discoveryResponse
	if err := c.http.GetJSON(ctx, "events", c.baseURL+"/events.json", query, nil, &parsed); err != nil {
		return nil, err
	}

	var out []Event
	for _, raw := range parsed.Embedded.Events {
		event := Event{ID: raw.ID, Name: raw.Name, URL: raw.URL}
		if raw.Dates.Start.DateTime != "" {
			start, err := time.Parse(time.RFC3339, raw.Dates.Start.DateTime)
			if err != nil {
				return nil, fmt.Errorf("events: parsing start of %q: %w", raw.Name, err)
			}
			event.Start = start
		}
		if len(raw.Embedded.Venues) > 0 {
			venue := raw.Embedded.Venues[0]
			event.Venue = venue.Name
			event.City = venue.City.Name
			event.Lat, _ = strconv.ParseFloat(venue.Location.Latitude, 64)
			event.Lon, _ = strconv.ParseFloat(venue.Location.Longitude, 64)
		}
		out = append(out, event)
	}
	return out, nil
}
