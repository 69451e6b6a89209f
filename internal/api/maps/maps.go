// Package maps is the adapter for the Google Maps Directions API.
package maps

import (
	"context"
	"fmt"
	"net/url"

	"aria/internal/apierr"
	"aria/internal/httpclient"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/directions/json"

// Mode is a travel mode accepted by the directions API.
type Mode string

const (
	ModeBicycling Mode = "bicycling"
	ModeDriving   Mode = "driving"
	ModeTransit   Mode = "transit"
	ModeWalking   Mode = "walking"
)

// Route is a reduced directions result.
type Route struct {
	DistanceMeters  int
	DurationMinutes float64
}

// Client queries the directions API.
type Client struct {
	http    *httpclient.Client
	baseURL string
	key     string
}

// New returns a maps client.
func New(http *httpclient.Client, key string) *Client {
	return &Client{http: http, baseURL: defaultBaseURL, key: key}
}

// WithBaseURL redirects the client, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Distance struct {
				Value int `json:"value"` // meters
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"` // seconds
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

// Connection returns distance and duration from origin to destination for
// the given travel mode.
func (c *Client) Connection(ctx context.Context, origin, destination string, mode Mode) (Route, error) {
	query := url.Values{
		"origin":      {origin},
		"destination": {destination},
		"mode":        {string(mode)},
		"key":         {c.key},
	}
	var parsed directionsResponse
	if err := c.http.GetJSON(ctx, "maps", c.baseURL, query, nil, &parsed); err != nil {
		return Route{}, err
	}
	switch parsed.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND":
		return Route{}, fmt.Errorf("maps: %s to %s by %s: %w", origin, destination, mode, apierr.ErrNotFound)
	case "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT":
		return Route{}, fmt.Errorf("maps: %w", apierr.ErrQuotaExceeded)
	default:
		return Route{}, apierr.NewTransport("maps", fmt.Errorf("status %s", parsed.Status))
	}
	if len(parsed.Routes) == 0 || len(parsed.Routes[0].Legs) == 0 {
		return Route{}, fmt.Errorf("maps: empty route: %w", apierr.ErrNotFound)
	}

	var route Route
	for _, leg := range parsed.Routes[0].Legs {
		route.DistanceMeters += leg.Distance.Value
		route.DurationMinutes += float64(leg.Duration.Value) / 60
	}
	return route, nil
}
