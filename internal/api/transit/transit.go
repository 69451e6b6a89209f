// Package transit is the adapter for the regional public-transport (EFA)
// departure-monitor API, addressed by stop identifiers.
package transit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"aria/internal/apierr"
	"aria/internal/httpclient"
)

const defaultBaseURL = "https://www3.vvs.de/mngvvs/XML_TRIP_REQUEST2"

// Leg is one sub-connection of a trip.
type Leg struct {
	Mode      string
	Line      string
	From      string
	To        string
	Departure time.Time
	Arrival   time.Time
}

// Trip is an ordered sequence of legs between two stops.
type Trip struct {
	Legs []Leg
}

// Departure returns the departure time of the first leg.
func (t Trip) Departure() time.Time {
	if len(t.Legs) == 0 {
		return time.Time{}
	}
	return t.Legs[0].Departure
}

// Arrival returns the arrival time of the last leg.
func (t Trip) Arrival() time.Time {
	if len(t.Legs) == 0 {
		return time.Time{}
	}
	return t.Legs[len(t.Legs)-1].Arrival
}

// Duration returns end-to-end travel time.
func (t Trip) Duration() time.Duration {
	return t.Arrival().Sub(t.Departure())
}

// Client queries the trip-request API.
type Client struct {
	http    *httpclient.Client
	baseURL string
}

// New returns a transit client. The endpoint is public and unauthenticated.
func New(http *httpclient.Client) *Client {
	return &Client{http: http, baseURL: defaultBaseURL}
}

// WithBaseURL redirects the client, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

type tripResponse struct {
	Journeys []struct {
		Legs []struct {
			Transportation struct {
				Product struct {
					Name string `json:"name"`
				} `json:"product"`
				Number string `json:"number"`
			} `json:"transportation"`
			Origin struct {
				Name          string `json:"name"`
				DepartureTime string `json:"departureTimeEstimated"`
			} `json:"origin"`
			Destination struct {
				Name        string `json:"name"`
				ArrivalTime string `json:"arrivalTimeEstimated"`
			} `json:"destination"`
		} `json:"legs"`
	} `json:"journeys"`
}

// NextConnection returns the earliest upcoming trip between two stops.
func (c *Client) NextConnection(ctx context.Context, fromStop, toStop string) (Trip, error) {
	trips, err := c.request(ctx, fromStop, toStop, time.Now(), false)
	if err != nil {
		return Trip{}, err
	}
	return trips[0], nil
}

// LatestConnection returns the latest trip that still arrives by arriveBy.
func (c *Client) LatestConnection(ctx context.Context, fromStop, toStop string, arriveBy time.Time) (Trip, error) {
	trips, err := c.request(ctx, fromStop, toStop, arriveBy, true)
	if err != nil {
		return Trip{}, err
	}
	var best Trip
	found := false
	for _, trip := range trips {
		if trip.Arrival().After(arriveBy) {
			continue
		}
		if !found || trip.Departure().After(best.Departure()) {
			best = trip
			found = true
		}
	}
	if !found {
		return Trip{}, fmt.Errorf("transit: no connection arriving by %s: %w",
			arriveBy.Format("15:04"), apierr.ErrNotFound)
	}
	return best, nil
}

func (c *Client) request(ctx context.Context, fromStop, toStop string, at time.Time, arrival bool) ([]Trip, error) {
	depArr := "dep"
	if arrival {
		depArr = "arr"
	}
	query := url.Values{
		"outputFormat":          {"rapidJSON"},
		"type_origin":           {"any"},
		"name_origin":           {fromStop},
		"type_destination":      {"any"},
		"name_destination":      {toStop},
		"itdDate":               {at.Format("20060102")},
		"itdTime":               {at.Format("1504")},
		"itdTripDateTimeDepArr": {depArr},
	}

	var parsed tripResponse
	if err := c.http.GetJSON(ctx, "transit", c.baseURL, query, nil, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Journeys) == 0 {
		return nil, fmt.Errorf("transit: %s to %s: %w", fromStop, toStop, apierr.ErrNotFound)
	}

	var trips []Trip
	for _, journey := range parsed.Journeys {
		var trip Trip
		for _, raw := range journey.Legs {
			leg := Leg{
				Mode: raw.Transportation.Product.Name,
				Line: raw.Transportation.Number,
				From: raw.Origin.Name,
				To:   raw.Destination.Name,
			}
			if raw.Origin.DepartureTime != "" {
				t, err := time.Parse(time.RFC3339, raw.Origin.DepartureTime)
				if err != nil {
					return nil, fmt.Errorf("transit: parsing departure: %w", err)
				}
				leg.Departure = t
			}
			if raw.Destination.ArrivalTime != "" {
				t, err := time.Parse(time.RFC3339, raw.Destination.ArrivalTime)
				if err != nil {
					return nil, fmt.Errorf("transit: parsing arrival: %w", err)
				}
				leg.Arrival = t
			}
			trip.Legs = append(trip.Legs, leg)
		}
		trips = append(trips, trip)
	}
	return trips, nil
}
