// Package calendar is the adapter for the Google Calendar API. The cached
// OAuth token file is the only state this program persists.
package calendar

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"aria/internal/apierr"
	"aria/internal/httpclient"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Event is one calendar entry. Start and End carry the offset parsed from
// the wire; full-day events populate Date instead.
type Event struct {
	Title       string
	Description string
	Location    string
	FullDay     bool
	Date        string // "YYYY-MM-DD", full-day events only
	Start       time.Time
	End         time.Time
}

// Overlaps reports whether the event overlaps the [from, to) interval.
func (e Event) Overlaps(from, to time.Time) bool {
	if e.FullDay {
		day, err := time.ParseInLocation("2006-01-02", e.Date, from.Location())
		if err != nil {
			return false
		}
		return day.Before(to) && day.AddDate(0, 0, 1).After(from)
	}
	return e.Start.Before(to) && e.End.After(from)
}

// Client queries the primary calendar of the authorized user.
type Client struct {
	http    *httpclient.Client
	baseURL string
	tokens  *tokenSource
	now     func() time.Time
}

// New returns a calendar client backed by the cached token at tokenPath.
func New(http *httpclient.Client, tokenPath string) (*Client, error) {
	tokens, err := loadTokenSource(http, tokenPath)
	if err != nil {
		return nil, err
	}
	return &Client{http: http, baseURL: defaultBaseURL, tokens: tokens, now: time.Now}, nil
}

// WithBaseURL redirects the client, for tests.
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

type eventsResponse struct {
	Items []struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		Location    string `json:"location"`
		Start       struct {
			Date     string `json:"date"`
			DateTime string `json:"dateTime"`
		} `json:"start"`
		End struct {
			Date     string `json:"date"`
			DateTime string `json:"dateTime"`
		} `json:"end"`
	} `json:"items"`
}

// EventsIn returns the events overlapping [from, to), ordered by start.
func (c *Client) EventsIn(ctx context.Context, from, to time.Time) ([]Event, error) {
	token, err := c.tokens.token(ctx)
	if err != nil {
		return nil, err
	}
	query := url.Values{
		"timeMin":      {from.Format(time.RFC3339)},
		"timeMax":      {to.Format(time.RFC3339)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
	}
	headers := map[string]string{"Authorization": "Bearer " + token}

	var parsed eventsResponse
	endpoint := c.baseURL + "/calendars/primary/events"
	if err := c.http.GetJSON(ctx, "calendar", endpoint, query, headers, &parsed); err != nil {
		return nil, err
	}

	var events []Event
	for _, item := range parsed.Items {
		event := Event{
			Title:       item.Summary,
			Description: item.Description,
			Location:    item.Location,
		}
		switch {
		case item.Start.Date != "":
			event.FullDay = true
			event.Date = item.Start.Date
		default:
			// Offsets vary per entry; parse them instead of assuming a
			// fixed zone.
			start, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				return nil, fmt.Errorf("calendar: parsing start of %q: %w", item.Summary, err)
			}
			end, err := time.Parse(time.RFC3339, item.End.DateTime)
			if err != nil {
				return nil, fmt.Errorf("calendar: parsing end of %q: %w", item.Summary, err)
			}
			event.Start = start
			event.End = end
		}
		events = append(events, event)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

// EventsToday returns today's events.
func (c *Client) EventsToday(ctx context.Context) ([]Event, error) {
	now := c.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return c.EventsIn(ctx, start, start.AddDate(0, 0, 1))
}

// NextEventToday returns the next timed event that has not started yet, or
// apierr.ErrNotFound when nothing further is scheduled today.
func (c *Client) NextEventToday(ctx context.Context) (Event, error) {
	events, err := c.EventsToday(ctx)
	if err != nil {
		return Event{}, err
	}
	now := c.now()
	for _, event := range events {
		if !event.FullDay && event.Start.After(now) {
			return event, nil
		}
	}
	return Event{}, fmt.Errorf("calendar: no further event today: %w", apierr.ErrNotFound)
}

// CreateEvent inserts an event into the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, event Event) error {
	token, err := c.tokens.token(ctx)
	if err != nil {
		return err
	}
	type dateTime struct {
		Date     string `json:"date,omitempty"`
		DateTime string `json:"dateTime,omitempty"`
	}
	payload := struct {
		Summary     string   `json:"summary"`
		Description string   `json:"description,omitempty"`
		Location    string   `json:"location,omitempty"`
		Start       dateTime `json:"start"`
		End         dateTime `json:"end"`
	}{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
	}
	if event.FullDay {
		payload.Start.Date = event.Date
		payload.End.Date = event.Date
	} else {
		payload.Start.DateTime = event.Start.Format(time.RFC3339)
		payload.End.DateTime = event.End.Format(time.RFC3339)
	}
	endpoint := c.baseURL + "/calendars/primary/events"
	headers := map[string]string{"Authorization": "Bearer " + token}
	return c.http.PostJSON(ctx, "calendar", endpoint, headers, payload, nil)
}
