// Package events finds things to do on the upcoming weekend: it searches
// around the user's city, drops anything colliding with the calendar and
// enriches the survivors with weather flags and a bicycle ETA.
package events

import (
	"context"
	"fmt"
	"time"

	"aria/internal/agent"
	"aria/internal/api/calendar"
	"aria/internal/api/events"
	"aria/internal/api/maps"
	"aria/internal/api/weather"
	"aria/internal/intent"
	"aria/internal/logging"
)

const (
	// searchRadiusKM bounds the discovery search around the home city.
	searchRadiusKM = 30
	// searchSize bounds how many candidates are fetched per search.
	searchSize = 20
	// assumedDuration is the slot blocked per candidate when checking for
	// calendar collisions; the discovery API carries no end time.
	assumedDuration = 2 * time.Hour
	// coldBelow and rainyAbove are the enrichment flag thresholds.
	coldBelow  = 5.0
	rainyAbove = 40.0
)

// DiscoveryService is the slice of the ticket-discovery adapter used here.
type DiscoveryService interface {
	Search(ctx context.Context, params events.SearchParams) ([]events.Event, error)
}

// CalendarService is the slice of the calendar adapter used here.
type CalendarService interface {
	EventsIn(ctx context.Context, from, to time.Time) ([]calendar.Event, error)
}

// WeatherService is the slice of the weather adapter used here.
type WeatherService interface {
	DynamicRange(ctx context.Context, location, period, elements, include string) (*weather.Forecast, error)
}

// RouteService is the slice of the directions adapter used here.
type RouteService interface {
	Connection(ctx context.Context, origin, destination string, mode maps.Mode) (maps.Route, error)
}

// suggestion is one surviving candidate with its enrichment.
type suggestion struct {
	event       events.Event
	isCold      bool
	isRainy     bool
	bikeMinutes float64 // 0 when no route was found
}

// Handler serves the events use-case family.
type Handler struct {
	session   *agent.Session
	discovery DiscoveryService
	calendar  CalendarService
	weather   WeatherService
	routes    RouteService
	logger    logging.Logger

	// announced remembers event IDs already spoken proactively.
	announced map[string]bool
}

// New builds the events handler. Calendar, weather and routes may be nil;
// filtering and enrichment then degrade gracefully.
func New(session *agent.Session, discovery DiscoveryService, cal CalendarService, weatherSvc WeatherService, routes RouteService, logger logging.Logger) *Handler {
	return &Handler{
		session:   session,
		discovery: discovery,
		calendar:  cal,
		weather:   weatherSvc,
		routes:    routes,
		logger:    logging.OrNop(logger),
		announced: make(map[string]bool),
	}
}

// Trigger dispatches to the matched function key.
func (h *Handler) Trigger(ctx context.Context, match intent.Match) error {
	switch match.Function {
	case "weekend":
		suggestions, err := h.upcoming(ctx)
		if err != nil {
			h.session.Voice.Say("Sorry, I could not look for events right now.")
			return err
		}
		h.speakSuggestions(suggestions)
		return nil
	default:
		return agent.ErrUnimplemented
	}
}

// CheckProactivity runs the same pipeline but speaks only when it finds
// something it has not announced before.
func (h *Handler) CheckProactivity(ctx context.Context) error {
	suggestions, err := h.upcoming(ctx)
	if err != nil {
		return err
	}
	var fresh []suggestion
	for _, s := range suggestions {
		if !h.announced[s.event.ID] {
			fresh = append(fresh, s)
		}
	}
	if len(fresh) == 0 {
		return nil
	}
	h.session.Voice.Say("By the way, I found something for next weekend.")
	h.speakSuggestions(fresh)
	return nil
}

// WeekendWindow returns the next weekend as [Saturday 00:00:00, Sunday
// 23:59:59] in now's location. During a running weekend it returns the
// current one.
func WeekendWindow(now time.Time) (time.Time, time.Time) {
	offset := (int(time.Saturday) - int(now.Weekday()) + 7) % 7
	if now.Weekday() == time.Sunday {
		offset = -1
	}
	saturday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, offset)
	sundayEnd := saturday.AddDate(0, 0, 1).Add(24*time.Hour - time.Second)
	return saturday, sundayEnd
}

// upcoming is the shared pipeline: search, calendar filter, enrichment.
func (h *Handler) upcoming(ctx context.Context) ([]suggestion, error) {
	from, to := WeekendWindow(h.session.Now())
	candidates, err := h.discovery.Search(ctx, events.SearchParams{
		City:     h.session.Profile.Address.City,
		RadiusKM: searchRadiusKM,
		Start:    from,
		End:      to,
		Size:     searchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("searching weekend events: %w", err)
	}

	candidates = h.withoutCollisions(ctx, candidates, from, to)

	var forecast *weather.Forecast
	if h.weather != nil {
		forecast, err = h.weather.DynamicRange(ctx, h.session.Profile.Address.City, "next7days", "datetime,temp,precipprob", "days,hours")
		if err != nil {
			h.logger.Warn("weekend weather enrichment: %v", err)
			forecast = nil
		}
	}

	suggestions := make([]suggestion, 0, len(candidates))
	for _, candidate := range candidates {
		suggestions = append(suggestions, h.enrich(ctx, candidate, forecast))
	}
	return suggestions, nil
}

// withoutCollisions drops candidates overlapping a calendar entry. Without a
// calendar nothing is filtered.
func (h *Handler) withoutCollisions(ctx context.Context, candidates []events.Event, from, to time.Time) []events.Event {
	if h.calendar == nil {
		return candidates
	}
	booked, err := h.calendar.EventsIn(ctx, from, to)
	if err != nil {
		h.logger.Warn("weekend calendar filter: %v", err)
		return candidates
	}
	var free []events.Event
	for _, candidate := range candidates {
		slotEnd := candidate.Start.Add(assumedDuration)
		collides := false
		for _, entry := range booked {
			if entry.Overlaps(candidate.Start, slotEnd) {
				collides = true
				break
			}
		}
		if !collides {
			free = append(free, candidate)
		}
	}
	return free
}

func (h *Handler) enrich(ctx context.Context, candidate events.Event, forecast *weather.Forecast) suggestion {
	s := suggestion{event: candidate}
	if forecast != nil {
		if hour, ok := forecast.HourAt(candidate.Start); ok {
			s.isCold = hour.Temp < coldBelow
			s.isRainy = hour.PrecipProb > rainyAbove
		} else if day, ok := forecast.Day(candidate.Start); ok {
			s.isCold = day.Temp < coldBelow
			s.isRainy = day.PrecipProb > rainyAbove
		}
	}
	if h.routes != nil && candidate.Venue != "" {
		destination := candidate.Venue + ", " + candidate.City
		route, err := h.routes.Connection(ctx, h.homeAddress(), destination, maps.ModeBicycling)
		if err != nil {
			h.logger.Warn("bike route to %s: %v", candidate.Venue, err)
		} else {
			s.bikeMinutes = route.DurationMinutes
		}
	}
	return s
}

func (h *Handler) homeAddress() string {
	address := h.session.Profile.Address
	return fmt.Sprintf("%s, %s %s", address.Street, address.ZipCode, address.City)
}

// speakSuggestions uses distinct phrasings for zero, one and many.
func (h *Handler) speakSuggestions(suggestions []suggestion) {
	switch len(suggestions) {
	case 0:
		h.session.Voice.Say("I found no events for next weekend that fit your calendar.")
	case 1:
		h.session.Voice.Say("There is one event next weekend: " + h.describe(suggestions[0]))
		h.announced[suggestions[0].event.ID] = true
	default:
		h.session.Voice.Say(fmt.Sprintf("I found %d events next weekend.", len(suggestions)))
		for _, s := range suggestions {
			h.session.Voice.Say(h.describe(s))
			h.announced[s.event.ID] = true
		}
	}
}

func (h *Handler) describe(s suggestion) string {
	line := fmt.Sprintf("%s at %s on %s at %s.",
		s.event.Name, s.event.Venue,
		s.event.Start.Format("Monday"), s.event.Start.Format("3:04 PM"))
	switch {
	case s.isCold && s.isRainy:
		line += " It will be cold and it might rain."
	case s.isCold:
		line += " It will be cold."
	case s.isRainy:
		line += " It might rain."
	}
	if s.bikeMinutes > 0 {
		line += fmt.Sprintf(" It is about %.0f minutes away by bike.", s.bikeMinutes)
	}
	return line
}
