// Package navigation estimates commutes from home to a named destination
// with up to three transport modes and warns which of them would make the
// user miss the next appointment.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aria/internal/agent"
	"aria/internal/api/calendar"
	"aria/internal/api/maps"
	"aria/internal/api/transit"
	"aria/internal/api/weather"
	"aria/internal/apierr"
	"aria/internal/intent"
	"aria/internal/logging"
)

// Bike weather gate: both the current and the following hour must be at
// least this warm and at most this likely to rain.
const (
	bikeMinTemp       = 8.0
	bikeMaxPrecipProb = 25.0
)

// Destination is one named place the user commutes to.
type Destination struct {
	// Name is matched case-insensitively against the utterance.
	Name string
	// Address is the street address used for directions.
	Address string
	// TransitStop is the stop identifier used for public transport.
	TransitStop string
}

// RouteService is the slice of the directions adapter used here.
type RouteService interface {
	Connection(ctx context.Context, origin, destination string, mode maps.Mode) (maps.Route, error)
}

// TransitService is the slice of the public-transport adapter used here.
type TransitService interface {
	NextConnection(ctx context.Context, fromStop, toStop string) (transit.Trip, error)
	LatestConnection(ctx context.Context, fromStop, toStop string, arriveBy time.Time) (transit.Trip, error)
}

// WeatherService is the slice of the weather adapter used here.
type WeatherService interface {
	Forecast(ctx context.Context, location, elements, include string) (*weather.Forecast, error)
}

// CalendarService is the slice of the calendar adapter used here.
type CalendarService interface {
	NextEventToday(ctx context.Context) (calendar.Event, error)
}

// estimate is one computed mode option.
type estimate struct {
	label    string
	duration time.Duration
}

// Handler serves the transportation use-case family.
type Handler struct {
	session      *agent.Session
	routes       RouteService
	transit      TransitService
	weather      WeatherService
	calendar     CalendarService
	destinations []Destination
	logger       logging.Logger
}

// New builds the navigation handler. destinations lists the named places
// the user can ask for; the next calendar event is always available as a
// destination on top of them.
func New(session *agent.Session, routes RouteService, transitSvc TransitService, weatherSvc WeatherService, cal CalendarService, destinations []Destination, logger logging.Logger) *Handler {
	return &Handler{
		session:      session,
		routes:       routes,
		transit:      transitSvc,
		weather:      weatherSvc,
		calendar:     cal,
		destinations: destinations,
		logger:       logging.OrNop(logger),
	}
}

// Trigger dispatches to the matched function key.
func (h *Handler) Trigger(ctx context.Context, match intent.Match) error {
	switch match.Function {
	case "route":
		return h.commute(ctx, match.Utterance)
	default:
		return agent.ErrUnimplemented
	}
}

// CheckProactivity is a no-op; commutes are computed on demand.
func (h *Handler) CheckProactivity(context.Context) error {
	return agent.ErrUnimplemented
}

func (h *Handler) commute(ctx context.Context, utterance string) error {
	destination, ok := h.resolveDestination(ctx, utterance)
	if !ok {
		h.session.Voice.Say("Sorry, I do not know where that is.")
		return nil
	}
	h.session.Voice.Say(fmt.Sprintf("Let me check your options to %s.", destination.Name))

	estimates := h.estimates(ctx, destination)
	if len(estimates) == 0 {
		h.session.Voice.Say("Sorry, I could not find any connection right now.")
		return nil
	}
	for _, e := range estimates {
		h.session.Voice.Say(fmt.Sprintf("%s takes about %.0f minutes.", e.label, e.duration.Minutes()))
	}
	h.warnAboutNextEvent(ctx, destination, estimates)
	return nil
}

// resolveDestination matches a named destination in the utterance and falls
// back to the location of the next calendar appointment.
func (h *Handler) resolveDestination(ctx context.Context, utterance string) (Destination, bool) {
	lowered := strings.ToLower(utterance)
	for _, destination := range h.destinations {
		if strings.Contains(lowered, strings.ToLower(destination.Name)) {
			return destination, true
		}
	}
	if h.calendar == nil {
		return Destination{}, false
	}
	event, err := h.calendar.NextEventToday(ctx)
	if err != nil {
		if !errors.Is(err, apierr.ErrNotFound) {
			h.logger.Warn("next event lookup: %v", err)
		}
		return Destination{}, false
	}
	if event.Location == "" {
		return Destination{}, false
	}
	return Destination{Name: event.Title, Address: event.Location}, true
}

// estimates assembles the available modes: bike when owned and the weather
// permits, car when owned, public transport whenever a stop is known.
func (h *Handler) estimates(ctx context.Context, destination Destination) []estimate {
	var estimates []estimate
	home := h.homeAddress()

	if h.session.Profile.Possessions.Bike && h.routes != nil {
		if h.bikeWeatherOK(ctx) {
			if route, err := h.routes.Connection(ctx, home, destination.Address, maps.ModeBicycling); err != nil {
				h.logger.Warn("bike route: %v", err)
			} else {
				estimates = append(estimates, estimate{"The bike", minutes(route)})
			}
		} else {
			h.session.Voice.Say("The weather is not good enough for the bike.")
		}
	}

	if h.session.Profile.Possessions.Car && h.routes != nil {
		if route, err := h.routes.Connection(ctx, home, destination.Address, maps.ModeDriving); err != nil {
			h.logger.Warn("car route: %v", err)
		} else {
			estimates = append(estimates, estimate{"The car", minutes(route)})
		}
	}

	if h.transit != nil && destination.TransitStop != "" && h.session.Profile.Address.TransitID != "" {
		if trip, err := h.transit.NextConnection(ctx, h.session.Profile.Address.TransitID, destination.TransitStop); err != nil {
			h.logger.Warn("transit connection: %v", err)
		} else {
			estimates = append(estimates, estimate{"Public transport", trip.Duration()})
		}
	} else if h.routes != nil && destination.TransitStop == "" {
		// Unknown stop, fall back to a directions transit estimate.
		if route, err := h.routes.Connection(ctx, home, destination.Address, maps.ModeTransit); err != nil {
			h.logger.Warn("transit route: %v", err)
		} else {
			estimates = append(estimates, estimate{"Public transport", minutes(route)})
		}
	}

	return estimates
}

// bikeWeatherOK checks the current and the next hour against the bike gate.
// Missing forecast data fails the gate.
func (h *Handler) bikeWeatherOK(ctx context.Context) bool {
	if h.weather == nil {
		return false
	}
	forecast, err := h.weather.Forecast(ctx, h.session.Profile.Address.City, "datetime,temp,precipprob", "days,hours")
	if err != nil {
		h.logger.Warn("bike weather gate: %v", err)
		return false
	}
	now := h.session.Now()
	for _, at := range []time.Time{now, now.Add(time.Hour)} {
		hour, ok := forecast.HourAt(at)
		if !ok {
			return false
		}
		if hour.Temp < bikeMinTemp || hour.PrecipProb > bikeMaxPrecipProb {
			return false
		}
	}
	return true
}

// warnAboutNextEvent names the modes that would arrive after the next
// appointment starts, and for public transport adds the latest departure
// that still makes it.
func (h *Handler) warnAboutNextEvent(ctx context.Context, destination Destination, estimates []estimate) {
	if h.calendar == nil {
		return
	}
	event, err := h.calendar.NextEventToday(ctx)
	if err != nil {
		if !errors.Is(err, apierr.ErrNotFound) {
			h.logger.Warn("next event lookup: %v", err)
		}
		return
	}
	now := h.session.Now()
	var late []string
	for _, e := range estimates {
		if now.Add(e.duration).After(event.Start) {
			late = append(late, strings.ToLower(e.label))
		}
	}
	if len(late) == 0 {
		return
	}
	h.session.Voice.Say(fmt.Sprintf(
		"Careful: with %s you would miss %s at %s.",
		strings.Join(late, " and "), event.Title, event.Start.Format("3:04 PM")))

	if h.transit != nil && destination.TransitStop != "" && h.session.Profile.Address.TransitID != "" {
		trip, err := h.transit.LatestConnection(ctx, h.session.Profile.Address.TransitID, destination.TransitStop, event.Start)
		if err != nil {
			h.logger.Warn("latest connection: %v", err)
			return
		}
		h.session.Voice.Say(fmt.Sprintf(
			"The last train that still makes it leaves at %s.", trip.Departure().Format("3:04 PM")))
	}
}

func (h *Handler) homeAddress() string {
	address := h.session.Profile.Address
	return fmt.Sprintf("%s, %s %s", address.Street, address.ZipCode, address.City)
}

func minutes(route maps.Route) time.Duration {
	return time.Duration(route.DurationMinutes * float64(time.Minute))
}
