// Package briefing composes the morning briefing: calendar, news, weather
// and finance, spoken in that order. Each section recovers on its own; a
// failing backend costs one apology, never the rest of the briefing.
package briefing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"aria/internal/agent"
	"aria/internal/api/calendar"
	"aria/internal/api/finance"
	"aria/internal/api/news"
	"aria/internal/api/weather"
	"aria/internal/apierr"
	"aria/internal/intent"
	"aria/internal/logging"
)

const (
	// headlineCount bounds how many country headlines are read out.
	headlineCount = 3
	// alertThreshold is the relative price move that triggers a proactive
	// stock alert.
	alertThreshold = 0.03
	// wakeupWindow is how long after the configured wake-up time the
	// proactive briefing may still fire.
	wakeupWindow = 30 * time.Minute
	// priceCacheSize bounds the last-known-price cache.
	priceCacheSize = 64
)

// CalendarService is the slice of the calendar adapter the briefing reads.
type CalendarService interface {
	EventsToday(ctx context.Context) ([]calendar.Event, error)
}

// NewsService is the slice of the news adapter the briefing reads.
type NewsService interface {
	TopHeadlines(ctx context.Context, country string, n int) ([]news.Article, error)
	KeywordSearch(ctx context.Context, keyword string, n int) ([]news.Article, error)
}

// WeatherService is the slice of the weather adapter the briefing reads.
type WeatherService interface {
	Forecast(ctx context.Context, location, elements, include string) (*weather.Forecast, error)
}

// FinanceService is the slice of the finance adapter the briefing reads.
type FinanceService interface {
	StockPrice(ctx context.Context, symbol, currency string) (float64, error)
	StockPriceChange(ctx context.Context, symbol string) (finance.Change, error)
	StockRating(ctx context.Context, symbol string) (string, error)
}

// Handler serves the morningBriefing use-case family.
type Handler struct {
	session  *agent.Session
	calendar CalendarService
	news     NewsService
	weather  WeatherService
	finance  FinanceService
	logger   logging.Logger

	// lastPrices remembers the last spoken price per symbol for the
	// proactive move detection.
	lastPrices *lru.Cache[string, float64]
	// briefedOn is the local date of the last proactive wake-up briefing.
	briefedOn string
}

// New builds the briefing handler. Any service may be nil; its section then
// degrades to the spoken apology.
func New(session *agent.Session, cal CalendarService, newsSvc NewsService, weatherSvc WeatherService, financeSvc FinanceService, logger logging.Logger) *Handler {
	cache, _ := lru.New[string, float64](priceCacheSize)
	return &Handler{
		session:    session,
		calendar:   cal,
		news:       newsSvc,
		weather:    weatherSvc,
		finance:    financeSvc,
		logger:     logging.OrNop(logger),
		lastPrices: cache,
	}
}

// Trigger dispatches to the matched function key.
func (h *Handler) Trigger(ctx context.Context, match intent.Match) error {
	switch match.Function {
	case "briefing":
		h.speakBriefing(ctx)
		return nil
	default:
		return agent.ErrUnimplemented
	}
}

// CheckProactivity volunteers the briefing once per day inside the wake-up
// window, and alerts on sharp moves of the watched stocks at any time.
func (h *Handler) CheckProactivity(ctx context.Context) error {
	now := h.session.Now()
	if h.inWakeupWindow(now) && h.briefedOn != now.Format("2006-01-02") {
		h.briefedOn = now.Format("2006-01-02")
		h.session.Voice.Say(fmt.Sprintf("Good morning, %s. Time for your briefing.", h.session.Profile.Name))
		h.speakBriefing(ctx)
		return nil
	}
	return h.checkStockMoves(ctx)
}

func (h *Handler) inWakeupWindow(now time.Time) bool {
	wake := h.session.Profile.Favorites.WakeupTime
	if wake.IsZero() {
		return false
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), wake.Hour(), wake.Minute(), 0, 0, now.Location())
	return !now.Before(start) && now.Before(start.Add(wakeupWindow))
}

// speakBriefing runs the four sections in their fixed order.
func (h *Handler) speakBriefing(ctx context.Context) {
	h.session.Voice.Say(fmt.Sprintf("Here is your briefing, %s.", h.session.Profile.Name))
	h.speakCalendar(ctx)
	h.speakNews(ctx)
	h.speakWeather(ctx)
	h.speakFinance(ctx)
}

func (h *Handler) speakCalendar(ctx context.Context) {
	if h.calendar == nil {
		h.session.Voice.Say("Sorry, your calendar is not connected.")
		return
	}
	events, err := h.calendar.EventsToday(ctx)
	if err != nil {
		h.logger.Warn("briefing calendar section: %v", err)
		h.session.Voice.Say("Sorry, I could not reach your calendar.")
		return
	}
	switch len(events) {
	case 0:
		h.session.Voice.Say("Your calendar is free today.")
	case 1:
		h.session.Voice.Say(fmt.Sprintf("You have one appointment today: %s.", describeEvent(events[0])))
	default:
		h.session.Voice.Say(fmt.Sprintf("You have %d appointments today.", len(events)))
		for _, event := range events {
			h.session.Voice.Say(describeEvent(event) + ".")
		}
	}
}

func describeEvent(event calendar.Event) string {
	if event.FullDay {
		return fmt.Sprintf("%s, all day", event.Title)
	}
	return fmt.Sprintf("%s at %s", event.Title, event.Start.Format("3:04 PM"))
}

func (h *Handler) speakNews(ctx context.Context) {
	if h.news == nil {
		h.session.Voice.Say("Sorry, the news service is not available.")
		return
	}
	favorites := h.session.Profile.Favorites
	headlines, err := h.news.TopHeadlines(ctx, favorites.NewsCountry, headlineCount)
	if err != nil {
		h.logger.Warn("briefing news section: %v", err)
		h.session.Voice.Say("Sorry, I could not fetch the news.")
		return
	}
	if len(headlines) == 0 {
		h.session.Voice.Say("There are no fresh headlines right now.")
	} else {
		h.session.Voice.Say("The top headlines:")
		for _, article := range headlines {
			h.session.Voice.Say(article.Title + ".")
		}
	}
	for _, keyword := range favorites.NewsKeywords {
		hits, err := h.news.KeywordSearch(ctx, keyword, 1)
		if err != nil {
			h.logger.Warn("briefing news keyword %q: %v", keyword, err)
			continue
		}
		if len(hits) > 0 {
			h.session.Voice.Say(fmt.Sprintf("About %s: %s.", keyword, hits[0].Title))
		}
	}
}

func (h *Handler) speakWeather(ctx context.Context) {
	if h.weather == nil {
		h.session.Voice.Say("Sorry, the weather service is not available.")
		return
	}
	forecast, err := h.weather.Forecast(ctx, h.session.Profile.Address.City, "datetime,temp,tempmin,tempmax,precipprob", "days")
	if err != nil {
		h.logger.Warn("briefing weather section: %v", err)
		h.session.Voice.Say("Sorry, I could not fetch the weather.")
		return
	}
	day, ok := forecast.Day(h.session.Now())
	if !ok {
		h.session.Voice.Say("Sorry, there is no forecast for today.")
		return
	}
	line := fmt.Sprintf("The weather today: between %.0f and %.0f degrees", day.TempMin, day.TempMax)
	if day.PrecipProb > 40 {
		line += fmt.Sprintf(", with a %.0f percent chance of rain", day.PrecipProb)
	}
	h.session.Voice.Say(line + ".")
}

// speakFinance reads price, daily change and rating per watched stock. A
// rate-limited backend costs one apology and ends the section early.
func (h *Handler) speakFinance(ctx context.Context) {
	stocks := h.session.Profile.Favorites.Stocks
	if h.finance == nil || len(stocks) == 0 {
		return
	}
	for _, stock := range stocks {
		price, err := h.finance.StockPrice(ctx, stock.Symbol, "USD")
		if errors.Is(err, apierr.ErrRateLimited) {
			h.session.Voice.Say("Sorry, the stock service is rate limited, I will skip the remaining stocks.")
			return
		}
		if err != nil {
			h.logger.Warn("briefing finance %s: %v", stock.Symbol, err)
			h.session.Voice.Say(fmt.Sprintf("Sorry, I could not get a quote for %s.", stock.Name))
			continue
		}
		h.lastPrices.Add(stock.Symbol, price)

		line := fmt.Sprintf("%s is at %.2f US dollars", stock.Name, price)
		if change, err := h.finance.StockPriceChange(ctx, stock.Symbol); err == nil && change.Day != "" {
			line += fmt.Sprintf(", %s over the last day", change.Day)
		}
		if rating, err := h.finance.StockRating(ctx, stock.Symbol); err == nil && rating != "" {
			line += fmt.Sprintf(", rated %s", rating)
		}
		h.session.Voice.Say(line + ".")
	}
}

// checkStockMoves compares current prices against the cached last-known
// ones and speaks an alert for moves of at least three percent.
func (h *Handler) checkStockMoves(ctx context.Context) error {
	if h.finance == nil {
		return nil
	}
	for _, stock := range h.session.Profile.Favorites.Stocks {
		price, err := h.finance.StockPrice(ctx, stock.Symbol, "USD")
		if errors.Is(err, apierr.ErrRateLimited) {
			return fmt.Errorf("stock move check: %w", err)
		}
		if err != nil {
			h.logger.Warn("stock move check %s: %v", stock.Symbol, err)
			continue
		}
		last, seen := h.lastPrices.Get(stock.Symbol)
		h.lastPrices.Add(stock.Symbol, price)
		if !seen || last == 0 {
			continue
		}
		move := (price - last) / last
		if math.Abs(move) < alertThreshold {
			continue
		}
		direction := "up"
		if move < 0 {
			direction = "down"
		}
		h.session.Voice.Say(fmt.Sprintf(
			"Heads up: %s moved %s %.1f percent to %.2f US dollars.",
			stock.Name, direction, math.Abs(move)*100, price))
	}
	return nil
}
