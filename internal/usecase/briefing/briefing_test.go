package briefing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aria/internal/agent"
	"aria/internal/api/calendar"
	"aria/internal/api/finance"
	"aria/internal/api/news"
	"aria/internal/api/weather"
	"aria/internal/apierr"
	"aria/internal/intent"
	"aria/internal/profile"
	"aria/internal/voice"
)

type fakeCalendar struct {
	events []calendar.Event
	err    error
}

func (f *fakeCalendar) EventsToday(context.Context) ([]calendar.Event, error) {
	return f.events, f.err
}

type fakeNews struct {
	headlines []news.Article
	byKeyword map[string][]news.Article
	err       error
}

func (f *fakeNews) TopHeadlines(context.Context, string, int) ([]news.Article, error) {
	return f.headlines, f.err
}

func (f *fakeNews) KeywordSearch(_ context.Context, keyword string, _ int) ([]news.Article, error) {
	return f.byKeyword[keyword], f.err
}

type fakeWeather struct {
	forecast *weather.Forecast
	err      error
}

func (f *fakeWeather) Forecast(context.Context, string, string, string) (*weather.Forecast, error) {
	return f.forecast, f.err
}

type quote struct {
	price  float64
	change finance.Change
	rating string
	err    error
}

type fakeFinance struct {
	quotes     map[string]quote
	priceCalls []string
}

func (f *fakeFinance) StockPrice(_ context.Context, symbol, _ string) (float64, error) {
	f.priceCalls = append(f.priceCalls, symbol)
	q := f.quotes[symbol]
	return q.price, q.err
}

func (f *fakeFinance) StockPriceChange(_ context.Context, symbol string) (finance.Change, error) {
	q := f.quotes[symbol]
	return q.change, q.err
}

func (f *fakeFinance) StockRating(_ context.Context, symbol string) (string, error) {
	q := f.quotes[symbol]
	return q.rating, q.err
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Name:    "Lena",
		Address: profile.Address{City: "Stuttgart"},
		Favorites: profile.Favorites{
			Stocks: []profile.Stock{
				{Name: "Apple", Symbol: "AAPL"},
				{Name: "Daimler", Symbol: "DAI"},
			},
			NewsCountry:  "us",
			NewsKeywords: []string{"robotics"},
			WakeupTime:   time.Date(0, 1, 1, 7, 0, 0, 0, time.UTC),
		},
	}
}

func newFixture(script *voice.Script) (*agent.Session, func(time.Time)) {
	session := agent.NewSession(nil, testProfile(), voice.ScriptedIO(script))
	now := time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)
	session.Now = func() time.Time { return now }
	return session, func(t time.Time) { now = t }
}

func forecastForDay(date string) *weather.Forecast {
	return &weather.Forecast{Days: []weather.Day{{
		Date:       date,
		TempMin:    3,
		TempMax:    11,
		PrecipProb: 65,
	}}}
}

func TestBriefingSpeaksStockQuoteVerbatim(t *testing.T) {
	script := voice.NewScript()
	session, _ := newFixture(script)
	session.Profile.Favorites.Stocks = session.Profile.Favorites.Stocks[:1]

	fin := &fakeFinance{quotes: map[string]quote{
		"AAPL": {price: 120.96, change: finance.Change{Day: "-1.92%"}, rating: "S- (Strong Buy)"},
	}}
	handler := New(session,
		&fakeCalendar{},
		&fakeNews{},
		&fakeWeather{forecast: forecastForDay("2026-03-16")},
		fin, nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "briefing"}))

	transcript := script.Transcript()
	assert.Contains(t, transcript, "120.96")
	assert.Contains(t, transcript, "-1.92%")
	assert.Contains(t, transcript, "Strong Buy")
}

func TestBriefingSectionOrder(t *testing.T) {
	script := voice.NewScript()
	session, _ := newFixture(script)
	session.Profile.Favorites.Stocks = session.Profile.Favorites.Stocks[:1]

	handler := New(session,
		&fakeCalendar{events: []calendar.Event{{
			Title: "Dentist",
			Start: time.Date(2026, 3, 16, 14, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 16, 15, 0, 0, 0, time.UTC),
		}}},
		&fakeNews{
			headlines: []news.Article{{Title: "Markets rally"}},
			byKeyword: map[string][]news.Article{"robotics": {{Title: "New robot walks"}}},
		},
		&fakeWeather{forecast: forecastForDay("2026-03-16")},
		&fakeFinance{quotes: map[string]quote{"AAPL": {price: 101.5}}},
		nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "briefing"}))

	transcript := script.Transcript()
	dentist := strings.Index(transcript, "Dentist")
	markets := strings.Index(transcript, "Markets rally")
	degrees := strings.Index(transcript, "degrees")
	apple := strings.Index(transcript, "Apple")
	require.True(t, dentist >= 0 && markets >= 0 && degrees >= 0 && apple >= 0, "missing section: %s", transcript)
	assert.Less(t, dentist, markets)
	assert.Less(t, markets, degrees)
	assert.Less(t, degrees, apple)
	assert.Contains(t, transcript, "New robot walks")
	assert.Contains(t, transcript, "chance of rain")
}

func TestBriefingSectionsRecoverIndependently(t *testing.T) {
	script := voice.NewScript()
	session, _ := newFixture(script)
	session.Profile.Favorites.Stocks = session.Profile.Favorites.Stocks[:1]

	handler := New(session,
		&fakeCalendar{err: errors.New("calendar down")},
		&fakeNews{err: errors.New("news down")},
		&fakeWeather{err: errors.New("weather down")},
		&fakeFinance{quotes: map[string]quote{"AAPL": {price: 99.0}}},
		nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "briefing"}))

	assert.True(t, script.SaidContaining("could not reach your calendar"))
	assert.True(t, script.SaidContaining("could not fetch the news"))
	assert.True(t, script.SaidContaining("could not fetch the weather"))
	assert.True(t, script.SaidContaining("99.00"), "finance section must still run: %s", script.Transcript())
}

func TestBriefingRateLimitSkipsRemainingStocks(t *testing.T) {
	script := voice.NewScript()
	session, _ := newFixture(script)

	fin := &fakeFinance{quotes: map[string]quote{
		"AAPL": {err: apierr.ErrRateLimited},
		"DAI":  {price: 70.0},
	}}
	handler := New(session, &fakeCalendar{}, &fakeNews{}, &fakeWeather{forecast: forecastForDay("2026-03-16")}, fin, nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "briefing"}))

	assert.True(t, script.SaidContaining("rate limited"))
	assert.False(t, script.SaidContaining("Daimler"))
	assert.Equal(t, []string{"AAPL"}, fin.priceCalls)
}

func TestProactiveBriefingOncePerDayInWakeupWindow(t *testing.T) {
	script := voice.NewScript()
	session, setNow := newFixture(script)
	session.Profile.Favorites.Stocks = nil

	handler := New(session, &fakeCalendar{}, &fakeNews{}, &fakeWeather{forecast: forecastForDay("2026-03-16")}, &fakeFinance{}, nil)

	// 9:00 is outside the 07:00 wake-up window.
	require.NoError(t, handler.CheckProactivity(context.Background()))
	assert.False(t, script.SaidContaining("Here is your briefing"))

	setNow(time.Date(2026, 3, 16, 7, 10, 0, 0, time.UTC))
	require.NoError(t, handler.CheckProactivity(context.Background()))
	assert.True(t, script.SaidContaining("Here is your briefing"))

	// A second check inside the same window stays quiet.
	before := len(script.Spoken)
	setNow(time.Date(2026, 3, 16, 7, 20, 0, 0, time.UTC))
	require.NoError(t, handler.CheckProactivity(context.Background()))
	assert.Equal(t, before, len(script.Spoken))

	// The next morning it fires again.
	setNow(time.Date(2026, 3, 17, 7, 5, 0, 0, time.UTC))
	require.NoError(t, handler.CheckProactivity(context.Background()))
	assert.Greater(t, len(script.Spoken), before)
}

func TestProactiveStockAlertOnThreePercentMove(t *testing.T) {
	script := voice.NewScript()
	session, _ := newFixture(script)
	session.Profile.Favorites.Stocks = session.Profile.Favorites.Stocks[:1]
	session.Profile.Favorites.WakeupTime = time.Time{}

	fin := &fakeFinance{quotes: map[string]quote{"AAPL": {price: 100.0}}}
	handler := New(session, nil, nil, nil, fin, nil)

	// First check seeds the cache, no alert possible.
	require.NoError(t, handler.CheckProactivity(context.Background()))
	assert.Empty(t, script.Spoken)

	// A 2% move stays below the threshold.
	fin.quotes["AAPL"] = quote{price: 102.0}
	require.NoError(t, handler.CheckProactivity(context.Background()))
	assert.Empty(t, script.Spoken)

	// A drop from 102 to 96 is about -5.9%.
	fin.quotes["AAPL"] = quote{price: 96.0}
	require.NoError(t, handler.CheckProactivity(context.Background()))
	assert.True(t, script.SaidContaining("moved down"))
	assert.True(t, script.SaidContaining("96.00"))
}

func TestUnknownFunctionIsUnimplemented(t *testing.T) {
	session, _ := newFixture(voice.NewScript())
	handler := New(session, nil, nil, nil, nil, nil)
	err := handler.Trigger(context.Background(), intent.Match{Function: "horoscope"})
	require.ErrorIs(t, err, agent.ErrUnimplemented)
}
