// Package sport adapts two providers: football-data.org for soccer
// (standings, matchdays, team games) and the API-Sports Formula 1 endpoints
// for race results. Both meter daily quotas, which surface as
// apierr.ErrQuotaExceeded.
package sport

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"aria/internal/apierr"
	"aria/internal/httpclient"
)

const (
	defaultSoccerBaseURL  = "https://api.football-data.org/v4"
	defaultFormulaBaseURL = "https://v1.formula-1.api-sports.io"
)

// Standing is one row of a league table.
type Standing struct {
	Position int    `json:"position"`
	Team     string `json:"team"`
	Played   int    `json:"playedGames"`
	Points   int    `json:"points"`
}

// Match is a reduced soccer fixture.
type Match struct {
	HomeTeam  string
	AwayTeam  string
	HomeGoals int
	AwayGoals int
	Status    string // SCHEDULED, IN_PLAY, FINISHED
	Kickoff   time.Time
}

// RaceResult is a reduced Formula 1 classification.
type RaceResult struct {
	Race     string
	Round    int
	Date     time.Time
	Podium   []string
	Finished bool
}

// Client queries both providers.
type Client struct {
	http           *httpclient.Client
	soccerBaseURL  string
	formulaBaseURL string
	soccerKey      string
	sportsKey      string
}

// New returns a sport client. soccerKey authenticates football-data.org,
// sportsKey the API-Sports Formula 1 host.
func New(http *httpclient.Client, soccerKey, sportsKey string) *Client {
	return &Client{
		http:           http,
		soccerBaseURL:  defaultSoccerBaseURL,
		formulaBaseURL: defaultFormulaBaseURL,
		soccerKey:      soccerKey,
		sportsKey:      sportsKey,
	}
}

// WithBaseURLs redirects both providers, for tests.
func (c *Client) WithBaseURLs(soccer, formula string) *Client {
	c.soccerBaseURL = soccer
	c.formulaBaseURL = formula
	return c
}

func (c *Client) soccerHeaders() map[string]string {
	return map[string]string{"X-Auth-Token": c.soccerKey}
}

func (c *Client) formulaHeaders() map[string]string {
	return map[string]string{"x-apisports-key": c.sportsKey}
}

// Standings returns the current table of a competition ("BL1", "PL", ...).
func (c *Client) Standings(ctx context.Context, competition string) ([]Standing, error) {
	var parsed struct {
		Standings []struct {
			Type  string `json:"type"`
			Table []struct {
				Position int `json:"position"`
				Team     struct {
					Name string `json:"name"`
				} `json:"team"`
				Played int `json:"playedGames"`
				Points int `json:"points"`
			} `json:"table"`
		} `json:"standings"`
	}
	endpoint := fmt.Sprintf("%s/competitions/%s/standings", c.soccerBaseURL, url.PathEscape(competition))
	if err := c.http.GetJSON(ctx, "soccer", endpoint, nil, c.soccerHeaders(), &parsed); err != nil {
		return nil, err
	}
	for _, block := range parsed.Standings {
		if block.Type != "TOTAL" {
			continue
		}
		var table []Standing
		for _, row := range block.Table {
			table = append(table, Standing{
				Position: row.Position,
				Team:     row.Team.Name,
				Played:   row.Played,
				Points:   row.Points,
			})
		}
		return table, nil
	}
	return nil, fmt.Errorf("soccer: standings for %s: %w", competition, apierr.ErrNotFound)
}

type matchesResponse struct {
	Matches []struct {
		UTCDate  string `json:"utcDate"`
		Status   string `json:"status"`
		HomeTeam struct {
			Name string `json:"name"`
		} `json:"homeTeam"`
		AwayTeam struct {
			Name string `json:"name"`
		} `json:"awayTeam"`
		Score struct {
			FullTime struct {
				Home int `json:"home"`
				Away int `json:"away"`
			} `json:"fullTime"`
		} `json:"score"`
	} `json:"matches"`
}

// MatchdayMatches returns the fixtures of one matchday of a competition.
func (c *Client) MatchdayMatches(ctx context.Context, competition string, matchday int) ([]Match, error) {
	endpoint := fmt.Sprintf("%s/competitions/%s/matches", c.soccerBaseURL, url.PathEscape(competition))
	return c.fetchMatches(ctx, endpoint, url.Values{"matchday": {strconv.Itoa(matchday)}})
}

// OngoingMatches returns the matches currently in play across a competition.
func (c *Client) OngoingMatches(ctx context.Context, competition string) ([]Match, error) {
	endpoint := fmt.Sprintf("%s/competitions/%s/matches", c.soccerBaseURL, url.PathEscape(competition))
	return c.fetchMatches(ctx, endpoint, url.Values{"status": {"IN_PLAY"}})
}

// TeamGameToday returns today's fixture of the team with teamID, or
// apierr.ErrNotFound when the team does not play today.
func (c *Client) TeamGameToday(ctx context.Context, teamID int) (Match, error) {
	today := time.Now().Format("2006-01-02")
	endpoint := fmt.Sprintf("%s/teams/%d/matches", c.soccerBaseURL, teamID)
	matches, err := c.fetchMatches(ctx, endpoint, url.Values{
		"dateFrom": {today},
		"dateTo":   {today},
	})
	if err != nil {
		return Match{}, err
	}
	if len(matches) == 0 {
		return Match{}, fmt.Errorf("soccer: no game today for team %d: %w", teamID, apierr.ErrNotFound)
	}
	return matches[0], nil
}

func (c *Client) fetchMatches(ctx context.Context, endpoint string, query url.Values) ([]Match, error) {
	var parsed matchesResponse
	if err := c.http.GetJSON(ctx, "soccer", endpoint, query, c.soccerHeaders(), &parsed); err != nil {
		return nil, err
	}
	var matches []Match
	for _, raw := range parsed.Matches {
		match := Match{
			HomeTeam:  raw.HomeTeam.Name,
			AwayTeam:  raw.AwayTeam.Name,
			HomeGoals: raw.Score.FullTime.Home,
			AwayGoals: raw.Score.FullTime.Away,
			Status:    raw.Status,
		}
		if raw.UTCDate != "" {
			kickoff, err := time.Parse(time.RFC3339, raw.UTCDate)
			if err != nil {
				return nil, fmt.Errorf("soccer: parsing kickoff: %w", err)
			}
			match.Kickoff = kickoff
		}
		matches = append(matches, match)
	}
	return matches, nil
}

type racesResponse struct {
	Response []struct {
		Competition struct {
			Name string `json:"name"`
		} `json:"competition"`
		Round  string `json:"round"`
		Date   string `json:"date"`
		Status string `json:"status"`
	} `json:"response"`
}

// FormulaOneRound returns the result of a specific round of the current
// season. round counts from 1.
func (c *Client) FormulaOneRound(ctx context.Context, round int) (RaceResult, error) {
	return c.fetchRace(ctx, url.Values{
		"season": {strconv.Itoa(time.Now().Year())},
		"type":   {"Race"},
		"round":  {strconv.Itoa(round)},
	})
}

// FormulaOneLast returns the most recently completed race.
func (c *Client) FormulaOneLast(ctx context.Context) (RaceResult, error) {
	return c.fetchRace(ctx, url.Values{
		"season": {strconv.Itoa(time.Now().Year())},
		"type":   {"Race"},
		"last":   {"1"},
	})
}

// FormulaOneNext returns the upcoming race.
func (c *Client) FormulaOneNext(ctx context.Context) (RaceResult, error) {
	return c.fetchRace(ctx, url.Values{
		"season": {strconv.Itoa(time.Now().Year())},
		"type":   {"Race"},
		"next":   {"1"},
	})
}

func (c *Client) fetchRace(ctx context.Context, query url.Values) (RaceResult, error) {
	var parsed racesResponse
	if err := c.http.GetJSON(ctx, "formula1", c.formulaBaseURL+"/races", query, c.formulaHeaders(), &parsed); err != nil {
		return RaceResult{}, err
	}
	if len(parsed.Response) == 0 {
		return RaceResult{}, fmt.Errorf("formula1: %w", apierr.ErrNotFound)
	}
	raw := parsed.Response[0]
	result := RaceResult{
		Race:     raw.Competition.Name,
		Finished: raw.Status == "Completed",
	}
	result.Round, _ = strconv.Atoi(raw.Round)
	if raw.Date != "" {
		date, err := time.Parse(time.RFC3339, raw.Date)
		if err != nil {
			return RaceResult{}, fmt.Errorf("formula1: parsing date: %w", err)
		}
		result.Date = date
	}
	if result.Finished {
		podium, err := c.fetchPodium(ctx, result.Round)
		if err != nil {
			return RaceResult{}, err
		}
		result.Podium = podium
	}
	return result, nil
}

func (c *Client) fetchPodium(ctx context.Context, round int) ([]string, error) {
	var parsed struct {
		Response []struct {
			Driver struct {
				Name string `json:"name"`
			} `json:"driver"`
			Position int `json:"position"`
		} `json:"response"`
	}
	query := url.Values{
		"season": {strconv.Itoa(time.Now().Year())},
		"round":  {strconv.Itoa(round)},
	}
	if err := c.http.GetJSON(ctx, "formula1", c.formulaBaseURL+"/rankings/races", query, c.formulaHeaders(), &parsed); err != nil {
		return nil, err
	}
	var podium []string
	for _, row := range parsed.Response {
		if row.Position >= 1 && row.Position <= 3 {
			podium = append(podium, row.Driver.Name)
		}
	}
	return podium, nil
}
