// Package sport reads league tables, fixtures, results and Formula 1
// summaries. League and matchday are picked interactively by voice.
package sport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aria/internal/agent"
	"aria/internal/api/sport"
	"aria/internal/apierr"
	"aria/internal/intent"
	"aria/internal/logging"
)

// league is one fixed menu entry.
type league struct {
	name string
	code string
}

// The menu is fixed; the football-data competition codes never change.
var leagues = []league{
	{"Bundesliga", "BL1"},
	{"Premier League", "PL"},
	{"La Liga", "PD"},
	{"Serie A", "SA"},
}

// teamIDs maps the team names a profile may carry to football-data IDs.
var teamIDs = map[string]int{
	"vfb stuttgart":     10,
	"bayern munich":     5,
	"borussia dortmund": 4,
	"liverpool":         64,
	"arsenal":           57,
	"chelsea":           61,
	"real madrid":       86,
	"barcelona":         81,
}

// SoccerService is the soccer slice of the sports adapter.
type SoccerService interface {
	Standings(ctx context.Context, competition string) ([]sport.Standing, error)
	MatchdayMatches(ctx context.Context, competition string, matchday int) ([]sport.Match, error)
	OngoingMatches(ctx context.Context, competition string) ([]sport.Match, error)
	TeamGameToday(ctx context.Context, teamID int) (sport.Match, error)
}

// FormulaService is the Formula 1 slice of the sports adapter.
type FormulaService interface {
	FormulaOneLast(ctx context.Context) (sport.RaceResult, error)
	FormulaOneNext(ctx context.Context) (sport.RaceResult, error)
}

// Handler serves the sport use-case family.
type Handler struct {
	session *agent.Session
	soccer  SoccerService
	formula FormulaService
	logger  logging.Logger
	funcs   map[string]func(context.Context, intent.Match) error

	// gameAnnouncedOn is the local date of the last proactive kickoff
	// announcement.
	gameAnnouncedOn string
}

// New builds the sport handler.
func New(session *agent.Session, soccer SoccerService, formula FormulaService, logger logging.Logger) *Handler {
	h := &Handler{
		session: session,
		soccer:  soccer,
		formula: formula,
		logger:  logging.OrNop(logger),
	}
	h.funcs = map[string]func(context.Context, intent.Match) error{
		"standings":  h.standings,
		"fixtures":   h.fixtures,
		"live":       h.live,
		"formulaOne": h.formulaOne,
		"teamGame":   h.teamGame,
	}
	return h
}

// Trigger dispatches to the matched function key.
func (h *Handler) Trigger(ctx context.Context, match intent.Match) error {
	fn, ok := h.funcs[match.Function]
	if !ok {
		return agent.ErrUnimplemented
	}
	return fn(ctx, match)
}

// CheckProactivity announces the favorite team's kickoff, once per day.
func (h *Handler) CheckProactivity(ctx context.Context) error {
	teamID, ok := favoriteTeamID(h.session.Profile.Favorites.Team)
	if !ok || h.soccer == nil {
		return agent.ErrUnimplemented
	}
	today := h.session.Now().Format("2006-01-02")
	if h.gameAnnouncedOn == today {
		return nil
	}
	game, err := h.soccer.TeamGameToday(ctx, teamID)
	if errors.Is(err, apierr.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("team game lookup: %w", err)
	}
	h.gameAnnouncedOn = today
	h.session.Voice.Say(fmt.Sprintf(
		"By the way, %s plays against %s today at %s.",
		game.HomeTeam, game.AwayTeam, game.Kickoff.Format("3:04 PM")))
	return nil
}

func favoriteTeamID(name string) (int, bool) {
	id, ok := teamIDs[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

func (h *Handler) standings(ctx context.Context, _ intent.Match) error {
	selected, ok := h.chooseLeague(ctx)
	if !ok {
		return nil
	}
	table, err := h.soccer.Standings(ctx, selected.code)
	if h.speakOnError(err, "the league table") {
		return nil
	}
	if len(table) == 0 {
		h.session.Voice.Say(fmt.Sprintf("There is no table for the %s right now.", selected.name))
		return nil
	}
	top := table
	if len(top) > 3 {
		top = top[:3]
	}
	h.session.Voice.Say(fmt.Sprintf("The top of the %s:", selected.name))
	for _, row := range top {
		h.session.Voice.Say(fmt.Sprintf("%d. %s with %d points.", row.Position, row.Team, row.Points))
	}
	h.speakFavoritePosition(table)
	return nil
}

// speakFavoritePosition adds the favorite team's row when it is in the
// table but not already read out.
func (h *Handler) speakFavoritePosition(table []sport.Standing) {
	favorite := strings.ToLower(h.session.Profile.Favorites.Team)
	if favorite == "" {
		return
	}
	for _, row := range table {
		if strings.ToLower(row.Team) == favorite && row.Position > 3 {
			h.session.Voice.Say(fmt.Sprintf(
				"Your team %s is %d. with %d points.", row.Team, row.Position, row.Points))
			return
		}
	}
}

func (h *Handler) fixtures(ctx context.Context, _ intent.Match) error {
	selected, ok := h.chooseLeague(ctx)
	if !ok {
		return nil
	}
	matchday, err := h.session.Voice.AskInt(ctx, "Which matchday?", 1, 38)
	if err != nil {
		h.session.Voice.Say("Alright, never mind.")
		return nil
	}
	matches, err := h.soccer.MatchdayMatches(ctx, selected.code, matchday)
	if h.speakOnError(err, "the fixtures") {
		return nil
	}
	if len(matches) == 0 {
		h.session.Voice.Say(fmt.Sprintf("I found no games for matchday %d.", matchday))
		return nil
	}
	h.session.Voice.Say(fmt.Sprintf("Matchday %d of the %s:", matchday, selected.name))
	for _, match := range matches {
		h.session.Voice.Say(describeMatch(match))
	}
	return nil
}

func (h *Handler) live(ctx context.Context, _ intent.Match) error {
	selected, ok := h.chooseLeague(ctx)
	if !ok {
		return nil
	}
	matches, err := h.soccer.OngoingMatches(ctx, selected.code)
	if h.speakOnError(err, "the live scores") {
		return nil
	}
	if len(matches) == 0 {
		h.session.Voice.Say(fmt.Sprintf("No game is running in the %s right now.", selected.name))
		return nil
	}
	for _, match := range matches {
		h.session.Voice.Say(describeMatch(match))
	}
	return nil
}

// formulaOne reads the next race date, or the last classification when the
// utterance asks for results.
func (h *Handler) formulaOne(ctx context.Context, match intent.Match) error {
	wantsLast := strings.Contains(match.Utterance, "last") || strings.Contains(match.Utterance, "result")
	if wantsLast {
		race, err := h.formula.FormulaOneLast(ctx)
		if h.speakOnError(err, "the formula one results") {
			return nil
		}
		h.session.Voice.Say(fmt.Sprintf("The last race was the %s.", race.Race))
		for i, driver := range race.Podium {
			h.session.Voice.Say(fmt.Sprintf("%d. %s.", i+1, driver))
		}
		return nil
	}
	race, err := h.formula.FormulaOneNext(ctx)
	if h.speakOnError(err, "the formula one calendar") {
		return nil
	}
	h.session.Voice.Say(fmt.Sprintf(
		"The next race is the %s on %s.", race.Race, race.Date.Format("Monday, January 2")))
	return nil
}

// teamGame answers whether the favorite team plays today.
func (h *Handler) teamGame(ctx context.Context, _ intent.Match) error {
	teamID, ok := favoriteTeamID(h.session.Profile.Favorites.Team)
	if !ok {
		h.session.Voice.Say("I do not know your favorite team yet.")
		return nil
	}
	game, err := h.soccer.TeamGameToday(ctx, teamID)
	if errors.Is(err, apierr.ErrNotFound) {
		h.session.Voice.Say(fmt.Sprintf("%s does not play today.", h.session.Profile.Favorites.Team))
		return nil
	}
	if h.speakOnError(err, "the game schedule") {
		return nil
	}
	h.session.Voice.Say(fmt.Sprintf(
		"%s plays against %s today at %s.",
		game.HomeTeam, game.AwayTeam, game.Kickoff.Format("3:04 PM")))
	return nil
}

// chooseLeague reads a menu selection. When the favorite league is on the
// menu it is offered first and a plain confirmation accepts it.
func (h *Handler) chooseLeague(ctx context.Context) (league, bool) {
	if favorite, ok := h.favoriteLeague(); ok {
		h.session.Voice.Say(fmt.Sprintf("The %s as usual?", favorite.name))
		if h.session.Voice.Confirm(ctx) {
			return favorite, true
		}
	}
	var prompt strings.Builder
	prompt.WriteString("Which league?")
	for i, entry := range leagues {
		prompt.WriteString(fmt.Sprintf(" %d: %s,", i+1, entry.name))
	}
	text := strings.TrimSuffix(prompt.String(), ",") + "."
	choice, err := h.session.Voice.AskInt(ctx, text, 1, len(leagues))
	if err != nil {
		h.session.Voice.Say("Alright, never mind.")
		return league{}, false
	}
	return leagues[choice-1], true
}

func (h *Handler) favoriteLeague() (league, bool) {
	favorite := strings.ToLower(h.session.Profile.Favorites.League)
	for _, entry := range leagues {
		if strings.ToLower(entry.name) == favorite || strings.ToLower(entry.code) == favorite {
			return entry, true
		}
	}
	return league{}, false
}

// speakOnError reports err with a single sentence and tells the caller to
// yield. A reached API limit is not treated as a failure.
func (h *Handler) speakOnError(err error, topic string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, apierr.ErrQuotaExceeded) || errors.Is(err, apierr.ErrRateLimited) {
		h.session.Voice.Say("I have reached the limit of the sports service for today.")
		return true
	}
	h.logger.Warn("sport lookup: %v", err)
	h.session.Voice.Say(fmt.Sprintf("Sorry, I could not fetch %s.", topic))
	return true
}

func describeMatch(match sport.Match) string {
	switch match.Status {
	case "FINISHED", "IN_PLAY", "PAUSED":
		return fmt.Sprintf("%s %d, %s %d.", match.HomeTeam, match.HomeGoals, match.AwayTeam, match.AwayGoals)
	default:
		return fmt.Sprintf("%s against %s on %s.", match.HomeTeam, match.AwayTeam, match.Kickoff.Format("Monday at 3:04 PM"))
	}
}
