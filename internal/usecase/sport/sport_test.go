package sport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aria/internal/agent"
	"aria/internal/api/sport"
	"aria/internal/apierr"
	"aria/internal/intent"
	"aria/internal/profile"
	"aria/internal/voice"
)

type fakeSoccer struct {
	standings []sport.Standing
	matches   []sport.Match
	game      sport.Match
	gameErr   error
	err       error

	standingsFor string
	matchdayAsk  int
	gameCalls    int
}

func (f *fakeSoccer) Standings(_ context.Context, competition string) ([]sport.Standing, error) {
	f.standingsFor = competition
	return f.standings, f.err
}

func (f *fakeSoccer) MatchdayMatches(_ context.Context, _ string, matchday int) ([]sport.Match, error) {
	f.matchdayAsk = matchday
	return f.matches, f.err
}

func (f *fakeSoccer) OngoingMatches(context.Context, string) ([]sport.Match, error) {
	return f.matches, f.err
}

func (f *fakeSoccer) TeamGameToday(context.Context, int) (sport.Match, error) {
	f.gameCalls++
	return f.game, f.gameErr
}

type fakeFormula struct {
	last sport.RaceResult
	next sport.RaceResult
	err  error
}

func (f *fakeFormula) FormulaOneLast(context.Context) (sport.RaceResult, error) {
	return f.last, f.err
}

func (f *fakeFormula) FormulaOneNext(context.Context) (sport.RaceResult, error) {
	return f.next, f.err
}

func newTestSession(script *voice.Script, favoriteLeague, favoriteTeam string) *agent.Session {
	p := &profile.Profile{
		Name:    "Lena",
		Address: profile.Address{City: "Stuttgart"},
		Favorites: profile.Favorites{
			League: favoriteLeague,
			Team:   favoriteTeam,
		},
	}
	session := agent.NewSession(nil, p, voice.ScriptedIO(script))
	session.Now = func() time.Time {
		return time.Date(2026, 3, 21, 12, 0, 0, 0, time.UTC)
	}
	return session
}

func sampleTable() []sport.Standing {
	return []sport.Standing{
		{Position: 1, Team: "Bayern Munich", Points: 70},
		{Position: 2, Team: "Borussia Dortmund", Points: 62},
		{Position: 3, Team: "RB Leipzig", Points: 58},
		{Position: 8, Team: "VfB Stuttgart", Points: 41},
	}
}

func TestStandingsWithMenuSelection(t *testing.T) {
	script := voice.NewScript("2")
	soccer := &fakeSoccer{standings: sampleTable()}
	handler := New(newTestSession(script, "", ""), soccer, &fakeFormula{}, nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "standings"}))

	assert.Equal(t, "PL", soccer.standingsFor)
	assert.True(t, script.SaidContaining("Which league?"))
	assert.True(t, script.SaidContaining("Bayern Munich with 70 points"))
}

func TestStandingsFavoriteLeagueShortcut(t *testing.T) {
	script := voice.NewScript("yes")
	soccer := &fakeSoccer{standings: sampleTable()}
	handler := New(newTestSession(script, "Bundesliga", "VfB Stuttgart"), soccer, &fakeFormula{}, nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "standings"}))

	assert.Equal(t, "BL1", soccer.standingsFor)
	assert.True(t, script.SaidContaining("as usual"))
	assert.True(t, script.SaidContaining("Your team VfB Stuttgart is 8."))
}

func TestFixturesAskForMatchday(t *testing.T) {
	script := voice.NewScript("1", "27")
	soccer := &fakeSoccer{matches: []sport.Match{{
		HomeTeam: "VfB Stuttgart",
		AwayTeam: "Bayern Munich",
		Status:   "SCHEDULED",
		Kickoff:  time.Date(2026, 3, 28, 15, 30, 0, 0, time.UTC),
	}}}
	handler := New(newTestSession(script, "", ""), soccer, &fakeFormula{}, nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "fixtures"}))

	assert.Equal(t, 27, soccer.matchdayAsk)
	assert.True(t, script.SaidContaining("VfB Stuttgart against Bayern Munich"))
}

func TestLiveScores(t *testing.T) {
	script := voice.NewScript("1")
	soccer := &fakeSoccer{matches: []sport.Match{{
		HomeTeam: "VfB Stuttgart", AwayTeam: "Chelsea",
		HomeGoals: 2, AwayGoals: 1, Status: "IN_PLAY",
	}}}
	handler := New(newTestSession(script, "", ""), soccer, &fakeFormula{}, nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "live"}))
	assert.True(t, script.SaidContaining("VfB Stuttgart 2, Chelsea 1"))
}

func TestFormulaOneNextAndLast(t *testing.T) {
	script := voice.NewScript()
	formula := &fakeFormula{
		next: sport.RaceResult{Race: "Monaco Grand Prix", Date: time.Date(2026, 5, 24, 15, 0, 0, 0, time.UTC)},
		last: sport.RaceResult{Race: "Spanish Grand Prix", Podium: []string{"Verstappen", "Norris", "Leclerc"}},
	}
	handler := New(newTestSession(script, "", ""), &fakeSoccer{}, formula, nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{
		Function: "formulaOne", Utterance: "when is the next formula one race",
	}))
	assert.True(t, script.SaidContaining("Monaco Grand Prix"))

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{
		Function: "formulaOne", Utterance: "how did the last formula one race go",
	}))
	assert.True(t, script.SaidContaining("Spanish Grand Prix"))
	assert.True(t, script.SaidContaining("1. Verstappen"))
}

func TestQuotaExceededIsOneSentence(t *testing.T) {
	script := voice.NewScript("1")
	soccer := &fakeSoccer{err: apierr.ErrQuotaExceeded}
	handler := New(newTestSession(script, "", ""), soccer, &fakeFormula{}, nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "standings"}))
	assert.True(t, script.SaidContaining("limit of the sports service"))
	assert.False(t, script.SaidContaining("could not fetch"))
}

func TestTeamGameToday(t *testing.T) {
	script := voice.NewScript()
	soccer := &fakeSoccer{game: sport.Match{
		HomeTeam: "VfB Stuttgart", AwayTeam: "Arsenal",
		Kickoff: time.Date(2026, 3, 21, 18, 30, 0, 0, time.UTC),
	}}
	handler := New(newTestSession(script, "", "VfB Stuttgart"), soccer, &fakeFormula{}, nil)

	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "teamGame"}))
	assert.True(t, script.SaidContaining("plays against Arsenal today at 6:30 PM"))

	script = voice.NewScript()
	soccer = &fakeSoccer{gameErr: apierr.ErrNotFound}
	handler = New(newTestSession(script, "", "VfB Stuttgart"), soccer, &fakeFormula{}, nil)
	require.NoError(t, handler.Trigger(context.Background(), intent.Match{Function: "teamGame"}))
	assert.True(t, script.SaidContaining("does not play today"))
}

func TestProactiveKickoffAnnouncedOncePerDay(t *testing.T) {
	script := voice.NewScript()
	soccer := &fakeSoccer{game: sport.Match{
		HomeTeam: "VfB Stuttgart", AwayTeam: "Arsenal",
		Kickoff: time.Date(2026, 3, 21, 18, 30, 0, 0, time.UTC),
	}}
	handler := New(newTestSession(script, "", "VfB Stuttgart"), soccer, &fakeFormula{}, nil)

	require.NoError(t, handler.CheckProactivity(context.Background()))
	assert.True(t, script.SaidContaining("plays against Arsenal"))

	before := len(script.Spoken)
	require.NoError(t, handler.CheckProactivity(context.Background()))
	assert.Equal(t, before, len(script.Spoken))
	assert.Equal(t, 1, soccer.gameCalls)
}

func TestProactivityWithoutKnownTeamIsUnimplemented(t *testing.T) {
	handler := New(newTestSession(voice.NewScript(), "", ""), &fakeSoccer{}, &fakeFormula{}, nil)
	require.ErrorIs(t, handler.CheckProactivity(context.Background()), agent.ErrUnimplemented)
}

func TestUnknownFunctionIsUnimplemented(t *testing.T) {
	handler := New(newTestSession(voice.NewScript(), "", ""), &fakeSoccer{}, &fakeFormula{}, nil)
	err := handler.Trigger(context.Background(), intent.Match{Function: "darts"})
	require.ErrorIs(t, err, agent.ErrUnimplemented)
}
