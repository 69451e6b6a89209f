// Package general answers smalltalk: the current time, who the assistant
// is, jokes, a timed listening pause and the confirmed exit.
package general

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"aria/internal/agent"
	"aria/internal/intent"
	"aria/internal/logging"
)

// jokes is the fixed rotation spoken by the joke function.
var jokes = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"I told my computer I needed a break, and it said: no problem, I will go to sleep.",
	"There are only 10 kinds of people: those who understand binary and those who do not.",
	"Why did the developer go broke? Because they used up all their cache.",
}

// maxPauseSeconds bounds the "stop listening" pause.
const maxPauseSeconds = 600

// Handler serves the general use-case family.
type Handler struct {
	session *agent.Session
	logger  logging.Logger
	funcs   map[string]func(context.Context, intent.Match) error

	jokeIndex int
}

// New builds the general handler.
func New(session *agent.Session, logger logging.Logger) *Handler {
	h := &Handler{
		session: session,
		logger:  logging.OrNop(logger),
	}
	h.funcs = map[string]func(context.Context, intent.Match) error{
		"time":     h.tellTime,
		"identity": h.identity,
		"joke":     h.joke,
		"sleep":    h.pause,
		"exit":     h.exit,
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

// CheckProactivity is a no-op; smalltalk has nothing to volunteer.
func (h *Handler) CheckProactivity(context.Context) error {
	return agent.ErrUnimplemented
}

func (h *Handler) tellTime(context.Context, intent.Match) error {
	now := h.session.Now()
	h.session.Voice.Say(fmt.Sprintf("It is %s.", now.Format("3:04 PM")))
	return nil
}

func (h *Handler) identity(context.Context, intent.Match) error {
	h.session.Voice.Say(fmt.Sprintf(
		"I am Aria, your personal assistant. Nice to meet you, %s.", h.session.Profile.Name))
	return nil
}

func (h *Handler) joke(context.Context, intent.Match) error {
	h.session.Voice.Say(jokes[h.jokeIndex%len(jokes)])
	h.jokeIndex++
	return nil
}

// pause stops listening for the number of seconds named in the utterance.
// When the utterance carries no usable number the duration is asked back.
func (h *Handler) pause(ctx context.Context, match intent.Match) error {
	seconds, ok := trailingInt(match.Utterance)
	if !ok || seconds <= 0 || seconds > maxPauseSeconds {
		asked, err := h.session.Voice.AskInt(ctx,
			"For how many seconds should I stop listening?", 1, maxPauseSeconds)
		if err != nil {
			h.session.Voice.Say("Never mind, I am still listening.")
			return nil
		}
		seconds = asked
	}
	h.session.Voice.Say(fmt.Sprintf("Alright, I will be back in %d seconds.", seconds))
	h.session.Sleep(time.Duration(seconds) * time.Second)
	h.session.Voice.Say("I am listening again.")
	return nil
}

// exit terminates the session, but only after a spoken confirmation.
func (h *Handler) exit(ctx context.Context, _ intent.Match) error {
	h.session.Voice.Say("Do you really want me to stop?")
	if !h.session.Voice.Confirm(ctx) {
		h.session.Voice.Say("Alright, I will keep listening.")
		return nil
	}
	return agent.ErrExit
}

// trailingInt extracts the last standalone integer in the utterance.
func trailingInt(utterance string) (int, bool) {
	fields := strings.Fields(utterance)
	for i := len(fields) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(strings.Trim(fields[i], ".,!?")); err == nil {
			return n, true
		}
	}
	return 0, false
}
