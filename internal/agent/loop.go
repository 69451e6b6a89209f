package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aria/internal/config"
	"aria/internal/intent"
	"aria/internal/logging"
	"aria/internal/voice"
)

// Loop is the single-threaded cooperative driver: it greets, polls
// proactivity at the top of each iteration, listens, matches and dispatches.
// It is the ultimate recovery point; no handler error escapes it.
type Loop struct {
	session  *Session
	registry *Registry
	cfg      config.Runtime
	logger   logging.Logger
}

// NewLoop wires the loop. It fails when the registry does not cover the
// catalog's use-case tags exactly.
func NewLoop(session *Session, registry *Registry, cfg config.Runtime, logger logging.Logger) (*Loop, error) {
	if err := registry.ValidateAgainst(session.Catalog); err != nil {
		return nil, fmt.Errorf("handler registry mismatch: %w", err)
	}
	return &Loop{
		session:  session,
		registry: registry,
		cfg:      cfg,
		logger:   logging.OrNop(logger),
	}, nil
}

// Run drives the assistant until a confirmed exit or context cancellation.
func (l *Loop) Run(ctx context.Context) error {
	l.greet()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Tick(ctx)

		utterance, err := l.session.Voice.Listen(ctx)
		if err != nil || utterance == "" {
			if err != nil && !errors.Is(err, voice.ErrSilenceTimeout) && !errors.Is(err, voice.ErrRecognitionFailed) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				l.logger.Error("listen failed: %v", err)
			}
			l.session.Voice.Say("Sorry, I did not catch that. Please try again.")
			continue
		}

		if err := l.Dispatch(ctx, utterance); err != nil {
			if errors.Is(err, ErrExit) {
				l.session.Voice.Say(fmt.Sprintf("Goodbye, %s.", l.session.Profile.Name))
				return nil
			}
			// The loop never propagates handler failures.
			l.logger.Error("dispatch failed: %v", err)
		}
	}
}

// Tick polls the proactivity families whose interval elapsed. It runs at
// most once per tick interval, and per-family timestamps advance only after
// the corresponding check completes.
func (l *Loop) Tick(ctx context.Context) {
	now := l.session.Now()
	if now.Sub(l.session.Ledger.LastTick()) < l.cfg.TickInterval {
		return
	}
	l.session.Ledger.SetLastTick(now)

	for _, family := range proactiveFamilies {
		if now.Sub(l.session.Ledger.Last(family)) < l.cfg.FamilyInterval {
			continue
		}
		handler, err := l.registry.Get(family)
		if err != nil {
			l.logger.Warn("proactivity: %v", err)
			continue
		}
		err = handler.CheckProactivity(ctx)
		switch {
		case errors.Is(err, ErrUnimplemented):
			// Skipped without a timestamp update.
			l.logger.Debug("proactivity not implemented for %s", family)
		case err != nil:
			l.logger.Error("proactivity check for %s failed: %v", family, err)
			l.session.Ledger.Touch(family, l.session.Now())
		default:
			l.session.Ledger.Touch(family, l.session.Now())
		}
	}
}

// Dispatch matches one utterance and routes it to its handler.
func (l *Loop) Dispatch(ctx context.Context, utterance string) error {
	utterance = strings.ToLower(utterance)
	result, err := l.session.Catalog.Match(utterance, l.cfg.MatchThreshold)
	if err != nil {
		return fmt.Errorf("matching %q: %w", utterance, err)
	}

	var match intent.Match
	switch result.Kind {
	case intent.Miss:
		l.logger.Info("no intent for %q", utterance)
		l.session.Voice.Say("Sorry, I did not understand that.")
		return nil
	case intent.Ambiguous:
		resolved, ok := l.disambiguate(ctx, utterance, result.Candidates)
		if !ok {
			return nil
		}
		match = resolved
	default:
		match = result.Match
	}

	l.logger.Info("dispatching %q to %s.%s (similarity %.2f)",
		utterance, match.UseCase, match.Function, match.Similarity)

	handler, err := l.registry.Get(Family(match.UseCase))
	if err != nil {
		return err
	}
	if err := handler.Trigger(ctx, match); err != nil {
		if errors.Is(err, ErrUnimplemented) {
			l.session.Voice.Say("Sorry, that is not implemented yet.")
			return nil
		}
		return err
	}
	return nil
}

// disambiguate presents the tied candidates and reads back a selection.
func (l *Loop) disambiguate(ctx context.Context, utterance string, candidates []intent.Candidate) (intent.Match, bool) {
	var options strings.Builder
	options.WriteString("I am not sure what you meant. Did you mean")
	for i, candidate := range candidates {
		options.WriteString(fmt.Sprintf(" %d: %s,", i+1, candidate.Entry.Phrase))
	}
	prompt := strings.TrimSuffix(options.String(), ",") + "? Please answer with the number."

	choice, err := l.session.Voice.AskInt(ctx, prompt, 1, len(candidates))
	if err != nil {
		l.logger.Warn("disambiguation aborted: %v", err)
		l.session.Voice.Say("Sorry, let us try again.")
		return intent.Match{}, false
	}
	return candidates[choice-1].Resolve(utterance), true
}

// greet opens the session with a time-of-day greeting.
func (l *Loop) greet() {
	hour := l.session.Now().Hour()
	var opening string
	switch {
	case hour < 12:
		opening = "Good morning"
	case hour < 18:
		opening = "Good afternoon"
	default:
		opening = "Good evening"
	}
	l.session.Voice.Say(fmt.Sprintf("%s, %s. How can I help you?", opening, l.session.Profile.Name))
}
