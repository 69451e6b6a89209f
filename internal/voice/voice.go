// Package voice defines the speech-in/speech-out capabilities handlers talk
// to. Handlers never import a recognition or playback library directly; they
// receive these interfaces through the session, which keeps them testable
// with scripted conversations.
package voice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"aria/internal/logging"
)

var (
	// ErrSilenceTimeout reports that nothing was heard within the listen
	// timeout.
	ErrSilenceTimeout = errors.New("silence timeout")
	// ErrRecognitionFailed reports that audio was captured but the
	// recognition service could not produce a transcript.
	ErrRecognitionFailed = errors.New("recognition failed")
)

// Recognizer converts microphone audio into text.
type Recognizer interface {
	// Listen blocks until an utterance is recognized or timeout elapses.
	Listen(ctx context.Context, timeout time.Duration) (string, error)
}

// Speaker renders text as speech. Implementations serialize re-entrant
// calls; errors are logged, never propagated.
type Speaker interface {
	Say(text string)
}

// confirmWords are the lexical yes-variants accepted by Confirm.
var confirmWords = []string{"yes", "yeah", "yep", "sure", "ok"}

// IO bundles the conversational primitives the agent loop and handlers use.
type IO struct {
	recognizer Recognizer
	speaker    Speaker
	logger     logging.Logger
	timeout    time.Duration

	mu sync.Mutex
}

// NewIO builds the conversational bundle. timeout bounds every Listen call.
func NewIO(recognizer Recognizer, speaker Speaker, timeout time.Duration, logger logging.Logger) *IO {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &IO{
		recognizer: recognizer,
		speaker:    speaker,
		logger:     logging.OrNop(logger),
		timeout:    timeout,
	}
}

// Say speaks text. Concurrent calls are serialized so overlapping speech
// never reaches the non-reentrant synthesis backend.
func (io *IO) Say(text string) {
	if text == "" {
		return
	}
	io.mu.Lock()
	defer io.mu.Unlock()
	io.logger.Debug("say: %s", text)
	io.speaker.Say(text)
}

// Listen returns one recognized utterance.
func (io *IO) Listen(ctx context.Context) (string, error) {
	utterance, err := io.recognizer.Listen(ctx, io.timeout)
	if err != nil {
		return "", err
	}
	io.logger.Debug("heard: %s", utterance)
	return strings.TrimSpace(utterance), nil
}

// Confirm reads one utterance and reports whether it lexically matches a
// yes-variant. Recognition failures count as a decline.
func (io *IO) Confirm(ctx context.Context) bool {
	utterance, err := io.Listen(ctx)
	if err != nil {
		return false
	}
	utterance = strings.ToLower(utterance)
	for _, word := range confirmWords {
		if utterance == word {
			return true
		}
	}
	return false
}

// AskInt prompts for an integer in [lo, hi], retrying on invalid input until
// the user answers or recognition fails.
func (io *IO) AskInt(ctx context.Context, prompt string, lo, hi int) (int, error) {
	io.Say(prompt)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		utterance, err := io.Listen(ctx)
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(utterance))
		if convErr != nil || n < lo || n > hi {
			io.Say(fmt.Sprintf("Please answer with a number between %d and %d.", lo, hi))
			continue
		}
		return n, nil
	}
}
