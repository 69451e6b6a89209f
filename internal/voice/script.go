package voice

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Script is an in-memory Recognizer/Speaker pair driven by a canned list of
// utterances. It backs conversation tests the same way a recorded session
// would: each Listen pops the next line, each Say is appended to the
// transcript.
type Script struct {
	mu     sync.Mutex
	lines  []string
	Spoken []string
}

// NewScript returns a Script that will answer Listen calls with lines in
// order. Once exhausted, Listen reports ErrSilenceTimeout.
func NewScript(lines ...string) *Script {
	return &Script{lines: lines}
}

// Listen pops the next scripted utterance.
func (s *Script) Listen(_ context.Context, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.lines) == 0 {
		return "", ErrSilenceTimeout
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

// Say records the spoken text.
func (s *Script) Say(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Spoken = append(s.Spoken, text)
}

// SaidContaining reports whether any spoken line contains substr,
// case-insensitively.
func (s *Script) SaidContaining(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(substr)
	for _, line := range s.Spoken {
		if strings.Contains(strings.ToLower(line), needle) {
			return true
		}
	}
	return false
}

// Transcript returns everything spoken so far joined with newlines.
func (s *Script) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.Spoken, "\n")
}

// ScriptedIO builds a ready-to-use IO on top of a Script.
func ScriptedIO(script *Script) *IO {
	return NewIO(script, script, time.Second, nil)
}
