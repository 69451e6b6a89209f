package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"

	"aria/internal/logging"
)

// DefaultSynthesisURL is the text-to-speech endpoint used when none is
// configured.
const DefaultSynthesisURL = "https://translate.google.com/translate_tts"

// HTTPSpeaker synthesizes text through an external TTS endpoint and plays
// the returned MP3. Failures are logged, never propagated; a broken speaker
// must not take the assistant down.
type HTTPSpeaker struct {
	http     *http.Client
	baseURL  string
	language string
	logger   logging.Logger

	initOnce sync.Once
	initErr  error
}

// NewHTTPSpeaker builds a speaker for the given language ("en" style codes).
// An empty baseURL selects DefaultSynthesisURL.
func NewHTTPSpeaker(client *http.Client, baseURL, language string, logger logging.Logger) *HTTPSpeaker {
	if baseURL == "" {
		baseURL = DefaultSynthesisURL
	}
	return &HTTPSpeaker{
		http:     client,
		baseURL:  baseURL,
		language: language,
		logger:   logging.OrNop(logger),
	}
}

// Say synthesizes and plays text. Serialization against concurrent callers
// happens in voice.IO; this method only has to survive failures.
func (s *HTTPSpeaker) Say(text string) {
	if text == "" {
		return
	}
	audio, err := s.synthesize(text)
	if err != nil {
		s.logger.Error("synthesis failed: %v", err)
		return
	}
	if err := s.play(audio); err != nil {
		s.logger.Error("playback failed: %v", err)
	}
}

func (s *HTTPSpeaker) synthesize(text string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := url.Values{
		"ie":     {"UTF-8"},
		"client": {"tw-ob"},
		"tl":     {s.language},
		"q":      {text},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *HTTPSpeaker) play(audio []byte) error {
	streamer, format, err := mp3.Decode(nopReadCloser{bytes.NewReader(audio)})
	if err != nil {
		return fmt.Errorf("decoding mp3: %w", err)
	}
	defer streamer.Close()

	s.initOnce.Do(func() {
		s.initErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if s.initErr != nil {
		return fmt.Errorf("initializing speaker: %w", s.initErr)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(streamer, beep.Callback(func() {
		close(done)
	})))
	<-done
	return nil
}

type nopReadCloser struct {
	io.Reader
}

func (nopReadCloser) Close() error { return nil }
