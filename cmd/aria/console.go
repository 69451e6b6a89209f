package main

import (
	"bufio"
	"context"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"aria/internal/voice"
)

var (
	promptColor = color.New(color.FgGreen, color.Bold)
	ariaColor   = color.New(color.FgCyan)
	heardColor  = color.New(color.FgHiBlack)
)

// console is the text-mode conversation: utterances come from stdin and
// replies are printed instead of synthesized.
type console struct {
	in *bufio.Scanner
}

func newConsole() *console {
	return &console{in: bufio.NewScanner(os.Stdin)}
}

func (c *console) Listen(ctx context.Context, _ time.Duration) (string, error) {
	promptColor.Print("you> ")
	type scanned struct {
		line string
		ok   bool
	}
	lines := make(chan scanned, 1)
	go func() {
		ok := c.in.Scan()
		lines <- scanned{line: c.in.Text(), ok: ok}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case s := <-lines:
		if !s.ok {
			return "", voice.ErrSilenceTimeout
		}
		return strings.TrimSpace(s.line), nil
	}
}

func (c *console) Say(text string) {
	ariaColor.Printf("aria> %s\n", text)
}

// echo forwards to the real microphone and speaker while mirroring the
// conversation on the terminal.
type echo struct {
	recognizer voice.Recognizer
	speaker    voice.Speaker
}

func newEcho(recognizer voice.Recognizer, speaker voice.Speaker) *echo {
	return &echo{recognizer: recognizer, speaker: speaker}
}

func (e *echo) Listen(ctx context.Context, timeout time.Duration) (string, error) {
	utterance, err := e.recognizer.Listen(ctx, timeout)
	if err == nil && utterance != "" {
		heardColor.Printf("you> %s\n", utterance)
	}
	return utterance, err
}

func (e *echo) Say(text string) {
	ariaColor.Printf("aria> %s\n", text)
	e.speaker.Say(text)
}
