package voice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmVariants(t *testing.T) {
	for _, word := range []string{"yes", "Yeah", "YEP", "sure", "ok"} {
		io := ScriptedIO(NewScript(word))
		assert.True(t, io.Confirm(context.Background()), "word %q", word)
	}
	for _, word := range []string{"no", "nope", "yes please", ""} {
		io := ScriptedIO(NewScript(word))
		assert.False(t, io.Confirm(context.Background()), "word %q", word)
	}
}

func TestConfirmDeclinesOnSilence(t *testing.T) {
	io := ScriptedIO(NewScript())
	assert.False(t, io.Confirm(context.Background()))
}

func TestAskIntRetriesOnInvalidInput(t *testing.T) {
	script := NewScript("banana", "7", "2")
	io := ScriptedIO(script)

	n, err := io.AskInt(context.Background(), "Pick one.", 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, script.SaidContaining("number between 1 and 3"))
}

func TestAskIntFailsWhenScriptRunsOut(t *testing.T) {
	io := ScriptedIO(NewScript("nonsense"))
	_, err := io.AskInt(context.Background(), "Pick one.", 1, 3)
	require.ErrorIs(t, err, ErrSilenceTimeout)
}

func TestListenTrimsUtterance(t *testing.T) {
	io := ScriptedIO(NewScript("  what time is it  "))
	utterance, err := io.Listen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "what time is it", utterance)
}

func TestSayIgnoresEmptyText(t *testing.T) {
	script := NewScript()
	io := ScriptedIO(script)
	io.Say("")
	assert.Empty(t, script.Spoken)
}

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]float32, sampleRate) // one second
	data := encodeWAV(pcm)
	require.Equal(t, 44+sampleRate*2, len(data))
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "data", string(data[36:40]))
}
