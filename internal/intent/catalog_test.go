package intent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "general": {
    "time": ["  What TIME is it ", "the current time"],
    "joke": ["tell me a joke"]
  },
  "sport": {
    "standings": ["show me the standings"]
  }
}`

func TestParseLowercasesAndTrims(t *testing.T) {
	catalog, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	entries := catalog.Entries()
	require.Len(t, entries, 4)
	for _, entry := range entries {
		assert.Equal(t, entry.Phrase, trimLower(entry.Phrase), "phrase %q not normalized", entry.Phrase)
	}
	assert.Equal(t, Entry{UseCase: "general", Function: "joke", Phrase: "tell me a joke"}, entries[0])
	assert.Equal(t, Entry{UseCase: "general", Function: "time", Phrase: "what time is it"}, entries[1])
	assert.Equal(t, Entry{UseCase: "general", Function: "time", Phrase: "the current time"}, entries[2])
	assert.Equal(t, Entry{UseCase: "sport", Function: "standings", Phrase: "show me the standings"}, entries[3])
}

func trimLower(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

func TestLoadTwiceYieldsEqualCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))

	first, err := Load(path)
	require.NoError(t, err)
	second, err := Load(path)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestParseRejections(t *testing.T) {
	cases := map[string]string{
		"not json":         `{"general": `,
		"empty document":   `{}`,
		"unknown use case": `{"kitchen": {"toast": ["make toast"]}}`,
		"empty phrases":    `{"general": {"time": []}}`,
		"blank phrase":     `{"general": {"time": ["   "]}}`,
		"duplicate triple": `{"general": {"time": ["what time is it", "What Time Is It"]}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestUseCases(t *testing.T) {
	catalog, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{TagGeneral, TagSport}, catalog.UseCases())
}

func TestEntriesIsACopy(t *testing.T) {
	catalog, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	entries := catalog.Entries()
	entries[0].Phrase = "mutated"
	assert.NotEqual(t, "mutated", catalog.Entries()[0].Phrase)
}
